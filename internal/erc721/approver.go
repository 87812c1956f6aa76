package erc721

import (
	"context"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/ethereum"
	"github.com/ZilDuck/opensea-trader/internal/log"
	"github.com/ZilDuck/opensea-trader/internal/metrics"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"os"
)

var requiredMethods = []string{"isApprovedForAll", "setApprovalForAll"}

// LoadAbi reads the ERC-721 contract interface from disk.
func LoadAbi(path string) (abi.ABI, error) {
	f, err := os.Open(path)
	if err != nil {
		return abi.ABI{}, err
	}
	defer f.Close()

	contractAbi, err := abi.JSON(f)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, method := range requiredMethods {
		if _, ok := contractAbi.Methods[method]; !ok {
			return abi.ABI{}, fmt.Errorf("%s has no %s method", path, method)
		}
	}

	return contractAbi, nil
}

type tokenContract interface {
	IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error)
	SetApprovalForAll(ctx context.Context, operator common.Address) error
}

type Approver struct {
	bind func(token common.Address, signer ethereum.Signer) tokenContract
}

func NewApprover(contractAbi abi.ABI) *Approver {
	return &Approver{
		bind: func(token common.Address, signer ethereum.Signer) tokenContract {
			backend := signer.Backend()
			return boundToken{
				contract: bind.NewBoundContract(token, contractAbi, backend, backend, backend),
				signer:   signer,
			}
		},
	}
}

// EnsureApproved makes sure the marketplace operator of the network may move
// the owner's tokens of this contract. An approval is submitted and mined
// only when it is missing.
func (a *Approver) EnsureApproved(ctx context.Context, network config.Network, tokenAddress, owner string, signer ethereum.Signer) error {
	if !common.IsHexAddress(network.OperatorAddress) {
		return config.ConfigurationError{Network: network.Name, Reason: "no marketplace operator address"}
	}
	if !common.IsHexAddress(tokenAddress) {
		return fmt.Errorf("invalid token address %q", tokenAddress)
	}
	if !common.IsHexAddress(owner) {
		return fmt.Errorf("invalid owner address %q", owner)
	}

	operator := common.HexToAddress(network.OperatorAddress)
	contract := a.bind(common.HexToAddress(tokenAddress), signer)

	logger := log.FromContext(ctx).With(zap.String("address", owner), zap.String("network", network.Name))
	logger.With(zap.String("operator", operator.Hex())).Info("Checking approval")

	approved, err := contract.IsApprovedForAll(ctx, common.HexToAddress(owner), operator)
	if err != nil {
		return fmt.Errorf("isApprovedForAll: %w", err)
	}
	if approved {
		logger.Info("Token was approved. Proceeding...")
		return nil
	}

	logger.Info("Token wasn't approved. Approving...")
	metrics.Approvals.WithLabelValues(network.Name).Inc()
	if err := contract.SetApprovalForAll(ctx, operator); err != nil {
		return fmt.Errorf("setApprovalForAll: %w", err)
	}
	logger.Info("Approval done")

	return nil
}

type boundToken struct {
	contract *bind.BoundContract
	signer   ethereum.Signer
}

func (t boundToken) IsApprovedForAll(ctx context.Context, owner, operator common.Address) (bool, error) {
	var out []interface{}
	if err := t.contract.Call(&bind.CallOpts{Context: ctx}, &out, "isApprovedForAll", owner, operator); err != nil {
		return false, err
	}
	if len(out) != 1 {
		return false, fmt.Errorf("unexpected isApprovedForAll output %v", out)
	}

	approved, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isApprovedForAll output %T", out[0])
	}

	return approved, nil
}

func (t boundToken) SetApprovalForAll(ctx context.Context, operator common.Address) error {
	opts, err := t.signer.TransactOpts(ctx)
	if err != nil {
		return err
	}

	tx, err := t.contract.Transact(opts, "setApprovalForAll", operator, true)
	if err != nil {
		return err
	}

	receipt, err := bind.WaitMined(ctx, t.signer.Backend(), tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approval transaction %s reverted", tx.Hash().Hex())
	}

	return nil
}
