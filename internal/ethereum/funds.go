package ethereum

import (
	"context"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"math/big"
)

type FundsChecker struct{}

func NewFundsChecker() FundsChecker {
	return FundsChecker{}
}

// HasSufficientFunds reports whether the native balance of address covers
// price. Both values are wei.
func (FundsChecker) HasSufficientFunds(ctx context.Context, address string, price *big.Int, signer Signer) (bool, error) {
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("invalid address %q", address)
	}

	balance, err := signer.Backend().BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return false, fmt.Errorf("get balance of %s: %w", address, err)
	}

	return balance.Cmp(price) >= 0, nil
}
