package ethereum

import (
	"context"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"math/big"
)

type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Signer is a wallet bound to one network for the lifetime of a request.
type Signer interface {
	Address() common.Address
	ChainId() *big.Int
	Backend() Backend
	TransactOpts(ctx context.Context) (*bind.TransactOpts, error)
	SignHash(hash []byte) ([]byte, error)
	Close()
}
