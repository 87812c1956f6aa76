package marketplace

import (
	"context"
	"errors"
	"github.com/ZilDuck/opensea-trader/internal/entity"
	"github.com/shopspring/decimal"
	"math/big"
)

const ProtocolSeaport = "seaport"

var ErrOrderNotFound = errors.New("order not found")

// Client is bound to one wallet on one network.
type Client interface {
	CreateSellOrder(ctx context.Context, order SellOrder) (*entity.Order, error)
	GetOrder(ctx context.Context, query OrderQuery) (*entity.Order, error)
	FulfillOrder(ctx context.Context, order *entity.Order, accountAddress string) (string, error)
}

type Asset struct {
	TokenId      *big.Int
	TokenAddress string
	SchemaName   string
}

type SellOrder struct {
	Asset          Asset
	AccountAddress string
	StartAmount    decimal.Decimal
}

type OrderQuery struct {
	Side         entity.Side
	TokenId      *big.Int
	TokenAddress string
	Protocol     string
}
