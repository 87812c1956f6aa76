package entity

import (
	"github.com/ZilDuck/opensea-trader/pkg/eth"
	"math/big"
)

type Side string

const (
	AskSide Side = "ask"
	BidSide Side = "bid"
)

// Order is the part of a marketplace order this service reads.
type Order struct {
	Hash            string `json:"orderHash"`
	Side            Side   `json:"side"`
	Maker           string `json:"maker"`
	ProtocolAddress string `json:"protocolAddress"`
	CurrentPrice    string `json:"currentPrice"`
	ListingTime     int64  `json:"listingTime"`
	ExpirationTime  int64  `json:"expirationTime"`
}

// Price is the current price in wei, truncated to an integer.
func (o Order) Price() (*big.Int, error) {
	return eth.TruncateWei(o.CurrentPrice)
}
