package entity

import (
	"errors"
	"fmt"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"math/big"
	"strings"
)

const SchemaErc721 = "ERC721"

type ListingRequest struct {
	Password     string
	Mnemonic     string
	Network      string
	Seller       string
	TokenId      string
	TokenAddress string
	StartAmount  string
}

type FulfillmentRequest struct {
	Password     string
	Mnemonic     string
	Network      string
	Buyer        string
	TokenId      string
	TokenAddress string
}

func (r ListingRequest) Slug() string {
	return CreateListingSlug(r.TokenId, r.TokenAddress)
}

func (r FulfillmentRequest) Slug() string {
	return CreateListingSlug(r.TokenId, r.TokenAddress)
}

func CreateListingSlug(tokenId, tokenAddress string) string {
	return slug.Make(fmt.Sprintf("nft-%s-%s", tokenId, tokenAddress))
}

// Parse validates the wire fields and returns the token id and the starting
// price in ether.
func (r ListingRequest) Parse() (*big.Int, decimal.Decimal, error) {
	tokenId, err := ParseTokenId(r.TokenId)
	if err != nil {
		return nil, decimal.Zero, err
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(r.StartAmount))
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("invalid startAmount %q", r.StartAmount)
	}
	if amount.IsNegative() {
		return nil, decimal.Zero, fmt.Errorf("startAmount must not be negative")
	}

	if r.Seller == "" || r.TokenAddress == "" {
		return nil, decimal.Zero, errors.New("seller and tokenAddress are required")
	}

	return tokenId, amount, nil
}

func (r FulfillmentRequest) Parse() (*big.Int, error) {
	tokenId, err := ParseTokenId(r.TokenId)
	if err != nil {
		return nil, err
	}

	if r.Buyer == "" || r.TokenAddress == "" {
		return nil, errors.New("buyer and tokenAddress are required")
	}

	return tokenId, nil
}

func ParseTokenId(tokenId string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(strings.TrimSpace(tokenId), 10)
	if !ok {
		return nil, fmt.Errorf("invalid tokenId %q", tokenId)
	}
	if id.Sign() < 0 {
		return nil, fmt.Errorf("tokenId must not be negative")
	}

	return id, nil
}
