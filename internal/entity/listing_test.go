package entity

import (
	"testing"
)

func TestListingRequest_Parse(t *testing.T) {
	req := ListingRequest{Seller: "0xA", TokenAddress: "0xB", TokenId: "5", StartAmount: "1.5"}

	tokenId, amount, err := req.Parse()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokenId.Int64() != 5 {
		t.Errorf("expected token 5, got %s", tokenId)
	}
	if amount.String() != "1.5" {
		t.Errorf("expected 1.5, got %s", amount)
	}
}

func TestListingRequest_ParseRejectsBadInput(t *testing.T) {
	cases := []ListingRequest{
		{Seller: "0xA", TokenAddress: "0xB", TokenId: "-1", StartAmount: "1"},
		{Seller: "0xA", TokenAddress: "0xB", TokenId: "five", StartAmount: "1"},
		{Seller: "0xA", TokenAddress: "0xB", TokenId: "5", StartAmount: "-0.1"},
		{Seller: "0xA", TokenAddress: "0xB", TokenId: "5", StartAmount: "lots"},
		{TokenAddress: "0xB", TokenId: "5", StartAmount: "1"},
	}

	for _, req := range cases {
		if _, _, err := req.Parse(); err == nil {
			t.Errorf("expected error for %+v", req)
		}
	}
}

func TestFulfillmentRequest_Parse(t *testing.T) {
	if _, err := (FulfillmentRequest{Buyer: "0xA", TokenAddress: "0xB", TokenId: "5"}).Parse(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := (FulfillmentRequest{TokenAddress: "0xB", TokenId: "5"}).Parse(); err == nil {
		t.Errorf("expected missing buyer to fail")
	}
}

func TestSlug(t *testing.T) {
	req := ListingRequest{TokenId: "5", TokenAddress: "0xAbC"}
	if got := req.Slug(); got != "nft-5-0xabc" {
		t.Errorf("unexpected slug %s", got)
	}
}

func TestOrder_PriceTruncates(t *testing.T) {
	price, err := Order{CurrentPrice: "1000000000000000000.75"}.Price()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.String() != "1000000000000000000" {
		t.Errorf("expected truncated price, got %s", price)
	}
}
