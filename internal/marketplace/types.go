package marketplace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/entity"
	"math/big"
	"strconv"
	"strings"
)

// Number is a uint256 written as a decimal string. It reads decimal strings,
// hex strings and bare JSON numbers.
type Number struct {
	v *big.Int
}

func NewNumber(v *big.Int) Number {
	return Number{v: new(big.Int).Set(v)}
}

func NumberOf(v int64) Number {
	return Number{v: big.NewInt(v)}
}

func (n Number) Big() *big.Int {
	if n.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.v)
}

func (n Number) String() string {
	return n.Big().String()
}

func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *Number) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		n.v = new(big.Int)
		return nil
	}

	v, ok := new(big.Int), false
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, ok = v.SetString(s[2:], 16)
	} else {
		v, ok = v.SetString(s, 10)
	}
	if !ok {
		return fmt.Errorf("invalid number %s", b)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("negative number %s", b)
	}

	n.v = v
	return nil
}

// SmallInt is an enum value that some endpoints quote and others do not.
type SmallInt int

func (i *SmallInt) UnmarshalJSON(b []byte) error {
	v, err := strconv.Atoi(string(bytes.Trim(b, `"`)))
	if err != nil {
		return fmt.Errorf("invalid integer %s", b)
	}

	*i = SmallInt(v)
	return nil
}

// Amount keeps a price as text whether it was sent quoted or not.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}

	*a = Amount(bytes.Trim(b, `"`))
	return nil
}

type OfferItem struct {
	ItemType             SmallInt `json:"itemType"`
	Token                string   `json:"token"`
	IdentifierOrCriteria Number   `json:"identifierOrCriteria"`
	StartAmount          Number   `json:"startAmount"`
	EndAmount            Number   `json:"endAmount"`
}

type ConsiderationItem struct {
	ItemType             SmallInt `json:"itemType"`
	Token                string   `json:"token"`
	IdentifierOrCriteria Number   `json:"identifierOrCriteria"`
	StartAmount          Number   `json:"startAmount"`
	EndAmount            Number   `json:"endAmount"`
	Recipient            string   `json:"recipient"`
}

// OrderParameters covers both Seaport OrderComponents (signed, with counter)
// and OrderParameters (fulfilled, with the original consideration count).
type OrderParameters struct {
	Offerer                         string              `json:"offerer"`
	Zone                            string              `json:"zone"`
	Offer                           []OfferItem         `json:"offer"`
	Consideration                   []ConsiderationItem `json:"consideration"`
	OrderType                       SmallInt            `json:"orderType"`
	StartTime                       Number              `json:"startTime"`
	EndTime                         Number              `json:"endTime"`
	ZoneHash                        string              `json:"zoneHash"`
	Salt                            Number              `json:"salt"`
	ConduitKey                      string              `json:"conduitKey"`
	TotalOriginalConsiderationItems SmallInt            `json:"totalOriginalConsiderationItems"`
	Counter                         Number              `json:"counter"`
}

type SignedOrder struct {
	Parameters OrderParameters `json:"parameters"`
	Signature  string          `json:"signature"`
}

type apiOrder struct {
	CreatedDate     string `json:"created_date"`
	ListingTime     int64  `json:"listing_time"`
	ExpirationTime  int64  `json:"expiration_time"`
	OrderHash       string `json:"order_hash"`
	ProtocolAddress string `json:"protocol_address"`
	CurrentPrice    Amount `json:"current_price"`
	Side            string `json:"side"`
	Cancelled       bool   `json:"cancelled"`
	Finalized       bool   `json:"finalized"`
	MarkedInvalid   bool   `json:"marked_invalid"`
	Maker           struct {
		Address string `json:"address"`
	} `json:"maker"`
}

func (o apiOrder) toEntity() *entity.Order {
	return &entity.Order{
		Hash:            o.OrderHash,
		Side:            entity.Side(o.Side),
		Maker:           o.Maker.Address,
		ProtocolAddress: o.ProtocolAddress,
		CurrentPrice:    string(o.CurrentPrice),
		ListingTime:     o.ListingTime,
		ExpirationTime:  o.ExpirationTime,
	}
}

type postListingRequest struct {
	Parameters      OrderParameters `json:"parameters"`
	Signature       string          `json:"signature"`
	ProtocolAddress string          `json:"protocol_address"`
}

type postListingResponse struct {
	Order apiOrder `json:"order"`
}

type ordersResponse struct {
	Next   *string    `json:"next"`
	Orders []apiOrder `json:"orders"`
}

type fulfillmentRequest struct {
	Listing struct {
		Hash            string `json:"hash"`
		Chain           string `json:"chain"`
		ProtocolAddress string `json:"protocol_address"`
	} `json:"listing"`
	Fulfiller struct {
		Address string `json:"address"`
	} `json:"fulfiller"`
}

type fulfillmentResponse struct {
	Protocol        string `json:"protocol"`
	FulfillmentData struct {
		Transaction struct {
			Function string `json:"function"`
			Chain    int64  `json:"chain"`
			To       string `json:"to"`
			Value    Number `json:"value"`
		} `json:"transaction"`
		Orders []SignedOrder `json:"orders"`
	} `json:"fulfillment_data"`
}
