package marketplace

import (
	"context"
	"crypto/rand"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/ethereum"
	"github.com/ZilDuck/opensea-trader/pkg/eth"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Seaport item and order types.
const (
	itemNative    = 0
	itemErc721    = 2
	orderFullOpen = 0
)

const seaportAbiJson = `[
  {"inputs":[{"name":"offerer","type":"address"}],"name":"getCounter","outputs":[{"name":"counter","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[
    {"components":[
      {"components":[
        {"name":"offerer","type":"address"},
        {"name":"zone","type":"address"},
        {"components":[
          {"name":"itemType","type":"uint8"},
          {"name":"token","type":"address"},
          {"name":"identifierOrCriteria","type":"uint256"},
          {"name":"startAmount","type":"uint256"},
          {"name":"endAmount","type":"uint256"}
        ],"name":"offer","type":"tuple[]"},
        {"components":[
          {"name":"itemType","type":"uint8"},
          {"name":"token","type":"address"},
          {"name":"identifierOrCriteria","type":"uint256"},
          {"name":"startAmount","type":"uint256"},
          {"name":"endAmount","type":"uint256"},
          {"name":"recipient","type":"address"}
        ],"name":"consideration","type":"tuple[]"},
        {"name":"orderType","type":"uint8"},
        {"name":"startTime","type":"uint256"},
        {"name":"endTime","type":"uint256"},
        {"name":"zoneHash","type":"bytes32"},
        {"name":"salt","type":"uint256"},
        {"name":"conduitKey","type":"bytes32"},
        {"name":"totalOriginalConsiderationItems","type":"uint256"}
      ],"name":"parameters","type":"tuple"},
      {"name":"signature","type":"bytes"}
    ],"name":"order","type":"tuple"},
    {"name":"fulfillerConduitKey","type":"bytes32"}
  ],"name":"fulfillOrder","outputs":[{"name":"fulfilled","type":"bool"}],"stateMutability":"payable","type":"function"}
]`

var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"OrderComponents": {
		{Name: "offerer", Type: "address"},
		{Name: "zone", Type: "address"},
		{Name: "offer", Type: "OfferItem[]"},
		{Name: "consideration", Type: "ConsiderationItem[]"},
		{Name: "orderType", Type: "uint8"},
		{Name: "startTime", Type: "uint256"},
		{Name: "endTime", Type: "uint256"},
		{Name: "zoneHash", Type: "bytes32"},
		{Name: "salt", Type: "uint256"},
		{Name: "conduitKey", Type: "bytes32"},
		{Name: "counter", Type: "uint256"},
	},
	"OfferItem": {
		{Name: "itemType", Type: "uint8"},
		{Name: "token", Type: "address"},
		{Name: "identifierOrCriteria", Type: "uint256"},
		{Name: "startAmount", Type: "uint256"},
		{Name: "endAmount", Type: "uint256"},
	},
	"ConsiderationItem": {
		{Name: "itemType", Type: "uint8"},
		{Name: "token", Type: "address"},
		{Name: "identifierOrCriteria", Type: "uint256"},
		{Name: "startAmount", Type: "uint256"},
		{Name: "endAmount", Type: "uint256"},
		{Name: "recipient", Type: "address"},
	},
}

func parseSeaportAbi() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(seaportAbiJson))
}

// Go mirrors of the Seaport tuples, field names follow the ABI.
type seaportOfferItem struct {
	ItemType             uint8
	Token                common.Address
	IdentifierOrCriteria *big.Int
	StartAmount          *big.Int
	EndAmount            *big.Int
}

type seaportConsiderationItem struct {
	ItemType             uint8
	Token                common.Address
	IdentifierOrCriteria *big.Int
	StartAmount          *big.Int
	EndAmount            *big.Int
	Recipient            common.Address
}

type seaportOrderParameters struct {
	Offerer                         common.Address
	Zone                            common.Address
	Offer                           []seaportOfferItem
	Consideration                   []seaportConsiderationItem
	OrderType                       uint8
	StartTime                       *big.Int
	EndTime                         *big.Int
	ZoneHash                        [32]byte
	Salt                            *big.Int
	ConduitKey                      [32]byte
	TotalOriginalConsiderationItems *big.Int
}

type seaportOrder struct {
	Parameters seaportOrderParameters
	Signature  []byte
}

// protocol is the on-chain side of the marketplace.
type protocol interface {
	Counter(ctx context.Context, offerer common.Address) (*big.Int, error)
	Fulfill(ctx context.Context, contract common.Address, order seaportOrder, value *big.Int) (string, error)
}

// seaportContract reads counters from the configured deployment and fulfills
// orders against whichever deployment the marketplace names.
type seaportContract struct {
	abi     abi.ABI
	address common.Address
	signer  ethereum.Signer
}

func (s seaportContract) bound(address common.Address) *bind.BoundContract {
	backend := s.signer.Backend()
	return bind.NewBoundContract(address, s.abi, backend, backend, backend)
}

func (s seaportContract) Counter(ctx context.Context, offerer common.Address) (*big.Int, error) {
	var out []interface{}
	if err := s.bound(s.address).Call(&bind.CallOpts{Context: ctx}, &out, "getCounter", offerer); err != nil {
		return nil, fmt.Errorf("getCounter: %w", err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("unexpected getCounter output %v", out)
	}

	counter, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getCounter output %T", out[0])
	}

	return counter, nil
}

func (s seaportContract) Fulfill(ctx context.Context, contract common.Address, order seaportOrder, value *big.Int) (string, error) {
	opts, err := s.signer.TransactOpts(ctx)
	if err != nil {
		return "", err
	}
	opts.Value = value

	tx, err := s.bound(contract).Transact(opts, "fulfillOrder", order, [32]byte{})
	if err != nil {
		return "", fmt.Errorf("fulfillOrder: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, s.signer.Backend(), tx)
	if err != nil {
		return "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return "", fmt.Errorf("fulfillment transaction %s reverted", tx.Hash().Hex())
	}

	return tx.Hash().Hex(), nil
}

type listingBuilder struct {
	cfg  config.SeaportConfig
	now  func() time.Time
	salt func() (*big.Int, error)
}

func randomSalt() (*big.Int, error) {
	return rand.Int(rand.Reader, math.MaxBig256)
}

// build lays out a Seaport listing: the token is offered, the seller receives
// the price minus the marketplace fee, the fee recipient receives the rest.
func (b listingBuilder) build(order SellOrder, counter *big.Int) (OrderParameters, error) {
	price := eth.ToWei(order.StartAmount)

	fee := new(big.Int).Mul(price, big.NewInt(int64(b.cfg.FeeBps)))
	fee.Quo(fee, big.NewInt(10000))
	sellerAmount := new(big.Int).Sub(price, fee)

	salt, err := b.salt()
	if err != nil {
		return OrderParameters{}, err
	}

	zero := common.Address{}.Hex()
	start := b.now()

	consideration := []ConsiderationItem{{
		ItemType:             itemNative,
		Token:                zero,
		IdentifierOrCriteria: NumberOf(0),
		StartAmount:          NewNumber(sellerAmount),
		EndAmount:            NewNumber(sellerAmount),
		Recipient:            common.HexToAddress(order.AccountAddress).Hex(),
	}}
	if fee.Sign() > 0 {
		consideration = append(consideration, ConsiderationItem{
			ItemType:             itemNative,
			Token:                zero,
			IdentifierOrCriteria: NumberOf(0),
			StartAmount:          NewNumber(fee),
			EndAmount:            NewNumber(fee),
			Recipient:            common.HexToAddress(b.cfg.FeeRecipient).Hex(),
		})
	}

	return OrderParameters{
		Offerer: common.HexToAddress(order.AccountAddress).Hex(),
		Zone:    zero,
		Offer: []OfferItem{{
			ItemType:             itemErc721,
			Token:                common.HexToAddress(order.Asset.TokenAddress).Hex(),
			IdentifierOrCriteria: NewNumber(order.Asset.TokenId),
			StartAmount:          NumberOf(1),
			EndAmount:            NumberOf(1),
		}},
		Consideration:                   consideration,
		OrderType:                       orderFullOpen,
		StartTime:                       NumberOf(start.Unix()),
		EndTime:                         NumberOf(start.Add(b.cfg.ListingDuration).Unix()),
		ZoneHash:                        common.Hash{}.Hex(),
		Salt:                            NewNumber(salt),
		ConduitKey:                      b.cfg.ConduitKey,
		TotalOriginalConsiderationItems: SmallInt(len(consideration)),
		Counter:                         NewNumber(counter),
	}, nil
}

func typedOrder(p OrderParameters, cfg config.SeaportConfig, chainId *big.Int) apitypes.TypedData {
	offer := make([]interface{}, 0, len(p.Offer))
	for _, item := range p.Offer {
		offer = append(offer, map[string]interface{}{
			"itemType":             strconv.Itoa(int(item.ItemType)),
			"token":                item.Token,
			"identifierOrCriteria": item.IdentifierOrCriteria.String(),
			"startAmount":          item.StartAmount.String(),
			"endAmount":            item.EndAmount.String(),
		})
	}

	consideration := make([]interface{}, 0, len(p.Consideration))
	for _, item := range p.Consideration {
		consideration = append(consideration, map[string]interface{}{
			"itemType":             strconv.Itoa(int(item.ItemType)),
			"token":                item.Token,
			"identifierOrCriteria": item.IdentifierOrCriteria.String(),
			"startAmount":          item.StartAmount.String(),
			"endAmount":            item.EndAmount.String(),
			"recipient":            item.Recipient,
		})
	}

	return apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "OrderComponents",
		Domain: apitypes.TypedDataDomain{
			Name:              "Seaport",
			Version:           cfg.Version,
			ChainId:           math.NewHexOrDecimal256(chainId.Int64()),
			VerifyingContract: common.HexToAddress(cfg.Address).Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"offerer":       p.Offerer,
			"zone":          p.Zone,
			"offer":         offer,
			"consideration": consideration,
			"orderType":     strconv.Itoa(int(p.OrderType)),
			"startTime":     p.StartTime.String(),
			"endTime":       p.EndTime.String(),
			"zoneHash":      p.ZoneHash,
			"salt":          p.Salt.String(),
			"conduitKey":    p.ConduitKey,
			"counter":       p.Counter.String(),
		},
	}
}

func signOrder(p OrderParameters, cfg config.SeaportConfig, signer ethereum.Signer) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedOrder(p, cfg, signer.ChainId()))
	if err != nil {
		return "", fmt.Errorf("hash order: %w", err)
	}

	sig, err := signer.SignHash(hash)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// toAbi converts a signed order from the API into the fulfillOrder argument.
func (o SignedOrder) toAbi() (seaportOrder, error) {
	p := o.Parameters

	signature, err := hexutil.Decode(o.Signature)
	if err != nil {
		return seaportOrder{}, fmt.Errorf("invalid signature: %w", err)
	}

	for _, addr := range []string{p.Offerer, p.Zone} {
		if !common.IsHexAddress(addr) {
			return seaportOrder{}, fmt.Errorf("invalid address %q", addr)
		}
	}

	offer := make([]seaportOfferItem, 0, len(p.Offer))
	for _, item := range p.Offer {
		offer = append(offer, seaportOfferItem{
			ItemType:             uint8(item.ItemType),
			Token:                common.HexToAddress(item.Token),
			IdentifierOrCriteria: item.IdentifierOrCriteria.Big(),
			StartAmount:          item.StartAmount.Big(),
			EndAmount:            item.EndAmount.Big(),
		})
	}

	consideration := make([]seaportConsiderationItem, 0, len(p.Consideration))
	for _, item := range p.Consideration {
		consideration = append(consideration, seaportConsiderationItem{
			ItemType:             uint8(item.ItemType),
			Token:                common.HexToAddress(item.Token),
			IdentifierOrCriteria: item.IdentifierOrCriteria.Big(),
			StartAmount:          item.StartAmount.Big(),
			EndAmount:            item.EndAmount.Big(),
			Recipient:            common.HexToAddress(item.Recipient),
		})
	}

	total := int64(p.TotalOriginalConsiderationItems)
	if total == 0 {
		total = int64(len(consideration))
	}

	return seaportOrder{
		Parameters: seaportOrderParameters{
			Offerer:                         common.HexToAddress(p.Offerer),
			Zone:                            common.HexToAddress(p.Zone),
			Offer:                           offer,
			Consideration:                   consideration,
			OrderType:                       uint8(p.OrderType),
			StartTime:                       p.StartTime.Big(),
			EndTime:                         p.EndTime.Big(),
			ZoneHash:                        common.HexToHash(p.ZoneHash),
			Salt:                            p.Salt.Big(),
			ConduitKey:                      common.HexToHash(p.ConduitKey),
			TotalOriginalConsiderationItems: big.NewInt(total),
		},
		Signature: signature,
	}, nil
}
