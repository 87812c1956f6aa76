package marketplace

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/entity"
	"github.com/ZilDuck/opensea-trader/internal/ethereum"
	"github.com/ZilDuck/opensea-trader/internal/log"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"net/url"
	"strings"
)

type openSea struct {
	api      apiClient
	protocol protocol
	signer   ethereum.Signer
	network  config.Network
	seaport  config.SeaportConfig
	builder  listingBuilder
}

func (c openSea) CreateSellOrder(ctx context.Context, order SellOrder) (*entity.Order, error) {
	if err := c.checkAccount(order.AccountAddress); err != nil {
		return nil, err
	}
	if order.Asset.SchemaName != "" && order.Asset.SchemaName != entity.SchemaErc721 {
		return nil, fmt.Errorf("unsupported asset schema %s", order.Asset.SchemaName)
	}
	if !common.IsHexAddress(order.Asset.TokenAddress) {
		return nil, fmt.Errorf("invalid token address %q", order.Asset.TokenAddress)
	}
	if order.Asset.TokenId == nil {
		return nil, errors.New("token id is required")
	}
	if !order.StartAmount.IsPositive() {
		return nil, fmt.Errorf("start amount must be positive, got %s", order.StartAmount)
	}

	counter, err := c.protocol.Counter(ctx, c.signer.Address())
	if err != nil {
		return nil, err
	}

	params, err := c.builder.build(order, counter)
	if err != nil {
		return nil, err
	}

	signature, err := signOrder(params, c.seaport, c.signer)
	if err != nil {
		return nil, err
	}

	req := postListingRequest{
		Parameters:      params,
		Signature:       signature,
		ProtocolAddress: common.HexToAddress(c.seaport.Address).Hex(),
	}

	var resp postListingResponse
	if err := c.api.post(ctx, c.ordersPath(entity.AskSide), req, &resp); err != nil {
		return nil, err
	}

	created := resp.Order.toEntity()
	if created.ExpirationTime == 0 {
		created.ExpirationTime = params.EndTime.Big().Int64()
	}

	log.FromContext(ctx).With(
		zap.String("network", c.network.Name),
		zap.String("orderHash", created.Hash),
	).Info("Marketplace: Listing created")

	return created, nil
}

func (c openSea) GetOrder(ctx context.Context, query OrderQuery) (*entity.Order, error) {
	if query.Protocol != "" && query.Protocol != ProtocolSeaport {
		return nil, fmt.Errorf("unsupported protocol %s", query.Protocol)
	}
	if query.TokenId == nil {
		return nil, errors.New("token id is required")
	}

	side := query.Side
	if side == "" {
		side = entity.AskSide
	}

	params := url.Values{}
	params.Set("asset_contract_address", query.TokenAddress)
	params.Set("token_ids", query.TokenId.String())
	params.Set("limit", "1")
	params.Set("order_by", "eth_price")
	params.Set("order_direction", "asc")

	var resp ordersResponse
	if err := c.api.get(ctx, c.ordersPath(side), params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Orders) == 0 {
		return nil, ErrOrderNotFound
	}

	order := resp.Orders[0].toEntity()
	if order.Side == "" {
		order.Side = side
	}

	return order, nil
}

func (c openSea) FulfillOrder(ctx context.Context, order *entity.Order, accountAddress string) (string, error) {
	if order == nil {
		return "", ErrOrderNotFound
	}
	if err := c.checkAccount(accountAddress); err != nil {
		return "", err
	}

	protocolAddress := order.ProtocolAddress
	if protocolAddress == "" {
		protocolAddress = c.seaport.Address
	}

	var req fulfillmentRequest
	req.Listing.Hash = order.Hash
	req.Listing.Chain = c.network.Chain
	req.Listing.ProtocolAddress = protocolAddress
	req.Fulfiller.Address = c.signer.Address().Hex()

	var resp fulfillmentResponse
	if err := c.api.post(ctx, "/api/v2/listings/fulfillment_data", req, &resp); err != nil {
		return "", err
	}

	tx := resp.FulfillmentData.Transaction
	if len(resp.FulfillmentData.Orders) == 0 {
		return "", fmt.Errorf("no fulfillment data for order %s", order.Hash)
	}
	if !common.IsHexAddress(tx.To) {
		return "", fmt.Errorf("invalid fulfillment target %q", tx.To)
	}

	signed, err := resp.FulfillmentData.Orders[0].toAbi()
	if err != nil {
		return "", err
	}

	hash, err := c.protocol.Fulfill(ctx, common.HexToAddress(tx.To), signed, tx.Value.Big())
	if err != nil {
		return "", err
	}

	log.FromContext(ctx).With(
		zap.String("network", c.network.Name),
		zap.String("orderHash", order.Hash),
		zap.String("txHash", hash),
	).Info("Marketplace: Order fulfilled")

	return hash, nil
}

func (c openSea) ordersPath(side entity.Side) string {
	kind := "listings"
	if side == entity.BidSide {
		kind = "offers"
	}

	return fmt.Sprintf("/api/v2/orders/%s/%s/%s", c.network.Chain, ProtocolSeaport, kind)
}

// checkAccount rejects orders for any wallet other than the signer's.
func (c openSea) checkAccount(address string) error {
	if !strings.EqualFold(address, c.signer.Address().Hex()) {
		return fmt.Errorf("account %s is not the wallet derived from the mnemonic (%s)", address, c.signer.Address().Hex())
	}

	return nil
}
