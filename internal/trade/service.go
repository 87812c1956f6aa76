package trade

import (
	"context"
	"crypto/subtle"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/entity"
	"github.com/ZilDuck/opensea-trader/internal/ethereum"
	"github.com/ZilDuck/opensea-trader/internal/log"
	"github.com/ZilDuck/opensea-trader/internal/marketplace"
	"github.com/ZilDuck/opensea-trader/internal/metrics"
	"github.com/ZilDuck/opensea-trader/internal/retry"
	"github.com/ZilDuck/opensea-trader/pkg/eth"
	"go.uber.org/zap"
	"math/big"
)

type Service interface {
	Sell(ctx context.Context, req entity.ListingRequest) (int64, error)
	Buy(ctx context.Context, req entity.FulfillmentRequest) (string, error)
}

type ProviderFactory interface {
	NewProvider(ctx context.Context, mnemonic string, network config.Network) (ethereum.Signer, error)
}

type MarketplaceFactory interface {
	MakeClient(signer ethereum.Signer, network config.Network) marketplace.Client
}

type Approver interface {
	EnsureApproved(ctx context.Context, network config.Network, tokenAddress, owner string, signer ethereum.Signer) error
}

type FundsChecker interface {
	HasSufficientFunds(ctx context.Context, address string, price *big.Int, signer ethereum.Signer) (bool, error)
}

type service struct {
	accessKey    string
	networks     config.Networks
	providers    ProviderFactory
	marketplaces MarketplaceFactory
	approver     Approver
	funds        FundsChecker
	sellRetry    config.RetryConfig
}

func NewService(
	cfg *config.Config,
	providers ProviderFactory,
	marketplaces MarketplaceFactory,
	approver Approver,
	funds FundsChecker,
) Service {
	return service{
		accessKey:    cfg.AccessKey,
		networks:     cfg.Networks,
		providers:    providers,
		marketplaces: marketplaces,
		approver:     approver,
		funds:        funds,
		sellRetry:    cfg.SellRetry,
	}
}

func (s service) authorize(password string) error {
	if s.accessKey == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.accessKey)) != 1 {
		return ErrUnauthorized
	}

	return nil
}

// connect builds the per request wallet and marketplace client. The caller
// closes the signer.
func (s service) connect(ctx context.Context, mnemonic string, network config.Network) (ethereum.Signer, marketplace.Client, error) {
	signer, err := s.providers.NewProvider(ctx, mnemonic, network)
	if err != nil {
		return nil, nil, err
	}

	client := s.marketplaces.MakeClient(signer, network)
	if client == nil {
		signer.Close()
		return nil, nil, config.ConfigurationError{Network: network.Name, Reason: "no marketplace for network"}
	}

	return signer, client, nil
}

// Sell lists a token and returns the expiration time of the created order.
func (s service) Sell(ctx context.Context, req entity.ListingRequest) (int64, error) {
	if err := s.authorize(req.Password); err != nil {
		return 0, err
	}

	network, err := s.networks.Get(req.Network)
	if err != nil {
		return 0, err
	}

	tokenId, amount, err := req.Parse()
	if err != nil {
		return 0, err
	}

	logger := log.FromContext(ctx).With(
		zap.String("address", req.Seller),
		zap.String("network", network.Name),
		zap.String("nft", req.Slug()),
	)

	signer, client, err := s.connect(ctx, req.Mnemonic, network)
	if err != nil {
		logger.With(zap.Error(err)).Error("Sell: Failed to connect")
		return 0, err
	}
	defer signer.Close()

	if err := s.approver.EnsureApproved(ctx, network, req.TokenAddress, req.Seller, signer); err != nil {
		logger.With(zap.Error(err)).Error("Sell: Approval failed")
		return 0, err
	}

	sellOrder := marketplace.SellOrder{
		Asset: marketplace.Asset{
			TokenId:      tokenId,
			TokenAddress: req.TokenAddress,
			SchemaName:   entity.SchemaErc721,
		},
		AccountAddress: req.Seller,
		StartAmount:    amount,
	}

	policy := retry.Policy{
		MaxAttempts: s.sellRetry.Attempts,
		Delay:       s.sellRetry.Delay,
		OnRetry: func(attempt int, err error) {
			logger.With(zap.Int("attempt", attempt), zap.Error(err)).Warn("Sell: Order creation failed, retrying")
		},
	}

	order, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (*entity.Order, error) {
		order, err := client.CreateSellOrder(ctx, sellOrder)
		if err != nil {
			metrics.OrderAttempts.WithLabelValues(network.Name, "failure").Inc()
			return nil, err
		}
		metrics.OrderAttempts.WithLabelValues(network.Name, "success").Inc()

		return order, nil
	})
	if err != nil && ctx.Err() != nil {
		logger.With(zap.Error(err)).Warn("Sell: Order creation cancelled")
		return 0, err
	}
	if err != nil {
		logger.With(zap.Error(err)).Error("Sell: Order creation failed")
		return 0, &RetriesExhaustedError{Attempts: policy.MaxAttempts, Err: err}
	}

	logger.With(zap.Int64("expirationTime", order.ExpirationTime)).Info("Sell: Listing created")

	return order.ExpirationTime, nil
}

// Buy fulfills the cheapest ask for a token and returns the transaction hash.
func (s service) Buy(ctx context.Context, req entity.FulfillmentRequest) (string, error) {
	if err := s.authorize(req.Password); err != nil {
		return "", err
	}

	network, err := s.networks.Get(req.Network)
	if err != nil {
		return "", err
	}

	tokenId, err := req.Parse()
	if err != nil {
		return "", err
	}

	logger := log.FromContext(ctx).With(
		zap.String("address", req.Buyer),
		zap.String("network", network.Name),
		zap.String("nft", req.Slug()),
	)

	signer, client, err := s.connect(ctx, req.Mnemonic, network)
	if err != nil {
		logger.With(zap.Error(err)).Error("Buy: Failed to connect")
		return "", err
	}
	defer signer.Close()

	order, err := client.GetOrder(ctx, marketplace.OrderQuery{
		Side:         entity.AskSide,
		TokenId:      tokenId,
		TokenAddress: req.TokenAddress,
		Protocol:     marketplace.ProtocolSeaport,
	})
	if err != nil {
		logger.With(zap.Error(err)).Error("Buy: Order lookup failed")
		return "", fmt.Errorf("get order: %w", err)
	}

	price, err := order.Price()
	if err != nil {
		return "", fmt.Errorf("order %s: %w", order.Hash, err)
	}

	ok, err := s.funds.HasSufficientFunds(ctx, req.Buyer, price, signer)
	if err != nil {
		logger.With(zap.Error(err)).Error("Buy: Balance check failed")
		return "", err
	}
	if !ok {
		fundsErr := &InsufficientFundsError{Buyer: req.Buyer, TokenId: tokenId.String(), Price: price.String()}
		logger.With(zap.String("price", price.String()), zap.String("priceEth", eth.FormatEther(price))).Warn("Buy: Insufficient funds")
		metrics.Fulfillments.WithLabelValues(network.Name, "insufficient_funds").Inc()
		return "", fundsErr
	}

	txHash, err := client.FulfillOrder(ctx, order, req.Buyer)
	if err != nil {
		logger.With(zap.Error(err)).Error("Buy: Fulfillment failed")
		metrics.Fulfillments.WithLabelValues(network.Name, "failure").Inc()
		return "", fmt.Errorf("fulfill order: %w", err)
	}
	metrics.Fulfillments.WithLabelValues(network.Name, "success").Inc()

	logger.With(zap.String("txHash", txHash)).Info("Buy: Order fulfilled")

	return txHash, nil
}
