package marketplace

import (
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
	"time"
)

// Factory hands out marketplace clients. The API throttle is shared by every
// client of the same network kind.
type Factory struct {
	seaport    config.SeaportConfig
	seaportAbi abi.ABI
	httpClient *retryablehttp.Client
	limiters   map[config.NetworkKind]*rate.Limiter
}

func NewFactory(cfg config.SeaportConfig, rateLimit float64, httpClient *retryablehttp.Client) (*Factory, error) {
	seaportAbi, err := parseSeaportAbi()
	if err != nil {
		return nil, err
	}

	return &Factory{
		seaport:    cfg,
		seaportAbi: seaportAbi,
		httpClient: httpClient,
		limiters: map[config.NetworkKind]*rate.Limiter{
			config.PrimaryNetwork: rate.NewLimiter(rate.Limit(rateLimit), 1),
			config.TestNetwork:    rate.NewLimiter(rate.Limit(rateLimit), 1),
		},
	}, nil
}

// MakeClient returns nil for networks that are neither primary nor test.
func (f *Factory) MakeClient(signer ethereum.Signer, network config.Network) Client {
	limiter, ok := f.limiters[network.Kind]
	if !ok {
		return nil
	}

	api := apiClient{
		baseUrl: network.MarketplaceApi,
		client:  f.httpClient,
		limiter: limiter,
	}
	if network.IsPrimary() {
		api.apiKey = network.MarketplaceApiKey
	}

	return openSea{
		api: api,
		protocol: seaportContract{
			abi:     f.seaportAbi,
			address: common.HexToAddress(f.seaport.Address),
			signer:  signer,
		},
		signer:  signer,
		network: network,
		seaport: f.seaport,
		builder: listingBuilder{cfg: f.seaport, now: time.Now, salt: randomSalt},
	}
}
