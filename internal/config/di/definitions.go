package di

import (
	"github.com/ZilDuck/opensea-trader/internal/api"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/erc721"
	"github.com/ZilDuck/opensea-trader/internal/ethereum"
	"github.com/ZilDuck/opensea-trader/internal/marketplace"
	"github.com/ZilDuck/opensea-trader/internal/trade"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/hashicorp/go-retryablehttp"
	sarulabs "github.com/sarulabs/di/v2"
	"go.uber.org/zap"
	"net/http"
)

func Definitions(cfg *config.Config) []sarulabs.Def {
	return []sarulabs.Def{
		{
			Name: "config",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return cfg, nil
			},
		},
		{
			Name: "erc721.abi",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				contractAbi, err := erc721.LoadAbi(cfg.Erc721AbiPath)
				if err != nil {
					zap.L().With(zap.Error(err), zap.String("path", cfg.Erc721AbiPath)).Error("Failed to load ERC721 ABI")
					return nil, err
				}

				return contractAbi, nil
			},
		},
		{
			Name: "rpc.http",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return ethereum.NewHttpClient(cfg.Rpc.Timeout, cfg.Rpc.Retries), nil
			},
			Close: func(obj interface{}) error {
				obj.(*http.Client).CloseIdleConnections()
				return nil
			},
		},
		{
			Name: "opensea.http",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return marketplace.NewHttpClient(cfg.OpenSea.Timeout, cfg.OpenSea.Retries), nil
			},
			Close: func(obj interface{}) error {
				obj.(*retryablehttp.Client).HTTPClient.CloseIdleConnections()
				return nil
			},
		},
		{
			Name: "provider.factory",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return ethereum.NewProviderFactory(cfg.DerivationPath, ctn.Get("rpc.http").(*http.Client))
			},
		},
		{
			Name: "approver",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return erc721.NewApprover(ctn.Get("erc721.abi").(abi.ABI)), nil
			},
		},
		{
			Name: "funds.checker",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return ethereum.NewFundsChecker(), nil
			},
		},
		{
			Name: "marketplace.factory",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return marketplace.NewFactory(cfg.Seaport, cfg.OpenSea.RateLimit, ctn.Get("opensea.http").(*retryablehttp.Client))
			},
		},
		{
			Name: "trade.service",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return trade.NewService(
					cfg,
					ctn.Get("provider.factory").(*ethereum.ProviderFactory),
					ctn.Get("marketplace.factory").(*marketplace.Factory),
					ctn.Get("approver").(*erc721.Approver),
					ctn.Get("funds.checker").(ethereum.FundsChecker),
				), nil
			},
		},
		{
			Name: "api.server",
			Build: func(ctn sarulabs.Container) (interface{}, error) {
				return api.NewServer(ctn.Get("trade.service").(trade.Service)), nil
			},
		},
	}
}
