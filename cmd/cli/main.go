package main

import (
	"context"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/config/di"
	"github.com/ZilDuck/opensea-trader/internal/entity"
	"github.com/ZilDuck/opensea-trader/internal/ethereum"
	"github.com/ZilDuck/opensea-trader/internal/trade"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
)

var (
	cfg    *config.Config
	trader trade.Service
)

func main() {
	cfg = config.Init()

	container, err := di.NewContainer(cfg)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer container.Delete()

	if trader, err = container.GetTradeService(); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build trade service")
	}

	mnemonicFlag := &cli.StringFlag{Name: "mnemonic", EnvVars: []string{"MNEMONIC"}, Required: true, Usage: "wallet mnemonic"}
	networkFlag := &cli.StringFlag{Name: "network", Value: "rinkeby", Usage: "network name"}
	tokenFlags := []cli.Flag{
		&cli.StringFlag{Name: "token-address", Required: true, Usage: "ERC721 contract address"},
		&cli.StringFlag{Name: "token-id", Required: true, Usage: "token id"},
	}

	app := &cli.App{
		Name:  "opensea-trader",
		Usage: "list and buy ERC721 tokens on OpenSea",
		Commands: []*cli.Command{
			{
				Name:   "sell",
				Usage:  "List a token for sale",
				Action: sell,
				Flags: append([]cli.Flag{
					mnemonicFlag,
					networkFlag,
					&cli.StringFlag{Name: "seller", Required: true, Usage: "seller address"},
					&cli.StringFlag{Name: "amount", Required: true, Usage: "price in ETH"},
				}, tokenFlags...),
			},
			{
				Name:   "buy",
				Usage:  "Buy the cheapest listing of a token",
				Action: buy,
				Flags: append([]cli.Flag{
					mnemonicFlag,
					networkFlag,
					&cli.StringFlag{Name: "buyer", Required: true, Usage: "buyer address"},
				}, tokenFlags...),
			},
			{
				Name:   "address",
				Usage:  "Print the wallet address derived from a mnemonic",
				Action: address,
				Flags:  []cli.Flag{mnemonicFlag},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Command failed")
	}
}

func sell(c *cli.Context) error {
	expirationTime, err := trader.Sell(context.Background(), entity.ListingRequest{
		Password:     cfg.AccessKey,
		Mnemonic:     c.String("mnemonic"),
		Network:      c.String("network"),
		Seller:       c.String("seller"),
		TokenId:      c.String("token-id"),
		TokenAddress: c.String("token-address"),
		StartAmount:  c.String("amount"),
	})
	if err != nil {
		return err
	}

	fmt.Println(expirationTime)
	return nil
}

func buy(c *cli.Context) error {
	txHash, err := trader.Buy(context.Background(), entity.FulfillmentRequest{
		Password:     cfg.AccessKey,
		Mnemonic:     c.String("mnemonic"),
		Network:      c.String("network"),
		Buyer:        c.String("buyer"),
		TokenId:      c.String("token-id"),
		TokenAddress: c.String("token-address"),
	})
	if err != nil {
		return err
	}

	fmt.Println(txHash)
	return nil
}

func address(c *cli.Context) error {
	path, err := accounts.ParseDerivationPath(cfg.DerivationPath)
	if err != nil {
		return err
	}

	key, err := ethereum.DeriveKey(c.String("mnemonic"), path)
	if err != nil {
		return err
	}

	fmt.Println(crypto.PubkeyToAddress(key.PublicKey).Hex())
	return nil
}
