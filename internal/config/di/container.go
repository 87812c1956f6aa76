package di

import (
	"github.com/ZilDuck/opensea-trader/internal/api"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/trade"
	sarulabs "github.com/sarulabs/di/v2"
)

type Container struct {
	ctn sarulabs.Container
}

func NewContainer(cfg *config.Config) (*Container, error) {
	builder, err := sarulabs.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(Definitions(cfg)...); err != nil {
		return nil, err
	}

	return &Container{ctn: builder.Build()}, nil
}

func (c *Container) GetTradeService() (trade.Service, error) {
	obj, err := c.ctn.SafeGet("trade.service")
	if err != nil {
		return nil, err
	}

	return obj.(trade.Service), nil
}

func (c *Container) GetServer() (api.Server, error) {
	obj, err := c.ctn.SafeGet("api.server")
	if err != nil {
		return api.Server{}, err
	}

	return obj.(api.Server), nil
}

func (c *Container) Delete() error {
	return c.ctn.Delete()
}
