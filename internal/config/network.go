package config

import (
	"fmt"
	"strings"
)

type NetworkKind string

const (
	PrimaryNetwork NetworkKind = "primary"
	TestNetwork    NetworkKind = "test"
)

// Network is everything a request needs to know about the chain it targets.
type Network struct {
	Name              string
	ChainId           int64
	Chain             string
	Kind              NetworkKind
	RpcUrl            string
	OperatorAddress   string
	MarketplaceApi    string
	MarketplaceApiKey string
}

type Networks map[string]Network

type networkDef struct {
	chainId int64
	chain   string
	kind    NetworkKind
}

var knownNetworks = map[string]networkDef{
	"mainnet": {chainId: 1, chain: "ethereum", kind: PrimaryNetwork},
	"rinkeby": {chainId: 4, chain: "rinkeby", kind: TestNetwork},
	"sepolia": {chainId: 11155111, chain: "sepolia", kind: TestNetwork},
}

type ConfigurationError struct {
	Network string
	Reason  string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("network %q: %s", e.Network, e.Reason)
}

func (n Networks) Get(name string) (Network, error) {
	network, ok := n[name]
	if !ok {
		return Network{}, ConfigurationError{Network: name, Reason: "unknown network"}
	}

	return network, nil
}

func (n Network) IsPrimary() bool {
	return n.Kind == PrimaryNetwork
}

func (n Network) IsTest() bool {
	return n.Kind == TestNetwork
}

func buildNetworks(cfg *Config) Networks {
	networks := Networks{}
	for _, name := range cfg.NetworkNames {
		def, ok := knownNetworks[name]
		if !ok {
			continue
		}

		network := Network{
			Name:            name,
			ChainId:         def.chainId,
			Chain:           def.chain,
			Kind:            def.kind,
			RpcUrl:          rpcUrl(cfg.Rpc, name),
			OperatorAddress: getString(operatorKey(name), ""),
		}

		switch def.kind {
		case PrimaryNetwork:
			network.MarketplaceApi = cfg.OpenSea.ApiUrl
			network.MarketplaceApiKey = cfg.OpenSea.ApiKey
		case TestNetwork:
			network.MarketplaceApi = cfg.OpenSea.TestnetApiUrl
		}

		networks[name] = network
	}

	return networks
}

func rpcUrl(rpc RpcConfig, network string) string {
	switch strings.Count(rpc.Url, "%s") {
	case 0:
		return rpc.Url
	case 1:
		return fmt.Sprintf(rpc.Url, network)
	default:
		return fmt.Sprintf(rpc.Url, network, rpc.ApiKey)
	}
}

func operatorKey(network string) string {
	return strings.ToUpper(network) + "_OPENSEA_ADDRESS"
}

func primaryNetworkName() string {
	for name, def := range knownNetworks {
		if def.kind == PrimaryNetwork {
			return name
		}
	}

	return ""
}
