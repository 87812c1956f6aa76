package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
	"math/big"
	"net/http"
)

type Provider struct {
	client  *ethclient.Client
	key     *ecdsa.PrivateKey
	address common.Address
	chainId *big.Int
}

func (p *Provider) Address() common.Address {
	return p.address
}

func (p *Provider) ChainId() *big.Int {
	return new(big.Int).Set(p.chainId)
}

func (p *Provider) Backend() Backend {
	return p.client
}

func (p *Provider) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(p.key, p.chainId)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx

	return opts, nil
}

// SignHash signs a 32 byte digest and returns the signature with v in {27, 28}.
func (p *Provider) SignHash(hash []byte) ([]byte, error) {
	sig, err := crypto.Sign(hash, p.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}

func (p *Provider) Close() {
	p.client.Close()
}

type ProviderFactory struct {
	path       accounts.DerivationPath
	httpClient *http.Client
}

func NewProviderFactory(derivationPath string, httpClient *http.Client) (*ProviderFactory, error) {
	path, err := accounts.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path %q: %w", derivationPath, err)
	}

	return &ProviderFactory{path: path, httpClient: httpClient}, nil
}

// NewProvider derives the wallet from the mnemonic and connects it to the
// node configured for the network. The caller owns the returned Signer and
// must Close it.
func (f *ProviderFactory) NewProvider(ctx context.Context, mnemonic string, network config.Network) (Signer, error) {
	key, err := DeriveKey(mnemonic, f.path)
	if err != nil {
		return nil, err
	}

	client, err := Dial(ctx, network.RpcUrl, f.httpClient)
	if err != nil {
		return nil, fmt.Errorf("dial %s node: %w", network.Name, err)
	}

	chainId, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%s node unreachable: %w", network.Name, err)
	}
	if chainId.Int64() != network.ChainId {
		client.Close()
		return nil, fmt.Errorf("%s node reports chain id %s, expected %d", network.Name, chainId, network.ChainId)
	}

	address := crypto.PubkeyToAddress(key.PublicKey)
	zap.L().With(zap.String("address", address.Hex()), zap.String("network", network.Name)).Debug("Provider ready")

	return &Provider{client: client, key: key, address: address, chainId: chainId}, nil
}
