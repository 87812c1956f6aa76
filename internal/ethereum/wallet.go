package ethereum

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
	"strings"
)

var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// DeriveKey turns a BIP-39 mnemonic into the private key at the given BIP-32
// path, the same account an HD wallet would show.
func DeriveKey(mnemonic string, path accounts.DerivationPath) (*ecdsa.PrivateKey, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	key, err := bip32.NewMasterKey(bip39.NewSeed(mnemonic, ""))
	if err != nil {
		return nil, err
	}

	for _, index := range path {
		if key, err = key.NewChildKey(index); err != nil {
			return nil, fmt.Errorf("derive %s: %w", path, err)
		}
	}

	return crypto.ToECDSA(key.Key)
}
