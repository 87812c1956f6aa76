package eth

import (
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"math/big"
	"strings"
)

const Decimals = 18

// ToWei converts an ether amount to wei, dropping anything below one wei.
func ToWei(ether decimal.Decimal) *big.Int {
	return ether.Shift(Decimals).BigInt()
}

func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -Decimals)
}

// TruncateWei parses a wei amount as returned by marketplace APIs, which may
// carry a fractional part, and keeps its integer part.
func TruncateWei(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.New("empty amount")
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("negative amount %q", amount)
	}

	return d.BigInt(), nil
}

func FormatEther(wei *big.Int) string {
	return FromWei(wei).String()
}
