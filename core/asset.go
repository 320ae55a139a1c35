package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const maxSymbolLength = 7

// Asset is a token quantity with a fixed precision, e.g. "1.0000 RSN"
type Asset struct {
	Amount    decimal.Decimal
	Precision int32
	Symbol    string
}

// ParseAsset parses "<amount> <SYMBOL>". The precision is the number of
// fractional digits written in amount.
func ParseAsset(s string) (Asset, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Asset{}, fmt.Errorf("%w: %q", ErrInvalidAsset, s)
	}

	amount, err := decimal.NewFromString(parts[0])
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	if amount.IsNegative() {
		return Asset{}, fmt.Errorf("%w: negative amount", ErrInvalidAsset)
	}

	symbol := parts[1]
	if len(symbol) == 0 || len(symbol) > maxSymbolLength {
		return Asset{}, fmt.Errorf("%w: bad symbol %q", ErrInvalidAsset, symbol)
	}
	for _, r := range symbol {
		if r < 'A' || r > 'Z' {
			return Asset{}, fmt.Errorf("%w: bad symbol %q", ErrInvalidAsset, symbol)
		}
	}

	var precision int32
	if i := strings.IndexByte(parts[0], '.'); i >= 0 {
		precision = int32(len(parts[0]) - i - 1)
	}

	return Asset{
		Amount:    amount,
		Precision: precision,
		Symbol:    symbol,
	}, nil
}

func (a Asset) String() string {
	return a.Amount.StringFixed(a.Precision) + " " + a.Symbol
}

type transferData struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

// NewTransferAction builds a token transfer authorized by from@active.
func NewTransferAction(contract, from, to string, quantity Asset, memo string) (Action, error) {
	data, err := json.Marshal(transferData{
		From:     from,
		To:       to,
		Quantity: quantity.String(),
		Memo:     memo,
	})
	if err != nil {
		return Action{}, fmt.Errorf("failed to encode transfer: %w", err)
	}

	return Action{
		Account:       contract,
		Name:          "transfer",
		Authorization: []PermissionLevel{{Actor: from, Permission: "active"}},
		Data:          data,
	}, nil
}
