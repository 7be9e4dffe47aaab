package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adshao/go-binance/v2"
)

// Binance withdraws funds from a Binance spot account.
type Binance struct {
	client *binance.Client
}

func NewBinance(apiKey, apiSecret, baseURL string) *Binance {
	client := binance.NewClient(strings.TrimSpace(apiKey), strings.TrimSpace(apiSecret))
	if baseURL != "" {
		client.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Binance{client: client}
}

// Withdraw requests a withdrawal and returns the exchange's withdrawal id.
func (b *Binance) Withdraw(ctx context.Context, coin, amount, address, network string) (string, error) {
	if amount == "" || address == "" {
		return "", errors.New("withdraw amount and address are required")
	}
	res, err := b.client.NewCreateWithdrawService().
		Coin(coin).
		Network(network).
		Address(address).
		Amount(amount).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("binance withdraw %s %s: %w", amount, coin, err)
	}
	return res.ID, nil
}
