package model

import "math/big"

type TokenBalance struct {
	Network    string
	Symbol     string
	Balance    big.Int
	BalanceStr string
}

type WalletBalance struct {
	Balances []TokenBalance
}

// Set replaces the entry for network, keeping other networks' balances.
func (w *WalletBalance) Set(tb TokenBalance) {
	for i := range w.Balances {
		if w.Balances[i].Network == tb.Network {
			w.Balances[i] = tb
			return
		}
	}
	w.Balances = append(w.Balances, tb)
}
