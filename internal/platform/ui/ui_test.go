package ui

import (
	"math/big"
	"testing"
	"time"

	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
)

func TestFormatDelay(t *testing.T) {
	cases := map[time.Duration]string{
		0:                             "00 H 00 M 00 S",
		90 * time.Second:              "00 H 01 M 30 S",
		25*time.Hour + 61*time.Second: "25 H 01 M 01 S",
		1500 * time.Millisecond:       "00 H 00 M 02 S",
	}
	for in, want := range cases {
		if got := FormatDelay(in); got != want {
			t.Fatalf("FormatDelay(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatBalances(t *testing.T) {
	wallet := model.WalletBalance{Balances: []model.TokenBalance{
		{Network: "BNB Smart Chain", Symbol: "BNB", Balance: *big.NewInt(1), BalanceStr: "0.5"},
	}}
	if got := formatBalances(wallet); got != "\n- BNB Smart Chain : 0.5 BNB" {
		t.Fatalf("formatBalances = %q", got)
	}
	if formatBalances(model.WalletBalance{}) != "" {
		t.Fatal("empty wallet renders nothing")
	}
}

func TestUpdateStatusWithoutUI(t *testing.T) {
	// must not panic before StartUISystem
	UpdateStatus(model.Session{AccIdx: 7}, "idle", time.Second)
	SetSpinnerSuccess(model.Session{AccIdx: 7}, "done")
}
