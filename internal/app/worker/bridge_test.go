package worker

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/chain"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
)

const testBridgeContract = "0x2e9E6e2F5C1bB2B1Fb7c2F6b8c3B8f1aE1d2c3D4"

func TestBridgeToXterio(t *testing.T) {
	rig := newRig()
	rig.cfg.Bridge.Contract = testBridgeContract
	rig.cfg.Bridge.Amount = [2]float64{0.001, 0.002}

	if err := rig.worker().BridgeToXterio(context.Background()); err != nil {
		t.Fatalf("BridgeToXterio: %v", err)
	}
	if len(rig.bsc.calls) != 1 || len(rig.wallet.calls) != 0 {
		t.Fatalf("bsc calls = %d xterio calls = %d", len(rig.bsc.calls), len(rig.wallet.calls))
	}
	call := rig.bsc.calls[0]
	if call.to != common.HexToAddress(testBridgeContract) {
		t.Fatalf("to = %s", call.to.Hex())
	}
	want, _ := chain.PackBridgeETHTo(common.HexToAddress(testAddress))
	if !bytes.Equal(call.data, want) {
		t.Fatal("bridge calldata mismatch")
	}
	low, high := big.NewInt(1_000_000_000_000_000), big.NewInt(2_000_000_000_000_000)
	if call.value.Cmp(low) < 0 || call.value.Cmp(high) > 0 {
		t.Fatalf("value %s outside configured range", call.value)
	}
}

func TestBridgeRequiresContract(t *testing.T) {
	rig := newRig()
	rig.cfg.Bridge.Contract = ""
	if err := rig.worker().BridgeToXterio(context.Background()); err == nil {
		t.Fatal("expected error without bridge contract")
	}
}

func TestWithdrawBelowMinimum(t *testing.T) {
	rig := newRig()
	rig.cfg.Binance.MinBNBBalance = 0.01
	rig.cfg.Binance.WithdrawAmount = [2]float64{0.02, 0.03}
	rig.bsc.balance = big.NewInt(5_000_000_000_000_000)
	withdrawer := &fakeWithdrawer{}

	if err := rig.worker(func(d *Deps) { d.Withdrawer = withdrawer }).WithdrawFromExchange(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(withdrawer.calls) != 1 {
		t.Fatalf("withdraw calls = %d", len(withdrawer.calls))
	}
	parts := strings.Split(withdrawer.calls[0], "|")
	if parts[0] != "BNB" || parts[2] != testAddress || parts[3] != "BSC" {
		t.Fatalf("withdraw = %v", parts)
	}
	amount, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || amount < 0.02 || amount > 0.03 {
		t.Fatalf("amount = %q", parts[1])
	}
}

func TestWithdrawSkippedWhenBalanceEnough(t *testing.T) {
	rig := newRig()
	rig.cfg.Binance.MinBNBBalance = 0.01
	rig.bsc.balance = big.NewInt(10_000_000_000_000_000)
	withdrawer := &fakeWithdrawer{}

	if err := rig.worker(func(d *Deps) { d.Withdrawer = withdrawer }).WithdrawFromExchange(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(withdrawer.calls) != 0 {
		t.Fatal("balance at the minimum must not trigger a withdrawal")
	}
}

func TestWithdrawBalanceExhaustion(t *testing.T) {
	rig := newRig()
	rig.bsc.balanceErr = errors.New("rpc down")
	withdrawer := &fakeWithdrawer{}

	err := rig.worker(func(d *Deps) { d.Withdrawer = withdrawer }).WithdrawFromExchange(context.Background())
	if model.KindOf(err) != model.TransportFailure {
		t.Fatalf("err = %v", err)
	}
	if rig.bsc.balanceN != balanceAttempts || len(withdrawer.calls) != 0 {
		t.Fatalf("balance attempts = %d withdraws = %d", rig.bsc.balanceN, len(withdrawer.calls))
	}
}
