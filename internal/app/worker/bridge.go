package worker

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/chain"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
)

const (
	balanceAttempts = 5

	withdrawCoin    = "BNB"
	withdrawNetwork = "BSC"
	nativeDecimals  = 18
)

// BridgeToXterio sends a random amount of BNB from BNB Smart Chain to the same
// address on the Xterio chain.
func (w *XterioWorker) BridgeToXterio(ctx context.Context) error {
	if w.bsc == nil {
		return errors.New("BNB Smart Chain wallet not configured")
	}
	if !common.IsHexAddress(w.cfg.Bridge.Contract) {
		return fmt.Errorf("invalid bridge contract address %q", w.cfg.Bridge.Contract)
	}

	amount, value, err := utils.RandomAmount(w.cfg.Bridge.Amount[0], w.cfg.Bridge.Amount[1], 8, 18, nativeDecimals)
	if err != nil {
		return err
	}
	data, err := chain.PackBridgeETHTo(common.HexToAddress(w.bsc.Address()))
	if err != nil {
		return err
	}

	w.log.Log(fmt.Sprintf("Bridging %s BNB to Xterio chain", amount))
	hash, err := w.bsc.SendCall(ctx, common.HexToAddress(w.cfg.Bridge.Contract), data, value)
	if err != nil {
		return fmt.Errorf("failed to bridge BNB: %w", err)
	}
	w.log.Log(fmt.Sprintf("Successfully bridged %s BNB (%s)", amount, hash.Hex()))
	return nil
}

// WithdrawFromExchange tops the wallet up from the exchange when its BSC
// balance is below the configured minimum.
func (w *XterioWorker) WithdrawFromExchange(ctx context.Context) error {
	if w.bsc == nil || w.withdrawer == nil {
		return errors.New("exchange withdrawal not configured")
	}

	balance, err := w.checkBNBBalance(ctx)
	if err != nil {
		return err
	}
	minBalance, err := utils.ParseUnits(strconv.FormatFloat(w.cfg.Binance.MinBNBBalance, 'f', -1, 64), nativeDecimals)
	if err != nil {
		return fmt.Errorf("invalid min_bnb_balance: %w", err)
	}
	if balance.Cmp(minBalance) >= 0 {
		w.log.Log(fmt.Sprintf("BNB balance is enough (%s BNB)", utils.FormatUnits(balance, nativeDecimals)))
		return nil
	}

	amount, _, err := utils.RandomAmount(w.cfg.Binance.WithdrawAmount[0], w.cfg.Binance.WithdrawAmount[1], 4, 8, nativeDecimals)
	if err != nil {
		return err
	}
	id, err := w.withdrawer.Withdraw(ctx, withdrawCoin, amount, w.bsc.Address(), withdrawNetwork)
	if err != nil {
		return fmt.Errorf("failed to withdraw from exchange: %w", err)
	}
	w.log.Log(fmt.Sprintf("Withdrew %s BNB from exchange (id %s)", amount, id))
	return nil
}

func (w *XterioWorker) checkBNBBalance(ctx context.Context) (*big.Int, error) {
	var lastErr error
	for attempt := 1; attempt <= balanceAttempts; attempt++ {
		balance, err := w.bsc.Balance(ctx)
		if err == nil {
			return balance, nil
		}
		lastErr = err
		w.log.Log(fmt.Sprintf("Failed to get BNB balance (attempt %d/%d): %v", attempt, balanceAttempts, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, model.NewOpError(model.TransportFailure, "CheckBNBBalance", fmt.Errorf("failed to get BNB balance: %w", lastErr))
}
