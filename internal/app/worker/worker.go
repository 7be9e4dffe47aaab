package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/captcha"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/chain"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/exchange"
	adhttp "github.com/ohmynofan/xterio-ai-bot/internal/adapters/http"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/llm"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/xterio"
	"github.com/ohmynofan/xterio-ai-bot/internal/config"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/logger"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/ui"
	"github.com/ohmynofan/xterio-ai-bot/internal/storage/runlog"
)

type Mode string

const (
	ModeRun         Mode = "run"
	ModeBridge      Mode = "bridge"
	ModeWithdraw    Mode = "withdraw"
	ModeInviteCodes Mode = "invite-codes"
)

const (
	errorRetryDelay = 60 * time.Second
	dailyCycleDelay = 24 * time.Hour
)

type Options struct {
	Mode  Mode
	Store *runlog.Store
	// OnInviteCode receives each collected invite code in ModeInviteCodes.
	OnInviteCode func(address, code string) error
}

// isFatal reports errors no retry can fix.
func isFatal(err error) bool {
	return model.KindOf(err) == model.InvalidSecret || errors.Is(err, captcha.ErrZeroBalance)
}

func handleError(ctx context.Context, session *model.Session, log *logger.ClassLogger, err error) (shouldStop bool) {
	if ctx.Err() != nil {
		return true
	}
	if isFatal(err) {
		log.Log(fmt.Sprintf("FATAL: %v. Worker for account %d will stop.", err, session.AccIdx+1))
		ui.SetSpinnerError(*session, fmt.Sprintf("Account %d stopped: %v", session.AccIdx+1, err))
		return true
	}
	if log.Wait(ctx, fmt.Sprintf("%v, Retrying after %s", err, errorRetryDelay), errorRetryDelay) != nil {
		return true
	}
	return false
}

// Run drives one account until ctx is cancelled. ModeRun repeats daily; the
// other modes execute once.
func Run(ctx context.Context, account config.Account, index int, cfg config.Config, opts Options) {
	session := &model.Session{
		Account:      account.PrivateKey,
		Proxy:        strings.TrimSpace(account.Proxy),
		AccIdx:       index,
		Address:      "-",
		SignInStatus: statusWaiting,
		TaskStatus:   statusWaiting,
		ChatStatus:   statusWaiting,
		ClaimStatus:  statusWaiting,
	}
	log := logger.NewNamed(fmt.Sprintf("Operation - Account %d", index+1), session)

	cycle := &dailyCycle{}
	for {
		err := runOnce(ctx, session, log, cfg, opts, cycle)
		if err != nil {
			if handleRunError(ctx, session, log, opts.Mode, err) {
				return
			}
			continue
		}

		if opts.Mode != ModeRun {
			ui.SetSpinnerSuccess(*session, fmt.Sprintf("Account %d: %s complete", index+1, opts.Mode))
			return
		}
		if log.Wait(ctx, "Account processing complete. Sleeping for 24 hours...", dailyCycleDelay) != nil {
			return
		}
		cycle = &dailyCycle{}
	}
}

// dailyCycle tracks the steps of one daily run that must not repeat when the
// run is retried.
type dailyCycle struct {
	fundingDone bool
}

// handleRunError decides whether the worker stops. Bridge and withdraw modes
// move funds, so any failure ends the invocation instead of resubmitting.
func handleRunError(ctx context.Context, session *model.Session, log *logger.ClassLogger, mode Mode, err error) (shouldStop bool) {
	if mode == ModeBridge || mode == ModeWithdraw {
		log.Log(fmt.Sprintf("%s failed: %v", mode, err))
		ui.SetSpinnerError(*session, fmt.Sprintf("Account %d: %s failed: %v", session.AccIdx+1, mode, err))
		return true
	}
	return handleError(ctx, session, log, err)
}

func runOnce(ctx context.Context, session *model.Session, log *logger.ClassLogger, cfg config.Config, opts Options, cycle *dailyCycle) error {
	w, cleanup, err := initAccount(ctx, session, log, cfg, opts.Mode)
	if err != nil {
		return err
	}
	defer cleanup()

	switch opts.Mode {
	case ModeBridge:
		return w.BridgeToXterio(ctx)
	case ModeWithdraw:
		return w.WithdrawFromExchange(ctx)
	case ModeInviteCodes:
		code, err := w.CollectInviteCode(ctx)
		if err != nil {
			return err
		}
		if opts.OnInviteCode != nil {
			return opts.OnInviteCode(session.Address, code)
		}
		return nil
	}

	return runDaily(ctx, w, session, log, cfg, opts.Store, cycle)
}

func runDaily(ctx context.Context, w *XterioWorker, session *model.Session, log *logger.ClassLogger, cfg config.Config, store *runlog.Store, cycle *dailyCycle) error {
	if !cycle.fundingDone {
		// Marked before running: a failed withdraw or bridge waits for the next cycle.
		cycle.fundingDone = true
		if cfg.Settings.WithdrawBeforeBridge {
			if err := w.WithdrawFromExchange(ctx); err != nil {
				log.Log(fmt.Sprintf("Withdraw skipped: %v", err))
			}
		}
		if cfg.Settings.BridgeBeforeTasks {
			if err := w.BridgeToXterio(ctx); err != nil {
				log.Log(fmt.Sprintf("Bridge skipped: %v", err))
			}
		}
	}

	if store != nil {
		if last, err := store.LastRun(session.Address); err != nil {
			log.Log(fmt.Sprintf("Warning: failed reading last run: %v", err))
		} else if last != nil {
			log.JustLog(fmt.Sprintf("Last run %s at %s: %d task(s), %d claim(s), %d failed claim(s)",
				last.Status, last.StartedAt.Format(time.RFC3339), last.Stats.TasksCompleted, last.Stats.ClaimsDone, last.Stats.ClaimsFailed))
		}
		if pending, err := store.UnreportedClaims(session.Address); err != nil {
			log.Log(fmt.Sprintf("Warning: failed checking run log: %v", err))
		} else if len(pending) > 0 {
			log.Log(fmt.Sprintf("%d mined claim(s) were never reported, the server will ask for them again", len(pending)))
		}
		runID, err := store.StartRun(session.Address, time.Now())
		if err != nil {
			log.Log(fmt.Sprintf("Warning: failed to start run log: %v", err))
		} else {
			w.runID = runID
		}
	}

	err := w.CompleteAllTasks(ctx)

	if store != nil && w.runID != "" {
		stats := runlog.RunStats{
			TasksCompleted: session.TasksCompleted,
			ClaimsDone:     session.ClaimsDone,
			ClaimsFailed:   session.ClaimsFailed,
		}
		if ferr := store.FinishRun(w.runID, stats, err, time.Now()); ferr != nil {
			log.Log(fmt.Sprintf("Warning: failed to finish run log: %v", ferr))
		}
	}
	return err
}

// initAccount wires the adapters for one account and signs in when the mode
// needs the campaign API. Connection failures are retried up to init_attempts.
func initAccount(ctx context.Context, session *model.Session, log *logger.ClassLogger, cfg config.Config, mode Mode) (*XterioWorker, func(), error) {
	attempts := max(cfg.Settings.InitAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		w, cleanup, err := buildWorker(ctx, session, log, cfg, mode)
		if err == nil {
			return w, cleanup, nil
		}
		if isFatal(err) || ctx.Err() != nil {
			return nil, nil, err
		}
		lastErr = err
		log.Log(fmt.Sprintf("Failed to init client (attempt %d/%d): %v", attempt, attempts, err))
	}
	return nil, nil, lastErr
}

func buildWorker(ctx context.Context, session *model.Session, log *logger.ClassLogger, cfg config.Config, mode Mode) (*XterioWorker, func(), error) {
	session.Token = ""
	session.CaptchaSolvedForChat = false
	session.TasksCompleted, session.ClaimsDone, session.ClaimsFailed = 0, 0, 0

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	xc, err := chain.New(ctx, session, config.XterioChain.WithRPC(cfg.Bridge.XterioRPC))
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, xc.Close)
	if err := xc.ConnectWallet(); err != nil {
		cleanup()
		return nil, nil, err
	}

	deps := Deps{
		Xterio: xc,
		Solver: captcha.NewTwoCaptcha(cfg.Captcha.APIKey, cfg.Captcha.Proxy),
	}

	needsBSC := mode == ModeBridge || mode == ModeWithdraw ||
		(mode == ModeRun && (cfg.Settings.BridgeBeforeTasks || cfg.Settings.WithdrawBeforeBridge))
	if needsBSC {
		bsc, err := chain.New(ctx, session, config.BNBSmartChain.WithRPC(cfg.Bridge.BNBRPC))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, bsc.Close)
		bsc.UseSigner(xc.Signer())
		deps.BSC = bsc
	}

	if cfg.Binance.APIKey != "" && cfg.Binance.APISecret != "" {
		deps.Withdrawer = exchange.NewBinance(cfg.Binance.APIKey, cfg.Binance.APISecret, "")
	}
	if cfg.Settings.UseChatGPT {
		deps.Responder = llm.NewOpenAI(cfg.Settings.ChatGPTAPIKey, cfg.Settings.ChatGPTModel, "")
	}

	if mode == ModeRun || mode == ModeInviteCodes {
		apiClient, err := adhttp.NewAPIClient(adhttp.Options{
			Proxy:             session.Proxy,
			Origin:            xterio.AppOrigin,
			RequestsPerSecond: cfg.Settings.RequestsPerSecond,
		}, session)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		gateway := xterio.New(apiClient, session, "")
		session.SignInStatus = statusInProgress
		isNew, err := gateway.SignIn(ctx, xc.Signer())
		if err != nil {
			session.SignInStatus = statusFailed
			cleanup()
			return nil, nil, err
		}
		session.SignInStatus = statusDone
		if isNew {
			log.Log("Registered new Xterio account")
		}
		deps.Gateway = gateway
	}

	return NewXterioWorker(session, cfg, deps), cleanup, nil
}
