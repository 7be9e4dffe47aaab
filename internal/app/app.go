package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ohmynofan/xterio-ai-bot/internal/app/worker"
	"github.com/ohmynofan/xterio-ai-bot/internal/config"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/logger"
	"github.com/ohmynofan/xterio-ai-bot/internal/storage/runlog"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
)

const (
	DefaultRunLogPath      = "data/xterio.db"
	DefaultInviteCodesPath = "data/invite_codes.txt"
)

type App struct {
	cfg             config.Config
	runLogPath      string
	inviteCodesPath string
}

func New(cfg config.Config) *App {
	return &App{cfg: cfg, runLogPath: DefaultRunLogPath, inviteCodesPath: DefaultInviteCodesPath}
}

// Run starts one worker per account, staggered by pause_between_accounts, and
// waits for all of them.
func (app *App) Run(ctx context.Context, mode worker.Mode) error {
	accounts, err := app.cfg.LoadAccounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts found in %s", app.cfg.AccountsPath)
	}

	opts := worker.Options{Mode: mode}
	switch mode {
	case worker.ModeRun:
		store, err := runlog.NewStore(app.runLogPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Store = store
	case worker.ModeInviteCodes:
		opts.OnInviteCode = newInviteCodeFile(app.inviteCodesPath).Append
	}

	log := logger.NewNamed("App", nil)
	log.JustLog(fmt.Sprintf("Starting %s for %d account(s)", mode, len(accounts)))

	var wg sync.WaitGroup
	var offset time.Duration
	for idx, acc := range accounts {
		if idx > 0 {
			offset += utils.RandomSeconds(app.cfg.Settings.PauseBetweenAccounts[0], app.cfg.Settings.PauseBetweenAccounts[1])
		}
		wg.Add(1)
		go func(i int, a config.Account, delay time.Duration) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			worker.Run(ctx, a, i, app.cfg, opts)
		}(idx, acc, offset)
	}
	wg.Wait()
	return ctx.Err()
}
