package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ohmynofan/xterio-ai-bot/internal/app"
	"github.com/ohmynofan/xterio-ai-bot/internal/app/worker"
	"github.com/ohmynofan/xterio-ai-bot/internal/config"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/logger"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/ui"
	"github.com/urfave/cli/v2"
)

func main() {
	bot := &cli.App{
		Name:  "xterio-ai-bot",
		Usage: "Xterio AI campaign automation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultSettingsPath, Usage: "settings file"},
			&cli.StringFlag{Name: "accounts", Aliases: []string{"a"}, Usage: "accounts file (overrides ACCOUNTS_PATH)"},
			&cli.StringFlag{Name: "log", Value: "logs/app.log", Usage: "log file"},
		},
		Commands: []*cli.Command{
			{Name: "run", Usage: "complete daily missions, chat and claims for every account", Action: action(worker.ModeRun)},
			{Name: "bridge", Usage: "bridge BNB from BNB Smart Chain to Xterio chain", Action: action(worker.ModeBridge)},
			{Name: "withdraw", Usage: "top up BNB from Binance when below min_bnb_balance", Action: action(worker.ModeWithdraw)},
			{Name: "invite-codes", Usage: "collect every account's invite code", Action: action(worker.ModeInviteCodes)},
		},
		Action: action(worker.ModeRun),
	}

	if err := bot.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func action(mode worker.Mode) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return err
		}
		if accounts := c.String("accounts"); accounts != "" {
			cfg.AccountsPath = accounts
		}
		if err := validate(cfg, mode); err != nil {
			return err
		}

		if err := logger.Init(c.String("log")); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logger.Close()

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		ui.StartUISystem()
		defer ui.StopUISystem()

		err = app.New(cfg).Run(ctx, mode)
		time.Sleep(1 * time.Second)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func validate(cfg config.Config, mode worker.Mode) error {
	switch mode {
	case worker.ModeRun:
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.Settings.BridgeBeforeTasks {
			if err := cfg.ValidateBridge(); err != nil {
				return err
			}
		}
		if cfg.Settings.WithdrawBeforeBridge {
			return cfg.ValidateWithdraw()
		}
	case worker.ModeBridge:
		return cfg.ValidateBridge()
	case worker.ModeWithdraw:
		return cfg.ValidateWithdraw()
	}
	return nil
}
