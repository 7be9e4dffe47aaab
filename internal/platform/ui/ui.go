package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/pterm/pterm"
)

var (
	multi    *pterm.MultiPrinter
	spinners = make(map[int]*pterm.SpinnerPrinter)
	mu       sync.Mutex
)

func StartUISystem() {
	mu.Lock()
	defer mu.Unlock()
	m, _ := pterm.DefaultMultiPrinter.Start()
	multi = m
}

func StopUISystem() {
	mu.Lock()
	defer mu.Unlock()
	if multi != nil {
		multi.Stop()
	}
}

// UpdateStatus is a no-op until StartUISystem has been called.
func UpdateStatus(session model.Session, status string, remainingDelay time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	updateStatusLocked(session, status, remainingDelay)
}

func updateStatusLocked(session model.Session, status string, remainingDelay time.Duration) {
	if multi == nil {
		return
	}

	balances := formatBalances(session.WalletBalance)
	balanceSection := ""
	if balances != "" {
		balanceSection = fmt.Sprintf("Balances :%s\n\n", balances)
	}

	content := fmt.Sprintf(`
=============== Account %d ================
Address       : %s

%sSign In       : %s
Tasks         : %s (%d done)
Chat          : %s
Claims        : %s (%d ok / %d failed)

Status   : %s
Delay    : %s
===========================================`,
		session.AccIdx+1,
		session.Address,
		balanceSection,
		defaultString(session.SignInStatus, "WAITING"),
		defaultString(session.TaskStatus, "WAITING"),
		session.TasksCompleted,
		defaultString(session.ChatStatus, "WAITING"),
		defaultString(session.ClaimStatus, "WAITING"),
		session.ClaimsDone,
		session.ClaimsFailed,
		status,
		FormatDelay(remainingDelay))

	if spinner, ok := spinners[session.AccIdx]; ok {
		spinner.UpdateText(content)
	} else {
		spinner, _ := pterm.DefaultSpinner.
			WithWriter(multi.NewWriter()).
			WithRemoveWhenDone(false).
			Start(content)
		spinners[session.AccIdx] = spinner
	}
}

func SetSpinnerSuccess(session model.Session, finalMessage string) {
	mu.Lock()
	defer mu.Unlock()
	if spinner, ok := spinners[session.AccIdx]; ok {
		updateStatusLocked(session, finalMessage, 0)
		spinner.Success()
	}
}

func SetSpinnerError(session model.Session, finalMessage string) {
	mu.Lock()
	defer mu.Unlock()
	if spinner, ok := spinners[session.AccIdx]; ok {
		updateStatusLocked(session, finalMessage, 0)
		spinner.Fail()
	}
}

func FormatDelay(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d H %02d M %02d S", h, m, s)
}

func defaultString(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}

func formatBalances(wallet model.WalletBalance) string {
	if len(wallet.Balances) == 0 {
		return ""
	}

	var builder strings.Builder
	for _, tb := range wallet.Balances {
		builder.WriteString(fmt.Sprintf("\n- %s : %s %s", tb.Network, tb.BalanceStr, tb.Symbol))
	}

	return builder.String()
}
