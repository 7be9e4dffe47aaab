package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ohmynofan/xterio-ai-bot/internal/config"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/logger"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
)

const (
	statusWaiting    = "WAITING"
	statusInProgress = "IN PROGRESS"
	statusDone       = "DONE"
	statusFailed     = "FAILED"
	statusSkipped    = "SKIPPED"
)

const (
	taskInvite = 16
	taskChat   = 11
	taskShare  = 18
)

// reportOnlyTasks complete with a single report call.
var reportOnlyTasks = map[int]bool{18: true, 20: true, 21: true, 22: true, 23: true, 24: true}

var chatClaimPause = [2]int{5, 8}

type Deps struct {
	Gateway    Gateway
	Xterio     Wallet
	BSC        Wallet
	Solver     CaptchaSolver
	Responder  Responder
	Withdrawer Withdrawer
	Ledger     ClaimLedger
	Pacer      Pacer
	RunID      string
	Now        func() time.Time
}

type XterioWorker struct {
	gateway    Gateway
	xterio     Wallet
	bsc        Wallet
	solver     CaptchaSolver
	responder  Responder
	withdrawer Withdrawer
	ledger     ClaimLedger
	pacer      Pacer
	runID      string
	now        func() time.Time

	cfg     config.Config
	session *model.Session
	log     *logger.ClassLogger
}

func NewXterioWorker(session *model.Session, cfg config.Config, deps Deps) *XterioWorker {
	w := &XterioWorker{
		gateway:    deps.Gateway,
		xterio:     deps.Xterio,
		bsc:        deps.BSC,
		solver:     deps.Solver,
		responder:  deps.Responder,
		withdrawer: deps.Withdrawer,
		ledger:     deps.Ledger,
		pacer:      deps.Pacer,
		runID:      deps.RunID,
		now:        deps.Now,
		cfg:        cfg,
		session:    session,
	}
	w.log = logger.NewLogger(w, session)
	if w.pacer == nil {
		w.pacer = logPacer{log: w.log}
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// CompleteAllTasks runs one daily pass: complete what is missing, claim what
// is completed but unclaimed, then claim the chat score.
func (w *XterioWorker) CompleteAllTasks(ctx context.Context) error {
	tasks, err := w.gateway.GetTasks(ctx)
	if err != nil {
		w.setTaskStatus(statusFailed)
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	w.setTaskStatus(statusInProgress)
	w.log.Log(fmt.Sprintf("Fetched %d missions", len(tasks)))

	now := w.now()
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch {
		case task.ID == taskInvite:
			if !task.Completed() {
				w.applyRandomInviteCode(ctx)
			}

		case task.ID == taskChat:
			if !task.Completed() {
				if err := w.runChat(ctx); err != nil {
					return err
				}
			} else if task.UpdatedBeforeToday(now) {
				if err := w.runChat(ctx); err != nil {
					return err
				}
				if err := w.pacer.Pause(ctx, "Chat finished, preparing claim", between(chatClaimPause)); err != nil {
					return err
				}
				if err := w.claimMission(ctx, task.ID); err != nil {
					w.log.Log(fmt.Sprintf("Failed to claim %d mission: %v", task.ID, err))
				}
			}

		case reportOnlyTasks[task.ID]:
			if !task.Completed() || (task.ID == taskShare && task.UpdatedBeforeToday(now)) {
				if err := w.gateway.ReportTask(ctx, task.ID); err != nil {
					w.log.Log(fmt.Sprintf("Failed to complete task %d: %v", task.ID, err))
					continue
				}
			}
			w.session.TasksCompleted++
			w.log.Log(fmt.Sprintf("Completed %d mission", task.ID))
		}

		if err := w.pacer.Pause(ctx, fmt.Sprintf("Mission %d processed", task.ID), between(w.cfg.Settings.PauseBetweenTasks)); err != nil {
			return err
		}
	}

	if err := w.claimCompletedTasks(ctx); err != nil {
		return err
	}

	if err := w.claimChatScore(ctx); err != nil {
		w.log.Log(fmt.Sprintf("Failed to claim chat score: %v", err))
	}

	w.setTaskStatus(statusDone)
	return nil
}

// claimCompletedTasks is the reconciliation pass: every task whose latest
// history entry has no tx hash gets exactly one claim attempt.
func (w *XterioWorker) claimCompletedTasks(ctx context.Context) error {
	tasks, err := w.gateway.GetTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}

	w.setClaimStatus(statusInProgress)
	for _, task := range tasks {
		if !task.Completed() {
			continue
		}
		if task.NeedsClaim() {
			if err := w.claimMission(ctx, task.ID); err != nil {
				w.log.Log(fmt.Sprintf("Failed to claim %d mission: %v", task.ID, err))
			} else {
				w.log.Log(fmt.Sprintf("Completed claim %d mission", task.ID))
			}
		}
		if err := w.pacer.Pause(ctx, fmt.Sprintf("Mission %d checked", task.ID), between(w.cfg.Settings.PauseBetweenTasks)); err != nil {
			return err
		}
	}
	w.setClaimStatus(statusDone)
	return nil
}

func (w *XterioWorker) applyRandomInviteCode(ctx context.Context) {
	codes := w.cfg.Invite.Codes
	if len(codes) == 0 {
		w.log.Log("No invite codes configured, skipping invite mission")
		return
	}
	code := strings.TrimSpace(codes[utils.RandomInt(0, len(codes)-1)])
	if code == "" {
		return
	}
	if err := w.gateway.ApplyInviteCode(ctx, code); err != nil {
		w.log.Log(fmt.Sprintf("Failed to apply invite code: %v", err))
		return
	}
	w.log.Log(fmt.Sprintf("Applied invite code: %s", code))
}

// runChat plays one chat session. Only errors that must stop the worker are returned.
func (w *XterioWorker) runChat(ctx context.Context) error {
	err := w.SendChatMessages(ctx)
	if err == nil {
		return nil
	}
	if isFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	w.log.Log(fmt.Sprintf("Failed to send chat messages: %v", err))
	return nil
}

// CollectInviteCode returns the account's own invite code.
func (w *XterioWorker) CollectInviteCode(ctx context.Context) (string, error) {
	code, err := w.gateway.CollectInviteCode(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to collect invite code: %w", err)
	}
	w.log.Log(fmt.Sprintf("Collected invite code: %s", code))
	return code, nil
}

func (w *XterioWorker) setTaskStatus(status string) {
	if w.session != nil {
		w.session.TaskStatus = status
	}
}

func (w *XterioWorker) setChatStatus(status string) {
	if w.session != nil {
		w.session.ChatStatus = status
	}
}

func (w *XterioWorker) setClaimStatus(status string) {
	if w.session != nil {
		w.session.ClaimStatus = status
	}
}
