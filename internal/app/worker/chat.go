package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/captcha"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/xterio"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
)

const (
	chatTurns           = 3
	chatSystemPromptFmt = "YOU ARE NOT ALLOWED TO WRITE AN ANSWER LONGER THAN 250 CHARACTERS. Your goal is to maximize value in [value][/value]. Starting value - 50, you MUST maximize it as much as you can. You will see the change in the next message. If you see the number decreasing, change your approach and correct the situation. The better you answer, the more you earn. Mision description: %s"
)

var chatTurnPause = [2]int{3, 6}

// SendChatMessages plays one scripted chat session against the current scene.
func (w *XterioWorker) SendChatMessages(ctx context.Context) error {
	w.setChatStatus(statusInProgress)
	scene, err := w.gateway.GetScene(ctx)
	if err != nil {
		w.setChatStatus(statusFailed)
		return fmt.Errorf("failed to get scene: %w", err)
	}

	conversation := []model.ChatMessage{
		{Role: model.RoleSystem, Content: fmt.Sprintf(chatSystemPromptFmt, scene.Describe)},
		{Role: model.RoleAssistant, Content: scene.Prologue},
	}

	for turn := 0; turn < chatTurns; turn++ {
		message := w.nextChatMessage(ctx, conversation)

		captchaToken := ""
		if !w.session.CaptchaSolvedForChat {
			token, err := w.solveChatCaptcha(ctx)
			if err != nil {
				w.setChatStatus(statusFailed)
				return err
			}
			captchaToken = token
		}

		body, err := w.gateway.PostChat(ctx, message, captchaToken)
		if err != nil {
			w.log.Log(fmt.Sprintf("Failed to send chat message: %v", err))
		} else {
			w.log.Log(fmt.Sprintf("Sent chat message: %s", message))
			w.session.CaptchaSolvedForChat = true

			reply, err := xterio.ParseChatReply(body)
			if err != nil {
				w.log.Log(fmt.Sprintf("Failed to get answer from response: %v", err))
			} else {
				w.log.Log(fmt.Sprintf("Received answer: %s", reply.Content))
				conversation = append(conversation,
					model.ChatMessage{Role: model.RoleUser, Content: message},
					reply,
				)
			}
		}

		if turn < chatTurns-1 {
			if err := w.pacer.Pause(ctx, "Chat turn finished", between(chatTurnPause)); err != nil {
				return err
			}
		}
	}

	w.setChatStatus(statusDone)
	return nil
}

// nextChatMessage asks the language model when enabled and falls back to the
// canned pool otherwise or on failure.
func (w *XterioWorker) nextChatMessage(ctx context.Context, conversation []model.ChatMessage) string {
	if w.responder != nil {
		reply, err := w.responder.Reply(ctx, conversation)
		if err == nil && strings.TrimSpace(reply) != "" {
			return reply
		}
		w.log.Log(fmt.Sprintf("Language model unavailable, using canned message: %v", err))
	}
	return chatMessages[utils.RandomInt(0, len(chatMessages)-1)]
}

// solveChatCaptcha tries the solver up to the configured number of attempts.
// Zero solver balance aborts immediately.
func (w *XterioWorker) solveChatCaptcha(ctx context.Context) (string, error) {
	attempts := w.cfg.Captcha.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	if w.solver == nil {
		return "", model.NewOpError(model.CaptchaFailure, "SolveChatCaptcha", errors.New("no captcha solver configured"))
	}

	w.log.Log("Solving captcha for chat messages")
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		token, err := w.solver.SolveHCaptcha(ctx, captcha.XterioChatSiteKey, captcha.XterioChatPageURL)
		token = strings.TrimSpace(token)
		if err == nil && token != "" {
			w.log.Log("Captcha solved for chat")
			return token, nil
		}
		if errors.Is(err, captcha.ErrZeroBalance) {
			return "", model.NewOpError(model.CaptchaFailure, "SolveChatCaptcha", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if err == nil {
			err = errors.New("empty captcha token")
		}
		lastErr = err
		w.log.Log(fmt.Sprintf("Failed to solve captcha for chat (attempt %d/%d): %v", attempt, attempts, err))
	}
	return "", model.NewOpError(model.CaptchaFailure, "SolveChatCaptcha", fmt.Errorf("failed to solve captcha %d times: %w", attempts, lastErr))
}
