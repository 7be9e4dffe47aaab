package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/ohmynofan/xterio-ai-bot/internal/platform/logger"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
)

type Pacer interface {
	Pause(ctx context.Context, reason string, d time.Duration) error
}

// logPacer shows every pause as a countdown on the account panel.
type logPacer struct {
	log *logger.ClassLogger
}

func (p logPacer) Pause(ctx context.Context, reason string, d time.Duration) error {
	return p.log.Wait(ctx, fmt.Sprintf("%s, waiting %s", reason, d), d)
}

// NoPause skips every delay.
type NoPause struct{}

func (NoPause) Pause(ctx context.Context, _ string, _ time.Duration) error {
	return ctx.Err()
}

func between(bounds [2]int) time.Duration {
	return utils.RandomSeconds(bounds[0], bounds[1])
}
