package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
)

func TestShortenForDisplay(t *testing.T) {
	short := "Sign in succeeded"
	if shortenForDisplay(short) != short {
		t.Fatal("short messages must pass through")
	}
	long := strings.Repeat("é", 200)
	got := shortenForDisplay(long)
	if utf8.RuneCountInString(got) != 140 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected shortened message: %d runes", utf8.RuneCountInString(got))
	}
}

func TestLogWithoutSessionOrFile(t *testing.T) {
	l := NewNamed("test", nil)
	l.Log("nothing configured")
	l.JustLog("still fine")
	l.LogObject("obj", struct{ A int }{1})
}

func TestWaitStopsOnCancel(t *testing.T) {
	l := NewNamed("test", &model.Session{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := l.Wait(ctx, "pausing", time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("Wait did not return promptly")
	}
	if err := l.Wait(context.Background(), "short", 5*time.Millisecond); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
