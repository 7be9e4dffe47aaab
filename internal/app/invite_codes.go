package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// inviteCodeFile appends collected invite codes, one per line, so the file can
// be pasted into invite.invite_codes.
type inviteCodeFile struct {
	mu   sync.Mutex
	path string
}

func newInviteCodeFile(path string) *inviteCodeFile {
	return &inviteCodeFile{path: path}
}

func (f *inviteCodeFile) Append(address, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("empty invite code for %s", address)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create invite code directory: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open invite code file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(code + "\n"); err != nil {
		return fmt.Errorf("failed to write invite code: %w", err)
	}
	return nil
}
