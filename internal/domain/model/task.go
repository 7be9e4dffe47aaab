package model

import (
	"strings"
	"time"
)

// UpdatedAtLayout is the timestamp format the campaign API uses for task history.
const UpdatedAtLayout = "2006-01-02T15:04:05Z"

type UserTask struct {
	UpdatedAt string  `json:"UpdatedAt"`
	TxHash    *string `json:"tx_hash"`
}

func (u UserTask) HasTxHash() bool {
	return u.TxHash != nil && strings.TrimSpace(*u.TxHash) != ""
}

func (u UserTask) UpdatedTime() (time.Time, error) {
	return time.ParseInLocation(UpdatedAtLayout, strings.TrimSpace(u.UpdatedAt), time.UTC)
}

type Task struct {
	ID       int        `json:"ID"`
	UserTask []UserTask `json:"user_task"`
}

func (t Task) Completed() bool {
	return len(t.UserTask) > 0
}

func (t Task) Latest() (UserTask, bool) {
	if len(t.UserTask) == 0 {
		return UserTask{}, false
	}
	return t.UserTask[len(t.UserTask)-1], true
}

// NeedsClaim reports whether the task was completed server side but its latest
// history entry has no on-chain claim recorded yet.
func (t Task) NeedsClaim() bool {
	latest, ok := t.Latest()
	return ok && !latest.HasTxHash()
}

// UpdatedBeforeToday reports whether the latest history entry predates the start of
// the UTC day containing now. Unparseable timestamps count as stale.
func (t Task) UpdatedBeforeToday(now time.Time) bool {
	latest, ok := t.Latest()
	if !ok {
		return false
	}
	updated, err := latest.UpdatedTime()
	if err != nil {
		return true
	}
	return updated.Before(StartOfUTCDay(now))
}

func StartOfUTCDay(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleAssistant ChatRole = "assistant"
	RoleUser      ChatRole = "user"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type Scene struct {
	Describe string `json:"describe"`
	Prologue string `json:"prologue"`
}

const ChatScoreClaimed = 2

type ChatStatus struct {
	ClaimStatus int `json:"claim_status"`
}

func (c ChatStatus) Claimed() bool {
	return c.ClaimStatus == ChatScoreClaimed
}
