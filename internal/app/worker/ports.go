package worker

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/xterio"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
)

// Gateway is the authenticated Xterio campaign API.
type Gateway interface {
	SignIn(ctx context.Context, signer xterio.MessageSigner) (bool, error)
	GetTasks(ctx context.Context) ([]model.Task, error)
	ReportTask(ctx context.Context, taskID int) error
	ReportClaim(ctx context.Context, taskID int, txHash string) error
	ApplyInviteCode(ctx context.Context, code string) error
	CollectInviteCode(ctx context.Context) (string, error)
	ChatStatus(ctx context.Context) (model.ChatStatus, error)
	GetScene(ctx context.Context) (model.Scene, error)
	PostChat(ctx context.Context, answer, captchaToken string) (string, error)
}

// Wallet submits contract calls and reads the native balance on one chain.
type Wallet interface {
	Address() string
	Balance(ctx context.Context) (*big.Int, error)
	SendCall(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}

type CaptchaSolver interface {
	SolveHCaptcha(ctx context.Context, siteKey, pageURL string) (string, error)
}

type Responder interface {
	Reply(ctx context.Context, conversation []model.ChatMessage) (string, error)
}

type Withdrawer interface {
	Withdraw(ctx context.Context, coin, amount, address, network string) (string, error)
}

// ClaimLedger records mined claims until their tx hash reaches the API.
type ClaimLedger interface {
	RecordClaim(runID, address string, taskID int, txHash string, now time.Time) error
	MarkClaimReported(txHash string) error
}
