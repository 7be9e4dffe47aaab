package worker

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ohmynofan/xterio-ai-bot/internal/adapters/xterio"
	"github.com/ohmynofan/xterio-ai-bot/internal/config"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
)

const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

var testNow = time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC)

func today() string     { return testNow.Add(-time.Hour).Format(model.UpdatedAtLayout) }
func yesterday() string { return testNow.Add(-24 * time.Hour).Format(model.UpdatedAtLayout) }

func strPtr(s string) *string { return &s }

type fakeGateway struct {
	mu    sync.Mutex
	tasks []model.Task

	chatStatus      model.ChatStatus
	reportErr       map[int]error
	reportClaimErrs []error
	getTasksErr     error

	reported      []int
	claimReports  []string
	invites       []string
	chatPosts     []chatPost
	sceneRequests int
	getTaskCalls  int
}

type chatPost struct {
	answer  string
	captcha string
}

func (g *fakeGateway) SignIn(context.Context, xterio.MessageSigner) (bool, error) {
	return false, nil
}

func (g *fakeGateway) GetTasks(context.Context) ([]model.Task, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.getTaskCalls++
	if g.getTasksErr != nil {
		return nil, g.getTasksErr
	}
	out := make([]model.Task, len(g.tasks))
	for i, t := range g.tasks {
		out[i] = model.Task{ID: t.ID, UserTask: append([]model.UserTask(nil), t.UserTask...)}
	}
	return out, nil
}

func (g *fakeGateway) task(id int) *model.Task {
	for i := range g.tasks {
		if g.tasks[i].ID == id {
			return &g.tasks[i]
		}
	}
	return nil
}

// ReportTask appends an unclaimed history entry, as the server does.
func (g *fakeGateway) ReportTask(_ context.Context, taskID int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.reportErr[taskID]; err != nil {
		return err
	}
	g.reported = append(g.reported, taskID)
	if t := g.task(taskID); t != nil {
		t.UserTask = append(t.UserTask, model.UserTask{UpdatedAt: testNow.Format(model.UpdatedAtLayout)})
	}
	return nil
}

func (g *fakeGateway) ReportClaim(_ context.Context, taskID int, txHash string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.reportClaimErrs) > 0 {
		err := g.reportClaimErrs[0]
		g.reportClaimErrs = g.reportClaimErrs[1:]
		if err != nil {
			return err
		}
	}
	g.claimReports = append(g.claimReports, txHash)
	if t := g.task(taskID); t != nil && len(t.UserTask) > 0 {
		t.UserTask[len(t.UserTask)-1].TxHash = strPtr(txHash)
	}
	return nil
}

func (g *fakeGateway) ApplyInviteCode(_ context.Context, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invites = append(g.invites, code)
	return nil
}

func (g *fakeGateway) CollectInviteCode(context.Context) (string, error) {
	return "MYCODE", nil
}

func (g *fakeGateway) ChatStatus(context.Context) (model.ChatStatus, error) {
	return g.chatStatus, nil
}

func (g *fakeGateway) GetScene(context.Context) (model.Scene, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sceneRequests++
	return model.Scene{Describe: "Escape the station", Prologue: "The lights flicker."}, nil
}

func (g *fakeGateway) PostChat(_ context.Context, answer, captchaToken string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.chatPosts = append(g.chatPosts, chatPost{answer: answer, captcha: captchaToken})
	return `{"responses":[{"chunk":{"role":"assistant","content":"[value]55[/value] Good call."}}]}` + "\n", nil
}

type sentCall struct {
	to    common.Address
	data  []byte
	value *big.Int
}

type fakeWallet struct {
	mu         sync.Mutex
	calls      []sentCall
	sends      int
	sendErr    error
	balance    *big.Int
	balanceErr error
	balanceN   int
}

func (f *fakeWallet) Address() string { return testAddress }

func (f *fakeWallet) Balance(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceN++
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	return f.balance, nil
}

func (f *fakeWallet) SendCall(_ context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends++
	if f.sendErr != nil {
		return common.Hash{}, f.sendErr
	}
	f.calls = append(f.calls, sentCall{to: to, data: data, value: value})
	return common.BigToHash(big.NewInt(int64(len(f.calls)))), nil
}

func (f *fakeWallet) selectors() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, common.Bytes2Hex(c.data[:4]))
	}
	return out
}

type fakeSolver struct {
	calls int
	token string
	err   error
}

func (s *fakeSolver) SolveHCaptcha(_ context.Context, siteKey, pageURL string) (string, error) {
	s.calls++
	if siteKey == "" || pageURL == "" {
		return "", errors.New("missing site key")
	}
	return s.token, s.err
}

type fakeResponder struct {
	seen []int
}

func (r *fakeResponder) Reply(_ context.Context, conversation []model.ChatMessage) (string, error) {
	r.seen = append(r.seen, len(conversation))
	return "I lead the crew to the escape pods.", nil
}

type fakeWithdrawer struct {
	calls []string
}

func (f *fakeWithdrawer) Withdraw(_ context.Context, coin, amount, address, network string) (string, error) {
	f.calls = append(f.calls, strings.Join([]string{coin, amount, address, network}, "|"))
	return "wd-1", nil
}

type recordingPacer struct {
	reasons []string
}

func (p *recordingPacer) Pause(ctx context.Context, reason string, _ time.Duration) error {
	p.reasons = append(p.reasons, reason)
	return ctx.Err()
}

func (p *recordingPacer) count(prefix string) int {
	n := 0
	for _, r := range p.reasons {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

type testRig struct {
	gateway *fakeGateway
	wallet  *fakeWallet
	bsc     *fakeWallet
	solver  *fakeSolver
	pacer   *recordingPacer
	session *model.Session
	cfg     config.Config
}

func newRig(tasks ...model.Task) *testRig {
	cfg := config.Default()
	cfg.Captcha.Attempts = 3
	cfg.Invite.Codes = []string{"INVITE1"}
	return &testRig{
		gateway: &fakeGateway{tasks: tasks, chatStatus: model.ChatStatus{ClaimStatus: model.ChatScoreClaimed}},
		wallet:  &fakeWallet{},
		bsc:     &fakeWallet{},
		solver:  &fakeSolver{token: "P1_token"},
		pacer:   &recordingPacer{},
		session: &model.Session{Address: testAddress},
		cfg:     cfg,
	}
}

func (r *testRig) worker(extra ...func(*Deps)) *XterioWorker {
	deps := Deps{
		Gateway: r.gateway,
		Xterio:  r.wallet,
		BSC:     r.bsc,
		Solver:  r.solver,
		Pacer:   r.pacer,
		Now:     func() time.Time { return testNow },
	}
	for _, fn := range extra {
		fn(&deps)
	}
	return NewXterioWorker(r.session, r.cfg, deps)
}
