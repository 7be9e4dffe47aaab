package xterio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	adhttp "github.com/ohmynofan/xterio-ai-bot/internal/adapters/http"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/logger"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
)

const (
	DefaultBaseURL = "https://api.xter.io"
	AppOrigin      = "https://app.xter.io"

	loginProvider       = "BYBIT"
	challengeAttempts   = 5
	errCodeInviteUsed   = 10003
	chatResponseErrorKW = "error"
)

// MessageSigner signs a login challenge with the wallet's key.
type MessageSigner interface {
	Address() string
	SignMessage(message string) (string, error)
}

type Client struct {
	api     *adhttp.APIClient
	session *model.Session
	baseURL string
	log     *logger.ClassLogger
}

func New(api *adhttp.APIClient, session *model.Session, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{api: api, session: session, baseURL: strings.TrimRight(baseURL, "/")}
	c.log = logger.NewLogger(c, session)
	return c
}

type envelope struct {
	ErrCode int             `json:"err_code"`
	ErrMsg  string          `json:"err_msg"`
	Data    json.RawMessage `json:"data"`
}

// call performs one REST request and decodes data into out when err_code is zero.
func (c *Client) call(ctx context.Context, op, method, path string, body, out interface{}) error {
	res, err := c.api.Fetch(ctx, c.baseURL+path, &adhttp.FetchOptions{
		Method: method,
		Token:  c.session.Token,
		Body:   body,
	})
	if err != nil {
		var httpErr *adhttp.HTTPError
		if errors.As(err, &httpErr) {
			var env envelope
			if json.Unmarshal(httpErr.Body, &env) == nil && env.ErrCode != 0 {
				return model.NewOpError(model.ApplicationError, op, &model.APIError{Code: env.ErrCode, Body: strings.TrimSpace(string(httpErr.Body))})
			}
		}
		return model.NewOpError(model.TransportFailure, op, err)
	}

	var env envelope
	if err := res.DecodeJSON(&env); err != nil {
		return model.NewOpError(model.TransportFailure, op, err)
	}
	if env.ErrCode != 0 {
		return model.NewOpError(model.ApplicationError, op, &model.APIError{Code: env.ErrCode, Body: strings.TrimSpace(res.Text())})
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return model.NewOpError(model.TransportFailure, op, fmt.Errorf("failed to decode data: %w", err))
		}
	}
	return nil
}

func (c *Client) GetChallenge(ctx context.Context, address string) (string, error) {
	var data struct {
		Message string `json:"message"`
	}
	path := "/account/v1/login/wallet/" + strings.ToUpper(address)
	if err := c.call(ctx, "GetChallenge", http.MethodGet, path, nil, &data); err != nil {
		return "", err
	}
	if strings.TrimSpace(data.Message) == "" {
		return "", model.NewOpError(model.ApplicationError, "GetChallenge", errors.New("empty challenge message"))
	}
	return data.Message, nil
}

type signInPayload struct {
	Address    string `json:"address"`
	Type       string `json:"type"`
	Sign       string `json:"sign"`
	Provider   string `json:"provider"`
	InviteCode string `json:"invite_code"`
}

type signInData struct {
	IDToken string `json:"id_token"`
	IsNew   int    `json:"is_new"`
}

// SignIn runs the challenge/signature login and stores the issued token on the
// session. Any failure leaves the session unauthenticated.
func (c *Client) SignIn(ctx context.Context, signer MessageSigner) (bool, error) {
	scope := "SignIn"
	c.session.Token = ""
	address := signer.Address()

	var (
		challenge string
		lastErr   error
	)
	for attempt := 1; attempt <= challengeAttempts; attempt++ {
		msg, err := c.GetChallenge(ctx, address)
		if err == nil {
			challenge = msg
			break
		}
		lastErr = err
		c.log.Log(fmt.Sprintf("Failed to get challenge (attempt %d/%d): %v", attempt, challengeAttempts, err))
		if ctx.Err() != nil {
			break
		}
	}
	if challenge == "" {
		return false, model.NewOpError(model.SignInFailure, scope, fmt.Errorf("challenge unavailable: %w", lastErr))
	}

	signature, err := signer.SignMessage(challenge)
	if err != nil {
		return false, model.NewOpError(model.SignInFailure, scope, err)
	}

	var data signInData
	err = c.call(ctx, scope, http.MethodPost, "/account/v1/login/wallet", signInPayload{
		Address:    address,
		Type:       "eth",
		Sign:       signature,
		Provider:   loginProvider,
		InviteCode: "",
	}, &data)
	if err != nil {
		return false, model.NewOpError(model.SignInFailure, scope, err)
	}
	if strings.TrimSpace(data.IDToken) == "" {
		return false, model.NewOpError(model.SignInFailure, scope, errors.New("empty id_token"))
	}

	c.session.Token = data.IDToken
	c.session.IsNewAccount = data.IsNew == 1
	c.log.Log("Signed into Xterio account")
	return c.session.IsNewAccount, nil
}

func (c *Client) GetTasks(ctx context.Context) ([]model.Task, error) {
	var data struct {
		List []model.Task `json:"list"`
	}
	if err := c.call(ctx, "GetTasks", http.MethodGet, "/ai/v1/task", nil, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

func (c *Client) ReportTask(ctx context.Context, taskID int) error {
	return c.call(ctx, "ReportTask", http.MethodPost, "/ai/v1/user/task/report", map[string]int{"task_id": taskID}, nil)
}

type claimReport struct {
	TaskID  int    `json:"task_id"`
	TxHash  string `json:"tx_hash"`
	IsByBit int    `json:"is_by_bit"`
}

func (c *Client) ReportClaim(ctx context.Context, taskID int, txHash string) error {
	return c.call(ctx, "ReportClaim", http.MethodPost, "/ai/v1/user/task", claimReport{TaskID: taskID, TxHash: txHash, IsByBit: 1}, nil)
}

// ApplyInviteCode treats "already applied" as success.
func (c *Client) ApplyInviteCode(ctx context.Context, code string) error {
	err := c.call(ctx, "ApplyInviteCode", http.MethodPost, "/ai/v1/user/invite/apply", map[string]string{"code": code}, nil)
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == errCodeInviteUsed {
		c.log.Log(fmt.Sprintf("Invite code %s already applied", code))
		return nil
	}
	return err
}

func (c *Client) CollectInviteCode(ctx context.Context) (string, error) {
	var data struct {
		Code string `json:"code"`
	}
	if err := c.call(ctx, "CollectInviteCode", http.MethodGet, "/ai/v1/user/invite/code", nil, &data); err != nil {
		return "", err
	}
	return data.Code, nil
}

func (c *Client) ChatStatus(ctx context.Context) (model.ChatStatus, error) {
	var status model.ChatStatus
	err := c.call(ctx, "ChatStatus", http.MethodGet, "/ai/v1/user/chat", nil, &status)
	return status, err
}

type sceneQuery struct {
	Lang string `url:"lang"`
}

func (c *Client) GetScene(ctx context.Context) (model.Scene, error) {
	query, err := utils.EncodeURLParams(sceneQuery{})
	if err != nil {
		return model.Scene{}, err
	}
	var data struct {
		List []model.Scene `json:"list"`
	}
	if err := c.call(ctx, "GetScene", http.MethodGet, "/ai/v1/scene?"+query, nil, &data); err != nil {
		return model.Scene{}, err
	}
	if len(data.List) == 0 {
		return model.Scene{}, model.NewOpError(model.ApplicationError, "GetScene", errors.New("no active scene"))
	}
	return data.List[0], nil
}

type chatPayload struct {
	Answer  string `json:"answer"`
	Lang    string `json:"lang"`
	Captcha string `json:"h-recaptcha-response,omitempty"`
}

// PostChat sends one chat answer and returns the raw streamed body.
func (c *Client) PostChat(ctx context.Context, answer, captchaToken string) (string, error) {
	res, err := c.api.Fetch(ctx, c.baseURL+"/ai/v1/chat", &adhttp.FetchOptions{
		Method: http.MethodPost,
		Token:  c.session.Token,
		Body:   chatPayload{Answer: answer, Lang: "en", Captcha: strings.TrimSpace(captchaToken)},
	})
	if err != nil {
		return "", model.NewOpError(model.TransportFailure, "PostChat", err)
	}
	body := res.Text()
	if strings.Contains(body, chatResponseErrorKW) {
		return "", model.NewOpError(model.ApplicationError, "PostChat", &model.APIError{Code: -1, Body: strings.TrimSpace(body)})
	}
	return body, nil
}

type chatStreamLine struct {
	Responses []struct {
		Chunk model.ChatMessage `json:"chunk"`
	} `json:"responses"`
}

// ParseChatReply extracts the assistant chunk from the last non-blank line of a
// streamed chat body.
func ParseChatReply(body string) (model.ChatMessage, error) {
	lines := strings.Split(body, "\n")
	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			last = strings.TrimSpace(lines[i])
			break
		}
	}
	if last == "" {
		return model.ChatMessage{}, errors.New("empty chat response")
	}

	var line chatStreamLine
	if err := json.Unmarshal([]byte(last), &line); err != nil {
		return model.ChatMessage{}, fmt.Errorf("malformed chat response: %w", err)
	}
	if len(line.Responses) == 0 {
		return model.ChatMessage{}, errors.New("chat response has no chunks")
	}
	reply := line.Responses[0].Chunk
	if reply.Role == "" {
		reply.Role = model.RoleAssistant
	}
	return reply, nil
}
