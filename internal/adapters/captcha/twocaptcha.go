package captcha

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	adhttp "github.com/ohmynofan/xterio-ai-bot/internal/adapters/http"
)

const (
	DefaultBaseURL  = "https://api.2captcha.com"
	createTaskPath  = "/createTask"
	getResultPath   = "/getTaskResult"
	hcaptchaType    = "HCaptchaTask"
	hcaptchaNoProxy = "HCaptchaTaskProxyless"
	defaultPollWait = 5 * time.Second
)

type TwoCaptcha struct {
	client *http.Client
	apiKey string
	proxy  string

	BaseURL      string
	WaitInterval time.Duration
}

// NewTwoCaptcha builds a solver; a non-empty proxy makes 2captcha solve through it.
func NewTwoCaptcha(apiKey, proxy string) *TwoCaptcha {
	return &TwoCaptcha{
		client:       &http.Client{Timeout: 30 * time.Second},
		apiKey:       strings.TrimSpace(apiKey),
		proxy:        strings.TrimSpace(proxy),
		BaseURL:      DefaultBaseURL,
		WaitInterval: defaultPollWait,
	}
}

type createTaskRequest struct {
	ClientKey string      `json:"clientKey"`
	Task      interface{} `json:"task"`
}

type hcaptchaTask struct {
	Type          string `json:"type"`
	WebsiteURL    string `json:"websiteURL"`
	WebsiteKey    string `json:"websiteKey"`
	ProxyType     string `json:"proxyType,omitempty"`
	ProxyAddress  string `json:"proxyAddress,omitempty"`
	ProxyPort     int    `json:"proxyPort,omitempty"`
	ProxyLogin    string `json:"proxyLogin,omitempty"`
	ProxyPassword string `json:"proxyPassword,omitempty"`
}

type createTaskResponse struct {
	ErrorID          int    `json:"errorId"`
	TaskID           int64  `json:"taskId"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

type resultRequest struct {
	ClientKey string `json:"clientKey"`
	TaskID    int64  `json:"taskId"`
}

type getResultResponse struct {
	ErrorID  int    `json:"errorId"`
	Status   string `json:"status"`
	Solution struct {
		Token              string `json:"token"`
		GRecaptchaResponse string `json:"gRecaptchaResponse"`
	} `json:"solution"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

func (tc *TwoCaptcha) SolveHCaptcha(ctx context.Context, siteKey, pageURL string) (string, error) {
	if tc.apiKey == "" {
		return "", errors.New("2captcha api key not provided")
	}
	if siteKey == "" {
		return "", errors.New("2captcha site key required")
	}
	if pageURL == "" {
		return "", errors.New("2captcha page url required")
	}

	task := hcaptchaTask{Type: hcaptchaNoProxy, WebsiteURL: pageURL, WebsiteKey: siteKey}
	if tc.proxy != "" {
		if err := task.withProxy(tc.proxy); err != nil {
			return "", err
		}
	}
	return tc.solve(ctx, task)
}

func (t *hcaptchaTask) withProxy(proxy string) error {
	u, err := adhttp.ParseProxy(proxy)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return fmt.Errorf("captcha proxy port: %w", err)
	}
	t.Type = hcaptchaType
	t.ProxyType = u.Scheme
	t.ProxyAddress = u.Hostname()
	t.ProxyPort = port
	if u.User != nil {
		t.ProxyLogin = u.User.Username()
		t.ProxyPassword, _ = u.User.Password()
	}
	return nil
}

func (tc *TwoCaptcha) solve(ctx context.Context, task interface{}) (string, error) {
	var createResp createTaskResponse
	if err := tc.postJSON(ctx, createTaskPath, createTaskRequest{ClientKey: tc.apiKey, Task: task}, &createResp); err != nil {
		return "", err
	}
	if createResp.ErrorID != 0 {
		return "", twoCaptchaError("createTask", createResp.ErrorCode, createResp.ErrorDescription)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(tc.WaitInterval):
		}

		var result getResultResponse
		req := resultRequest{ClientKey: tc.apiKey, TaskID: createResp.TaskID}
		if err := tc.postJSON(ctx, getResultPath, req, &result); err != nil {
			return "", err
		}
		if result.ErrorID != 0 {
			return "", twoCaptchaError("getTaskResult", result.ErrorCode, result.ErrorDescription)
		}

		switch strings.ToLower(result.Status) {
		case "processing":
			continue
		case "ready":
			token := result.Solution.Token
			if token == "" {
				token = result.Solution.GRecaptchaResponse
			}
			if token == "" {
				return "", errors.New("2captcha returned empty token")
			}
			return token, nil
		default:
			return "", fmt.Errorf("unexpected 2captcha status: %s", result.Status)
		}
	}
}

func twoCaptchaError(stage, code, description string) error {
	switch strings.ToUpper(code) {
	case TwoErrZeroBalance:
		return ErrZeroBalance
	case TwoErrCaptchaUnsolvable:
		return ErrUnsolvable
	case TwoErrNoSlots:
		return ErrNoSlots
	}
	return fmt.Errorf("2captcha %s error: %s - %s", stage, code, description)
}

func (tc *TwoCaptcha) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	endpoint := strings.TrimRight(tc.BaseURL, "/") + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("2captcha http error: %s", res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
