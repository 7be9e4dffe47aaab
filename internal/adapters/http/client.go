package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/logger"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
	"golang.org/x/time/rate"
)

type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP Error %d: %s", e.StatusCode, e.Status)
}

type FetchOptions struct {
	Method            string
	Token             string
	Body              interface{}
	RawBody           []byte
	AdditionalHeaders map[string]string
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) Text() string {
	return string(r.Body)
}

func (r *Response) DecodeJSON(out interface{}) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

type Options struct {
	Proxy             string
	Origin            string
	RequestsPerSecond float64
	Timeout           time.Duration
}

type APIClient struct {
	Proxy      string
	Origin     string
	UserAgent  string
	HTTPClient *http.Client
	Log        *logger.ClassLogger
	limiter    *rate.Limiter
}

func NewAPIClient(opts Options, session *model.Session) (*APIClient, error) {
	transport := &http.Transport{}

	proxy := strings.TrimSpace(opts.Proxy)
	if proxy != "" {
		proxyURL, err := ParseProxy(proxy)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cookie jar: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	apiClient := &APIClient{
		Proxy:     proxy,
		Origin:    strings.TrimRight(opts.Origin, "/"),
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			Jar:       jar,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
	apiClient.Log = logger.NewLogger(apiClient, session)

	return apiClient, nil
}

// ParseProxy accepts either a full proxy URL or the bare user:pass@host:port form,
// which is treated as an HTTP proxy.
func ParseProxy(proxy string) (*url.URL, error) {
	proxy = strings.TrimSpace(proxy)
	if !strings.Contains(proxy, "://") {
		proxy = "http://" + proxy
	}
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	if proxyURL.Host == "" {
		return nil, fmt.Errorf("invalid proxy url: missing host in %q", proxy)
	}
	return proxyURL, nil
}

func (c *APIClient) _generateHeaders(token string) map[string]string {
	headers := map[string]string{
		"Accept":             "*/*",
		"Accept-Language":    "en-US,en;q=0.9",
		"Content-Type":       "application/json",
		"User-Agent":         c.UserAgent,
		"Cache-Control":      "no-cache",
		"Pragma":             "no-cache",
		"Sec-Ch-Ua":          "\"Google Chrome\";v=\"131\", \"Chromium\";v=\"131\", \"Not_A Brand\";v=\"24\"",
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": "\"Windows\"",
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "same-site",
	}
	if c.Origin != "" {
		headers["Origin"] = c.Origin
		headers["Referer"] = c.Origin + "/"
	}
	if token != "" {
		headers["Authorization"] = token
	}
	return headers
}

func (c *APIClient) Fetch(ctx context.Context, endpoint string, opts *FetchOptions) (*Response, error) {
	if opts == nil {
		opts = &FetchOptions{}
	}

	if opts.Method == "" {
		opts.Method = http.MethodGet
	}

	var reqBody io.Reader
	if opts.RawBody != nil && opts.Body != nil {
		return nil, fmt.Errorf("cannot specify both Body and RawBody")
	}

	useRawBody := opts.RawBody != nil
	hasBody := useRawBody || (opts.Method != http.MethodGet && opts.Body != nil)

	var bodyBytes []byte
	if hasBody {
		if useRawBody {
			bodyBytes = opts.RawBody
		} else {
			jsonBody, err := json.Marshal(opts.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal request body: %w", err)
			}
			bodyBytes = jsonBody
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c._generateHeaders(opts.Token) {
		req.Header.Set(key, value)
	}
	for key, value := range opts.AdditionalHeaders {
		req.Header.Set(key, value)
	}

	if !hasBody {
		req.Header.Del("Content-Type")
	}

	if hasBody {
		c.Log.JustLog(fmt.Sprintf("%s %s\nBody:\n%s", opts.Method, endpoint, utils.BeautifyJSON(bodyBytes)))
	} else {
		c.Log.JustLog(fmt.Sprintf("%s %s", opts.Method, endpoint))
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.Log.JustLog(fmt.Sprintf("Response %d:\n%s", res.StatusCode, utils.BeautifyJSON(resBodyBytes)))

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: resBodyBytes}, nil
	}

	return nil, &HTTPError{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Body:       resBodyBytes,
	}
}
