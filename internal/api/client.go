// Package api is the HTTP client for the recruiting service's auth and
// template endpoints.
package api

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
	"sync"
	"time"

	"hiredesk/internal/logging"
	"hiredesk/internal/resume"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/net/publicsuffix"
)

const (
	actionLogin  = "login"
	actionResend = "resend_otp"
	actionVerify = "verify_otp"
	actionReset  = "reset_password"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient overrides the default client (tests). Its Jar is replaced
	// only when nil.
	HTTPClient *http.Client
}

// Client talks to the recruiting API.
// It is safe for concurrent use; a second call of the same auth action while
// one is pending fails fast with ErrInFlight.
type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string

	mu    sync.RWMutex
	token string

	gates map[string]*atomic.Bool
}

// New creates a client for the API rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api base URL required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base URL %q: scheme must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "hiredesk"
	}

	c := &Client{
		base:      base,
		http:      hc,
		timeout:   opts.Timeout,
		userAgent: ua,
		gates:     make(map[string]*atomic.Bool),
	}
	for _, action := range []string{actionLogin, actionResend, actionVerify, actionReset} {
		c.gates[action] = atomic.NewBool(false)
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// SetToken sets the bearer token sent with every request. Empty clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Login authenticates with email and password.
// 200 means signed in (or verification sent when no token is returned),
// 401 means an OTP challenge is pending for the account.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Response, error) {
	return c.call(ctx, actionLogin, http.MethodPost, "/auth/login", creds)
}

// ResendOTP asks the server to email a fresh OTP to the address.
// It doubles as the password-recovery request.
func (c *Client) ResendOTP(ctx context.Context, email string) (*Response, error) {
	return c.call(ctx, actionResend, http.MethodPost, "/auth/resend-otp", resendRequest{Email: email})
}

// VerifyOTP submits the numeric code for the pending identity.
func (c *Client) VerifyOTP(ctx context.Context, v Verification) (*Response, error) {
	return c.call(ctx, actionVerify, http.MethodPost, "/auth/verify-otp", v)
}

// ResetPassword sets a new password for the verified identity.
func (c *Client) ResetPassword(ctx context.Context, r PasswordReset) (*Response, error) {
	return c.call(ctx, actionReset, http.MethodPost, "/auth/reset-password", r)
}

// GetTemplate fetches a user's profile data and template metadata.
// Unlike the auth calls, a rejected request is returned as *StatusError.
// Template fetches are read-only and are not gated.
func (c *Client) GetTemplate(ctx context.Context, slug, username string) (*resume.Document, error) {
	if slug == "" || username == "" {
		return nil, fmt.Errorf("template slug and username required")
	}
	path := "/template/" + url.PathEscape(slug) + "/" + url.PathEscape(username)

	var doc resume.Document
	status, raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		var body Body
		_ = json.Unmarshal(raw, &body)
		resp := &Response{Status: status, Data: body}
		return nil, &StatusError{Status: status, Message: resp.ErrorMessage()}
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode template response: %w", err)
	}
	return &doc, nil
}

func (c *Client) call(ctx context.Context, action, method, path string, payload any) (*Response, error) {
	gate := c.gates[action]
	if !gate.CompareAndSwap(false, true) {
		logging.APIWarn("%s rejected: previous request still pending", action)
		return nil, ErrInFlight
	}
	defer gate.Store(false)

	status, raw, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	resp := &Response{Status: status}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &resp.Data); err != nil {
			if resp.OK() {
				return nil, fmt.Errorf("failed to decode %s response: %w", action, err)
			}
			// Rejections with non-JSON bodies still carry a usable status.
			logging.APIDebug("%s: undecodable %d body: %v", action, status, err)
		}
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.base.String() + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	log := logging.WithRequestID(logging.CategoryAPI, requestID).WithField("path", path)
	timer := logging.StartTimer(logging.CategoryAPI, method+" "+path)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("request failed: %v", err)
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read response: %v", err)
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	timer.StopWithThreshold(5 * time.Second)
	log.Debug("status %d (%d bytes)", resp.StatusCode, len(raw))

	return resp.StatusCode, raw, nil
}
