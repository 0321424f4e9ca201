// Package mockapi is an in-memory stand-in for the recruiting service's auth
// and template endpoints, used by `hiredesk mock-api` and by tests.
package mockapi

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"

	"hiredesk/internal/forms"
	"hiredesk/internal/logging"
	"hiredesk/internal/resume"
)

const otpDigits = 6

// Options configures a Server.
type Options struct {
	Secret            string
	OTPTTL            time.Duration
	GrantTTL          time.Duration
	TokenTTL          time.Duration
	PasswordMinLength int
	AllowedOrigins    []string

	// OnIssue is called with every code issued. Called with the server
	// lock held; it must not call back into the server.
	OnIssue func(email, code string)

	// Now overrides the clock (tests).
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.Secret == "" {
		o.Secret = "hiredesk-dev-secret"
	}
	if o.OTPTTL <= 0 {
		o.OTPTTL = 10 * time.Minute
	}
	if o.GrantTTL <= 0 {
		o.GrantTTL = 15 * time.Minute
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 24 * time.Hour
	}
	if o.PasswordMinLength <= 0 {
		o.PasswordMinLength = forms.DefaultMinPasswordLength
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type issuedCode struct {
	code    string
	expires time.Time
}

// Server holds the mock backend state.
type Server struct {
	opts Options

	mu       sync.Mutex
	accounts map[string]*Account
	resumes  map[string]resume.Document
	codes    map[string]issuedCode
	grants   map[string]time.Time

	router chi.Router
}

// New builds a server seeded with f (DefaultFixtures when nil).
func New(f *Fixtures, opts Options) *Server {
	opts.setDefaults()
	s := &Server{
		opts:   opts,
		codes:  make(map[string]issuedCode),
		grants: make(map[string]time.Time),
	}
	if f == nil {
		f = DefaultFixtures()
	}
	s.Load(f)
	s.router = s.routes()
	return s
}

// Load replaces accounts and resumes. Outstanding codes and grants survive.
func (s *Server) Load(f *Fixtures) {
	accounts := make(map[string]*Account, len(f.Accounts))
	for _, a := range f.Accounts {
		accounts[normalizeEmail(a.Email)] = &a
	}
	resumes := make(map[string]resume.Document, len(f.Resumes))
	for _, d := range f.Resumes {
		resumes[resumeKey(d.Template.Slug, d.Dashboard.Username)] = d
	}

	s.mu.Lock()
	s.accounts = accounts
	s.resumes = resumes
	s.mu.Unlock()

	logging.Mock("fixtures loaded: %d accounts, %d resumes", len(accounts), len(resumes))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// LastOTP returns the outstanding code for email, if any.
func (s *Server) LastOTP(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[normalizeEmail(email)]
	if !ok || !s.opts.Now().Before(c.expires) {
		return "", false
	}
	return c.code, true
}

// Account returns a copy of the stored account.
func (s *Server) Account(email string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[normalizeEmail(email)]
	if !ok {
		return Account{}, false
	}
	return *a, true
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/resend-otp", s.handleResendOTP)
		r.Post("/verify-otp", s.handleVerifyOTP)
		r.Post("/reset-password", s.handleResetPassword)
	})

	r.Get("/template/{slug}/{username}", s.handleTemplate)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-Request-ID"); id != "" {
			w.Header().Set("X-Request-ID", id)
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.WithRequestID(logging.CategoryMock, r.Header.Get("X-Request-ID")).
			WithField("path", r.URL.Path).
			Info("%s -> %d in %v", r.Method, ww.Status(), time.Since(start))
	})
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type reply struct {
	Message       string   `json:"message,omitempty"`
	Error         string   `json:"error,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	IsPasswordSet *bool    `json:"isPasswordSet,omitempty"`
	Token         string   `json:"token,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	OTP   int    `json:"otp"`
	Type  string `json:"type"`
}

type resetRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, reply{Error: "invalid request body"})
		return false
	}
	return true
}

func boolPtr(b bool) *bool { return &b }

// =============================================================================
// HANDLERS
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[normalizeEmail(req.Email)]
	if !ok || (acct.PasswordSet() && acct.Password != req.Password) {
		writeJSON(w, http.StatusBadRequest, reply{Error: "Invalid email or password"})
		return
	}

	if !acct.Verified || !acct.PasswordSet() {
		if err := s.issueLocked(acct.Email); err != nil {
			writeJSON(w, http.StatusInternalServerError, reply{Error: "could not issue code"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, reply{
			Message:       "Verification code sent to your email",
			IsPasswordSet: boolPtr(acct.PasswordSet()),
		})
		return
	}

	token, err := s.token(acct.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, reply{Error: "could not issue token"})
		return
	}
	writeJSON(w, http.StatusOK, reply{Message: "Login successful", Token: token, IsPasswordSet: boolPtr(true)})
}

func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[normalizeEmail(req.Email)]
	if !ok {
		writeJSON(w, http.StatusNotFound, reply{Message: "No account found for this email"})
		return
	}
	if err := s.issueLocked(acct.Email); err != nil {
		writeJSON(w, http.StatusInternalServerError, reply{Error: "could not issue code"})
		return
	}
	writeJSON(w, http.StatusOK, reply{Message: "OTP sent to your email"})
}

func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Type != "login" && req.Type != "forgot" {
		writeJSON(w, http.StatusBadRequest, reply{Error: "type must be login or forgot"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(req.Email)
	acct, ok := s.accounts[key]
	if !ok || !s.consumeLocked(key, req.OTP) {
		writeJSON(w, http.StatusBadRequest, reply{Message: "Invalid or expired OTP"})
		return
	}

	now := s.opts.Now()
	if req.Type == "forgot" {
		s.grants[key] = now.Add(s.opts.GrantTTL)
		writeJSON(w, http.StatusOK, reply{Message: "OTP verified, set a new password"})
		return
	}

	acct.Verified = true
	if !acct.PasswordSet() {
		s.grants[key] = now.Add(s.opts.GrantTTL)
	}
	token, err := s.token(acct.Email)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, reply{Error: "could not issue token"})
		return
	}
	writeJSON(w, http.StatusOK, reply{
		Message:       "Email verified",
		Token:         token,
		IsPasswordSet: boolPtr(acct.PasswordSet()),
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decode(w, r, &req) {
		return
	}

	errs := forms.ResetForm{
		Password:  req.Password,
		Confirm:   req.ConfirmPassword,
		MinLength: s.opts.PasswordMinLength,
	}.Validate()
	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, fe := range errs {
			msgs[i] = fe.Message()
		}
		writeJSON(w, http.StatusBadRequest, reply{Errors: msgs})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(req.Email)
	acct, ok := s.accounts[key]
	expires, granted := s.grants[key]
	if !ok || !granted || !s.opts.Now().Before(expires) {
		delete(s.grants, key)
		writeJSON(w, http.StatusForbidden, reply{Message: "Verify your email before setting a password"})
		return
	}

	delete(s.grants, key)
	acct.Password = req.Password
	acct.Verified = true
	logging.Mock("password set for %s", logging.MaskEmail(acct.Email))
	writeJSON(w, http.StatusOK, reply{Message: "Password updated successfully"})
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	username := chi.URLParam(r, "username")

	s.mu.Lock()
	doc, ok := s.resumes[resumeKey(slug, username)]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, reply{Message: "Template not found"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// =============================================================================
// CODES AND TOKENS
// =============================================================================

// GenerateOTP returns six random decimal digits.
func GenerateOTP() (string, error) {
	b := make([]byte, otpDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, otpDigits)
	for i := range b {
		out[i] = '0' + b[i]%10
	}
	return string(out), nil
}

// issueLocked replaces any outstanding code for email. Caller holds s.mu.
func (s *Server) issueLocked(email string) error {
	code, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	s.codes[normalizeEmail(email)] = issuedCode{code: code, expires: s.opts.Now().Add(s.opts.OTPTTL)}
	logging.MockDebug("otp for %s: %s", email, code)
	if s.opts.OnIssue != nil {
		s.opts.OnIssue(email, code)
	}
	return nil
}

// consumeLocked checks and burns the code. Caller holds s.mu.
func (s *Server) consumeLocked(key string, otp int) bool {
	c, ok := s.codes[key]
	if !ok {
		return false
	}
	if !s.opts.Now().Before(c.expires) {
		delete(s.codes, key)
		return false
	}
	if fmt.Sprintf("%0*d", otpDigits, otp) != c.code {
		return false
	}
	delete(s.codes, key)
	return true
}

// TokenClaims are the claims carried by issued tokens.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (s *Server) token(email string) (string, error) {
	now := s.opts.Now()
	claims := TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    "hiredesk-mock",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.Secret))
}

// VerifyToken checks a token issued by this server.
func (s *Server) VerifyToken(token string) (*TokenClaims, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return []byte(s.opts.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.opts.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return &claims, nil
}
