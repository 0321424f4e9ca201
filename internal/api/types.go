package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInFlight is returned when the same action is already waiting on the server.
var ErrInFlight = errors.New("request already in flight")

// Wire discriminators for VerifyOTP.
const (
	VerifyTypeLogin  = "login"
	VerifyTypeForgot = "forgot"
)

// Body is the JSON payload returned by the auth endpoints.
// Success responses carry Message (and sometimes Token / IsPasswordSet);
// failures carry Message, Error or Errors depending on the endpoint.
type Body struct {
	Message       string   `json:"message,omitempty"`
	Error         string   `json:"error,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	IsPasswordSet *bool    `json:"isPasswordSet,omitempty"`
	Token         string   `json:"token,omitempty"`
}

// Response pairs the HTTP status with the decoded body.
// Non-2xx statuses are data, not errors: callers branch on Status.
type Response struct {
	Status int
	Data   Body
}

// OK reports whether the server accepted the request.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Unauthorized reports the "verification required" convention of the login endpoint.
func (r *Response) Unauthorized() bool {
	return r != nil && r.Status == http.StatusUnauthorized
}

// PasswordSet reports whether the account already has a password.
// An absent flag is treated as set.
func (r *Response) PasswordSet() bool {
	if r == nil || r.Data.IsPasswordSet == nil {
		return true
	}
	return *r.Data.IsPasswordSet
}

// ErrorMessage returns the message to show for a rejected request:
// message, then error, then the first of errors, then the status text.
func (r *Response) ErrorMessage() string {
	if r == nil {
		return ""
	}
	switch {
	case r.Data.Message != "":
		return r.Data.Message
	case r.Data.Error != "":
		return r.Data.Error
	case len(r.Data.Errors) > 0 && r.Data.Errors[0] != "":
		return r.Data.Errors[0]
	}
	if text := http.StatusText(r.Status); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", r.Status)
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Verification is the OTP verification request body.
type Verification struct {
	Email string `json:"email"`
	OTP   int    `json:"otp"`
	Type  string `json:"type"`
}

// PasswordReset is the password set/reset request body.
type PasswordReset struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type resendRequest struct {
	Email string `json:"email"`
}

// StatusError is returned by read-only endpoints when the server rejects the request.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}
