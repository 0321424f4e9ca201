package authflow

import (
	"errors"
	"net/http"
	"testing"

	"hiredesk/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func resp(status int, body api.Body) *api.Response {
	return &api.Response{Status: status, Data: body}
}

func TestStepFromCursor(t *testing.T) {
	tests := []struct {
		cursor int
		want   Step
	}{
		{0, StepEntry},
		{1, StepVerify},
		{2, StepReset},
		{3, StepEntry},
		{-1, StepEntry},
		{42, StepEntry},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StepFromCursor(tt.cursor), "cursor %d", tt.cursor)
	}
}

func TestParseFlow(t *testing.T) {
	f, err := ParseFlow("forgot")
	require.NoError(t, err)
	assert.Equal(t, FlowRecovery, f)
	assert.Equal(t, api.VerifyTypeForgot, f.VerifyType())

	f, err = ParseFlow("login")
	require.NoError(t, err)
	assert.Equal(t, api.VerifyTypeLogin, f.VerifyType())

	_, err = ParseFlow("signup")
	assert.Error(t, err)
}

func TestRestore(t *testing.T) {
	s := Restore(FlowRecovery, 1, "ada@example.com")
	assert.Equal(t, StepVerify, s.Step)
	assert.Equal(t, "ada@example.com", s.Identity)

	// Unknown cursor falls back to entry.
	s = Restore(FlowLogin, 9, "ada@example.com")
	assert.Equal(t, StepEntry, s.Step)

	// Verify without identity is not restorable.
	s = Restore(FlowLogin, 1, "")
	assert.Equal(t, New(FlowLogin), s)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, New(FlowLogin).Check())
	err := State{Flow: FlowLogin, Step: StepReset}.Check()
	assert.True(t, errors.Is(err, ErrMissingIdentity))
}

func TestBegin(t *testing.T) {
	s, err := New(FlowLogin).Begin()
	require.NoError(t, err)
	assert.True(t, s.Loading)

	_, err = s.Begin()
	assert.ErrorIs(t, err, ErrBusy)
}

func TestEntrySettled_Login(t *testing.T) {
	const email = "ada@example.com"
	tests := []struct {
		name     string
		resp     *api.Response
		wantStep Step
		wantDest Destination
		wantErr  string
		wantID   string
	}{
		{
			name:     "signed in",
			resp:     resp(http.StatusOK, api.Body{Message: "Welcome back", Token: "tok"}),
			wantStep: StepEntry,
			wantDest: Dashboard,
			wantID:   email,
		},
		{
			name:     "ok without token needs verification",
			resp:     resp(http.StatusOK, api.Body{Message: "OTP sent"}),
			wantStep: StepVerify,
			wantID:   email,
		},
		{
			name:     "unauthorized needs verification",
			resp:     resp(http.StatusUnauthorized, api.Body{Message: "Verify your email"}),
			wantStep: StepVerify,
			wantID:   email,
		},
		{
			name:     "rejected",
			resp:     resp(http.StatusBadRequest, api.Body{Error: "Invalid credentials"}),
			wantStep: StepEntry,
			wantErr:  "Invalid credentials",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := New(FlowLogin).Begin()
			next, out := EntrySettled(s, email, tt.resp)
			assert.False(t, next.Loading)
			assert.Equal(t, tt.wantStep, next.Step)
			assert.Equal(t, tt.wantDest, out.Destination)
			assert.Equal(t, tt.wantErr, out.Error)
			assert.Equal(t, tt.wantID, next.Identity)
			assert.NoError(t, next.Check())
		})
	}
}

func TestEntrySettled_Recovery(t *testing.T) {
	s := New(FlowRecovery)

	next, out := EntrySettled(s, "ada@example.com", resp(http.StatusOK, api.Body{Message: "OTP sent"}))
	assert.Equal(t, StepVerify, next.Step)
	assert.Equal(t, "ada@example.com", next.Identity)
	assert.Equal(t, "OTP sent", out.Notice)

	// A 401 is a plain failure for recovery.
	next, out = EntrySettled(s, "ada@example.com", resp(http.StatusUnauthorized, api.Body{Message: "No such account"}))
	assert.Equal(t, StepEntry, next.Step)
	assert.Empty(t, next.Identity)
	assert.Equal(t, "No such account", out.Error)
}

func TestVerifySettled(t *testing.T) {
	login := State{Flow: FlowLogin, Step: StepVerify, Identity: "ada@example.com", Loading: true}
	recovery := State{Flow: FlowRecovery, Step: StepVerify, Identity: "ada@example.com", Loading: true}

	t.Run("login without password goes to reset", func(t *testing.T) {
		next, out := VerifySettled(login, resp(http.StatusOK, api.Body{IsPasswordSet: boolPtr(false), Token: "tok"}))
		assert.Equal(t, StepReset, next.Step)
		assert.Equal(t, Stay, out.Destination)
		assert.Equal(t, "tok", out.Token)
		assert.False(t, next.Loading)
	})

	t.Run("login with password goes to dashboard", func(t *testing.T) {
		next, out := VerifySettled(login, resp(http.StatusOK, api.Body{IsPasswordSet: boolPtr(true), Token: "tok"}))
		assert.Equal(t, StepVerify, next.Step)
		assert.Equal(t, Dashboard, out.Destination)
		assert.Equal(t, "tok", out.Token)
	})

	t.Run("recovery goes to reset", func(t *testing.T) {
		next, out := VerifySettled(recovery, resp(http.StatusOK, api.Body{Message: "Verified", IsPasswordSet: boolPtr(true)}))
		assert.Equal(t, StepReset, next.Step)
		assert.Equal(t, Stay, out.Destination)
	})

	t.Run("rejection keeps the cursor and falls back through error fields", func(t *testing.T) {
		next, out := VerifySettled(login, resp(http.StatusBadRequest, api.Body{Error: "Invalid OTP"}))
		assert.Equal(t, StepVerify, next.Step)
		assert.Equal(t, "Invalid OTP", out.Error)

		_, out = VerifySettled(login, resp(http.StatusBadRequest, api.Body{Errors: []string{"otp must be 6 digits"}}))
		assert.Equal(t, "otp must be 6 digits", out.Error)
	})
}

func TestResetSettled(t *testing.T) {
	login := State{Flow: FlowLogin, Step: StepReset, Identity: "ada@example.com"}
	recovery := State{Flow: FlowRecovery, Step: StepReset, Identity: "ada@example.com"}

	_, out := ResetSettled(login, resp(http.StatusOK, api.Body{Message: "Password set"}))
	assert.Equal(t, Dashboard, out.Destination)

	next, out := ResetSettled(recovery, resp(http.StatusOK, api.Body{Message: "Password updated"}))
	assert.Equal(t, SignIn, out.Destination)
	assert.Equal(t, New(FlowRecovery), next)

	next, out = ResetSettled(recovery, resp(http.StatusUnprocessableEntity, api.Body{Errors: []string{"password too weak"}}))
	assert.Equal(t, StepReset, next.Step)
	assert.Equal(t, "password too weak", out.Error)
}

func TestResendSettled(t *testing.T) {
	out := ResendSettled(resp(http.StatusOK, api.Body{Message: "OTP resent"}))
	assert.Equal(t, "OTP resent", out.Notice)
	assert.Empty(t, out.Error)

	out = ResendSettled(resp(http.StatusTooManyRequests, api.Body{Error: "Slow down"}))
	assert.Equal(t, "Slow down", out.Error)
}

func TestFailed(t *testing.T) {
	s := State{Flow: FlowLogin, Step: StepVerify, Identity: "ada@example.com", Loading: true}
	boom := errors.New("connection refused")
	next, out := Failed(s, boom)
	assert.False(t, next.Loading)
	assert.Equal(t, StepVerify, next.Step)
	assert.Empty(t, out.Error)
	assert.Equal(t, boom, out.Fault)
}

func TestAbandon(t *testing.T) {
	s := State{Flow: FlowRecovery, Step: StepReset, Identity: "ada@example.com"}
	assert.Equal(t, New(FlowRecovery), s.Abandon())
}
