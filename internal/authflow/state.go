package authflow

import (
	"errors"
	"fmt"

	"hiredesk/internal/api"
)

var (
	// ErrBusy is returned by Begin while a call for the active step is pending.
	ErrBusy = errors.New("a request for this step is already in flight")

	// ErrMissingIdentity marks a verify or reset step with no pending email.
	ErrMissingIdentity = errors.New("no pending identity for this step")
)

// State is the navigation state of one flow.
type State struct {
	Flow     Flow
	Step     Step
	Identity string
	Loading  bool
}

// New returns the initial state of a flow.
func New(flow Flow) State {
	return State{Flow: flow, Step: StepEntry}
}

// Restore rebuilds a state from a persisted cursor and identity.
// A verify or reset cursor without an identity restores to the entry step.
func Restore(flow Flow, cursor int, identity string) State {
	s := State{Flow: flow, Step: StepFromCursor(cursor), Identity: identity}
	if s.Check() != nil {
		return New(flow)
	}
	return s
}

// Check validates the step/identity invariant.
func (s State) Check() error {
	if s.Step != StepEntry && s.Identity == "" {
		return fmt.Errorf("%s step: %w", s.Step, ErrMissingIdentity)
	}
	return nil
}

// Begin marks a call for the active step as in flight.
func (s State) Begin() (State, error) {
	if s.Loading {
		return s, ErrBusy
	}
	s.Loading = true
	return s, nil
}

// Abandon returns the flow to its entry step and forgets the identity.
func (s State) Abandon() State {
	return New(s.Flow)
}

// Destination says where the caller should go after a transition.
type Destination int

const (
	// Stay keeps the flow on screen (possibly on a new step).
	Stay Destination = iota
	// Dashboard ends the flow signed in.
	Dashboard
	// SignIn ends the recovery flow; the user signs in with the new password.
	SignIn
)

func (d Destination) String() string {
	switch d {
	case Dashboard:
		return "dashboard"
	case SignIn:
		return "sign-in"
	default:
		return "stay"
	}
}

// Outcome describes the visible result of a transition.
type Outcome struct {
	Destination Destination
	// Notice is a success message from the server.
	Notice string
	// Error is a server-reported failure, shown verbatim.
	Error string
	// Token is the session token when the server issued one.
	Token string
	// Fault is a transport or unexpected error; it is logged, not shown.
	Fault error
}

// EntrySettled applies the answer to the entry step's call.
// For login that is the login call, for recovery the OTP request.
func EntrySettled(s State, email string, resp *api.Response) (State, Outcome) {
	s.Loading = false

	if s.Flow == FlowRecovery {
		if !resp.OK() {
			return s, Outcome{Error: resp.ErrorMessage()}
		}
		s.Identity = email
		s.Step = StepVerify
		return s, Outcome{Notice: resp.Data.Message}
	}

	switch {
	case resp.OK() && resp.Data.Token != "":
		s.Identity = email
		return s, Outcome{Destination: Dashboard, Notice: resp.Data.Message, Token: resp.Data.Token}
	case resp.OK(), resp.Unauthorized():
		s.Identity = email
		s.Step = StepVerify
		return s, Outcome{Notice: resp.Data.Message}
	default:
		return s, Outcome{Error: resp.ErrorMessage()}
	}
}

// VerifySettled applies the answer to OTP verification.
func VerifySettled(s State, resp *api.Response) (State, Outcome) {
	s.Loading = false

	if !resp.OK() {
		return s, Outcome{Error: resp.ErrorMessage()}
	}

	if s.Flow == FlowLogin && resp.PasswordSet() {
		return s, Outcome{Destination: Dashboard, Notice: resp.Data.Message, Token: resp.Data.Token}
	}
	s.Step = StepReset
	return s, Outcome{Notice: resp.Data.Message, Token: resp.Data.Token}
}

// ResendSettled applies the answer to an explicit OTP resend. It never moves
// the cursor.
func ResendSettled(resp *api.Response) Outcome {
	if !resp.OK() {
		return Outcome{Error: resp.ErrorMessage()}
	}
	return Outcome{Notice: resp.Data.Message}
}

// ResetSettled applies the answer to the password set call.
func ResetSettled(s State, resp *api.Response) (State, Outcome) {
	s.Loading = false

	if !resp.OK() {
		return s, Outcome{Error: resp.ErrorMessage()}
	}
	if s.Flow == FlowLogin {
		return s, Outcome{Destination: Dashboard, Notice: resp.Data.Message, Token: resp.Data.Token}
	}
	return New(s.Flow), Outcome{Destination: SignIn, Notice: resp.Data.Message}
}

// Failed records a transport or unexpected error. The cursor does not move
// and nothing is surfaced beyond the cleared loading state.
func Failed(s State, err error) (State, Outcome) {
	s.Loading = false
	return s, Outcome{Fault: err}
}
