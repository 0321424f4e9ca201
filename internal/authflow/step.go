// Package authflow is the navigation state machine behind the login and
// password-recovery flows.
//
// A flow moves through three steps:
//
//	entry  → credentials (login) or email (recovery)
//	verify → six-digit OTP sent to the pending identity
//	reset  → new password for the pending identity
//
// State is a value. Every transition is a pure function that takes the
// current state plus the server's answer and returns the next state and an
// Outcome describing what the caller should show or where it should go.
package authflow

import (
	"fmt"
	"strings"

	"hiredesk/internal/api"
)

// Flow identifies which sequence of steps is running.
type Flow int

const (
	FlowLogin Flow = iota
	FlowRecovery
)

// String returns the flow name used in storage and logs.
func (f Flow) String() string {
	switch f {
	case FlowRecovery:
		return "recovery"
	default:
		return "login"
	}
}

// VerifyType is the discriminator sent with OTP verification.
func (f Flow) VerifyType() string {
	if f == FlowRecovery {
		return api.VerifyTypeForgot
	}
	return api.VerifyTypeLogin
}

// ParseFlow parses a flow name.
func ParseFlow(s string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "login", "":
		return FlowLogin, nil
	case "recovery", "forgot", "forgot-password":
		return FlowRecovery, nil
	}
	return FlowLogin, fmt.Errorf("unknown flow %q", s)
}

// Step is the active view of a flow.
type Step int

const (
	StepEntry Step = iota
	StepVerify
	StepReset
)

// StepFromCursor maps a raw cursor to a step. Anything unknown is the entry step.
func StepFromCursor(cursor int) Step {
	switch Step(cursor) {
	case StepVerify:
		return StepVerify
	case StepReset:
		return StepReset
	default:
		return StepEntry
	}
}

// Cursor returns the integer form of the step.
func (s Step) Cursor() int {
	return int(s)
}

func (s Step) String() string {
	switch s {
	case StepVerify:
		return "verify"
	case StepReset:
		return "reset"
	case StepEntry:
		return "entry"
	}
	return fmt.Sprintf("step(%d)", int(s))
}
