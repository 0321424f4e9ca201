package ui

import (
	"context"
	"fmt"

	"hiredesk/internal/api"
	"hiredesk/internal/otp"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// verifyView is the six-slot code entry plus the resend control.
type verifyView struct {
	buf       otp.Buffer
	cooldown  otp.Cooldown
	resending bool
}

func newVerifyView() verifyView {
	return verifyView{buf: otp.NewBuffer()}
}

func (v *verifyView) handleKey(m *FlowModel, msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyRunes:
		// Terminals without bracketed paste deliver a paste as one multi-rune key.
		if msg.Paste || len(msg.Runes) > 1 {
			v.buf.Paste(string(msg.Runes))
		} else if len(msg.Runes) == 1 {
			v.buf.Input(msg.Runes[0])
		}
		return nil
	case tea.KeyBackspace, tea.KeyDelete:
		v.buf.Backspace()
		return nil
	case tea.KeyLeft:
		v.buf.MoveLeft()
		return nil
	case tea.KeyRight:
		v.buf.MoveRight()
		return nil
	case tea.KeyEnter:
		return v.submit(m)
	case tea.KeyCtrlR:
		return v.resend(m)
	}
	return nil
}

// canSubmit reports whether Enter would issue a verification.
func (v verifyView) canSubmit(loading bool) bool {
	return v.buf.Complete() && !loading
}

// canResend reports whether ctrl+r would request a new code.
func (v verifyView) canResend() bool {
	return !v.cooldown.Active() && !v.resending
}

func (v *verifyView) submit(m *FlowModel) tea.Cmd {
	if !v.canSubmit(m.state.Loading) {
		return nil
	}
	code, ok := v.buf.Number()
	if !ok {
		return nil
	}
	req := api.Verification{
		Email: m.state.Identity,
		OTP:   code,
		Type:  m.state.Flow.VerifyType(),
	}
	backend := m.backend
	return m.begin(callVerify, req.Email, func(ctx context.Context) (*api.Response, error) {
		return backend.VerifyOTP(ctx, req)
	})
}

// resend does not touch the step's loading flag: a resend may overlap a
// pending verification.
func (v *verifyView) resend(m *FlowModel) tea.Cmd {
	if !v.canResend() {
		return nil
	}
	v.resending = true
	email := m.state.Identity
	backend := m.backend
	return m.call(callResend, email, func(ctx context.Context) (*api.Response, error) {
		return backend.ResendOTP(ctx, email)
	})
}

func (v verifyView) view(s Styles) string {
	slots := make([]string, otp.Length)
	for i, d := range v.buf.Slots {
		if d == "" {
			d = " "
		}
		style := s.Slot
		if i == v.buf.Focus {
			style = s.SlotFocused
		}
		slots[i] = style.Render(d)
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, slots...)
	if v.cooldown.Active() && !v.resending {
		wait := s.Warning.Render(fmt.Sprintf("You can request a new code in %ds.", v.cooldown.Remaining()))
		return lipgloss.JoinVertical(lipgloss.Left, row, "", wait)
	}
	return row
}

func (v verifyView) help(s Styles) string {
	pairs := []string{"enter", "verify"}
	switch {
	case v.resending:
		pairs = append(pairs, "ctrl+r", "sending...")
	case !v.cooldown.Active():
		pairs = append(pairs, "ctrl+r", "resend code")
	}
	pairs = append(pairs, "esc", "start over")
	return s.Help(pairs...)
}
