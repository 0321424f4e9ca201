package ui

import (
	"context"
	"fmt"

	"hiredesk/internal/api"
	"hiredesk/internal/forms"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// resetView sets the password of the pending identity.
type resetView struct {
	password textinput.Model
	confirm  textinput.Model
	focused  int
	errs     forms.Errors
}

func newResetView() resetView {
	newInput := func(placeholder string) textinput.Model {
		in := textinput.New()
		in.Placeholder = placeholder
		in.Prompt = "> "
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
		return in
	}
	return resetView{
		password: newInput("new password"),
		confirm:  newInput("repeat it"),
	}
}

func (v *resetView) focus() tea.Cmd {
	v.password.Blur()
	v.confirm.Blur()
	if v.focused == 1 {
		return v.confirm.Focus()
	}
	return v.password.Focus()
}

func (v *resetView) handleKey(m *FlowModel, msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown, tea.KeyShiftTab, tea.KeyUp:
		v.focused = 1 - v.focused
		return v.focus()
	case tea.KeyEnter:
		return v.submit(m)
	}
	if m.state.Loading {
		return nil
	}
	return v.updateInputs(msg)
}

func (v *resetView) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd1, cmd2 tea.Cmd
	v.password, cmd1 = v.password.Update(msg)
	v.confirm, cmd2 = v.confirm.Update(msg)
	return tea.Batch(cmd1, cmd2)
}

func (v *resetView) submit(m *FlowModel) tea.Cmd {
	form := forms.ResetForm{
		Password:  v.password.Value(),
		Confirm:   v.confirm.Value(),
		MinLength: m.minLength,
	}
	v.errs = form.Validate()
	if v.errs.Err() != nil {
		return nil
	}

	req := api.PasswordReset{
		Email:           m.state.Identity,
		Password:        form.Password,
		ConfirmPassword: form.Confirm,
	}
	backend := m.backend
	return m.begin(callReset, req.Email, func(ctx context.Context) (*api.Response, error) {
		return backend.ResetPassword(ctx, req)
	})
}

func (v resetView) view(s Styles, minLength int) string {
	lines := []string{
		s.Body.Render(fmt.Sprintf("Use at least %d characters.", minLength)),
		"",
		s.Label.Render("New password"),
		v.password.View(),
	}
	if msg := v.errs.For(forms.FieldPassword); msg != "" {
		lines = append(lines, s.FieldError.Render(msg))
	}
	lines = append(lines, "", s.Label.Render("Confirm password"), v.confirm.View())
	if msg := v.errs.For(forms.FieldConfirmPassword); msg != "" {
		lines = append(lines, s.FieldError.Render(msg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
