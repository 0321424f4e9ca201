package ui

import (
	"context"
	"strings"

	"hiredesk/internal/api"
	"hiredesk/internal/authflow"
	"hiredesk/internal/forms"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// entryView collects the credentials (login) or the email (recovery).
type entryView struct {
	flow     authflow.Flow
	email    textinput.Model
	password textinput.Model
	focused  int
	errs     forms.Errors
}

func newEntryView(flow authflow.Flow, identity string) entryView {
	email := textinput.New()
	email.Placeholder = "you@company.com"
	email.Prompt = "> "
	email.CharLimit = 254
	email.SetValue(identity)

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "> "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return entryView{flow: flow, email: email, password: password}
}

func (v *entryView) fields() int {
	if v.flow == authflow.FlowLogin {
		return 2
	}
	return 1
}

func (v *entryView) focus() tea.Cmd {
	v.email.Blur()
	v.password.Blur()
	if v.focused == 1 {
		return v.password.Focus()
	}
	return v.email.Focus()
}

func (v *entryView) handleKey(m *FlowModel, msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyTab, tea.KeyDown:
		v.focused = (v.focused + 1) % v.fields()
		return v.focus()
	case tea.KeyShiftTab, tea.KeyUp:
		v.focused = (v.focused + v.fields() - 1) % v.fields()
		return v.focus()
	case tea.KeyEnter:
		return v.submit(m)
	}
	if m.state.Loading {
		return nil
	}
	return v.updateInputs(msg)
}

func (v *entryView) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.email, cmd = v.email.Update(msg)
	cmds = append(cmds, cmd)
	v.password, cmd = v.password.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

// submit validates the form and issues the entry call. Invalid input shows
// inline errors and calls nothing.
func (v *entryView) submit(m *FlowModel) tea.Cmd {
	email := strings.TrimSpace(v.email.Value())

	if v.flow == authflow.FlowRecovery {
		v.errs = forms.RecoveryForm{Email: email}.Validate()
		if v.errs.Err() != nil {
			return nil
		}
		backend := m.backend
		return m.begin(callEntry, email, func(ctx context.Context) (*api.Response, error) {
			return backend.ResendOTP(ctx, email)
		})
	}

	creds := api.Credentials{Email: email, Password: v.password.Value()}
	v.errs = forms.LoginForm{Email: creds.Email, Password: creds.Password}.Validate()
	if v.errs.Err() != nil {
		return nil
	}
	backend := m.backend
	return m.begin(callEntry, email, func(ctx context.Context) (*api.Response, error) {
		return backend.Login(ctx, creds)
	})
}

func (v entryView) view(s Styles) string {
	lines := []string{s.Label.Render("Email"), v.email.View()}
	if msg := v.errs.For(forms.FieldEmail); msg != "" {
		lines = append(lines, s.FieldError.Render(msg))
	}
	if v.flow == authflow.FlowLogin {
		lines = append(lines, "", s.Label.Render("Password"), v.password.View())
		if msg := v.errs.For(forms.FieldPassword); msg != "" {
			lines = append(lines, s.FieldError.Render(msg))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
