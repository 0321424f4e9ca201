package ui

import (
	"context"
	"time"

	"hiredesk/internal/api"
	"hiredesk/internal/authflow"
	"hiredesk/internal/forms"
	"hiredesk/internal/logging"
	"hiredesk/internal/otp"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Backend is the subset of the API client the flows call.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.Response, error)
	ResendOTP(ctx context.Context, email string) (*api.Response, error)
	VerifyOTP(ctx context.Context, v api.Verification) (*api.Response, error)
	ResetPassword(ctx context.Context, r api.PasswordReset) (*api.Response, error)
}

// Options configures a FlowModel.
type Options struct {
	Backend Backend
	Flow    authflow.Flow

	// Initial resumes a persisted state. Nil starts at the entry step.
	Initial *authflow.State

	Styles            *Styles
	Cooldown          time.Duration
	PasswordMinLength int
	Width             int

	// Context bounds every call. Defaults to context.Background().
	Context context.Context
}

// Result is what the flow ended with.
type Result struct {
	Destination authflow.Destination
	Token       string
	Identity    string
	// State is the last navigation state, persisted when Interrupted.
	State       authflow.State
	Interrupted bool
}

type callKind int

const (
	callEntry callKind = iota
	callVerify
	callResend
	callReset
)

func (k callKind) String() string {
	switch k {
	case callVerify:
		return "verify"
	case callResend:
		return "resend"
	case callReset:
		return "reset"
	default:
		return "entry"
	}
}

// settledMsg carries an API answer back to the loop. mount identifies the
// view that issued the call.
type settledMsg struct {
	mount int
	kind  callKind
	email string
	resp  *api.Response
	err   error
	dur   time.Duration
}

// cooldownTickMsg is one second of the resend cooldown.
type cooldownTickMsg struct {
	mount int
}

// FlowModel runs one login or recovery flow.
type FlowModel struct {
	backend Backend
	ctx     context.Context
	styles  Styles
	audit   *logging.AuditLogger

	state  authflow.State
	active authflow.Step
	mount  int

	entry  entryView
	verify verifyView
	reset  resetView

	spinner   spinner.Model
	cooldown  time.Duration
	minLength int
	width     int
	maxWidth  int

	notice string
	errMsg string
	token  string

	result  Result
	done    bool
	initCmd tea.Cmd
	tick    func(mount int) tea.Cmd
}

// NewFlowModel builds the model and mounts the view for the starting step.
func NewFlowModel(opts Options) FlowModel {
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = otp.DefaultCooldown
	}
	minLength := opts.PasswordMinLength
	if minLength <= 0 {
		minLength = forms.DefaultMinPasswordLength
	}
	width := opts.Width
	if width <= 0 {
		width = 80
	}

	state := authflow.New(opts.Flow)
	resumed := false
	if opts.Initial != nil {
		state = *opts.Initial
		state.Flow = opts.Flow
		state.Loading = false
		resumed = state.Step != authflow.StepEntry
	}

	s := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Spinner))

	m := FlowModel{
		backend:   opts.Backend,
		ctx:       ctx,
		styles:    styles,
		audit:     logging.AuditWithFlow(opts.Flow.String()),
		state:     state,
		spinner:   s,
		cooldown:  cooldown,
		minLength: minLength,
		width:     width,
		maxWidth:  width,
		tick:      cooldownTick,
	}
	m.initCmd = m.dispatch(state.Step)
	m.audit.FlowStart(m.active.String(), m.state.Identity, resumed)
	logging.UI("flow %s mounted at %s (resumed=%v)", opts.Flow, m.active, resumed)
	return m
}

func cooldownTick(mount int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return cooldownTickMsg{mount: mount}
	})
}

// dispatch mounts the view for step. Every mount gets a new id, so results
// and ticks issued by the previous view are dropped.
func (m *FlowModel) dispatch(step authflow.Step) tea.Cmd {
	m.mount++
	switch step {
	case authflow.StepVerify:
		m.active = authflow.StepVerify
		m.verify = newVerifyView()
		return nil
	case authflow.StepReset:
		m.active = authflow.StepReset
		m.reset = newResetView()
		return m.reset.focus()
	case authflow.StepEntry:
		fallthrough
	default:
		m.active = authflow.StepEntry
		m.state.Step = authflow.StepEntry
		m.entry = newEntryView(m.state.Flow, m.state.Identity)
		return m.entry.focus()
	}
}

// Init implements tea.Model.
func (m FlowModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.initCmd)
}

// Update implements tea.Model.
func (m FlowModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	return m, cmd
}

func (m *FlowModel) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Follow the terminal, never past the configured width.
		if msg.Width > 0 {
			m.width = min(msg.Width, m.maxWidth)
		}
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case settledMsg:
		if msg.mount != m.mount {
			logging.UIDebug("dropping stale %s result (mount %d, current %d)", msg.kind, msg.mount, m.mount)
			return nil
		}
		return m.settle(msg)

	case cooldownTickMsg:
		if msg.mount != m.mount || m.active != authflow.StepVerify {
			return nil
		}
		if m.verify.cooldown.Tick() {
			return m.tick(msg.mount)
		}
		return nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.finish(Result{Interrupted: true})
			return tea.Quit
		case "esc":
			if m.active == authflow.StepEntry {
				m.finish(Result{})
				return tea.Quit
			}
			m.audit.Abandon(m.active.String(), m.state.Identity)
			m.state = m.state.Abandon()
			m.notice, m.errMsg = "", ""
			return m.dispatch(authflow.StepEntry)
		}

		switch m.active {
		case authflow.StepVerify:
			return m.verify.handleKey(m, msg)
		case authflow.StepReset:
			return m.reset.handleKey(m, msg)
		default:
			return m.entry.handleKey(m, msg)
		}
	}

	// Forward everything else (cursor blinks) to the focused inputs.
	switch m.active {
	case authflow.StepReset:
		return m.reset.updateInputs(msg)
	case authflow.StepEntry:
		return m.entry.updateInputs(msg)
	}
	return nil
}

// begin marks the active step loading and returns the call. A second submit
// while loading is a no-op.
func (m *FlowModel) begin(kind callKind, email string, fn func(context.Context) (*api.Response, error)) tea.Cmd {
	next, err := m.state.Begin()
	if err != nil {
		logging.UIDebug("%s submit ignored: %v", kind, err)
		return nil
	}
	m.state = next
	m.errMsg = ""
	return m.call(kind, email, fn)
}

func (m *FlowModel) call(kind callKind, email string, fn func(context.Context) (*api.Response, error)) tea.Cmd {
	mount, ctx := m.mount, m.ctx
	return func() tea.Msg {
		start := time.Now()
		resp, err := fn(ctx)
		return settledMsg{mount: mount, kind: kind, email: email, resp: resp, err: err, dur: time.Since(start)}
	}
}

func (m *FlowModel) settle(msg settledMsg) tea.Cmd {
	status := 0
	if msg.resp != nil {
		status = msg.resp.Status
	}
	m.audit.Request(auditType(m.state.Flow, msg.kind), status, msg.err, msg.dur)

	if msg.kind == callResend {
		m.verify.resending = false
		if msg.err != nil {
			logging.UIWarn("resend failed: %v", msg.err)
			return nil
		}
		out := authflow.ResendSettled(msg.resp)
		m.show(out)
		if out.Error != "" {
			return nil
		}
		m.verify.buf.Reset()
		if err := m.verify.cooldown.Start(m.cooldown); err != nil {
			return nil
		}
		return m.tick(m.mount)
	}

	from := m.state.Step
	var out authflow.Outcome
	if msg.err != nil {
		m.state, out = authflow.Failed(m.state, msg.err)
	} else {
		switch msg.kind {
		case callEntry:
			m.state, out = authflow.EntrySettled(m.state, msg.email, msg.resp)
		case callVerify:
			m.state, out = authflow.VerifySettled(m.state, msg.resp)
		case callReset:
			m.state, out = authflow.ResetSettled(m.state, msg.resp)
		}
	}
	if out.Fault != nil {
		logging.UIWarn("%s call failed: %v", msg.kind, out.Fault)
	}
	m.show(out)
	if out.Token != "" {
		m.token = out.Token
	}

	if out.Destination != authflow.Stay {
		m.audit.Complete(out.Destination.String(), msg.email)
		m.finish(Result{Destination: out.Destination})
		return tea.Quit
	}
	if m.state.Step != from {
		m.audit.Step(from.String(), m.state.Step.String(), m.state.Identity)
		return m.dispatch(m.state.Step)
	}
	return nil
}

// show replaces the banner with the outcome's message.
func (m *FlowModel) show(out authflow.Outcome) {
	switch {
	case out.Error != "":
		m.errMsg, m.notice = out.Error, ""
	case out.Notice != "":
		m.errMsg, m.notice = "", out.Notice
	}
}

func (m *FlowModel) finish(r Result) {
	r.State = m.state
	r.Identity = m.state.Identity
	if r.Destination != authflow.Stay {
		r.Token = m.token
	}
	m.result = r
	m.done = true
}

func auditType(flow authflow.Flow, kind callKind) logging.AuditEventType {
	switch kind {
	case callVerify:
		return logging.AuditOTPVerify
	case callResend:
		return logging.AuditOTPResend
	case callReset:
		return logging.AuditPasswordReset
	}
	if flow == authflow.FlowRecovery {
		return logging.AuditOTPResend
	}
	return logging.AuditFlowStep
}

// Result returns how the flow ended. Valid once the program has quit.
func (m FlowModel) Result() Result {
	return m.result
}

// Done reports whether the flow reached a destination or was left.
func (m FlowModel) Done() bool {
	return m.done
}

// State returns the current navigation state.
func (m FlowModel) State() authflow.State {
	return m.state
}

// View implements tea.Model.
func (m FlowModel) View() string {
	if m.done {
		return ""
	}

	var title, subtitle, body, help string
	switch m.active {
	case authflow.StepVerify:
		title = "Enter verification code"
		subtitle = "We sent a 6-digit code to " + m.state.Identity
		body = m.verify.view(m.styles)
		help = m.verify.help(m.styles)
	case authflow.StepReset:
		title = "Choose a new password"
		if m.state.Flow == authflow.FlowLogin {
			title = "Set a password"
		}
		subtitle = "For " + m.state.Identity
		body = m.reset.view(m.styles, m.minLength)
		help = m.styles.Help("tab", "next field", "enter", "save", "esc", "start over")
	default:
		title = "Sign in"
		subtitle = "Use your recruiting account"
		if m.state.Flow == authflow.FlowRecovery {
			title = "Reset your password"
			subtitle = "We'll email you a verification code"
		}
		body = m.entry.view(m.styles)
		help = m.styles.Help("tab", "next field", "enter", "submit", "esc", "quit")
	}

	parts := []string{
		m.styles.Title.Render(title),
		m.styles.Subtitle.Render(subtitle),
		"",
		body,
	}
	if m.state.Loading || m.verify.resending {
		parts = append(parts, "", m.spinner.View()+" "+m.styles.Muted.Render("Working..."))
	}
	if m.errMsg != "" {
		parts = append(parts, "", m.styles.Error.Render(m.errMsg))
	} else if m.notice != "" {
		parts = append(parts, "", m.styles.Success.Render(m.notice))
	}
	parts = append(parts, help)

	return m.styles.Box.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
