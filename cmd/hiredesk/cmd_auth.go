package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hiredesk/cmd/hiredesk/ui"
	"hiredesk/internal/authflow"
	"hiredesk/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var resumeFlow bool

// loginCmd runs the login flow
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the recruiting service",
	Long: `Signs in with email and password.

Accounts that are not verified yet receive a 6-digit code by email.
Accounts without a password set one after verifying the code.

If a previous login was interrupted (ctrl+c), --resume continues it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthFlow(cmd, authflow.FlowLogin)
	},
}

// recoverCmd runs the password recovery flow
var recoverCmd = &cobra.Command{
	Use:     "recover",
	Aliases: []string{"forgot-password"},
	Short:   "Reset a forgotten password",
	Long: `Sends a verification code to your email and lets you choose a new
password. Sign in afterwards with 'hiredesk login'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAuthFlow(cmd, authflow.FlowRecovery)
	},
}

// whoamiCmd shows the stored session
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

// logoutCmd forgets the session
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget interrupted flows",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().BoolVar(&resumeFlow, "resume", false, "Continue an interrupted login")
	recoverCmd.Flags().BoolVar(&resumeFlow, "resume", false, "Continue an interrupted recovery")
}

// runProgram runs the flow TUI until it quits.
var runProgram = func(ctx context.Context, m ui.FlowModel) (ui.FlowModel, error) {
	final, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
	if err != nil {
		return m, err
	}
	fm, ok := final.(ui.FlowModel)
	if !ok {
		return m, fmt.Errorf("unexpected model type %T", final)
	}
	return fm, nil
}

func runAuthFlow(cmd *cobra.Command, flow authflow.Flow) error {
	out := cmd.OutOrStdout()

	store, err := session.Open(cfg.Home())
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	var initial *authflow.State
	if resumeFlow {
		p, err := store.LoadPending(flow)
		switch {
		case errors.Is(err, session.ErrNoPending):
			fmt.Fprintf(out, "No interrupted %s to resume, starting over.\n", flow)
		case err != nil:
			return err
		default:
			st := p.State()
			initial = &st
			logger.Debug("resuming flow", zap.String("flow", flow.String()), zap.Stringer("step", st.Step))
		}
	}

	styles := ui.NewStyles(ui.ThemeFor(cfg.UI.Theme))
	model := ui.NewFlowModel(ui.Options{
		Backend:           client,
		Flow:              flow,
		Initial:           initial,
		Styles:            &styles,
		Cooldown:          cfg.GetResendCooldown(),
		PasswordMinLength: cfg.Auth.PasswordMinLength,
		Width:             cfg.UI.Width,
		Context:           commandContext(cmd),
	})

	final, err := runProgram(commandContext(cmd), model)
	if err != nil {
		return fmt.Errorf("%s flow failed: %w", flow, err)
	}
	return finishFlow(cmd, store, flow, final.Result())
}

// finishFlow persists what the flow ended with and tells the user where to go.
func finishFlow(cmd *cobra.Command, store *session.Store, flow authflow.Flow, res ui.Result) error {
	out := cmd.OutOrStdout()

	switch {
	case res.Interrupted:
		err := store.SavePending(session.Pending{
			Flow:     flow,
			Cursor:   res.State.Step.Cursor(),
			Identity: res.State.Identity,
		})
		if err != nil {
			return err
		}
		if res.State.Step != authflow.StepEntry {
			fmt.Fprintf(out, "Interrupted. Run 'hiredesk %s --resume' to continue.\n", commandFor(flow))
		}
		return nil

	case res.Destination == authflow.Dashboard:
		if res.Token == "" {
			logger.Debug("no token in response, session kept in cookies")
		}
		if err := store.SaveSession(session.Session{Email: res.Identity, Token: res.Token}); err != nil {
			return err
		}
		if err := store.ClearPending(flow); err != nil {
			logger.Warn("failed to clear pending flow", zap.Error(err))
		}
		fmt.Fprintf(out, "Signed in as %s.\n", res.Identity)
		if cfg.API.DashboardURL != "" {
			fmt.Fprintf(out, "Dashboard: %s\n", cfg.API.DashboardURL)
		}
		return nil

	case res.Destination == authflow.SignIn:
		if err := store.ClearPending(flow); err != nil {
			logger.Warn("failed to clear pending flow", zap.Error(err))
		}
		fmt.Fprintln(out, "Password updated. Sign in with 'hiredesk login'.")
		return nil
	}

	return store.ClearPending(flow)
}

func commandFor(flow authflow.Flow) string {
	if flow == authflow.FlowRecovery {
		return "recover"
	}
	return "login"
}

func runWhoami(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	store, err := session.Open(cfg.Home())
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.LoadSession()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Email:     %s\n", sess.Email)
	fmt.Fprintf(out, "Signed in: %s\n", sess.IssuedAt.Format(time.RFC3339))
	if !sess.ExpiresAt.IsZero() {
		status := ""
		if sess.Expired(time.Now()) {
			status = " (expired)"
		}
		fmt.Fprintf(out, "Expires:   %s%s\n", sess.ExpiresAt.Format(time.RFC3339), status)
	}

	if sess.Token == "" {
		return nil
	}
	claims, err := sess.Claims()
	if err != nil {
		logger.Debug("token claims unreadable", zap.Error(err))
		return nil
	}
	if claims.Subject != "" {
		fmt.Fprintf(out, "Subject:   %s\n", claims.Subject)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := session.Open(cfg.Home())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ClearSession(); err != nil {
		return err
	}
	if err := store.ClearAllPending(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
	return nil
}
