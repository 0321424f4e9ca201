package main

import (
	"errors"
	"fmt"

	"hiredesk/internal/logging"
	"hiredesk/internal/resume"
	"hiredesk/internal/session"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	resumeRaw      bool
	resumeParallel int
)

// resumeCmd renders read-only resumes
var resumeCmd = &cobra.Command{
	Use:   "resume <template-slug> <username>...",
	Short: "Render resumes in the terminal",
	Long: `Fetches each user's resume for a template and renders it.

Examples:
  hiredesk resume classic ada
  hiredesk resume classic ada grace --parallel 2
  hiredesk resume classic ada --raw > ada.md`,
	Args: cobra.MinimumNArgs(2),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().BoolVar(&resumeRaw, "raw", false, "Print markdown instead of styled output")
	resumeCmd.Flags().IntVar(&resumeParallel, "parallel", 4, "Maximum concurrent fetches")
}

func runResume(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	slug, usernames := args[0], args[1:]

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	attachSession(client)

	timer := logging.StartTimer(logging.CategoryResume, "fetch "+slug)
	docs, err := resume.FetchAll(commandContext(cmd), client, slug, usernames, resumeParallel)
	timer.Stop()
	if err != nil {
		return err
	}

	for i, doc := range docs {
		var text string
		if resumeRaw {
			text, err = resume.Markdown(*doc)
		} else {
			text, err = resume.Render(*doc, resume.Options{Style: cfg.UI.GlamourStyle, Width: cfg.UI.Width})
		}
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", usernames[i], err)
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, text)
	}
	return nil
}

// attachSession sends the stored token, when there is one.
func attachSession(client interface{ SetToken(string) }) {
	store, err := session.Open(cfg.Home())
	if err != nil {
		logger.Debug("no session store", zap.Error(err))
		return
	}
	defer store.Close()

	sess, err := store.LoadSession()
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			logger.Warn("failed to load session", zap.Error(err))
		}
		return
	}
	client.SetToken(sess.Token)
}
