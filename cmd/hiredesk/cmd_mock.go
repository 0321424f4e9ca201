package main

import (
	"fmt"
	"net"

	"hiredesk/internal/mockapi"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	mockAddr     string
	mockFixtures string
	mockWatch    bool
)

// mockAPICmd serves the local mock backend
var mockAPICmd = &cobra.Command{
	Use:   "mock-api",
	Short: "Serve a local mock of the recruiting API",
	Long: `Serves the auth and template endpoints from in-memory fixtures.

Issued verification codes are printed, so the whole login flow can be
tried locally:

  hiredesk mock-api
  hiredesk login --api-url http://127.0.0.1:8787

Without --fixtures a built-in set of accounts is used
(ada@example.com / Sup3rSecret, grace@example.com unverified,
linus@example.com without a password).`,
	Args: cobra.NoArgs,
	RunE: runMockAPI,
}

func init() {
	mockAPICmd.Flags().StringVar(&mockAddr, "addr", "", "Listen address (default from config mock.addr)")
	mockAPICmd.Flags().StringVar(&mockFixtures, "fixtures", "", "Fixtures YAML file (default from config mock.fixtures)")
	mockAPICmd.Flags().BoolVar(&mockWatch, "watch", true, "Reload fixtures when the file changes")
}

func runMockAPI(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	addr := mockAddr
	if addr == "" {
		addr = cfg.Mock.Addr
	}
	path := mockFixtures
	if path == "" {
		path = cfg.Mock.Fixtures
	}

	var fixtures *mockapi.Fixtures
	if path != "" {
		var err error
		fixtures, err = mockapi.LoadFixtures(path)
		if err != nil {
			return err
		}
	}

	server := mockapi.New(fixtures, mockapi.Options{
		Secret:            cfg.Mock.JWTSecret,
		OTPTTL:            cfg.GetOTPTTL(),
		TokenTTL:          cfg.GetTokenTTL(),
		PasswordMinLength: cfg.Auth.PasswordMinLength,
		AllowedOrigins:    cfg.Mock.AllowedOrigins,
		OnIssue: func(email, code string) {
			fmt.Fprintf(out, "code for %s: %s\n", email, code)
		},
	})

	if path != "" && mockWatch {
		watcher, err := mockapi.NewFixtureWatcher(path, server)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	logger.Debug("starting mock api", zap.String("addr", addr), zap.String("fixtures", path))
	return server.ListenAndServe(ctx, addr, func(a net.Addr) {
		fmt.Fprintf(out, "Mock API listening on http://%s (ctrl+c to stop)\n", a)
	})
}
