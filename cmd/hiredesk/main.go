// Command hiredesk signs candidates in to the recruiting service from the
// terminal and renders their resumes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hiredesk/internal/api"
	"hiredesk/internal/config"
	"hiredesk/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	homeDir    string
	apiURL     string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hiredesk",
	Short: "hiredesk - terminal client for the recruiting service",
	Long: `hiredesk signs you in to the recruiting service, walks you through
email verification and password recovery, and renders resumes in the terminal.

Run 'hiredesk mock-api' in another terminal to try it against a local backend.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := logging.Initialize(cfg.Home(), cfg.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		logging.Boot("hiredesk %s starting (home=%s api=%s)", cmd.Name(), cfg.Home(), cfg.API.BaseURL)

		logger = logging.NewCLILogger(verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	home := homeDir
	if home == "" {
		home = config.DefaultHome()
	}
	path := configPath
	if path == "" {
		path = config.DefaultPath(home)
	}

	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if homeDir != "" {
		c.Storage.Dir = homeDir
	}
	if apiURL != "" {
		c.API.BaseURL = apiURL
	}
	if cmd.Flags().Changed("timeout") {
		c.API.Timeout = timeout.String()
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return c, nil
}

// newAPIClient builds a client from the loaded config.
func newAPIClient() (*api.Client, error) {
	return api.New(api.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.GetTimeout(),
		UserAgent: cfg.API.UserAgent,
	})
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <home>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "State directory (default: $HIREDESK_HOME or ~/.hiredesk)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Recruiting API base URL (or set HIREDESK_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "Per-request timeout")

	// Add commands to root
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(recoverCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(mockAPICmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
