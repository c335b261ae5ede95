package cli

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/zipwarden/zipwarden/internal/branding"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	envFile  string
	logLevel string
	holdFor  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` keeps a locally installed archiver CLI current and maintains its own
rotating log. Without a subcommand it runs the full pipeline: PATH check, log
rotation and update check.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runPipeline,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFile, "env-file", "", "Path to the .env override file (default: .env next to the binary)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	pf.DurationVar(&holdFor, "hold", 0, "Count down this long before exiting, keeping the console window open")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
