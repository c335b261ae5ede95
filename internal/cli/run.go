package cli

import (
	"github.com/spf13/cobra"
	"github.com/zipwarden/zipwarden/internal/watchdog"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline (default)",
	Long: `Checks that the managed tool is installed, then runs in order:

  PathCheck     verify the install directory is on PATH, run the helper if not
  LogRotation   compress rotated log parts and delete segments past retention
  UpdateCheck   compare installed and latest versions, install when newer

Exits 0 when every step completes, including when no update was needed or
the download failed; exits 1 when the tool is missing or a step fails.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	s, err := startSession(cmd, sessionOptions{logToFile: true, watch: true})
	if err != nil {
		return err
	}
	defer s.close()

	s.log.Info("starting", "install_dir", s.cfg.InstallDir, "profile", s.cfg.Profile.ID, "version", buildVersion)
	p := s.comps.Pipeline(s.cfg, s.rec)
	_, err = p.Run(s.ctx)
	if err != nil && s.wd.Expired() {
		return watchdog.ErrIdle
	}
	return err
}
