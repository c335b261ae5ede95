package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/zipwarden/zipwarden/internal/updater"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare the installed and latest versions without installing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := startSession(cmd, sessionOptions{watch: true})
		if err != nil {
			return err
		}
		defer s.close()

		out, err := s.comps.Service.Check(s.ctx)
		if err != nil {
			return err
		}
		updater.PrintOutcome(os.Stdout, out)
		return nil
	},
}
