package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rotateCmd)
}

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the active log segment and apply retention",
	Long: `Renames today's log segment to the next part file when it is over the size
limit, compresses part files from earlier days and deletes segments older
than the retention window. Today's active segment is never removed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := startSession(cmd, sessionOptions{logToFile: true})
		if err != nil {
			return err
		}
		defer s.close()

		rep, err := s.comps.Rotator.Cleanup()
		if err != nil {
			return err
		}
		fmt.Printf("Compressed: %d\nDeleted:    %d\nKept:       %d\n", len(rep.Compressed), len(rep.Deleted), rep.Kept)
		if len(rep.Errors) > 0 {
			fmt.Printf("Problems:   %d (see log)\n", len(rep.Errors))
		}
		return nil
	},
}
