package cmd

import (
	"context"

	"github.com/bootstage/bootstage/pkg/core"
	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback [run-id|last]",
	Short: "Restore every file a run backed up.",
	Long: `Rollback replays a run's manifest: every backed-up original is
restored byte-exact, every file the run created is deleted. "last" (the
default) targets the most recent run. An unknown run performs zero writes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runID := core.LastRun
		if len(args) == 1 {
			runID = args[0]
		}
		session, err := config.newSession()
		if err != nil {
			wrapFatalln("create session", err)
			return
		}
		res, err := session.Rollback(context.Background(), runID)
		if err != nil {
			wrapFatalWithCode("rollback "+runID, err)
			return
		}
		infoLogger.Printf("rolled back run %s: restored=%d failed=%d verification_ok=%v\n",
			res.RunID, res.Restored, res.Failed, res.VerificationOK)
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
}
