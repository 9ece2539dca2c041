package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Roll back the previous boot's deployment if it never verified (run very early at boot).",
	Long: `Guard is the dead-man's switch. It runs very early on every boot,
before the verifier could possibly fire: when the previous boot left a
pending marker and no verified marker, the last run is rolled back exactly
once and the pending marker is cleared. Any other state is a no-op.

Guard also cleans up after a process that died inside an atomic
replacement window.`,
	Run: func(cmd *cobra.Command, args []string) {
		session, err := config.newSession()
		if err != nil {
			wrapFatalln("create session", err)
			return
		}
		res, err := session.Guard(context.Background())
		if err != nil {
			wrapFatalWithCode("boot guard", err)
			return
		}
		if !res.RolledBack {
			infoLogger.Println("previous boot state is clean")
			return
		}
		infoLogger.Printf("unverified boot detected: rolled back run %s (restored=%d failed=%d verification_ok=%v)\n",
			res.Rollback.RunID, res.Rollback.Restored, res.Rollback.Failed, res.Rollback.VerificationOK)
	},
}

func init() {
	rootCmd.AddCommand(guardCmd)
}
