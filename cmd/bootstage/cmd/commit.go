package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Apply the staged tree to the live filesystem (run early at boot).",
	Long: `Commit copies the staging tree onto the live filesystem, marks the
boot pending and consumes the staging tree so a later boot cannot re-apply
it. It is meant to run once, early at boot, before user-facing services
start. The boot stays unconfirmed until 'bootstage verify' fires; if it
never does, the next boot's guard rolls the deployment back.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		session, err := config.newSession()
		if err != nil {
			wrapFatalln("create session", err)
			return
		}
		res, err := session.Commit(ctx)
		if err != nil {
			wrapFatalWithCode("commit", err)
			return
		}
		if res.Applied == 0 && res.Failed == 0 {
			infoLogger.Println("nothing staged")
			return
		}
		infoLogger.Printf("committed %d file(s), %d failure(s); boot is pending verification\n",
			res.Applied, res.Failed)
	},
}

func init() {
	rootCmd.AddCommand(commitCmd)
}
