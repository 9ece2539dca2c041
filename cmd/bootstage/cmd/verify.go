package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Confirm the running boot after the dwell window elapses.",
	Long: `Verify waits until the system has been up for the configured dwell
time since commit, then marks the boot verified. A reboot or crash before
the dwell elapses means verify never completes; that silence is what arms
the next boot's automatic rollback.

The dwell cannot distinguish a slow boot from a broken one. Size it well
above the host's worst healthy boot time.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(),
			os.Interrupt, syscall.SIGTERM)
		defer stop()

		session, err := config.newSession()
		if err != nil {
			wrapFatalln("create session", err)
			return
		}
		dwell := params.verify.dwell
		if !cmd.Flags().Changed("dwell") && config.Dwell > 0 {
			dwell = config.Dwell
		}
		if err := session.Verify(ctx, dwell); err != nil {
			wrapFatalWithCode("verify", err)
			return
		}
		infoLogger.Println("boot verified")
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().DurationVar(&params.verify.dwell, "dwell",
		defaultDwellFlag, "stable-uptime duration required before confirmation")
}
