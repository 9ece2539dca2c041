package cmd

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the boot-state machine phase.",
	Long: `Status reports where the deployment cycle stands: no-pending,
staged (content waiting for the next boot), pending (applied but not yet
confirmed) or verified.`,
	Run: func(cmd *cobra.Command, args []string) {
		session, err := config.newSession()
		if err != nil {
			wrapFatalln("create session", err)
			return
		}
		state, err := session.Status()
		if err != nil {
			wrapFatalln("read boot state", err)
			return
		}
		infoLogger.Println(state.String())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
