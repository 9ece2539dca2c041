package cmd

import (
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Atomically replace a live-critical file right now.",
	Long: `Apply rewrites a file that cannot wait for the next boot (typically
the bootloader default file). The new content is validated first; the
original bytes are backed up into the active run; the replacement is a
single atomic rename. On any failure the target is byte-identical to its
pre-call state.`,
	Run: func(cmd *cobra.Command, args []string) {
		content, err := readContent(params.apply.contentFile)
		if err != nil {
			wrapFatalln("read content", err)
			return
		}
		domain, err := model.ParseDomain(params.apply.domain)
		if err != nil {
			wrapFatalln("parse domain", err)
			return
		}
		session, err := config.newSession()
		if err != nil {
			wrapFatalln("create session", err)
			return
		}
		if err := session.Begin(nil); err != nil {
			wrapFatalWithCode("begin deployment", err)
			return
		}
		defer func() { _ = session.Close() }()

		replace := func([]byte) ([]byte, error) { return content, nil }
		if err := session.ApplyAtomic(params.apply.target, replace, domain); err != nil {
			wrapFatalWithCode("apply "+params.apply.target, err)
			return
		}
		infoLogger.Println("applied", params.apply.target, "in run", session.ActiveRun())
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
	addTargetFlag(applyCmd, &params.apply.target)
	addContentFileFlag(applyCmd, &params.apply.contentFile)
	addDomainFlag(applyCmd, &params.apply.domain)
}
