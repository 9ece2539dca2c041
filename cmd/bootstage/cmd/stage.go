package cmd

import (
	"io"
	"os"

	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/cobra"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Stage content for one target path.",
	Long: `Stage writes content into the off-path staging mirror for a single
target. With --append the content composes onto the live file's current
bytes (or onto what was already staged this session).`,
	Run: func(cmd *cobra.Command, args []string) {
		content, err := readContent(params.stage.contentFile)
		if err != nil {
			wrapFatalln("read content", err)
			return
		}
		domain, err := model.ParseDomain(params.stage.domain)
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

		if params.stage.doAppend {
			err = session.StageAppend(params.stage.target, content, domain)
		} else {
			err = session.StageWrite(params.stage.target, content, domain)
		}
		if err != nil {
			wrapFatalWithCode("stage "+params.stage.target, err)
			return
		}
		infoLogger.Println("staged", params.stage.target, "in run", session.ActiveRun())
	},
}

func readContent(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func init() {
	rootCmd.AddCommand(stageCmd)
	addTargetFlag(stageCmd, &params.stage.target)
	addContentFileFlag(stageCmd, &params.stage.contentFile)
	addDomainFlag(stageCmd, &params.stage.domain)
	stageCmd.Flags().BoolVar(&params.stage.doAppend, "append", false,
		"append to the live file's current content instead of replacing it")
}
