package cmd

import (
	"os"

	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Stage a full deployment plan into the off-path mirror.",
	Long: `Deploy reads a plan of (target, content, domain) tuples, pre-seeds
backups for every path the plan declares it will touch, and stages all
content off-path. Nothing becomes live until 'bootstage commit' runs at
the next boot.`,
	Run: func(cmd *cobra.Command, args []string) {
		raw, err := os.ReadFile(params.deploy.planFile)
		if err != nil {
			wrapFatalln("read deployment plan", err)
			return
		}
		plan, err := parsePlan(raw)
		if err != nil {
			wrapFatalln("invalid deployment plan", err)
			return
		}
		session, err := config.newSession()
		if err != nil {
			wrapFatalln("create session", err)
			return
		}
		if err := session.Begin(plan.Touch); err != nil {
			wrapFatalWithCode("begin deployment", err)
			return
		}
		defer func() { _ = session.Close() }()

		for _, f := range plan.Files {
			domain, _ := model.ParseDomain(f.Domain)
			var serr error
			if f.Append {
				serr = session.StageAppend(f.Target, []byte(f.Content), domain)
			} else {
				serr = session.Stage(model.StagedFile{
					TargetPath: f.Target,
					Content:    []byte(f.Content),
					Domain:     domain,
				})
			}
			if serr != nil {
				wrapFatalWithCode("stage "+f.Target, serr)
				return
			}
			infoLogger.Println("staged", f.Target)
		}
		if session.RebootRequired() {
			infoLogger.Println("deployment staged in run", session.ActiveRun(),
				"- reboot to apply")
		}
	},
}

func init() {
	rootCmd.AddCommand(deployCmd)
	deployCmd.Flags().StringVar(&params.deploy.planFile, "from", "",
		"YAML deployment plan")
	_ = deployCmd.MarkFlagRequired("from")
}
