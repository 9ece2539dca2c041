package cmd

import (
	"os"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Commands to inspect runs",
}

var runListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all runs with their backup sets.",
	Run: func(cmd *cobra.Command, args []string) {
		session, err := config.newSession()
		if err != nil {
			wrapFatalln("create session", err)
			return
		}
		runs, err := session.ListRuns()
		if err != nil {
			wrapFatalln("list runs", err)
			return
		}
		if params.runList.format == "yaml" {
			infos := make([]interface{}, 0, len(runs))
			for _, id := range runs {
				info, derr := session.DescribeRun(id)
				if derr != nil {
					wrapFatalWithCode("describe run "+id, derr)
					return
				}
				infos = append(infos, info)
			}
			out, merr := yaml.Marshal(infos)
			if merr != nil {
				wrapFatalln("render runs", merr)
				return
			}
			_, _ = os.Stdout.Write(out)
			return
		}
		for _, id := range runs {
			info, derr := session.DescribeRun(id)
			if derr != nil {
				wrapFatalWithCode("describe run "+id, derr)
				return
			}
			infoLogger.Printf("%s  %s  %s  %d file(s), %s\n",
				info.ID, info.Host, info.Timestamp, info.Files,
				units.HumanSize(float64(info.Bytes)))
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.AddCommand(runListCmd)
	runListCmd.Flags().StringVar(&params.runList.format, "format", "text",
		"output format: text or yaml")
}
