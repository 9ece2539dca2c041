package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

const defaultDwellFlag = 5 * time.Minute

// params collects all flag state, keyed by command group.
var params = struct {
	root struct {
		configFile string
		logLevel   string
	}
	stage struct {
		target      string
		contentFile string
		domain      string
		doAppend    bool
	}
	apply struct {
		target      string
		contentFile string
		domain      string
	}
	deploy struct {
		planFile string
	}
	verify struct {
		dwell time.Duration
	}
	runList struct {
		format string
	}
}{}

func addConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&params.root.configFile, "config", "",
		"config file (default is /etc/bootstage/bootstage.yaml)")
}

func addLogLevelFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&params.root.logLevel, "loglevel", "",
		"log level (debug, info, none)")
}

func addTargetFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "target", "", "absolute path of the live file")
	_ = cmd.MarkFlagRequired("target")
}

func addContentFileFlag(cmd *cobra.Command, contentFile *string) {
	cmd.Flags().StringVar(contentFile, "content-file", "",
		"file holding the content to deploy ('-' for stdin)")
	_ = cmd.MarkFlagRequired("content-file")
}

func addDomainFlag(cmd *cobra.Command, domain *string) {
	cmd.Flags().StringVar(domain, "domain", "generic",
		"validation domain: bootloader, kernel-params, module-options or generic")
}
