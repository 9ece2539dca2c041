package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bootstage",
	Short: "bootstage stages system configuration and applies it safely across a reboot",
	Long: `Bootstage is a transactional deployment engine for boot-critical system
configuration. Changes are staged off-path, applied at the next boot, and
confirmed only after the machine stays up for a dwell window. A boot that
never confirms is rolled back automatically on the boot after it.

Every mutated file is backed up into an immutable run before it is first
touched, so any run can be replayed to restore byte-exact prior state.
`,
}

var config *Config

// used to patch over calls to os.Exit() during test
var (
	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		osExit(exitGeneric)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)
	addLogLevelFlag(rootCmd)
	addConfigFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("backup_root", "/var/lib/bootstage/backups")
	viper.SetDefault("staging_root", "/var/lib/bootstage/staging")
	viper.SetDefault("dwell", defaultDwellFlag)

	if cfgFile := params.root.configFile; cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if os.Getenv("BOOTSTAGE_CONFIG") != "" {
		viper.SetConfigFile(os.Getenv("BOOTSTAGE_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.bootstage")
		viper.AddConfigPath("/etc/bootstage")
		viper.SetConfigName("bootstage")
	}
	viper.SetEnvPrefix("BOOTSTAGE")
	viper.AutomaticEnv() // read in environment variables that match

	if err := viper.ReadInConfig(); err == nil {
		infoLogger.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
	}
}
