package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/bootstage/bootstage/pkg/core"
	"github.com/bootstage/bootstage/pkg/logging"
	"github.com/bootstage/bootstage/pkg/validate"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// RegenSpec declares a derived artifact to rebuild when a rollback
// restores its source (e.g. the bootloader menu from the default file).
type RegenSpec struct {
	Source  string   `json:"source" yaml:"source" mapstructure:"source"`
	Command []string `json:"command" yaml:"command" mapstructure:"command"`
}

// Config is the viper-backed tool configuration.
type Config struct {
	BackupRoot  string `json:"backup_root" yaml:"backup_root" mapstructure:"backup_root"`
	StagingRoot string `json:"staging_root" yaml:"staging_root" mapstructure:"staging_root"`

	// sentinel locations; empty means under the backup root
	PendingFile  string `json:"pending_file" yaml:"pending_file" mapstructure:"pending_file"`
	VerifiedFile string `json:"verified_file" yaml:"verified_file" mapstructure:"verified_file"`

	// Dwell is the stable-uptime duration before a boot counts as
	// confirmed. Tune it well above the host's worst healthy boot time:
	// the verifier cannot tell a slow boot from a broken one.
	Dwell time.Duration `json:"dwell" yaml:"dwell" mapstructure:"dwell"`

	// ExternalParamStore is consulted by the bootloader validator when
	// the boot layout keeps the kernel command line outside the file
	// being edited.
	ExternalParamStore string `json:"external_param_store" yaml:"external_param_store" mapstructure:"external_param_store"`

	Regenerate []RegenSpec `json:"regenerate" yaml:"regenerate" mapstructure:"regenerate"`

	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

func newConfig() (*Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.BackupRoot == "" || c.StagingRoot == "" {
		return nil, fmt.Errorf("backup_root and staging_root must be configured")
	}
	return &c, nil
}

func (c *Config) logger() *zap.Logger {
	level := c.LogLevel
	if params.root.logLevel != "" {
		level = params.root.logLevel
	}
	if level == "" {
		level = logging.LogLevelInfo
	}
	l, err := logging.GetLogger(level)
	if err != nil {
		wrapFatalln("invalid log level", err)
		return zap.NewNop()
	}
	return l
}

// newSession wires a deployment session from the configuration. All
// external tool invocation (bootloader menu regeneration) stays out here
// at the CLI boundary; the engine only sees hooks.
func (c *Config) newSession() (*core.Session, error) {
	opts := []core.SessionOption{
		core.Logger(c.logger()),
	}
	if c.PendingFile != "" && c.VerifiedFile != "" {
		opts = append(opts, core.SentinelPaths(c.PendingFile, c.VerifiedFile))
	}
	if c.ExternalParamStore != "" {
		opts = append(opts, core.ValidatorOptions(validate.ExternalParamStore(c.ExternalParamStore)))
	}
	for _, spec := range c.Regenerate {
		spec := spec
		if spec.Source == "" || len(spec.Command) == 0 {
			return nil, fmt.Errorf("regenerate entries need a source and a command")
		}
		opts = append(opts, core.Regenerators(core.Regenerator{
			Source: spec.Source,
			Regenerate: func(ctx context.Context) error {
				out, err := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...).CombinedOutput()
				if err != nil {
					return fmt.Errorf("%v: %s", err, out)
				}
				return nil
			},
		}))
	}
	return core.New(c.BackupRoot, c.StagingRoot, opts...)
}
