// Package validate provides pure content checkers for the configuration
// domains the deployment engine handles. Validators never mutate anything:
// rejecting content is always side-effect free and repeatable.
package validate

import (
	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
)

// Validator checks that content destined for a path is well formed enough
// to deploy. It never judges whether a value is correct.
type Validator interface {
	Domain() model.Domain
	Validate(path string, content []byte) error
}

// Option tunes validator construction.
type Option func(*settings)

type settings struct {
	fs         afero.Fs
	procSysDir string
	// externalParamStore is the file holding the kernel command line when
	// the boot layout keeps it outside the bootloader default file
	// (e.g. systemd-boot entries or /etc/kernel/cmdline).
	externalParamStore string
}

// Filesystem sets the filesystem validators read from when a check needs
// to consult live system state. Defaults to the host filesystem.
func Filesystem(fs afero.Fs) Option {
	return func(s *settings) {
		s.fs = fs
	}
}

// ProcSysDir overrides the mount point of the kernel parameter namespace.
func ProcSysDir(dir string) Option {
	return func(s *settings) {
		s.procSysDir = dir
	}
}

// ExternalParamStore declares an external boot parameter store consulted
// by the bootloader validator for the root device identifier.
func ExternalParamStore(path string) Option {
	return func(s *settings) {
		s.externalParamStore = path
	}
}

func defaultSettings(opts []Option) settings {
	s := settings{
		fs:         afero.NewOsFs(),
		procSysDir: "/proc/sys",
	}
	for _, apply := range opts {
		apply(&s)
	}
	return s
}

// ForDomain returns the validator governing a configuration domain.
func ForDomain(d model.Domain, opts ...Option) Validator {
	s := defaultSettings(opts)
	switch d {
	case model.Bootloader:
		return &bootloaderValidator{fs: s.fs, externalParamStore: s.externalParamStore}
	case model.KernelParams:
		return &kernelParamsValidator{fs: s.fs, procSysDir: s.procSysDir}
	case model.ModuleOptions:
		return &moduleOptionsValidator{}
	default:
		return &genericValidator{}
	}
}
