package model

import "fmt"

// Domain selects which validator governs a target path.
type Domain string

const (
	// Bootloader covers the bootloader default file (kernel command line).
	Bootloader Domain = "bootloader"

	// KernelParams covers sysctl.d style kernel parameter files.
	KernelParams Domain = "kernel-params"

	// ModuleOptions covers modprobe.d style module option files.
	ModuleOptions Domain = "module-options"

	// Generic covers every other configuration file.
	Generic Domain = "generic"
)

// ParseDomain converts user input into a Domain.
func ParseDomain(s string) (Domain, error) {
	switch Domain(s) {
	case Bootloader, KernelParams, ModuleOptions, Generic:
		return Domain(s), nil
	case "":
		return Generic, nil
	}
	return "", fmt.Errorf("unknown configuration domain %q", s)
}

func (d Domain) String() string {
	return string(d)
}

// StagedFile is one unit of producer output: content destined for an
// absolute live path, governed by a validation domain.
type StagedFile struct {
	TargetPath string `json:"target" yaml:"target"`
	Content    []byte `json:"content" yaml:"content"`
	Domain     Domain `json:"domain" yaml:"domain"`
}
