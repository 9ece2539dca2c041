package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
)

var (
	cmdlineKeyRe  = regexp.MustCompile(`(?m)^\s*GRUB_CMDLINE_LINUX(_DEFAULT)?\s*=`)
	rootDeviceRe  = regexp.MustCompile(`root=\S+|resume=UUID=\S+|rd\.lvm\.lv=\S+`)
	rootDeviceKey = "root="
)

// bootloaderValidator checks a bootloader default file (the kernel command
// line). A file that drops the root device identifier can leave the machine
// unbootable, so its presence is required either in the content itself or,
// for boot layouts that keep the command line elsewhere, in the configured
// external parameter store.
type bootloaderValidator struct {
	fs                 afero.Fs
	externalParamStore string
}

func (v *bootloaderValidator) Domain() model.Domain {
	return model.Bootloader
}

func (v *bootloaderValidator) Validate(path string, content []byte) error {
	text := string(content)

	if err := checkBalancedQuotes(path, text); err != nil {
		return err
	}
	if !cmdlineKeyRe.MatchString(text) {
		return fmt.Errorf("%s: no kernel command line key (GRUB_CMDLINE_LINUX or GRUB_CMDLINE_LINUX_DEFAULT)", path)
	}
	if rootDeviceRe.MatchString(text) {
		return nil
	}
	if v.externalParamStore != "" {
		external, err := afero.ReadFile(v.fs, v.externalParamStore)
		if err != nil {
			return fmt.Errorf("%s: no %q parameter and external parameter store %s is unreadable: %v",
				path, rootDeviceKey, v.externalParamStore, err)
		}
		if rootDeviceRe.Match(external) {
			return nil
		}
		return fmt.Errorf("%s: no %q parameter in content or in external parameter store %s",
			path, rootDeviceKey, v.externalParamStore)
	}
	return fmt.Errorf("%s: kernel command line has no %q parameter", path, rootDeviceKey)
}

func checkBalancedQuotes(path, text string) error {
	for n, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		inSingle, inDouble := false, false
		escaped := false
		for _, r := range line {
			switch {
			case escaped:
				escaped = false
			case r == '\\' && !inSingle:
				escaped = true
			case r == '\'' && !inDouble:
				inSingle = !inSingle
			case r == '"' && !inSingle:
				inDouble = !inDouble
			}
		}
		if inSingle || inDouble {
			return fmt.Errorf("%s:%d: unbalanced quoting", path, n+1)
		}
	}
	return nil
}
