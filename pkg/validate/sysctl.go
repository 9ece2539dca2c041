package validate

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
)

var sysctlKeyRe = regexp.MustCompile(`^-?[A-Za-z0-9_][A-Za-z0-9_.\-/*]*$`)

// kernelParamsValidator dry-runs a sysctl.d style file against the live
// kernel parameter namespace: every assignment must parse and every
// non-optional key must exist under /proc/sys. Zero errors are required.
type kernelParamsValidator struct {
	fs         afero.Fs
	procSysDir string
}

func (v *kernelParamsValidator) Domain() model.Domain {
	return model.KernelParams
}

func (v *kernelParamsValidator) Validate(p string, content []byte) error {
	var problems []string
	for n, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		key, _, found := strings.Cut(line, "=")
		if !found {
			problems = append(problems, fmt.Sprintf("line %d: no assignment: %q", n+1, line))
			continue
		}
		key = strings.TrimSpace(key)
		if !sysctlKeyRe.MatchString(key) {
			problems = append(problems, fmt.Sprintf("line %d: malformed parameter name %q", n+1, key))
			continue
		}
		// a leading dash is the sysctl.d ignore-missing marker; a glob
		// cannot be checked pointwise against /proc/sys
		if strings.HasPrefix(key, "-") || strings.Contains(key, "*") {
			continue
		}
		if err := v.checkLiveKey(key); err != nil {
			problems = append(problems, fmt.Sprintf("line %d: %v", n+1, err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s: dry-run load reported %d error(s): %s",
			p, len(problems), strings.Join(problems, "; "))
	}
	return nil
}

func (v *kernelParamsValidator) checkLiveKey(key string) error {
	// sysctl accepts both dotted and slash notation
	rel := strings.ReplaceAll(key, ".", "/")
	if strings.Contains(key, "/") {
		rel = key
	}
	ok, err := afero.Exists(v.fs, path.Join(v.procSysDir, rel))
	if err != nil {
		return fmt.Errorf("cannot probe kernel parameter %q: %v", key, err)
	}
	if !ok {
		return fmt.Errorf("unknown kernel parameter %q", key)
	}
	return nil
}
