package validate

import (
	"fmt"
	"strings"

	"github.com/bootstage/bootstage/pkg/model"
)

// modprobeDirectives maps each recognized modprobe.d keyword to the minimum
// number of arguments it takes.
var modprobeDirectives = map[string]int{
	"alias":     2,
	"options":   2,
	"install":   2,
	"remove":    2,
	"blacklist": 1,
	"softdep":   2,
	"include":   1,
}

// moduleOptionsValidator runs a heuristic syntax scan over a modprobe.d
// style file: every non-comment line must start with a recognized directive
// carrying enough arguments.
type moduleOptionsValidator struct{}

func (v *moduleOptionsValidator) Domain() model.Domain {
	return model.ModuleOptions
}

func (v *moduleOptionsValidator) Validate(path string, content []byte) error {
	sawDirective := false
	lines := strings.Split(string(content), "\n")
	// continuation lines fold into their predecessor
	for n := 0; n < len(lines); n++ {
		line := strings.TrimSpace(lines[n])
		for strings.HasSuffix(line, "\\") && n+1 < len(lines) {
			n++
			line = strings.TrimSuffix(line, "\\") + " " + strings.TrimSpace(lines[n])
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		minArgs, known := modprobeDirectives[fields[0]]
		if !known {
			return fmt.Errorf("%s:%d: stray line, %q is not a modprobe directive", path, n+1, fields[0])
		}
		if len(fields)-1 < minArgs {
			return fmt.Errorf("%s:%d: directive %q wants at least %d argument(s), got %d",
				path, n+1, fields[0], minArgs, len(fields)-1)
		}
		sawDirective = true
	}
	if !sawDirective {
		return fmt.Errorf("%s: no modprobe directive found", path)
	}
	return nil
}
