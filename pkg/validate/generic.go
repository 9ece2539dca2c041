package validate

import (
	"bytes"
	"fmt"

	"github.com/bootstage/bootstage/pkg/model"
)

type genericValidator struct{}

func (v *genericValidator) Domain() model.Domain {
	return model.Generic
}

func (v *genericValidator) Validate(path string, content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("%s: refusing to deploy empty content", path)
	}
	if i := bytes.IndexByte(content, 0); i >= 0 {
		return fmt.Errorf("%s: NUL byte at offset %d, content is not a text configuration file", path, i)
	}
	return nil
}
