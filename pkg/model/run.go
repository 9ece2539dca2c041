package model

import (
	"fmt"
	"regexp"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/ksuid"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// runIDTimeFormat is the human-sortable prefix of a run ID. The suffix is a
// ksuid, itself time-ordered, so lexicographic order on run IDs is creation
// order even for runs minted within the same second.
const runIDTimeFormat = "20060102T150405Z"

var runIDRe = regexp.MustCompile(`^\d{8}T\d{6}Z-[0-9A-Za-z]{27}$`)

// RunMetadata is the durable descriptor of a run, stored as
// <backup_root>/<run_id>/metadata.json.
type RunMetadata struct {
	Timestamp time.Time `json:"timestamp"`
	Host      string    `json:"host"`
	RunID     string    `json:"run_id"`
}

// NewRunID mints a run identifier for the given creation time.
func NewRunID(t time.Time) string {
	id, err := ksuid.NewRandomWithTime(t)
	if err != nil {
		panic(fmt.Sprintf("cannot generate random ksuid: %v", err))
	}
	return t.UTC().Format(runIDTimeFormat) + "-" + id.String()
}

// IsRunID tells whether a directory name under the backup root names a run.
func IsRunID(s string) bool {
	return runIDRe.MatchString(s)
}

// MarshalMetadata serializes run metadata for metadata.json.
func MarshalMetadata(m RunMetadata) ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// UnmarshalMetadata parses the content of a metadata.json file.
func UnmarshalMetadata(b []byte) (RunMetadata, error) {
	var m RunMetadata
	if err := json.Unmarshal(b, &m); err != nil {
		return RunMetadata{}, fmt.Errorf("corrupt run metadata: %w", err)
	}
	if m.RunID == "" {
		return RunMetadata{}, fmt.Errorf("run metadata is missing a run_id")
	}
	return m, nil
}
