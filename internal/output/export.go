package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofrs/flock"

	"github.com/torosent/benchforge/internal/suite"
)

// WriteReportFile writes the JSON report to path. A sibling lock file
// serializes concurrent runs pointed at the same output path.
func WriteReportFile(path string, report *suite.Report) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock report file: %w", err)
	}
	defer lock.Unlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize report: %w", err)
	}
	return nil
}
