// Package filex provides small filesystem helpers shared by the adapter.
package filex

import (
	"fmt"
	"os"
)

// AppendLine appends a single line to the file at path, creating the file if
// it does not exist. A trailing newline is added; the caller passes the bare
// line. The file is opened per call, so concurrent runs on the same host
// interleave whole lines rather than bytes.
func AppendLine(path string, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o660)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}

	return nil
}
