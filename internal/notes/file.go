// Package notes formats and persists the date-partitioned notes file.
package notes

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
	Extension  = ".txt"
	Separator  = "============================"
)

// Header renders the block that opens a new date. When continued is true a
// blank line first separates it from the previous block.
func Header(date string, continued bool) string {
	var b strings.Builder
	if continued {
		b.WriteString("\n")
	}
	b.WriteString(date)
	b.WriteString("\n")
	b.WriteString(Separator)
	b.WriteString("\n")
	return b.String()
}

// Entry renders a single note line.
func Entry(at time.Time, text string) string {
	return fmt.Sprintf("(%s) %s\n", at.Format(TimeLayout), text)
}

// Append opens path for appending, creating it if needed, writes chunks in
// order and closes it again.
func Append(path string, chunks ...string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("notes: open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("notes: close %s: %w", path, closeErr)
		}
	}()

	for _, c := range chunks {
		if _, err := f.WriteString(c); err != nil {
			return fmt.Errorf("notes: write %s: %w", path, err)
		}
	}
	return nil
}

// Read returns the full file contents. found is false when the file does not exist.
func Read(path string) (contents string, found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("notes: read %s: %w", path, err)
	}
	return string(data), true, nil
}
