package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/tim/internal/history"
)

// IDsFormatter outputs just the session IDs, one per line.
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes session IDs to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, sessions []history.Session) error {
	for _, s := range sessions {
		if _, err := fmt.Fprintln(w, s.ID); err != nil {
			return err
		}
	}
	return nil
}
