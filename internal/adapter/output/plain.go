package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/tim/internal/history"
)

// PlainFormatter formats sessions as plain text, one per line.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// Format writes sessions as plain text.
func (f *PlainFormatter) Format(w io.Writer, sessions []history.Session) error {
	for i, s := range sessions {
		if err := f.formatSession(w, i+1, &s); err != nil {
			return err
		}
	}
	return nil
}

// templateData provides data for custom templates.
type templateData struct {
	Index        int
	Session      *history.Session
	Length       string
	RelativeTime string
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"reltime": relativeTime,
		"clock": func(seconds int64) string {
			return clock(time.Duration(seconds) * time.Second)
		},
	}
}

func (f *PlainFormatter) formatSession(w io.Writer, index int, s *history.Session) error {
	if f.template != nil {
		data := templateData{
			Index:        index,
			Session:      s,
			Length:       clock(s.Length()),
			RelativeTime: relativeTime(s.CompletedAt),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", index))
	}

	sb.WriteString(clock(s.Length()))
	sb.WriteString(" " + s.Outcome)

	if f.opts.ShowTime {
		sb.WriteString(" " + relativeTime(s.CompletedAt))
	}
	if s.Noise {
		sb.WriteString(" (brown noise)")
	}

	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// clock formats d the way the countdown displays it.
func clock(d time.Duration) string {
	total := int(d / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func relativeTime(timestamp int64) string {
	if timestamp == 0 {
		return "unknown"
	}
	return humanize.Time(time.Unix(timestamp, 0))
}
