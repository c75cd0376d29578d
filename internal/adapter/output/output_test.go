package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/tim/internal/history"
)

func testSessions() []history.Session {
	now := time.Now()
	return []history.Session{
		{
			ID:          "01JAAAAAAAAAAAAAAAAAAAAAAA",
			Duration:    600,
			StartedAt:   now.Add(-3 * time.Hour).Unix(),
			CompletedAt: now.Add(-2 * time.Hour).Unix(),
			Noise:       true,
			Outcome:     history.OutcomeCompleted,
		},
		{
			ID:          "01JBBBBBBBBBBBBBBBBBBBBBBB",
			Duration:    5400,
			StartedAt:   now.Add(-90 * time.Minute).Unix(),
			CompletedAt: now.Unix(),
			Outcome:     history.OutcomeCompleted,
		},
	}
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	err := NewPlainFormatter(DefaultFormatterOptions()).Format(&buf, testSessions())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.True(t, strings.HasPrefix(lines[0], "[1] 10:00 completed"))
	assert.Contains(t, lines[0], "2 hours ago")
	assert.Contains(t, lines[0], "(brown noise)")

	assert.True(t, strings.HasPrefix(lines[1], "[2] 01:30:00 completed"))
	assert.NotContains(t, lines[1], "brown noise")
}

func TestPlainFormatter_NoIndexNoTime(t *testing.T) {
	var buf bytes.Buffer

	err := NewPlainFormatter(FormatterOptions{}).Format(&buf, testSessions()[:1])
	require.NoError(t, err)
	assert.Equal(t, "10:00 completed (brown noise)\n", buf.String())
}

func TestPlainFormatter_Template(t *testing.T) {
	var buf bytes.Buffer

	opts := FormatterOptions{Template: "{{.Index}} {{.Session.ID}} {{.Length}} {{clock .Session.Duration}}"}
	err := NewPlainFormatter(opts).Format(&buf, testSessions())
	require.NoError(t, err)

	assert.Equal(t,
		"1 01JAAAAAAAAAAAAAAAAAAAAAAA 10:00 10:00\n2 01JBBBBBBBBBBBBBBBBBBBBBBB 01:30:00 01:30:00\n",
		buf.String())
}

func TestPlainFormatter_InvalidTemplateFallsBack(t *testing.T) {
	var buf bytes.Buffer

	opts := FormatterOptions{Template: "{{.Broken"}
	err := NewPlainFormatter(opts).Format(&buf, testSessions()[:1])
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "10:00 completed")
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	err := NewJSONFormatter(FormatterOptions{}).Format(&buf, testSessions())
	require.NoError(t, err)

	var decoded []history.Session
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testSessions()[0].ID, decoded[0].ID)
	assert.Contains(t, buf.String(), `"started_at"`)
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewJSONFormatter(FormatterOptions{}).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	err := NewYAMLFormatter(FormatterOptions{}).Format(&buf, testSessions())
	require.NoError(t, err)

	var decoded []history.Session
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, int64(5400), decoded[1].Duration)
	assert.Contains(t, buf.String(), "completed_at:")
}

func TestIDsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewIDsFormatter().Format(&buf, testSessions()))
	assert.Equal(t, "01JAAAAAAAAAAAAAAAAAAAAAAA\n01JBBBBBBBBBBBBBBBBBBBBBBB\n", buf.String())
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()

	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, opts))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML, opts))
	assert.IsType(t, &IDsFormatter{}, NewFormatter(FormatIDs, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter(FormatPlain, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("unknown", opts))
}
