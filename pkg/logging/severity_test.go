package logging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityRoundTrip(t *testing.T) {
	for _, s := range []Severity{DEBUG, INFO, WARN, ERROR, FATAL} {
		t.Run(s.String(), func(t *testing.T) {
			assert.Equal(t, s, ParseSeverity(s.String()))
		})
	}
}

func TestParseSeverityFromConfigLevels(t *testing.T) {
	// Config files carry lowercase levels; callers uppercase before
	// parsing.
	tests := []struct {
		level string
		want  Severity
	}{
		{"debug", DEBUG},
		{"info", INFO},
		{"warn", WARN},
		{"error", ERROR},
		{"fatal", FATAL},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSeverity(strings.ToUpper(tt.level)))
		})
	}
}

func TestParseSeverityDefaultsToInfo(t *testing.T) {
	assert.Equal(t, INFO, ParseSeverity("verbose"))
	assert.Equal(t, INFO, ParseSeverity(""))
	// ParseSeverity is case sensitive on purpose.
	assert.Equal(t, INFO, ParseSeverity("debug"))
}
