package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			Init(Config{Level: tt.level, Output: &bytes.Buffer{}})
			if got := Logger.GetLevel(); got != tt.want {
				t.Errorf("Expected level %s, got %s", tt.want, got)
			}
		})
	}
	t.Cleanup(func() { Init(DefaultConfig()) })
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Info().Str("category", "Electronics").Msg("bucket")
	Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, `"category":"Electronics"`) {
		t.Errorf("Expected JSON field in output, got: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug event should be filtered at info level: %s", out)
	}
}
