package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestInit(t *testing.T) {
	defer Init(false, false)

	for _, tt := range []struct {
		debug, human bool
		level        zerolog.Level
	}{
		{false, false, zerolog.InfoLevel},
		{true, false, zerolog.DebugLevel},
		{false, true, zerolog.InfoLevel},
		{true, true, zerolog.DebugLevel},
	} {
		Init(tt.debug, tt.human)
		if L() == nil {
			t.Fatalf("Init(%v, %v): nil logger", tt.debug, tt.human)
		}
		if got := zerolog.GlobalLevel(); got != tt.level {
			t.Errorf("Init(%v, %v): level = %v, want %v", tt.debug, tt.human, got, tt.level)
		}
	}
}

func TestWithStage(t *testing.T) {
	// Must not panic and must derive from the configured base logger.
	l := WithStage("chunks")
	l.Debug().Msg("stage logger works")
}
