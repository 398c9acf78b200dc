package logging

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/chdio/chd/pkg/humanfmt"
)

// ProgressFunc is the advisory callback invoked after each write-pipeline
// stage with a stage name and a monotonically non-decreasing percentage
// (0-100). It runs synchronously on the pipeline and must not block.
type ProgressFunc func(stage string, pct float64)

// StageReporter drives a ProgressFunc and mirrors every advance into the
// log. The reported percentage never decreases even if stages report out of
// order.
type StageReporter struct {
	fn   ProgressFunc
	log  zerolog.Logger
	last float64
}

// NewStageReporter creates a reporter. fn may be nil, in which case only log
// events are emitted.
func NewStageReporter(fn ProgressFunc, log zerolog.Logger) *StageReporter {
	return &StageReporter{fn: fn, log: log}
}

// Report advances to pct within the named stage.
func (sr *StageReporter) Report(stage string, pct float64) {
	if pct < sr.last {
		pct = sr.last
	}
	sr.last = pct

	sr.log.Debug().
		Str("event", "stage_progress").
		Str("stage", stage).
		Float64("progress_pct", pct).
		Msg("stage progress")

	if sr.fn != nil {
		sr.fn(stage, pct)
	}
}

// ChunkStarted logs a chunk serialization start event.
func ChunkStarted(log zerolog.Logger, chunkID string, done, total int) {
	log.Info().
		Str("event", "chunk_started").
		Str("chunk_id", chunkID).
		Int("chunks_complete", done).
		Int("chunks_total", total).
		Msg("chunk started")
}

// ChunkCompleted logs a chunk serialization completion event.
func ChunkCompleted(log zerolog.Logger, chunkID string, elements int, bytes int64, elapsed time.Duration) {
	log.Info().
		Str("event", "chunk_completed").
		Str("chunk_id", chunkID).
		Int("elements", elements).
		Int64("bytes", bytes).
		Str("bytes_h", humanfmt.Bytes(bytes)).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("chunk completed")
}

// StageCompleted logs a pipeline stage completion event.
func StageCompleted(log zerolog.Logger, stage string, elapsed time.Duration) {
	log.Info().
		Str("event", "stage_completed").
		Str("stage", stage).
		Int64("duration_ms", elapsed.Milliseconds()).
		Str("duration_h", humanfmt.Duration(elapsed)).
		Msg("stage completed")
}
