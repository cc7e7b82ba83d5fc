package intcode

import (
	"encoding/json"
	"io"
	"sync"
)

// StepRecord describes one executed instruction, taken just before it runs.
type StepRecord struct {
	Step         uint64     `json:"step"`
	PC           int64      `json:"pc"`
	Word         int64      `json:"word"`
	Op           string     `json:"op"`
	Args         []Argument `json:"args,omitempty"`
	RelativeBase int64      `json:"rb"`
}

// Tracer observes every instruction a machine executes.
type Tracer interface {
	Step(StepRecord)
}

// JSONTracer writes one JSON object per step. The first write error is kept and later
// steps are dropped.
type JSONTracer struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

func NewJSONTracer(w io.Writer) *JSONTracer {
	return &JSONTracer{enc: json.NewEncoder(w)}
}

func (t *JSONTracer) Step(rec StepRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return
	}
	t.err = t.enc.Encode(rec)
}

func (t *JSONTracer) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// RecordingTracer keeps every step in memory.
type RecordingTracer struct {
	mu      sync.Mutex
	records []StepRecord
}

func (t *RecordingTracer) Step(rec StepRecord) {
	t.mu.Lock()
	rec.Args = append([]Argument(nil), rec.Args...)
	t.records = append(t.records, rec)
	t.mu.Unlock()
}

func (t *RecordingTracer) Records() []StepRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StepRecord, len(t.records))
	copy(out, t.records)
	return out
}

func (t *RecordingTracer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}
