package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// StructuredLog is the JSON form of a recorded log record.
type StructuredLog struct {
	Time   time.Time              `json:"time"`
	Level  string                 `json:"level"`
	Module string                 `json:"module"`
	Msg    string                 `json:"msg"`
	Attrs  map[string]interface{} `json:"attrs,omitempty"`
}

func newStructuredLog(r slog.Record, module string) StructuredLog {
	l := StructuredLog{
		Time:   r.Time.UTC(),
		Level:  LevelString(r.Level),
		Module: module,
		Msg:    r.Message,
	}
	if r.NumAttrs() > 0 {
		l.Attrs = make(map[string]interface{}, r.NumAttrs())
		r.Attrs(func(a slog.Attr) bool {
			l.Attrs[a.Key] = attrValue(a.Value)
			return true
		})
	}
	return l
}

func attrValue(v slog.Value) interface{} {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return v.Float64()
	default:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	}
}

func encodeStructuredLogs(records []StructuredLog) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
