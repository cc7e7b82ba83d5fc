// Package compare reports where two executions of an Intcode program part ways.
package compare

import (
	"encoding/json"
	"fmt"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/nsf/jsondiff"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
	"golang.org/x/exp/slices"
)

// Report is the outcome of comparing two traces. FirstDivergence is the index of the first
// differing step, or -1 when the traces match.
type Report struct {
	Match           bool
	FirstDivergence int
	LeftSteps       int
	RightSteps      int
	Diff            string
}

func sameStep(a, b intcode.StepRecord) bool {
	return a.Step == b.Step && a.PC == b.PC && a.Word == b.Word && a.Op == b.Op &&
		a.RelativeBase == b.RelativeBase && slices.Equal(a.Args, b.Args)
}

// Traces compares two step traces and renders the differences as an ASCII diff.
func Traces(a, b []intcode.StepRecord) (Report, error) {
	r := Report{Match: true, FirstDivergence: -1, LeftSteps: len(a), RightSteps: len(b)}
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if !sameStep(a[i], b[i]) {
			r.FirstDivergence = i
			break
		}
	}
	if r.FirstDivergence < 0 && len(a) != len(b) {
		r.FirstDivergence = n
	}
	if r.FirstDivergence < 0 {
		return r, nil
	}
	diff, modified, err := diffSteps(a, b)
	if err != nil {
		return r, err
	}
	if !modified {
		// the JSON forms agree, so the traces are equivalent
		r.FirstDivergence = -1
		return r, nil
	}
	r.Match = false
	r.Diff = diff
	return r, nil
}

// diffSteps renders an ASCII diff of two traces' JSON forms. modified is false when the
// forms are identical.
func diffSteps(a, b []intcode.StepRecord) (diff string, modified bool, err error) {
	left, err := json.Marshal(map[string]interface{}{"steps": a})
	if err != nil {
		return "", false, err
	}
	right, err := json.Marshal(map[string]interface{}{"steps": b})
	if err != nil {
		return "", false, err
	}
	differ := gojsondiff.New()
	delta, err := differ.Compare(left, right)
	if err != nil {
		return "", false, fmt.Errorf("diffing traces: %w", err)
	}
	if !delta.Modified() {
		return "", false, nil
	}
	var leftObj map[string]interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return "", false, err
	}
	asciiFmt := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{ShowArrayIndex: true})
	diff, err = asciiFmt.Format(delta)
	if err != nil {
		return "", false, fmt.Errorf("formatting trace diff: %w", err)
	}
	return diff, true, nil
}

// Snapshots reports whether two snapshots are identical and, if not, a readable diff of
// their JSON forms.
func Snapshots(a, b intcode.Snapshot) (bool, string, error) {
	left, err := json.Marshal(a)
	if err != nil {
		return false, "", err
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false, "", err
	}
	opts := jsondiff.DefaultConsoleOptions()
	diff, desc := jsondiff.Compare(left, right, &opts)
	return diff == jsondiff.FullMatch, desc, nil
}
