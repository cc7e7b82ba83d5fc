// Package pipeline chains Intcode machines so that each stage's output becomes the next
// stage's input, optionally looping the last stage back to the first.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/vmerrors"
)

type stage struct {
	m     *intcode.Machine
	queue []int64
}

func (s *stage) push(v int64) {
	s.queue = append(s.queue, v)
}

// step resumes the stage, feeding queued inputs for as long as the machine asks for them.
// It returns the first output, the halt, or InputRequired once the queue is empty.
func (s *stage) step() (intcode.IOResult, error) {
	res, err := s.m.Execute()
	for err == nil && res.NeedsInput() && len(s.queue) > 0 {
		v := s.queue[0]
		s.queue = s.queue[1:]
		res, err = s.m.Feed(v)
	}
	return res, err
}

// Pipeline is a fixed chain of machines running copies of one program, each primed with
// its own phase setting.
type Pipeline struct {
	stages []*stage
	phases []int64
}

func stageName(i int) string {
	if i < 26 {
		return fmt.Sprintf("amp-%c", 'A'+i)
	}
	return fmt.Sprintf("amp-%d", i)
}

// New builds one stage per phase. opts apply to every stage machine.
func New(program []int64, phases []int64, opts ...intcode.Option) *Pipeline {
	p := &Pipeline{phases: append([]int64(nil), phases...)}
	for i, phase := range phases {
		stageOpts := append([]intcode.Option{
			intcode.WithIdentifier(stageName(i)),
			intcode.WithLogging(log.PipelineMonitoring),
		}, opts...)
		p.stages = append(p.stages, &stage{
			m:     intcode.New(program, stageOpts...),
			queue: []int64{phase},
		})
	}
	return p
}

func (p *Pipeline) Len() int {
	return len(p.stages)
}

func (p *Pipeline) Phases() []int64 {
	return append([]int64(nil), p.phases...)
}

// Machine returns the machine behind stage i.
func (p *Pipeline) Machine(i int) *intcode.Machine {
	return p.stages[i].m
}

// RunSeries passes signal through every stage once and returns what the last stage
// emitted. A stage that halts instead of emitting passes its halt value on.
func (p *Pipeline) RunSeries(signal int64) (int64, error) {
	for i, s := range p.stages {
		s.push(signal)
		res, err := s.step()
		if err != nil {
			return 0, fmt.Errorf("RunSeries stage %s: %w", stageName(i), err)
		}
		switch res.Kind {
		case intcode.Output, intcode.Halt:
			signal = res.Value
		default:
			return 0, fmt.Errorf("RunSeries stage %s starved for input: %w", stageName(i), vmerrors.ErrUnexpectedResult)
		}
		log.Trace(log.PipelineMonitoring, "series stage", "stage", stageName(i), "result", res.String())
	}
	return signal, nil
}

// RunFeedback wires the last stage back to the first and keeps the signal circulating
// until any stage halts. It returns the most recent output.
func (p *Pipeline) RunFeedback(signal int64) (int64, error) {
	if len(p.stages) == 0 {
		return signal, nil
	}
	for round := 0; ; round++ {
		progressed := false
		for i, s := range p.stages {
			s.push(signal)
			res, err := s.step()
			if err != nil {
				return 0, fmt.Errorf("RunFeedback round %d stage %s: %w", round, stageName(i), err)
			}
			switch res.Kind {
			case intcode.Output:
				signal = res.Value
				progressed = true
			case intcode.Halt:
				log.Debug(log.PipelineMonitoring, "feedback halted", "round", round, "stage", stageName(i), "signal", signal)
				return signal, nil
			}
		}
		if !progressed {
			return 0, fmt.Errorf("RunFeedback round %d: every stage starved: %w", round, vmerrors.ErrUnexpectedResult)
		}
	}
}

// Best is the highest signal found by MaxSignal and the phase ordering that produced it.
type Best struct {
	Signal int64
	Phases []int64
	Tried  int
}

// Permutations lists every ordering of values using Heap's algorithm. The first entry is
// values itself.
func Permutations(values []int64) [][]int64 {
	a := append([]int64(nil), values...)
	out := [][]int64{append([]int64(nil), a...)}
	c := make([]int, len(a))
	for i := 0; i < len(a); {
		if c[i] < i {
			if i%2 == 0 {
				a[0], a[i] = a[i], a[0]
			} else {
				a[c[i]], a[i] = a[i], a[c[i]]
			}
			out = append(out, append([]int64(nil), a...))
			c[i]++
			i = 0
		} else {
			c[i] = 0
			i++
		}
	}
	return out
}

// MaxSignal tries every ordering of phases with a fresh pipeline per ordering and returns
// the largest final signal, starting from an input signal of 0. Orderings are evaluated
// concurrently; ties go to the ordering Heap's algorithm produces first.
func MaxSignal(ctx context.Context, program []int64, phases []int64, feedback bool, opts ...intcode.Option) (Best, error) {
	perms := Permutations(phases)
	jobs := make(chan int)
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		best     = Best{Tried: len(perms)}
		bestIdx  = -1
		firstErr error
	)

	workers := min(runtime.NumCPU(), len(perms))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				p := New(program, perms[idx], opts...)
				var signal int64
				var err error
				if feedback {
					signal, err = p.RunFeedback(0)
				} else {
					signal, err = p.RunSeries(0)
				}
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("phases %v: %w", perms[idx], err)
					}
				} else if bestIdx < 0 || signal > best.Signal || (signal == best.Signal && idx < bestIdx) {
					best.Signal, best.Phases, bestIdx = signal, perms[idx], idx
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for idx := range perms {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Best{}, err
	}
	if firstErr != nil {
		return Best{}, firstErr
	}
	log.Debug(log.PipelineMonitoring, "max signal", "signal", best.Signal, "phases", fmt.Sprint(best.Phases), "tried", best.Tried, "feedback", feedback)
	return best, nil
}
