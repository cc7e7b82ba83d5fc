// Package console drives a single Intcode machine interactively: lines of input become
// machine input, machine output is echoed back. Lines starting with ':' are commands and
// ':js' evaluates JavaScript against the session.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/colorfulnotion/intcode/log"
	"github.com/dop251/goja"
)

type Session struct {
	program intcode.Program
	opts    []intcode.Option
	ascii   bool
	out     io.Writer

	m       *intcode.Machine
	queue   []int64
	outputs []int64
	vm      *goja.Runtime
}

// New prepares a session. In ascii mode input lines are sent as character codes followed
// by a newline and outputs below 128 are printed as characters.
func New(program intcode.Program, out io.Writer, ascii bool, opts ...intcode.Option) *Session {
	s := &Session{program: program.Clone(), opts: opts, ascii: ascii, out: out}
	s.reset()
	s.vm = goja.New()
	s.bindJS()
	return s
}

func (s *Session) reset() {
	s.m = intcode.New(s.program, s.opts...)
	s.queue = nil
	s.outputs = nil
}

func (s *Session) Machine() *intcode.Machine {
	return s.m
}

func (s *Session) Outputs() []int64 {
	return append([]int64(nil), s.outputs...)
}

func (s *Session) Halted() bool {
	return s.m.State() == intcode.Halted
}

// Drive resumes the machine, feeding queued input, until it wants input nobody has given
// it or halts. Outputs are echoed as they arrive.
func (s *Session) Drive() error {
	var pending *int64
	for {
		if s.m.State() == intcode.Halted {
			return nil
		}
		r, err := s.m.Resume(pending)
		pending = nil
		if err != nil {
			return err
		}
		switch r.Kind {
		case intcode.Output:
			s.outputs = append(s.outputs, r.Value)
			s.echo(r.Value)
		case intcode.InputRequired:
			if len(s.queue) == 0 {
				return nil
			}
			v := s.queue[0]
			s.queue = s.queue[1:]
			pending = &v
		case intcode.Halt:
			fmt.Fprintf(s.out, "\n[halt %d after %d steps]\n", r.Value, s.m.Steps())
			return nil
		}
	}
}

func (s *Session) echo(v int64) {
	if s.ascii && v >= 0 && v < 128 {
		fmt.Fprintf(s.out, "%c", rune(v))
		return
	}
	fmt.Fprintf(s.out, "%d\n", v)
}

// Send queues input values and drives the machine.
func (s *Session) Send(values ...int64) error {
	s.queue = append(s.queue, values...)
	return s.Drive()
}

// SendText queues the character codes of text plus a newline.
func (s *Session) SendText(text string) error {
	for _, r := range text {
		s.queue = append(s.queue, int64(r))
	}
	return s.Send('\n')
}

// Eval handles one console line. quit reports that the user asked to leave.
func (s *Session) Eval(line string) (quit bool, err error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" && !s.ascii {
		return false, nil
	}
	if strings.HasPrefix(trimmed, ":") {
		return s.command(trimmed)
	}
	if s.ascii {
		return false, s.SendText(line)
	}
	values, err := intcode.ParseInputs(trimmed)
	if err != nil {
		return false, err
	}
	return false, s.Send(values...)
}

func (s *Session) command(line string) (bool, error) {
	name, rest, _ := strings.Cut(line, " ")
	switch name {
	case ":q", ":quit", ":exit":
		return true, nil
	case ":reset":
		s.reset()
		log.Debug(log.CLIMonitoring, "console reset", "id", s.m.Identifier())
		return false, s.Drive()
	case ":state":
		fmt.Fprintf(s.out, "state=%s pc=%d rb=%d steps=%d mem=%d\n",
			s.m.State(), s.m.PC(), s.m.Memory().RelativeBase(), s.m.Steps(), s.m.Memory().Len())
		return false, nil
	case ":outputs":
		fmt.Fprintln(s.out, intcode.Program(s.outputs).String())
		return false, nil
	case ":js":
		v, err := s.vm.RunString(rest)
		if err != nil {
			return false, err
		}
		if v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
			fmt.Fprintln(s.out, v.String())
		}
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s (try :state, :outputs, :reset, :js, :quit)", name)
	}
}

func (s *Session) bindJS() {
	s.vm.Set("send", func(call goja.FunctionCall) goja.Value {
		values := make([]int64, len(call.Arguments))
		for i, a := range call.Arguments {
			values[i] = a.ToInteger()
		}
		if err := s.Send(values...); err != nil {
			panic(s.vm.NewGoError(err))
		}
		return s.vm.ToValue(s.m.State().String())
	})
	s.vm.Set("text", func(call goja.FunctionCall) goja.Value {
		if err := s.SendText(call.Argument(0).String()); err != nil {
			panic(s.vm.NewGoError(err))
		}
		return s.vm.ToValue(s.m.State().String())
	})
	s.vm.Set("outputs", func(goja.FunctionCall) goja.Value {
		return s.vm.ToValue(s.Outputs())
	})
	s.vm.Set("state", func(goja.FunctionCall) goja.Value {
		return s.vm.ToValue(s.m.State().String())
	})
	s.vm.Set("peek", func(call goja.FunctionCall) goja.Value {
		v, err := s.m.Memory().Peek(call.Argument(0).ToInteger())
		if err != nil {
			panic(s.vm.NewGoError(err))
		}
		return s.vm.ToValue(v)
	})
	s.vm.Set("print", func(call goja.FunctionCall) goja.Value {
		for _, a := range call.Arguments {
			fmt.Fprintln(s.out, a.Export())
		}
		return goja.Undefined()
	})
}
