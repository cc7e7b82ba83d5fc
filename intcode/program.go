package intcode

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/colorfulnotion/intcode/common"
	"github.com/colorfulnotion/intcode/vmerrors"
	"golang.org/x/exp/slices"
)

// Program is an Intcode image as loaded from text.
type Program []int64

// ParseProgram reads a single line of comma separated signed integers. Surrounding
// whitespace and a trailing newline are ignored.
func ParseProgram(text string) (Program, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty program", vmerrors.ErrInvalidProgramImage)
	}
	fields := strings.Split(text, ",")
	prog := make(Program, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: word %d %q: %v", vmerrors.ErrInvalidProgramImage, i, f, err)
		}
		prog[i] = v
	}
	return prog, nil
}

func LoadProgram(path string) (Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadProgram %s: %w", path, err)
	}
	prog, err := ParseProgram(string(data))
	if err != nil {
		return nil, fmt.Errorf("LoadProgram %s: %w", path, err)
	}
	return prog, nil
}

// ParseInputs parses a comma separated input list. An empty string yields no inputs.
func ParseInputs(text string) ([]int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	fields := strings.Split(text, ",")
	out := make([]int64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid input %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (p Program) Clone() Program {
	return slices.Clone(p)
}

// Hash identifies the image by the Blake2b hash of its little-endian words.
func (p Program) Hash() common.Hash {
	return common.Blake2Hash(common.Int64sToBytes(p))
}

func (p Program) String() string {
	var sb strings.Builder
	for i, v := range p {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatInt(v, 10))
	}
	return sb.String()
}
