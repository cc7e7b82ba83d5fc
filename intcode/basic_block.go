package intcode

import (
	"fmt"
	"sort"

	"github.com/xlab/treeprint"
)

// BasicBlock is a run of disassembled lines entered only at Start.
type BasicBlock struct {
	Start      int64
	End        int64 // exclusive
	Lines      []Line
	Successors []int64
	Dynamic    bool // ends in a jump whose target is only known at run time
}

// BasicBlocks splits a linear disassembly into blocks. A block begins at address 0, after
// any jump, halt or data word, and at every immediate jump target that starts an instruction.
func BasicBlocks(program []int64) []BasicBlock {
	lines := Disassemble(program)
	if len(lines) == 0 {
		return nil
	}
	starts := make(map[int64]bool, len(lines))
	for _, l := range lines {
		starts[l.Addr] = true
	}

	leaders := map[int64]bool{0: true}
	for i, l := range lines {
		if l.IsData() || IsBlockTerminator(l.Op.Opcode) {
			if i+1 < len(lines) {
				leaders[lines[i+1].Addr] = true
			}
		}
		if l.Op != nil && isJump(l.Op.Opcode) && l.Op.Args[1].Mode == Immediate {
			if t := l.Op.Args[1].Value; starts[t] {
				leaders[t] = true
			}
		}
	}

	var blocks []BasicBlock
	cur := BasicBlock{Start: lines[0].Addr}
	for i, l := range lines {
		if i > 0 && leaders[l.Addr] {
			blocks = append(blocks, cur)
			cur = BasicBlock{Start: l.Addr}
		}
		cur.Lines = append(cur.Lines, l)
		cur.End = l.Addr + int64(len(l.Words))
	}
	blocks = append(blocks, cur)

	for i := range blocks {
		b := &blocks[i]
		last := b.Lines[len(b.Lines)-1]
		falls := i+1 < len(blocks)
		if last.Op != nil {
			switch {
			case last.Op.Opcode == HALT:
				falls = false
			case isJump(last.Op.Opcode):
				if target := last.Op.Args[1]; target.Mode == Immediate {
					b.Successors = append(b.Successors, target.Value)
				} else {
					b.Dynamic = true
				}
				// jnz/jz with an immediate condition always or never jump.
				if cond := last.Op.Args[0]; cond.Mode == Immediate {
					taken := (cond.Value != 0) == (last.Op.Opcode == JUMP_IF_TRUE)
					if taken {
						falls = false
					} else {
						b.Successors = b.Successors[:0]
						b.Dynamic = false
					}
				}
			}
		}
		if falls {
			b.Successors = append(b.Successors, blocks[i+1].Start)
		}
		sort.Slice(b.Successors, func(x, y int) bool { return b.Successors[x] < b.Successors[y] })
	}
	return blocks
}

func isJump(op Opcode) bool {
	return op == JUMP_IF_TRUE || op == JUMP_IF_FALSE
}

// ControlFlowTree renders blocks with their instructions and successor edges.
func ControlFlowTree(name string, blocks []BasicBlock) treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("%s (%d blocks)", name, len(blocks)))
	for _, b := range blocks {
		branch := tree.AddBranch(fmt.Sprintf("block %d..%d", b.Start, b.End))
		for _, l := range b.Lines {
			branch.AddNode(fmt.Sprintf("%d: %s", l.Addr, l.Text))
		}
		for _, s := range b.Successors {
			branch.AddMetaNode("->", fmt.Sprint(s))
		}
		if b.Dynamic {
			branch.AddMetaNode("->", "dynamic")
		}
	}
	return tree
}
