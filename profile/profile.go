// Package profile counts what a machine spends its instructions on and charts the result.
package profile

import (
	"fmt"
	"io"
	"sync"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"golang.org/x/exp/slices"
)

// Collector is an intcode.Tracer that tallies executed opcodes and instruction addresses.
type Collector struct {
	mu    sync.Mutex
	ops   map[string]uint64
	pcs   map[int64]uint64
	total uint64
}

func NewCollector() *Collector {
	return &Collector{ops: make(map[string]uint64), pcs: make(map[int64]uint64)}
}

func (c *Collector) Step(rec intcode.StepRecord) {
	c.mu.Lock()
	c.ops[rec.Op]++
	c.pcs[rec.PC]++
	c.total++
	c.mu.Unlock()
}

func (c *Collector) Total() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

type Entry struct {
	Name  string
	Count uint64
}

type PCHit struct {
	PC    int64
	Count uint64
}

// Summary returns opcode counts, most frequent first, ties by mnemonic.
func (c *Collector) Summary() []Entry {
	c.mu.Lock()
	out := make([]Entry, 0, len(c.ops))
	for name, n := range c.ops {
		out = append(out, Entry{Name: name, Count: n})
	}
	c.mu.Unlock()
	slices.SortFunc(out, func(a, b Entry) int {
		if a.Count != b.Count {
			if a.Count > b.Count {
				return -1
			}
			return 1
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

// HotPCs returns up to n most executed addresses. n <= 0 returns all of them.
func (c *Collector) HotPCs(n int) []PCHit {
	c.mu.Lock()
	out := make([]PCHit, 0, len(c.pcs))
	for pc, cnt := range c.pcs {
		out = append(out, PCHit{PC: pc, Count: cnt})
	}
	c.mu.Unlock()
	slices.SortFunc(out, func(a, b PCHit) int {
		switch {
		case a.Count > b.Count:
			return -1
		case a.Count < b.Count:
			return 1
		case a.PC < b.PC:
			return -1
		case a.PC > b.PC:
			return 1
		}
		return 0
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Render writes an HTML page with one bar chart of opcode counts and one of the hottest addresses.
func (c *Collector) Render(w io.Writer, title string) error {
	summary := c.Summary()
	names := make([]string, len(summary))
	counts := make([]opts.BarData, len(summary))
	for i, e := range summary {
		names[i] = e.Name
		counts[i] = opts.BarData{Value: e.Count}
	}
	opBar := charts.NewBar()
	opBar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d instructions executed", c.Total()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	opBar.SetXAxis(names).AddSeries("opcodes", counts)

	hot := c.HotPCs(20)
	addrs := make([]string, len(hot))
	hits := make([]opts.BarData, len(hot))
	for i, h := range hot {
		addrs[i] = fmt.Sprint(h.PC)
		hits[i] = opts.BarData{Value: h.Count}
	}
	pcBar := charts.NewBar()
	pcBar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "hot addresses"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	pcBar.SetXAxis(addrs).AddSeries("pc", hits)

	page := components.NewPage()
	page.AddCharts(opBar, pcBar)
	return page.Render(w)
}
