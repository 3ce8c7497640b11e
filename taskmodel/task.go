// Package taskmodel places named operations onto two concurrent timelines,
// resolving cross-stream dependencies by name, and aggregates the finished
// timelines into iteration-level statistics.
package taskmodel

import (
	"fmt"
	"io"
	"strings"

	"github.com/syifan/scaleperf"
	"github.com/syifan/scaleperf/archmodel"
	"github.com/syifan/scaleperf/sysmodel"
	"gitlab.com/akita/akita/v3/sim"
)

// CategoryTotals accumulates the duration placed in each accounting bucket
// over one iteration.
type CategoryTotals struct {
	GEMM          sim.VTimeInSec
	Emb           sim.VTimeInSec
	AllToAll      sim.VTimeInSec
	AllReduce     sim.VTimeInSec
	AllGather     sim.VTimeInSec
	ReduceScatter sim.VTimeInSec
}

// Add accumulates a duration into the bucket for the category.
func (t *CategoryTotals) Add(c scaleperf.Category, d sim.VTimeInSec) {
	switch c {
	case scaleperf.GEMM:
		t.GEMM += d
	case scaleperf.Emb:
		t.Emb += d
	case scaleperf.AllToAll:
		t.AllToAll += d
	case scaleperf.AllReduce:
		t.AllReduce += d
	case scaleperf.AllGather:
		t.AllGather += d
	case scaleperf.ReduceScatter:
		t.ReduceScatter += d
	default:
		panic(fmt.Sprintf("category %d not supported", int(c)))
	}
}

// TotalCompute returns the summed compute-category time.
func (t *CategoryTotals) TotalCompute() sim.VTimeInSec {
	return t.GEMM + t.Emb
}

// TotalComm returns the summed communication-category time.
func (t *CategoryTotals) TotalComm() sim.VTimeInSec {
	return t.AllToAll + t.AllReduce + t.AllGather + t.ReduceScatter
}

// A Task evaluates one training or inference job: it owns the computation
// and communication timelines and the aggregate statistics derived from
// them. A Task is driven by a single caller; the stream cursors are threaded
// through AddTrace explicitly rather than held as hidden state.
type Task struct {
	Model  archmodel.Model
	System *sysmodel.System

	Name string
	Type string

	GlobalBatchSize int

	Computation   scaleperf.Stream
	Communication scaleperf.Stream

	Totals CategoryTotals

	IterationTime   sim.VTimeInSec
	ExposedComms    sim.VTimeInSec
	OverlappedComms sim.VTimeInSec
	Throughput      float64
}

// NewTask creates a Task for the given model and system.
func NewTask(
	model archmodel.Model,
	system *sysmodel.System,
	name string,
	taskType string,
) *Task {
	return &Task{
		Model:  model,
		System: system,
		Name:   name,
		Type:   taskType,
	}
}

// AddTrace places a named operation onto the stream selected by kind and
// returns the updated cursor pair together with the placed trace.
//
// The operation starts at the own-stream cursor, pushed later by every trace
// already on the other stream whose name contains one of the dependency
// substrings; all matches contribute to the same running maximum. Only the
// own-stream cursor advances. An unsupported stream kind is a programming
// error in the caller and panics.
func (t *Task) AddTrace(
	name string,
	duration sim.VTimeInSec,
	deps []string,
	kind scaleperf.StreamKind,
	tComp, tComm sim.VTimeInSec,
) (sim.VTimeInSec, sim.VTimeInSec, *scaleperf.Trace) {
	var tStart sim.VTimeInSec
	var searchStream scaleperf.Stream

	switch kind {
	case scaleperf.ComputationStream:
		tStart = tComp
		searchStream = t.Communication
	case scaleperf.CommunicationStream:
		tStart = tComm
		searchStream = t.Computation
	default:
		panic(fmt.Sprintf("stream kind %d not supported", int(kind)))
	}

	for _, dep := range deps {
		for _, prev := range searchStream {
			if strings.Contains(prev.Name, dep) && prev.TEnd > tStart {
				tStart = prev.TEnd
			}
		}
	}

	trace := &scaleperf.Trace{
		Name:     name,
		Duration: duration,
		TStart:   tStart,
		TEnd:     tStart + duration,
		Deps:     deps,
	}

	switch kind {
	case scaleperf.ComputationStream:
		t.Computation = append(t.Computation, trace)
		tComp = trace.TEnd
	case scaleperf.CommunicationStream:
		t.Communication = append(t.Communication, trace)
		tComm = trace.TEnd
	}

	return tComp, tComm, trace
}

// AddCategoryTime accumulates an operation's duration into its accounting
// bucket.
func (t *Task) AddCategoryTime(c scaleperf.Category, d sim.VTimeInSec) {
	t.Totals.Add(c, d)
}

// UpdateExperimentStats finalizes the iteration statistics. tEnd is the
// iteration end time, owned by the caller as the maximum of both final
// cursors. Exposed and overlapped communication may come out negative for
// malformed operation sequences; the values are reported as-is.
func (t *Task) UpdateExperimentStats(tEnd sim.VTimeInSec) {
	totalCommTime := t.Totals.TotalComm()
	totalComputeTime := t.Totals.TotalCompute()

	t.IterationTime = tEnd
	t.ExposedComms = tEnd - totalComputeTime
	t.OverlappedComms = totalCommTime - t.ExposedComms
	t.Throughput = float64(t.GlobalBatchSize) / float64(tEnd)
}

// WriteSummary writes the task summary statistics. UpdateExperimentStats
// must have run first.
func (t *Task) WriteSummary(w io.Writer) {
	fmt.Fprintln(w, "**************************************************")
	fmt.Fprintf(w, "Task Type: %s\n", t.Type)
	fmt.Fprintln(w, "Aggregate Compute Times [ms]:")
	fmt.Fprintf(w, "\tGEMM: %.2f\n", float64(t.Totals.GEMM)*1000)
	fmt.Fprintf(w, "\tEMB: %.2f\n", float64(t.Totals.Emb)*1000)

	fmt.Fprintln(w, "Aggregate Communication Times [ms]:")
	fmt.Fprintf(w, "\tAll-to-All: %.2f\n", float64(t.Totals.AllToAll)*1000)
	fmt.Fprintf(w, "\tAllReduce: %.2f\n", float64(t.Totals.AllReduce)*1000)
	fmt.Fprintf(w, "\tAllGather: %.2f\n", float64(t.Totals.AllGather)*1000)
	fmt.Fprintf(w, "\tReduceScatter: %.2f\n",
		float64(t.Totals.ReduceScatter)*1000)

	fmt.Fprintln(w, "Communication Overlap Breakdown [ms]:")
	totalComm := t.OverlappedComms + t.ExposedComms
	if totalComm > 0 {
		overlapPercent := 100 * float64(t.OverlappedComms) / float64(totalComm)
		exposedPercent := 100 * float64(t.ExposedComms) / float64(totalComm)
		fmt.Fprintf(w, "\tExposed Communication: %.2f (%.2f %%)\n",
			float64(t.ExposedComms)*1000, exposedPercent)
		fmt.Fprintf(w, "\tOverlapped Communication: %.2f (%.2f %%)\n",
			float64(t.OverlappedComms)*1000, overlapPercent)
	} else {
		fmt.Fprintln(w, "\tExposed Communication: 0 (0 %)")
		fmt.Fprintln(w, "\tOverlapped Communication: 0 (0 %)")
	}

	fmt.Fprintf(w, "Task Iteration Time [ms]: %.2f\n",
		float64(t.IterationTime)*1e3)
	if t.Throughput/1e6 > 0.1 {
		fmt.Fprintf(w, "Task Throughput: %.2f MQPS\n", t.Throughput/1e6)
	} else {
		fmt.Fprintf(w, "Task Throughput: %.2f QPS\n", t.Throughput)
	}
	fmt.Fprintln(w, "**************************************************")
}
