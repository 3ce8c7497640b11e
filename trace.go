// Package scaleperf provides an analytical performance estimator for
// large-scale ML training and inference jobs.
package scaleperf

import (
	"encoding/csv"
	"fmt"
	"io"

	"gitlab.com/akita/akita/v3/sim"
)

// A StreamKind selects one of the two concurrent timelines.
type StreamKind int

// StreamKind constants
const (
	ComputationStream StreamKind = iota
	CommunicationStream
)

// Opposite returns the other stream kind.
func (k StreamKind) Opposite() StreamKind {
	switch k {
	case ComputationStream:
		return CommunicationStream
	case CommunicationStream:
		return ComputationStream
	default:
		panic(fmt.Sprintf("stream kind %d not supported", int(k)))
	}
}

func (k StreamKind) String() string {
	switch k {
	case ComputationStream:
		return "comp"
	case CommunicationStream:
		return "comm"
	default:
		return fmt.Sprintf("StreamKind(%d)", int(k))
	}
}

// A Category is one of the accounting buckets that operation durations are
// summed into.
type Category int

// Category constants
const (
	GEMM Category = iota
	Emb
	AllToAll
	AllReduce
	AllGather
	ReduceScatter
)

func (c Category) String() string {
	switch c {
	case GEMM:
		return "gemm"
	case Emb:
		return "emb"
	case AllToAll:
		return "all2all"
	case AllReduce:
		return "allreduce"
	case AllGather:
		return "allgather"
	case ReduceScatter:
		return "reducescatter"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// IsCommunication reports whether the category is counted as communication
// time rather than compute time.
func (c Category) IsCommunication() bool {
	switch c {
	case AllToAll, AllReduce, AllGather, ReduceScatter:
		return true
	default:
		return false
	}
}

// A Trace is one named, durationed unit of work placed on a timeline. Deps
// holds name substrings; an operation on the other stream whose name contains
// one of them must finish before this trace may start. A Trace is immutable
// once placed.
type Trace struct {
	Name     string
	Duration sim.VTimeInSec
	TStart   sim.VTimeInSec
	TEnd     sim.VTimeInSec
	Deps     []string
}

// A Stream is an append-only ordered sequence of traces representing either
// the computation timeline or the communication timeline. Entries appear in
// placement order, which is not necessarily monotonic in TStart.
type Stream []*Trace

// End returns the end time of the last trace appended to the stream, or zero
// for an empty stream.
func (s Stream) End() sim.VTimeInSec {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].TEnd
}

// TotalDuration returns the sum of the durations of all traces in the stream.
func (s Stream) TotalDuration() sim.VTimeInSec {
	var total sim.VTimeInSec
	for _, t := range s {
		total += t.Duration
	}
	return total
}

// WriteTimelineCSV serializes the two finished streams as CSV for external
// rendering. Columns: stream, name, t_start, t_end, duration.
func WriteTimelineCSV(
	w io.Writer,
	computation Stream,
	communication Stream,
) error {
	cw := csv.NewWriter(w)

	err := cw.Write([]string{"stream", "name", "t_start", "t_end", "duration"})
	if err != nil {
		return err
	}

	streams := []struct {
		kind   StreamKind
		stream Stream
	}{
		{ComputationStream, computation},
		{CommunicationStream, communication},
	}

	for _, s := range streams {
		for _, t := range s.stream {
			record := []string{
				s.kind.String(),
				t.Name,
				fmt.Sprintf("%.9f", float64(t.TStart)),
				fmt.Sprintf("%.9f", float64(t.TEnd)),
				fmt.Sprintf("%.9f", float64(t.Duration)),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
