// Package networkmodel provides a performance model for the collective
// communication between devices. It models the interconnect as a single
// aggregate bandwidth figure per fabric tier; topology and contention are
// out of scope.
package networkmodel

import (
	"fmt"

	"github.com/syifan/scaleperf/sysmodel"
)

// A CollectiveKind is one of the supported collective operations.
type CollectiveKind int

// CollectiveKind constants
const (
	AllReduce CollectiveKind = iota
	AllGather
	ReduceScatter
	AllToAll
)

func (k CollectiveKind) String() string {
	switch k {
	case AllReduce:
		return "allreduce"
	case AllGather:
		return "allgather"
	case ReduceScatter:
		return "reducescatter"
	case AllToAll:
		return "all2all"
	default:
		return fmt.Sprintf("CollectiveKind(%d)", int(k))
	}
}

// A CollectiveInput represents the input of a collective estimator. Bytes is
// the per-device payload before the collective's own traffic expansion.
type CollectiveInput struct {
	Kind       CollectiveKind
	Bytes      float64
	NumDevices int
}

// A CollectiveOutput represents the output of a collective estimator.
type CollectiveOutput struct {
	// The estimated completion time in seconds.
	TimeInSec float64
}

// A CollectiveEstimator estimates the completion time of a collective
// operation.
type CollectiveEstimator interface {
	EstimateCollective(input CollectiveInput) (CollectiveOutput, error)
}

// A RingCollectiveModel estimates collective time with the closed-form ring
// algorithm figures. Groups that fit within one node use the scale-up
// fabric; larger groups use the scale-out fabric.
type RingCollectiveModel struct {
	System *sysmodel.System
}

// EstimateCollective returns the ring-algorithm completion time of the
// collective. A group of fewer than two devices transfers nothing.
func (m *RingCollectiveModel) EstimateCollective(
	input CollectiveInput,
) (CollectiveOutput, error) {
	n := float64(input.NumDevices)
	if input.NumDevices < 2 {
		return CollectiveOutput{TimeInSec: 0}, nil
	}

	bw := m.System.CollectiveBandwidth(input.NumDevices)
	if bw <= 0 {
		return CollectiveOutput{}, fmt.Errorf(
			"no interconnect bandwidth configured for %d-device %v",
			input.NumDevices, input.Kind)
	}

	// A ring moves (n-1)/n of the payload per phase; all-reduce runs the
	// reduce-scatter and all-gather phases back to back.
	ringFraction := (n - 1) / n
	var bytesOnWire float64
	switch input.Kind {
	case AllReduce:
		bytesOnWire = 2 * ringFraction * input.Bytes
	case AllGather, ReduceScatter, AllToAll:
		bytesOnWire = ringFraction * input.Bytes
	default:
		return CollectiveOutput{},
			fmt.Errorf("collective kind %d undefined", int(input.Kind))
	}

	return CollectiveOutput{TimeInSec: bytesOnWire / bw}, nil
}
