// Package timemodel converts FLOPs and byte quantities of named operations
// into wall-clock durations using a system's effective capability figures.
package timemodel

import (
	"fmt"

	"github.com/syifan/scaleperf/sysmodel"
)

// A Precision selects the effective-throughput channel used for
// compute-bound operations.
type Precision int

// Precision constants
const (
	FP64 Precision = iota
	FP32
	FP16
	INT8
)

func (p Precision) String() string {
	switch p {
	case FP64:
		return "fp64"
	case FP32:
		return "fp32"
	case FP16:
		return "fp16"
	case INT8:
		return "int8"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// ParsePrecision converts a configuration string into a Precision. The empty
// string defaults to FP16.
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "fp64":
		return FP64, nil
	case "fp32", "tf32":
		return FP32, nil
	case "fp16", "bf16", "":
		return FP16, nil
	case "int8":
		return INT8, nil
	default:
		return FP16, fmt.Errorf("precision %q undefined", s)
	}
}

// A WorkKind tells the estimator which capability figure bounds an
// operation.
type WorkKind int

// WorkKind constants
const (
	ComputeBound WorkKind = iota
	MemoryBound
)

// A TimeEstimatorInput represents the input of a time estimator.
type TimeEstimatorInput struct {
	Name      string
	Kind      WorkKind
	FLOPs     float64
	Bytes     float64
	Precision Precision
}

// A TimeEstimatorOutput represents the output of a time estimator.
type TimeEstimatorOutput struct {
	// The estimated execution time in seconds.
	TimeInSec float64
}

// TimeEstimator estimates the execution time of a named operation.
type TimeEstimator interface {
	// Estimate estimates the execution time of a named operation.
	Estimate(input TimeEstimatorInput) (TimeEstimatorOutput, error)
}

// A FixedTimeEstimator always returns the same estimated execution time.
type FixedTimeEstimator struct {
	TimeInSec float64
}

// Estimate always returns the configured execution time.
func (e *FixedTimeEstimator) Estimate(
	input TimeEstimatorInput,
) (TimeEstimatorOutput, error) {
	return TimeEstimatorOutput{
		TimeInSec: e.TimeInSec,
	}, nil
}

// A SystemTimeEstimator estimates execution time from a system's effective
// throughput and memory bandwidth.
type SystemTimeEstimator struct {
	System *sysmodel.System
}

// Estimate divides the operation's work by the capability figure that bounds
// it.
func (e *SystemTimeEstimator) Estimate(
	input TimeEstimatorInput,
) (TimeEstimatorOutput, error) {
	switch input.Kind {
	case ComputeBound:
		flops, err := e.effFLOPS(input.Precision)
		if err != nil {
			return TimeEstimatorOutput{}, err
		}
		return TimeEstimatorOutput{TimeInSec: input.FLOPs / flops}, nil
	case MemoryBound:
		return TimeEstimatorOutput{
			TimeInSec: input.Bytes / e.System.EffMemBW,
		}, nil
	default:
		return TimeEstimatorOutput{},
			fmt.Errorf("work kind %d undefined", int(input.Kind))
	}
}

func (e *SystemTimeEstimator) effFLOPS(p Precision) (float64, error) {
	switch p {
	case FP64:
		return e.System.EffF64FLOPS, nil
	case FP32:
		return e.System.EffF32FLOPS, nil
	case FP16:
		return e.System.EffF16FLOPS, nil
	case INT8:
		return e.System.EffI8OPS, nil
	default:
		return 0, fmt.Errorf("precision %v undefined", p)
	}
}
