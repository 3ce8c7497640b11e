// Package sysmodel derives the effective capability of a distributed system
// from its raw hardware specification.
package sysmodel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Config is the raw hardware specification of a cluster. Throughput figures
// are per device in FLOPS (operations per second for INT8), capacities and
// bandwidths are per device in bytes and bytes per second.
type Config struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`

	NumDevices int `json:"num_devices" yaml:"num_devices"`
	NumNodes   int `json:"num_nodes" yaml:"num_nodes"`

	F64FLOPS  float64 `json:"f64_flops" yaml:"f64_flops"`
	F32FLOPS  float64 `json:"f32_flops" yaml:"f32_flops"`
	F16FLOPS  float64 `json:"f16_flops" yaml:"f16_flops"`
	I8OPS     float64 `json:"i8_ops" yaml:"i8_ops"`
	FLOPSUtil float64 `json:"flops_util" yaml:"flops_util"`

	MemCap    float64 `json:"mem_cap" yaml:"mem_cap"`
	MemBW     float64 `json:"mem_bw" yaml:"mem_bw"`
	MemBWUtil float64 `json:"mem_bw_util" yaml:"mem_bw_util"`

	ScaleUpBW      float64 `json:"scaleup_bw" yaml:"scaleup_bw"`
	ScaleUpBWUtil  float64 `json:"scaleup_bw_util" yaml:"scaleup_bw_util"`
	ScaleOutBW     float64 `json:"scaleout_bw" yaml:"scaleout_bw"`
	ScaleOutBWUtil float64 `json:"scaleout_bw_util" yaml:"scaleout_bw_util"`
}

// LoadConfig reads a system configuration from a JSON or YAML file, selected
// by file extension.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("loading system config %s: %w", path, err)
	}

	return cfg, nil
}

// A System is a distributed system with its effective, utilization-derated
// capability figures. All derived fields are computed once at construction
// and never mutated.
type System struct {
	Name string
	Type string

	NumDevices          int
	NumNodes            int
	NumIntraNodeDevices int

	F64FLOPS  float64
	F32FLOPS  float64
	F16FLOPS  float64
	I8OPS     float64
	FLOPSUtil float64

	EffF64FLOPS float64
	EffF32FLOPS float64
	EffF16FLOPS float64
	EffI8OPS    float64

	MemCap    float64
	MemBW     float64
	MemBWUtil float64
	EffMemBW  float64

	EffScaleUpBW  float64
	EffScaleOutBW float64
}

// NewSystem validates the configuration and derives the effective capability
// figures. It returns an error without producing a partial System when the
// configuration is invalid.
func NewSystem(cfg Config) (*System, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	s := &System{
		Name:                cfg.Name,
		Type:                cfg.Type,
		NumDevices:          cfg.NumDevices,
		NumNodes:            cfg.NumNodes,
		NumIntraNodeDevices: cfg.NumDevices / cfg.NumNodes,
		F64FLOPS:            cfg.F64FLOPS,
		F32FLOPS:            cfg.F32FLOPS,
		F16FLOPS:            cfg.F16FLOPS,
		I8OPS:               cfg.I8OPS,
		FLOPSUtil:           cfg.FLOPSUtil,
		MemCap:              cfg.MemCap,
		MemBW:               cfg.MemBW,
		MemBWUtil:           cfg.MemBWUtil,
	}

	s.EffF64FLOPS = cfg.F64FLOPS * cfg.FLOPSUtil
	s.EffF32FLOPS = cfg.F32FLOPS * cfg.FLOPSUtil
	s.EffF16FLOPS = cfg.F16FLOPS * cfg.FLOPSUtil
	s.EffI8OPS = cfg.I8OPS * cfg.FLOPSUtil
	s.EffMemBW = cfg.MemBW * cfg.MemBWUtil
	s.EffScaleUpBW = cfg.ScaleUpBW * cfg.ScaleUpBWUtil
	s.EffScaleOutBW = cfg.ScaleOutBW * cfg.ScaleOutBWUtil

	return s, nil
}

func validate(cfg Config) error {
	var missing []string
	if cfg.NumDevices <= 0 {
		missing = append(missing, "num_devices")
	}
	if cfg.NumNodes <= 0 {
		missing = append(missing, "num_nodes")
	}
	if cfg.F16FLOPS <= 0 {
		missing = append(missing, "f16_flops")
	}
	if cfg.MemBW <= 0 {
		missing = append(missing, "mem_bw")
	}
	if len(missing) > 0 {
		return fmt.Errorf("system config %q: missing required fields: %s",
			cfg.Name, strings.Join(missing, ", "))
	}

	if cfg.NumDevices%cfg.NumNodes != 0 {
		return fmt.Errorf(
			"system config %q: number of devices (%d) must be evenly "+
				"divisible by number of nodes (%d)",
			cfg.Name, cfg.NumDevices, cfg.NumNodes)
	}

	utils := []struct {
		name  string
		value float64
	}{
		{"flops_util", cfg.FLOPSUtil},
		{"mem_bw_util", cfg.MemBWUtil},
	}
	for _, u := range utils {
		if u.value <= 0 || u.value > 1 {
			return fmt.Errorf("system config %q: %s must be in (0, 1], got %g",
				cfg.Name, u.name, u.value)
		}
	}

	return nil
}

// CollectiveBandwidth returns the effective interconnect bandwidth available
// to a collective over numDevices participants: the scale-up fabric when the
// group fits in one node, the scale-out fabric otherwise.
func (s *System) CollectiveBandwidth(numDevices int) float64 {
	if numDevices <= s.NumIntraNodeDevices {
		return s.EffScaleUpBW
	}
	return s.EffScaleOutBW
}

// WriteSummary writes the system summary statistics.
func (s *System) WriteSummary(w io.Writer) {
	effF64TFLOPS := s.EffF64FLOPS / 1e12
	effF32TFLOPS := s.EffF32FLOPS / 1e12
	effF16TFLOPS := s.EffF16FLOPS / 1e12
	effI8TOPS := s.EffI8OPS / 1e12

	memCapGB := s.MemCap / 1e9
	memBWGBps := s.MemBW / 1e9
	devices := float64(s.NumDevices)

	fmt.Fprintf(w, "System Name: %s\n", s.Name)
	fmt.Fprintf(w, "%d nodes with %d devices each\n",
		s.NumNodes, s.NumIntraNodeDevices)
	fmt.Fprintln(w, "Effective FLOPs:")
	fmt.Fprintf(w, "\tFP64: %.2f TFLOPS per device / %.2f PFLOPS system-wide\n",
		effF64TFLOPS, effF64TFLOPS*devices/1000)
	fmt.Fprintf(w, "\tFP/TF32: %.2f TFLOPS per device / %.2f PFLOPS system-wide\n",
		effF32TFLOPS, effF32TFLOPS*devices/1000)
	fmt.Fprintf(w, "\tFP/BF16: %.2f TFLOPS per device / %.2f PFLOPS system-wide\n",
		effF16TFLOPS, effF16TFLOPS*devices/1000)
	fmt.Fprintf(w, "\tINT8: %.2f TOPS per device / %.2f POPS system-wide\n",
		effI8TOPS, effI8TOPS*devices/1000)
	fmt.Fprintln(w, "Memory:")
	fmt.Fprintf(w, "\tCapacity: %.2f GB per device / %.2f TB system-wide\n",
		memCapGB, memCapGB*devices/1000)
	fmt.Fprintf(w, "\tBandwidth: %.2f GB/s per device / %.2f TB/s system-wide\n",
		memBWGBps, memBWGBps*devices/1000)
}
