// Package taskbuilder emits the ordered operation sequence of one training
// or inference iteration for each supported model family, placing each
// operation through the task's dual-stream scheduler.
package taskbuilder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syifan/scaleperf"
	"github.com/syifan/scaleperf/archmodel"
	"github.com/syifan/scaleperf/networkmodel"
	"github.com/syifan/scaleperf/sysmodel"
	"github.com/syifan/scaleperf/taskmodel"
	"github.com/syifan/scaleperf/timemodel"
	"gitlab.com/akita/akita/v3/sim"
	"gopkg.in/yaml.v3"
)

// A TaskConfig describes the job to evaluate.
type TaskConfig struct {
	Name            string `json:"name" yaml:"name"`
	Type            string `json:"type" yaml:"type"`
	GlobalBatchSize int    `json:"global_batch_size" yaml:"global_batch_size"`
	Precision       string `json:"precision" yaml:"precision"`
}

// LoadTaskConfig reads a task configuration from a JSON or YAML file,
// selected by file extension.
func LoadTaskConfig(path string) (TaskConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TaskConfig{}, err
	}

	var cfg TaskConfig
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return TaskConfig{}, fmt.Errorf("loading task config %s: %w", path, err)
	}

	return cfg, nil
}

// A Builder assembles the operation sequence of one iteration and feeds it
// through a Task's scheduler. Duration derivation goes through the injected
// estimators.
type Builder struct {
	model  archmodel.Model
	system *sysmodel.System
	cfg    TaskConfig

	precision           timemodel.Precision
	timeEstimator       timemodel.TimeEstimator
	collectiveEstimator networkmodel.CollectiveEstimator
}

// New creates a Builder. The model family and task type are validated here;
// construction fails without producing a partial builder.
func New(
	model archmodel.Model,
	system *sysmodel.System,
	cfg TaskConfig,
	timeEstimator timemodel.TimeEstimator,
	collectiveEstimator networkmodel.CollectiveEstimator,
) (*Builder, error) {
	if cfg.GlobalBatchSize <= 0 {
		return nil, fmt.Errorf("task config %q: missing required fields: "+
			"global_batch_size", cfg.Name)
	}

	switch cfg.Type {
	case "pretrain", "finetune", "inference":
	default:
		return nil, fmt.Errorf("task type %q undefined", cfg.Type)
	}

	precision, err := timemodel.ParsePrecision(cfg.Precision)
	if err != nil {
		return nil, fmt.Errorf("task config %q: %w", cfg.Name, err)
	}

	switch model.Family() {
	case "DLRM", "DLRM_MoE", "DLRM_Transformer", "LLM", "LLM_MoE":
	default:
		return nil, fmt.Errorf("task for model type %q undefined",
			model.Family())
	}

	return &Builder{
		model:               model,
		system:              system,
		cfg:                 cfg,
		precision:           precision,
		timeEstimator:       timeEstimator,
		collectiveEstimator: collectiveEstimator,
	}, nil
}

// Build assembles the iteration, finalizes the task statistics, and returns
// the task with both finished streams.
func (b *Builder) Build() (*taskmodel.Task, error) {
	task := taskmodel.NewTask(b.model, b.system, b.cfg.Name, b.cfg.Type)
	task.GlobalBatchSize = b.cfg.GlobalBatchSize

	st := &buildState{task: task}

	training := b.cfg.Type != "inference"

	var err error
	switch b.model.Family() {
	case "DLRM", "DLRM_MoE", "DLRM_Transformer":
		err = b.buildDLRM(st, training)
	case "LLM", "LLM_MoE":
		err = b.buildLLM(st, training)
	}
	if err != nil {
		return nil, err
	}

	// The iteration ends when the later of the two streams drains.
	tEnd := st.tComp
	if st.tComm > tEnd {
		tEnd = st.tComm
	}
	task.UpdateExperimentStats(tEnd)

	return task, nil
}

// buildState carries the cursor pair between placements.
type buildState struct {
	task         *taskmodel.Task
	tComp, tComm sim.VTimeInSec
}

func (b *Builder) addCompute(
	st *buildState,
	name string,
	cat scaleperf.Category,
	flops float64,
	deps []string,
) error {
	out, err := b.timeEstimator.Estimate(timemodel.TimeEstimatorInput{
		Name:      name,
		Kind:      timemodel.ComputeBound,
		FLOPs:     flops,
		Precision: b.precision,
	})
	if err != nil {
		return fmt.Errorf("estimating %s: %w", name, err)
	}

	d := sim.VTimeInSec(out.TimeInSec)
	st.tComp, st.tComm, _ = st.task.AddTrace(
		name, d, deps, scaleperf.ComputationStream, st.tComp, st.tComm)
	st.task.AddCategoryTime(cat, d)
	return nil
}

func (b *Builder) addLookup(
	st *buildState,
	name string,
	bytes float64,
	deps []string,
) error {
	out, err := b.timeEstimator.Estimate(timemodel.TimeEstimatorInput{
		Name:  name,
		Kind:  timemodel.MemoryBound,
		Bytes: bytes,
	})
	if err != nil {
		return fmt.Errorf("estimating %s: %w", name, err)
	}

	d := sim.VTimeInSec(out.TimeInSec)
	st.tComp, st.tComm, _ = st.task.AddTrace(
		name, d, deps, scaleperf.ComputationStream, st.tComp, st.tComm)
	st.task.AddCategoryTime(scaleperf.Emb, d)
	return nil
}

func (b *Builder) addCollective(
	st *buildState,
	name string,
	cat scaleperf.Category,
	kind networkmodel.CollectiveKind,
	bytes float64,
	numDevices int,
	deps []string,
) error {
	out, err := b.collectiveEstimator.EstimateCollective(
		networkmodel.CollectiveInput{
			Kind:       kind,
			Bytes:      bytes,
			NumDevices: numDevices,
		})
	if err != nil {
		return fmt.Errorf("estimating %s: %w", name, err)
	}

	d := sim.VTimeInSec(out.TimeInSec)
	st.tComp, st.tComm, _ = st.task.AddTrace(
		name, d, deps, scaleperf.CommunicationStream, st.tComp, st.tComm)
	st.task.AddCategoryTime(cat, d)
	return nil
}
