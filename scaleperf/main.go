package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/syifan/scaleperf"
	"github.com/syifan/scaleperf/archmodel"
	"github.com/syifan/scaleperf/networkmodel"
	"github.com/syifan/scaleperf/sysmodel"
	"github.com/syifan/scaleperf/taskbuilder"
	"github.com/syifan/scaleperf/timemodel"
	"github.com/tebeka/atexit"
)

var modelCfgFile = flag.String("model-cfg-file", "",
	"The model architecture configuration file (JSON or YAML).")
var systemCfgFile = flag.String("system-cfg-file", "",
	"The system configuration file (JSON or YAML).")
var taskCfgFile = flag.String("task-cfg-file", "",
	"The task configuration file (JSON or YAML).")
var timelineCSV = flag.String("timeline-csv", "",
	"If set, the per-stream timeline is written to this CSV file.")

func main() {
	flag.Parse()

	if *modelCfgFile == "" || *systemCfgFile == "" || *taskCfgFile == "" {
		flag.Usage()
		atexit.Exit(1)
	}

	systemCfg, err := sysmodel.LoadConfig(*systemCfgFile)
	if err != nil {
		fatal(err)
	}
	system, err := sysmodel.NewSystem(systemCfg)
	if err != nil {
		fatal(err)
	}

	modelCfg, err := archmodel.LoadConfig(*modelCfgFile)
	if err != nil {
		fatal(err)
	}
	model, err := archmodel.New(modelCfg)
	if err != nil {
		fatal(err)
	}

	taskCfg, err := taskbuilder.LoadTaskConfig(*taskCfgFile)
	if err != nil {
		fatal(err)
	}

	builder, err := taskbuilder.New(
		model,
		system,
		taskCfg,
		&timemodel.SystemTimeEstimator{System: system},
		&networkmodel.RingCollectiveModel{System: system},
	)
	if err != nil {
		fatal(err)
	}

	task, err := builder.Build()
	if err != nil {
		fatal(err)
	}

	model.WriteSummary(os.Stdout)
	fmt.Println()
	system.WriteSummary(os.Stdout)
	fmt.Println()
	task.WriteSummary(os.Stdout)

	if *timelineCSV != "" {
		writeTimeline(task.Computation, task.Communication)
	}

	atexit.Exit(0)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	atexit.Exit(1)
}

func writeTimeline(computation, communication scaleperf.Stream) {
	f, err := os.Create(*timelineCSV)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	err = scaleperf.WriteTimelineCSV(f, computation, communication)
	if err != nil {
		fatal(err)
	}
}
