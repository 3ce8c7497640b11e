package taskbuilder

import (
	"fmt"

	"github.com/syifan/scaleperf"
	"github.com/syifan/scaleperf/archmodel"
	"github.com/syifan/scaleperf/networkmodel"
)

// dlrmShape collects the per-sample quantities the recommendation-model
// iteration needs, normalized across the three DLRM variants.
type dlrmShape struct {
	botFwdFLOPs         float64
	topFwdFLOPs         float64
	interactionFwdFLOPs float64
	lookupBytes         float64
	exchangeBytes       float64
	denseGradBytes      float64
}

func dlrmShapeOf(model archmodel.Model) (dlrmShape, error) {
	switch m := model.(type) {
	case *archmodel.DLRM:
		return dlrmShape{
			botFwdFLOPs:    float64(m.LayerFLOPs * m.NumBotMLPLayers),
			topFwdFLOPs:    float64(m.LayerFLOPs * m.NumTopMLPLayers),
			lookupBytes:    float64(m.TotalLookupBytes),
			exchangeBytes:  float64(m.NumTables * m.EmbDim * m.BytesPerEmbParam),
			denseGradBytes: float64(m.MLPParams * m.BytesPerNonembParam),
		}, nil
	case *archmodel.DLRMMoE:
		return dlrmShape{
			botFwdFLOPs:    float64(m.BotLayerFLOPs * m.NumBotMLPLayers),
			topFwdFLOPs:    float64(m.TopLayerFLOPs * m.NumTopMLPLayers),
			lookupBytes:    float64(m.TotalLookupBytes),
			exchangeBytes:  float64(m.NumTables * m.EmbDim * m.BytesPerEmbParam),
			denseGradBytes: float64(m.MLPActiveParams * m.BytesPerNonembParam),
		}, nil
	case *archmodel.DLRMTransformer:
		return dlrmShape{
			botFwdFLOPs: float64(m.LayerFLOPs * m.NumBotMLPLayers),
			topFwdFLOPs: float64(m.LayerFLOPs * m.NumTopMLPLayers),
			interactionFwdFLOPs: float64(
				(m.AttentionLayerFLOPs + m.TransformerFCLayerFLOPs) *
					m.NumTransformerLayers),
			lookupBytes:   float64(m.TotalLookupBytes),
			exchangeBytes: float64(m.NumTables * m.EmbDim * m.BytesPerEmbParam),
			denseGradBytes: float64(
				(m.MLPParams + m.TransformerParams) * m.BytesPerNonembParam),
		}, nil
	default:
		return dlrmShape{}, fmt.Errorf(
			"model %s does not describe a recommendation model", model.Name())
	}
}

// buildDLRM places one iteration of a recommendation model. Embedding tables
// are sharded across all devices, so the pooled embedding rows travel through
// an all-to-all in each direction. The gradient all-reduce is placed against
// the backward pass so that it can overlap.
func (b *Builder) buildDLRM(st *buildState, training bool) error {
	shape, err := dlrmShapeOf(b.model)
	if err != nil {
		return err
	}

	numDevices := b.system.NumDevices
	localBS := float64(b.cfg.GlobalBatchSize) / float64(numDevices)

	err = b.addLookup(st, "emb_fwd", shape.lookupBytes*localBS, nil)
	if err != nil {
		return err
	}

	err = b.addCompute(st, "bot_mlp_fwd_gemm", scaleperf.GEMM,
		shape.botFwdFLOPs*localBS, nil)
	if err != nil {
		return err
	}

	err = b.addCollective(st, "all2all_fwd", scaleperf.AllToAll,
		networkmodel.AllToAll, shape.exchangeBytes*localBS, numDevices,
		[]string{"emb_fwd"})
	if err != nil {
		return err
	}

	topDeps := []string{"all2all_fwd"}
	if shape.interactionFwdFLOPs > 0 {
		err = b.addCompute(st, "interaction_fwd_gemm", scaleperf.GEMM,
			shape.interactionFwdFLOPs*localBS, topDeps)
		if err != nil {
			return err
		}
		topDeps = nil
	}

	err = b.addCompute(st, "top_mlp_fwd_gemm", scaleperf.GEMM,
		shape.topFwdFLOPs*localBS, topDeps)
	if err != nil {
		return err
	}

	if !training {
		return nil
	}

	err = b.addCompute(st, "top_mlp_bwd_gemm", scaleperf.GEMM,
		2*shape.topFwdFLOPs*localBS, nil)
	if err != nil {
		return err
	}

	embGradSource := "top_mlp_bwd"
	if shape.interactionFwdFLOPs > 0 {
		err = b.addCompute(st, "interaction_bwd_gemm", scaleperf.GEMM,
			2*shape.interactionFwdFLOPs*localBS, nil)
		if err != nil {
			return err
		}
		embGradSource = "interaction_bwd"
	}

	err = b.addCollective(st, "all2all_bwd", scaleperf.AllToAll,
		networkmodel.AllToAll, shape.exchangeBytes*localBS, numDevices,
		[]string{embGradSource})
	if err != nil {
		return err
	}

	err = b.addCompute(st, "bot_mlp_bwd_gemm", scaleperf.GEMM,
		2*shape.botFwdFLOPs*localBS, nil)
	if err != nil {
		return err
	}

	err = b.addCollective(st, "allreduce_mlp_grad", scaleperf.AllReduce,
		networkmodel.AllReduce, shape.denseGradBytes, numDevices,
		[]string{"bot_mlp_bwd"})
	if err != nil {
		return err
	}

	return b.addLookup(st, "emb_update", shape.lookupBytes*localBS,
		[]string{"all2all_bwd"})
}
