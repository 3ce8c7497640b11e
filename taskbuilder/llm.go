package taskbuilder

import (
	"fmt"

	"github.com/syifan/scaleperf"
	"github.com/syifan/scaleperf/archmodel"
	"github.com/syifan/scaleperf/networkmodel"
)

// llmShape collects the per-sample quantities the transformer iteration
// needs, normalized across the dense and MoE variants.
type llmShape struct {
	numLayers       int64
	layerFwdFLOPs   float64
	layerGradBytes  float64
	lookupBytes     float64
	activationBytes float64
	moe             bool
}

func llmShapeOf(model archmodel.Model) (llmShape, error) {
	switch m := model.(type) {
	case *archmodel.LLM:
		return llmShape{
			numLayers: m.NumTransformerLayers,
			layerFwdFLOPs: float64(
				m.AttentionLayerFLOPs + m.TransformerFCLayerFLOPs),
			layerGradBytes: float64(
				(m.AttentionLayerParams + m.TransformerFCLayerParams) *
					m.BytesPerNonembParam),
			lookupBytes: float64(m.TotalLookupBytes),
			activationBytes: float64(
				m.TransformerSeqLen * m.AttentionDim * m.BytesPerNonembParam),
		}, nil
	case *archmodel.LLMMoE:
		return llmShape{
			numLayers: m.NumTransformerLayers,
			layerFwdFLOPs: float64(
				m.AttentionLayerFLOPs + m.TransformerFCLayerFLOPs),
			layerGradBytes: float64(
				m.ActiveTransformerParams / m.NumTransformerLayers *
					m.BytesPerNonembParam),
			lookupBytes: float64(m.TotalLookupBytes),
			activationBytes: float64(
				m.TransformerSeqLen * m.AttentionDim * m.BytesPerNonembParam),
			moe: true,
		}, nil
	default:
		return llmShape{}, fmt.Errorf(
			"model %s does not describe a transformer model", model.Name())
	}
}

// buildLLM places one iteration of a transformer model. The transformer
// stack is tensor-parallel within a node and data-parallel across the
// remaining replicas. Each layer's forward pass hands its activations to a
// scale-up all-reduce, and the next layer waits for it; per-layer gradient
// all-reduces trail the backward pass so that earlier layers overlap them.
func (b *Builder) buildLLM(st *buildState, training bool) error {
	shape, err := llmShapeOf(b.model)
	if err != nil {
		return err
	}

	tp := b.system.NumIntraNodeDevices
	dp := b.system.NumDevices / tp
	localBS := float64(b.cfg.GlobalBatchSize) / float64(dp)
	perDevice := localBS / float64(tp)

	err = b.addLookup(st, "emb_fwd", shape.lookupBytes*perDevice, nil)
	if err != nil {
		return err
	}

	for i := int64(0); i < shape.numLayers; i++ {
		var deps []string
		if i > 0 {
			deps = []string{fmt.Sprintf("allreduce_tp_fwd_%d", i-1)}
		}

		err = b.addCompute(st, fmt.Sprintf("layer%d_fwd_gemm", i),
			scaleperf.GEMM, shape.layerFwdFLOPs*perDevice, deps)
		if err != nil {
			return err
		}

		if shape.moe {
			err = b.addCollective(st, fmt.Sprintf("all2all_moe_fwd_%d", i),
				scaleperf.AllToAll, networkmodel.AllToAll,
				shape.activationBytes*localBS, tp,
				[]string{fmt.Sprintf("layer%d_fwd", i)})
			if err != nil {
				return err
			}
		}

		err = b.addCollective(st, fmt.Sprintf("allreduce_tp_fwd_%d", i),
			scaleperf.AllReduce, networkmodel.AllReduce,
			shape.activationBytes*localBS, tp,
			[]string{fmt.Sprintf("layer%d_fwd", i)})
		if err != nil {
			return err
		}
	}

	if !training {
		return nil
	}

	for i := shape.numLayers - 1; i >= 0; i-- {
		err = b.addCompute(st, fmt.Sprintf("layer%d_bwd_gemm", i),
			scaleperf.GEMM, 2*shape.layerFwdFLOPs*perDevice, nil)
		if err != nil {
			return err
		}

		if shape.moe {
			err = b.addCollective(st, fmt.Sprintf("all2all_moe_bwd_%d", i),
				scaleperf.AllToAll, networkmodel.AllToAll,
				shape.activationBytes*localBS, tp,
				[]string{fmt.Sprintf("layer%d_bwd", i)})
			if err != nil {
				return err
			}
		}

		err = b.addCollective(st, fmt.Sprintf("allreduce_dp_grad_%d", i),
			scaleperf.AllReduce, networkmodel.AllReduce,
			shape.layerGradBytes/float64(tp), dp,
			[]string{fmt.Sprintf("layer%d_bwd", i)})
		if err != nil {
			return err
		}
	}

	return b.addLookup(st, "emb_update", shape.lookupBytes*perDevice, nil)
}
