package archmodel

import (
	"fmt"
	"io"
)

// An LLMMoE is a transformer language model whose FC blocks are replicated
// into experts; attention is shared and only the active experts contribute
// FC FLOPs per sample.
type LLMMoE struct {
	name string

	EntriesPerTable int64

	NumTransformerLayers int64
	NumTransformerHeads  int64
	AttentionDim         int64
	TransformerFCDim     int64
	TransformerSeqLen    int64
	AttentionHeadDim     float64

	NumExperts       int64
	NumActiveExperts int64

	BytesPerNonembParam int64
	BytesPerEmbParam    int64

	WordEmbParams            int64
	PositionEmbParams        int64
	AttentionLayerParams     int64
	TransformerFCLayerParams int64
	EmbParams                int64
	TransformerParams        int64
	ActiveTransformerParams  int64

	AttentionLayerFLOPs     int64
	TransformerFCLayerFLOPs int64
	TotalFLOPs              int64

	TotalLookupBytes int64
}

// NewLLMMoE derives the cost figures of a mixture-of-experts transformer
// language model. It fails when more experts are active than exist.
func NewLLMMoE(cfg Config) (*LLMMoE, error) {
	err := requireFields(cfg, []fieldCheck{
		{"entries_per_table", cfg.EntriesPerTable},
		{"num_transformer_layers", cfg.NumTransformerLayers},
		{"num_transformer_heads", cfg.NumTransformerHeads},
		{"attention_dim", cfg.AttentionDim},
		{"transformer_fc_dim", cfg.TransformerFCDim},
		{"transformer_seq_len", cfg.TransformerSeqLen},
		{"num_experts", cfg.NumExperts},
		{"num_active_experts", cfg.NumActiveExperts},
		{"bytes_per_nonemb_param", cfg.BytesPerNonembParam},
		{"bytes_per_emb_param", cfg.BytesPerEmbParam},
	})
	if err != nil {
		return nil, err
	}
	if err := checkActiveExperts(cfg); err != nil {
		return nil, err
	}

	m := &LLMMoE{
		name:                 cfg.Name,
		EntriesPerTable:      cfg.EntriesPerTable,
		NumTransformerLayers: cfg.NumTransformerLayers,
		NumTransformerHeads:  cfg.NumTransformerHeads,
		AttentionDim:         cfg.AttentionDim,
		TransformerFCDim:     cfg.TransformerFCDim,
		TransformerSeqLen:    cfg.TransformerSeqLen,
		NumExperts:           cfg.NumExperts,
		NumActiveExperts:     cfg.NumActiveExperts,
		BytesPerNonembParam:  cfg.BytesPerNonembParam,
		BytesPerEmbParam:     cfg.BytesPerEmbParam,
	}

	m.AttentionHeadDim = float64(m.AttentionDim) / float64(m.NumTransformerHeads)

	m.WordEmbParams = m.EntriesPerTable * m.AttentionDim
	m.PositionEmbParams = m.TransformerSeqLen * m.AttentionDim
	m.AttentionLayerParams = 4 * m.AttentionDim * m.AttentionDim
	m.TransformerFCLayerParams = 2 * m.AttentionDim * m.TransformerFCDim

	m.EmbParams = m.WordEmbParams + m.PositionEmbParams
	m.TransformerParams = m.NumTransformerLayers *
		(m.AttentionLayerParams + m.NumExperts*m.TransformerFCLayerParams)
	m.ActiveTransformerParams = m.NumTransformerLayers *
		(m.AttentionLayerParams + m.NumActiveExperts*m.TransformerFCLayerParams)

	m.AttentionLayerFLOPs = 2 * m.AttentionLayerParams * m.TransformerSeqLen
	m.TransformerFCLayerFLOPs = 2 * m.NumActiveExperts *
		m.TransformerFCLayerParams * m.TransformerSeqLen
	m.TotalFLOPs = (m.AttentionLayerFLOPs + m.TransformerFCLayerFLOPs) *
		m.NumTransformerLayers

	m.TotalLookupBytes = 2 * m.TransformerSeqLen * m.AttentionDim *
		m.BytesPerEmbParam

	return m, nil
}

// Name returns the model name.
func (m *LLMMoE) Name() string { return m.name }

// Family returns the architecture family tag.
func (m *LLMMoE) Family() string { return "LLM_MoE" }

// DenseParams returns the transformer parameter count over all experts.
func (m *LLMMoE) DenseParams() int64 { return m.TransformerParams }

// SparseParams returns the word and position embedding parameter count.
func (m *LLMMoE) SparseParams() int64 { return m.EmbParams }

// TotalParams returns the sum of dense and sparse parameters.
func (m *LLMMoE) TotalParams() int64 { return m.TransformerParams + m.EmbParams }

// FLOPsPerSample returns the active-expert dense FLOPs for one sample at
// full sequence length.
func (m *LLMMoE) FLOPsPerSample() int64 { return m.TotalFLOPs }

// LookupBytes returns the word and position embedding gather bytes for one
// sample.
func (m *LLMMoE) LookupBytes() int64 { return m.TotalLookupBytes }

// WriteSummary writes the model summary statistics.
func (m *LLMMoE) WriteSummary(w io.Writer) {
	totalParamsB := float64(m.TotalParams()) / 1e9
	percDense := float64(m.TransformerParams) / float64(m.TotalParams()) * 100.0
	percSparse := 100.0 - percDense

	attentionParamsB := float64(m.AttentionLayerParams*m.NumTransformerLayers) / 1e9
	fcParamsB := float64(m.NumExperts*m.TransformerFCLayerParams*
		m.NumTransformerLayers) / 1e9

	denseGB := float64(m.TransformerParams*m.BytesPerNonembParam) / 1e9
	sparseGB := float64(m.EmbParams*m.BytesPerEmbParam) / 1e9

	fmt.Fprintln(w, "**************************************************")
	fmt.Fprintf(w, "Model Name: %s\n", m.name)
	fmt.Fprintf(w, "Parameters: %.2f B (%.2f%% dense, %.2f%% sparse).\n",
		totalParamsB, percDense, percSparse)
	fmt.Fprintf(w, "\tAttention: %.2f B (%.2f%%)\n",
		attentionParamsB, attentionParamsB/totalParamsB*100.0)
	fmt.Fprintf(w, "\tFC: %.2f B (%.2f%%) -- %.2f B per expert (%d experts)\n",
		fcParamsB, fcParamsB/totalParamsB*100.0,
		fcParamsB/float64(m.NumExperts), m.NumExperts)
	fmt.Fprintf(w, "\tActive: %.2f GB (%.2f%%)\n",
		float64(m.ActiveTransformerParams)/1e9,
		float64(m.ActiveTransformerParams)/float64(m.TransformerParams)*100.0)
	fmt.Fprintf(w, "Size: %.2f GB (%.2f GB dense, %.2f GB sparse).\n",
		denseGB+sparseGB, denseGB, sparseGB)
	fmt.Fprintf(w,
		"FLOPs: %.2f MFLOPs per sample (%.2f MFLOPs per attention layer, "+
			"%.2f MFLOPs per Transformer FC).\n",
		float64(m.TotalFLOPs)/1e6, float64(m.AttentionLayerFLOPs)/1e6,
		float64(m.TransformerFCLayerFLOPs)/1e6)
	fmt.Fprintf(w, "Lookup Bytes: %.2f MB per sample.\n",
		float64(m.TotalLookupBytes)/1e6)
	fmt.Fprintln(w, "**************************************************")
}
