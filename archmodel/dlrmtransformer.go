package archmodel

import (
	"fmt"
	"io"
)

// A DLRMTransformer is a DLRM whose feature interaction is performed by a
// transformer stack operating over the pooled embedding sequence.
type DLRMTransformer struct {
	name string

	NumBotMLPLayers int64
	NumTopMLPLayers int64
	NumMLPLayers    int64
	MLPDim          int64

	NumTables       int64
	EntriesPerTable int64
	EmbDim          int64
	PoolingSize     int64

	NumTransformerLayers int64
	NumTransformerHeads  int64
	AttentionDim         int64
	TransformerFCDim     int64
	TransformerSeqLen    int64
	AttentionHeadDim     float64

	BytesPerNonembParam int64
	BytesPerEmbParam    int64

	MLPLayerParams           int64
	AttentionLayerParams     int64
	TransformerFCLayerParams int64
	MLPParams                int64
	EmbParams                int64
	TransformerParams        int64

	LayerFLOPs              int64
	AttentionLayerFLOPs     int64
	TransformerFCLayerFLOPs int64
	TotalFLOPs              int64

	TotalLookupBytes int64
}

// NewDLRMTransformer derives the cost figures of a DLRM with transformer
// feature interaction.
func NewDLRMTransformer(cfg Config) (*DLRMTransformer, error) {
	err := requireFields(cfg, []fieldCheck{
		{"num_bot_mlp_layers", cfg.NumBotMLPLayers},
		{"num_top_mlp_layers", cfg.NumTopMLPLayers},
		{"mlp_dim", cfg.MLPDim},
		{"num_tables", cfg.NumTables},
		{"entries_per_table", cfg.EntriesPerTable},
		{"emb_dim", cfg.EmbDim},
		{"pooling_size", cfg.PoolingSize},
		{"num_transformer_layers", cfg.NumTransformerLayers},
		{"num_transformer_heads", cfg.NumTransformerHeads},
		{"attention_dim", cfg.AttentionDim},
		{"transformer_fc_dim", cfg.TransformerFCDim},
		{"transformer_seq_len", cfg.TransformerSeqLen},
		{"bytes_per_nonemb_param", cfg.BytesPerNonembParam},
		{"bytes_per_emb_param", cfg.BytesPerEmbParam},
	})
	if err != nil {
		return nil, err
	}

	m := &DLRMTransformer{
		name:                 cfg.Name,
		NumBotMLPLayers:      cfg.NumBotMLPLayers,
		NumTopMLPLayers:      cfg.NumTopMLPLayers,
		NumMLPLayers:         cfg.NumBotMLPLayers + cfg.NumTopMLPLayers,
		MLPDim:               cfg.MLPDim,
		NumTables:            cfg.NumTables,
		EntriesPerTable:      cfg.EntriesPerTable,
		EmbDim:               cfg.EmbDim,
		PoolingSize:          cfg.PoolingSize,
		NumTransformerLayers: cfg.NumTransformerLayers,
		NumTransformerHeads:  cfg.NumTransformerHeads,
		AttentionDim:         cfg.AttentionDim,
		TransformerFCDim:     cfg.TransformerFCDim,
		TransformerSeqLen:    cfg.TransformerSeqLen,
		BytesPerNonembParam:  cfg.BytesPerNonembParam,
		BytesPerEmbParam:     cfg.BytesPerEmbParam,
	}

	m.AttentionHeadDim = float64(m.AttentionDim) / float64(m.NumTransformerHeads)

	m.MLPLayerParams = m.MLPDim * m.MLPDim
	m.AttentionLayerParams = 4 * m.AttentionDim * m.AttentionDim
	m.TransformerFCLayerParams = 2 * m.AttentionDim * m.TransformerFCDim

	m.MLPParams = m.NumMLPLayers * m.MLPLayerParams
	m.EmbParams = m.NumTables * m.EntriesPerTable * m.EmbDim
	m.TransformerParams = m.NumTransformerLayers *
		(m.AttentionLayerParams + m.TransformerFCLayerParams)

	m.LayerFLOPs = 2 * m.MLPLayerParams
	m.AttentionLayerFLOPs = 2 * m.AttentionLayerParams * m.TransformerSeqLen
	m.TransformerFCLayerFLOPs = 2 * m.TransformerFCLayerParams * m.TransformerSeqLen
	m.TotalFLOPs = m.LayerFLOPs*m.NumMLPLayers +
		(m.AttentionLayerFLOPs+m.TransformerFCLayerFLOPs)*m.NumTransformerLayers

	m.TotalLookupBytes = m.NumTables * m.PoolingSize * m.EmbDim *
		m.BytesPerEmbParam

	return m, nil
}

// Name returns the model name.
func (m *DLRMTransformer) Name() string { return m.name }

// Family returns the architecture family tag.
func (m *DLRMTransformer) Family() string { return "DLRM_Transformer" }

// DenseParams returns the MLP plus transformer parameter count.
func (m *DLRMTransformer) DenseParams() int64 {
	return m.MLPParams + m.TransformerParams
}

// SparseParams returns the embedding-table parameter count.
func (m *DLRMTransformer) SparseParams() int64 { return m.EmbParams }

// TotalParams returns the sum of dense and sparse parameters.
func (m *DLRMTransformer) TotalParams() int64 {
	return m.DenseParams() + m.EmbParams
}

// FLOPsPerSample returns the dense FLOPs for one sample.
func (m *DLRMTransformer) FLOPsPerSample() int64 { return m.TotalFLOPs }

// LookupBytes returns the embedding-gather bytes for one sample.
func (m *DLRMTransformer) LookupBytes() int64 { return m.TotalLookupBytes }

// WriteSummary writes the model summary statistics.
func (m *DLRMTransformer) WriteSummary(w io.Writer) {
	totalParamsB := float64(m.TotalParams()) / 1e9
	percDense := float64(m.DenseParams()) / float64(m.TotalParams()) * 100.0
	percSparse := 100.0 - percDense
	percTransformerDense := float64(m.TransformerParams) /
		float64(m.DenseParams()) * 100.0
	percBaseDense := 100.0 - percTransformerDense

	denseGB := float64(m.DenseParams()*m.BytesPerNonembParam) / 1e9
	sparseGB := float64(m.EmbParams*m.BytesPerEmbParam) / 1e9

	percFLOPsBase := float64(m.LayerFLOPs*m.NumMLPLayers) /
		float64(m.TotalFLOPs) * 100.0
	percFLOPsTransformer := 100.0 - percFLOPsBase

	fmt.Fprintln(w, "**************************************************")
	fmt.Fprintf(w, "Model Name: %s\n", m.name)
	fmt.Fprintf(w, "Parameters: %.2f B (%.2f%% dense, %.2f%% sparse).\n",
		totalParamsB, percDense, percSparse)
	fmt.Fprintf(w, "Size: %.2f GB (%.2f GB dense, %.2f GB sparse).\n",
		denseGB+sparseGB, denseGB, sparseGB)
	fmt.Fprintf(w, "\t Dense parameters: %.2f%% base MLPs, %.2f%% transformer\n",
		percBaseDense, percTransformerDense)
	fmt.Fprintf(w,
		"FLOPs: %.2f MFLOPs per sample (%.2f MFLOPs per MLP layer, "+
			"%.2f MFLOPs per attention layer, %.2f MFLOPs per Transformer FC).\n",
		float64(m.TotalFLOPs)/1e6, float64(m.LayerFLOPs)/1e6,
		float64(m.AttentionLayerFLOPs)/1e6,
		float64(m.TransformerFCLayerFLOPs)/1e6)
	fmt.Fprintf(w, "\t%.2f%% base MLPs, %.2f%% transformer\n",
		percFLOPsBase, percFLOPsTransformer)
	fmt.Fprintf(w, "Lookup Bytes: %.2f MB per sample.\n",
		float64(m.TotalLookupBytes)/1e6)
	fmt.Fprintln(w, "**************************************************")
}
