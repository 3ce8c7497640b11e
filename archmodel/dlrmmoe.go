package archmodel

import (
	"fmt"
	"io"
)

// A DLRMMoE is a DLRM whose top MLP stack is replaced by a mixture of
// experts; only the active experts contribute FLOPs per sample.
type DLRMMoE struct {
	name string

	NumBotMLPLayers int64
	NumTopMLPLayers int64
	NumMLPLayers    int64
	MLPDim          int64

	NumTables       int64
	EntriesPerTable int64
	EmbDim          int64
	PoolingSize     int64

	NumExperts       int64
	NumActiveExperts int64

	BytesPerNonembParam int64
	BytesPerEmbParam    int64

	MLPLayerParams  int64
	MLPParams       int64
	MLPActiveParams int64
	EmbParams       int64

	BotLayerFLOPs int64
	TopLayerFLOPs int64
	TotalFLOPs    int64

	TotalLookupBytes int64
}

// NewDLRMMoE derives the cost figures of a DLRM with a mixture-of-experts
// top stack. It fails when more experts are active than exist.
func NewDLRMMoE(cfg Config) (*DLRMMoE, error) {
	err := requireFields(cfg, []fieldCheck{
		{"num_bot_mlp_layers", cfg.NumBotMLPLayers},
		{"num_top_mlp_layers", cfg.NumTopMLPLayers},
		{"mlp_dim", cfg.MLPDim},
		{"num_tables", cfg.NumTables},
		{"entries_per_table", cfg.EntriesPerTable},
		{"emb_dim", cfg.EmbDim},
		{"pooling_size", cfg.PoolingSize},
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

	m := &DLRMMoE{
		name:                cfg.Name,
		NumBotMLPLayers:     cfg.NumBotMLPLayers,
		NumTopMLPLayers:     cfg.NumTopMLPLayers,
		NumMLPLayers:        cfg.NumBotMLPLayers + cfg.NumTopMLPLayers,
		MLPDim:              cfg.MLPDim,
		NumTables:           cfg.NumTables,
		EntriesPerTable:     cfg.EntriesPerTable,
		EmbDim:              cfg.EmbDim,
		PoolingSize:         cfg.PoolingSize,
		NumExperts:          cfg.NumExperts,
		NumActiveExperts:    cfg.NumActiveExperts,
		BytesPerNonembParam: cfg.BytesPerNonembParam,
		BytesPerEmbParam:    cfg.BytesPerEmbParam,
	}

	m.MLPLayerParams = m.MLPDim * m.MLPDim
	m.MLPParams = m.NumBotMLPLayers*m.MLPLayerParams +
		m.NumExperts*m.NumTopMLPLayers*m.MLPLayerParams
	m.MLPActiveParams = m.NumBotMLPLayers*m.MLPLayerParams +
		m.NumActiveExperts*m.NumTopMLPLayers*m.MLPLayerParams
	m.EmbParams = m.NumTables * m.EntriesPerTable * m.EmbDim

	m.BotLayerFLOPs = 2 * m.MLPLayerParams
	m.TopLayerFLOPs = 2 * m.NumActiveExperts * m.MLPLayerParams
	m.TotalFLOPs = m.BotLayerFLOPs*m.NumBotMLPLayers +
		m.TopLayerFLOPs*m.NumTopMLPLayers

	m.TotalLookupBytes = m.NumTables * m.PoolingSize * m.EmbDim *
		m.BytesPerEmbParam

	return m, nil
}

// Name returns the model name.
func (m *DLRMMoE) Name() string { return m.name }

// Family returns the architecture family tag.
func (m *DLRMMoE) Family() string { return "DLRM_MoE" }

// DenseParams returns the MLP parameter count over all experts.
func (m *DLRMMoE) DenseParams() int64 { return m.MLPParams }

// SparseParams returns the embedding-table parameter count.
func (m *DLRMMoE) SparseParams() int64 { return m.EmbParams }

// TotalParams returns the sum of dense and sparse parameters.
func (m *DLRMMoE) TotalParams() int64 { return m.MLPParams + m.EmbParams }

// FLOPsPerSample returns the active-expert dense FLOPs for one sample.
func (m *DLRMMoE) FLOPsPerSample() int64 { return m.TotalFLOPs }

// LookupBytes returns the embedding-gather bytes for one sample.
func (m *DLRMMoE) LookupBytes() int64 { return m.TotalLookupBytes }

// WriteSummary writes the model summary statistics.
func (m *DLRMMoE) WriteSummary(w io.Writer) {
	totalParamsB := float64(m.TotalParams()) / 1e9
	percDense := float64(m.MLPParams) / float64(m.TotalParams()) * 100.0
	percSparse := 100.0 - percDense

	denseGB := float64(m.MLPParams*m.BytesPerNonembParam) / 1e9
	sparseGB := float64(m.EmbParams*m.BytesPerEmbParam) / 1e9

	fmt.Fprintln(w, "**************************************************")
	fmt.Fprintf(w, "Model Name: %s\n", m.name)
	fmt.Fprintf(w, "Parameters: %.2f B (%.2f%% dense, %.2f%% sparse).\n",
		totalParamsB, percDense, percSparse)
	fmt.Fprintf(w,
		"\t%.2f B dense params, %.2f B (%.2f%%) active dense params\n",
		float64(m.MLPParams)/1e9, float64(m.MLPActiveParams)/1e9,
		float64(m.MLPActiveParams)/float64(m.MLPParams)*100.0)
	fmt.Fprintf(w, "Size: %.2f GB (%.2f GB dense, %.2f GB sparse).\n",
		denseGB+sparseGB, denseGB, sparseGB)
	fmt.Fprintf(w, "FLOPs: %.2f MFLOPs per sample.\n",
		float64(m.TotalFLOPs)/1e6)
	fmt.Fprintf(w,
		"\t(%.2f MFLOPs per Bot MLP layer, %.2f MFLOPs per Top MLP layer) per sample.\n",
		float64(m.BotLayerFLOPs)/1e6, float64(m.TopLayerFLOPs)/1e6)
	fmt.Fprintf(w, "Lookup Bytes: %.2f MB per sample.\n",
		float64(m.TotalLookupBytes)/1e6)
	fmt.Fprintln(w, "**************************************************")
}
