package archmodel

import (
	"fmt"
	"io"
)

// A DLRM is a deep learning recommendation model: a bottom and top MLP stack
// around a set of pooled embedding tables.
type DLRM struct {
	name string

	NumBotMLPLayers int64
	NumTopMLPLayers int64
	NumMLPLayers    int64
	MLPDim          int64

	NumTables       int64
	EntriesPerTable int64
	EmbDim          int64
	PoolingSize     int64

	BytesPerNonembParam int64
	BytesPerEmbParam    int64

	MLPLayerParams int64
	MLPParams      int64
	EmbParams      int64

	LayerFLOPs int64
	TotalFLOPs int64

	TotalLookupBytes int64
}

// NewDLRM derives the cost figures of a DLRM from its hyperparameters.
func NewDLRM(cfg Config) (*DLRM, error) {
	err := requireFields(cfg, []fieldCheck{
		{"num_bot_mlp_layers", cfg.NumBotMLPLayers},
		{"num_top_mlp_layers", cfg.NumTopMLPLayers},
		{"mlp_dim", cfg.MLPDim},
		{"num_tables", cfg.NumTables},
		{"entries_per_table", cfg.EntriesPerTable},
		{"emb_dim", cfg.EmbDim},
		{"pooling_size", cfg.PoolingSize},
		{"bytes_per_nonemb_param", cfg.BytesPerNonembParam},
		{"bytes_per_emb_param", cfg.BytesPerEmbParam},
	})
	if err != nil {
		return nil, err
	}

	m := &DLRM{
		name:                cfg.Name,
		NumBotMLPLayers:     cfg.NumBotMLPLayers,
		NumTopMLPLayers:     cfg.NumTopMLPLayers,
		NumMLPLayers:        cfg.NumBotMLPLayers + cfg.NumTopMLPLayers,
		MLPDim:              cfg.MLPDim,
		NumTables:           cfg.NumTables,
		EntriesPerTable:     cfg.EntriesPerTable,
		EmbDim:              cfg.EmbDim,
		PoolingSize:         cfg.PoolingSize,
		BytesPerNonembParam: cfg.BytesPerNonembParam,
		BytesPerEmbParam:    cfg.BytesPerEmbParam,
	}

	m.MLPLayerParams = m.MLPDim * m.MLPDim
	m.MLPParams = m.NumMLPLayers * m.MLPLayerParams
	m.EmbParams = m.NumTables * m.EntriesPerTable * m.EmbDim

	m.LayerFLOPs = 2 * m.MLPLayerParams
	m.TotalFLOPs = m.LayerFLOPs * m.NumMLPLayers

	m.TotalLookupBytes = m.NumTables * m.PoolingSize * m.EmbDim *
		m.BytesPerEmbParam

	return m, nil
}

// Name returns the model name.
func (m *DLRM) Name() string { return m.name }

// Family returns the architecture family tag.
func (m *DLRM) Family() string { return "DLRM" }

// DenseParams returns the MLP parameter count.
func (m *DLRM) DenseParams() int64 { return m.MLPParams }

// SparseParams returns the embedding-table parameter count.
func (m *DLRM) SparseParams() int64 { return m.EmbParams }

// TotalParams returns the sum of dense and sparse parameters.
func (m *DLRM) TotalParams() int64 { return m.MLPParams + m.EmbParams }

// FLOPsPerSample returns the dense FLOPs for one sample.
func (m *DLRM) FLOPsPerSample() int64 { return m.TotalFLOPs }

// LookupBytes returns the embedding-gather bytes for one sample.
func (m *DLRM) LookupBytes() int64 { return m.TotalLookupBytes }

// WriteSummary writes the model summary statistics.
func (m *DLRM) WriteSummary(w io.Writer) {
	totalParamsB := float64(m.TotalParams()) / 1e9
	percDense := float64(m.MLPParams) / float64(m.TotalParams()) * 100.0
	percSparse := 100.0 - percDense

	denseGB := float64(m.MLPParams*m.BytesPerNonembParam) / 1e9
	sparseGB := float64(m.EmbParams*m.BytesPerEmbParam) / 1e9

	fmt.Fprintln(w, "**************************************************")
	fmt.Fprintf(w, "Model Name: %s\n", m.name)
	fmt.Fprintf(w, "Parameters: %.2f B (%.2f%% dense, %.2f%% sparse).\n",
		totalParamsB, percDense, percSparse)
	fmt.Fprintf(w, "Size: %.2f GB (%.2f GB dense, %.2f GB sparse).\n",
		denseGB+sparseGB, denseGB, sparseGB)
	fmt.Fprintf(w,
		"FLOPs: %.2f MFLOPs (%.2f MFLOPs per MLP layer) per sample.\n",
		float64(m.TotalFLOPs)/1e6, float64(m.LayerFLOPs)/1e6)
	fmt.Fprintf(w, "Lookup Bytes: %.2f MB per sample.\n",
		float64(m.TotalLookupBytes)/1e6)
	fmt.Fprintln(w, "**************************************************")
}
