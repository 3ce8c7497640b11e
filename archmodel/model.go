// Package archmodel derives parameter counts, per-sample FLOPs, and sparse
// lookup traffic from model architecture hyperparameters. One variant exists
// per architecture family.
package archmodel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Config holds architecture hyperparameters. It is the superset of the
// fields of all families; each family validates the subset it requires at
// construction.
type Config struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`

	BytesPerNonembParam int64 `json:"bytes_per_nonemb_param" yaml:"bytes_per_nonemb_param"`
	BytesPerEmbParam    int64 `json:"bytes_per_emb_param" yaml:"bytes_per_emb_param"`

	// MLP stack
	NumBotMLPLayers int64 `json:"num_bot_mlp_layers" yaml:"num_bot_mlp_layers"`
	NumTopMLPLayers int64 `json:"num_top_mlp_layers" yaml:"num_top_mlp_layers"`
	MLPDim          int64 `json:"mlp_dim" yaml:"mlp_dim"`

	// Embedding tables
	NumTables       int64 `json:"num_tables" yaml:"num_tables"`
	EntriesPerTable int64 `json:"entries_per_table" yaml:"entries_per_table"`
	EmbDim          int64 `json:"emb_dim" yaml:"emb_dim"`
	PoolingSize     int64 `json:"pooling_size" yaml:"pooling_size"`

	// Transformer stack
	NumTransformerLayers int64 `json:"num_transformer_layers" yaml:"num_transformer_layers"`
	NumTransformerHeads  int64 `json:"num_transformer_heads" yaml:"num_transformer_heads"`
	AttentionDim         int64 `json:"attention_dim" yaml:"attention_dim"`
	TransformerFCDim     int64 `json:"transformer_fc_dim" yaml:"transformer_fc_dim"`
	TransformerSeqLen    int64 `json:"transformer_seq_len" yaml:"transformer_seq_len"`

	// Mixture of experts
	NumExperts       int64 `json:"num_experts" yaml:"num_experts"`
	NumActiveExperts int64 `json:"num_active_experts" yaml:"num_active_experts"`
}

// LoadConfig reads an architecture configuration from a JSON or YAML file,
// selected by file extension.
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
		return Config{}, fmt.Errorf("loading model config %s: %w", path, err)
	}

	return cfg, nil
}

// A Model exposes the derived cost figures of one architecture. All figures
// are computed once at construction and never mutated. FLOPs follow the
// convention that a fused multiply-add over an n-by-n weight matrix costs
// 2*n*n FLOPs; lookup bytes are the embedding-gather traffic for one sample.
type Model interface {
	Name() string
	Family() string

	// DenseParams returns the non-embedding parameter count; SparseParams
	// the embedding-table parameter count. TotalParams is exactly their sum.
	DenseParams() int64
	SparseParams() int64
	TotalParams() int64

	FLOPsPerSample() int64
	LookupBytes() int64

	WriteSummary(w io.Writer)
}

// New constructs the model variant selected by cfg.Type.
func New(cfg Config) (Model, error) {
	switch cfg.Type {
	case "DLRM":
		return NewDLRM(cfg)
	case "DLRM_MoE":
		return NewDLRMMoE(cfg)
	case "DLRM_Transformer":
		return NewDLRMTransformer(cfg)
	case "LLM":
		return NewLLM(cfg)
	case "LLM_MoE":
		return NewLLMMoE(cfg)
	default:
		return nil, fmt.Errorf("model type %q undefined", cfg.Type)
	}
}

type fieldCheck struct {
	name  string
	value int64
}

func requireFields(cfg Config, checks []fieldCheck) error {
	var missing []string
	for _, c := range checks {
		if c.value <= 0 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("model config %q (%s): missing required fields: %s",
			cfg.Name, cfg.Type, strings.Join(missing, ", "))
	}
	return nil
}

func checkActiveExperts(cfg Config) error {
	if cfg.NumActiveExperts > cfg.NumExperts {
		return fmt.Errorf(
			"model config %q: num_active_experts (%d) exceeds num_experts (%d)",
			cfg.Name, cfg.NumActiveExperts, cfg.NumExperts)
	}
	return nil
}
