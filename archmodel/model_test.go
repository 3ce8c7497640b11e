package archmodel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Model", func() {
	It("should reject an undefined model type", func() {
		_, err := New(Config{Name: "m", Type: "CNN"})

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("undefined"))
	})

	Describe("DLRM", func() {
		var cfg Config

		BeforeEach(func() {
			cfg = Config{
				Name:                "dlrm-small",
				Type:                "DLRM",
				BytesPerNonembParam: 4,
				BytesPerEmbParam:    4,
				NumBotMLPLayers:     2,
				NumTopMLPLayers:     3,
				MLPDim:              128,
				NumTables:           10,
				EntriesPerTable:     1000,
				EmbDim:              16,
				PoolingSize:         4,
			}
		})

		It("should derive the closed-form cost figures", func() {
			model, err := NewDLRM(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.MLPLayerParams).To(Equal(int64(16384)))
			Expect(model.DenseParams()).To(Equal(int64(81920)))
			Expect(model.SparseParams()).To(Equal(int64(160000)))
			Expect(model.LayerFLOPs).To(Equal(int64(32768)))
			Expect(model.FLOPsPerSample()).To(Equal(int64(163840)))
			Expect(model.LookupBytes()).To(Equal(int64(2560)))
		})

		It("should sum dense and sparse into total", func() {
			model, err := NewDLRM(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.TotalParams()).
				To(Equal(model.DenseParams() + model.SparseParams()))
		})

		It("should list all missing hyperparameters", func() {
			cfg.EmbDim = 0
			cfg.MLPDim = 0

			_, err := NewDLRM(cfg)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("emb_dim"))
			Expect(err.Error()).To(ContainSubstring("mlp_dim"))
		})
	})

	Describe("DLRM_MoE", func() {
		var cfg Config

		BeforeEach(func() {
			cfg = Config{
				Name:                "dlrm-moe-small",
				Type:                "DLRM_MoE",
				BytesPerNonembParam: 4,
				BytesPerEmbParam:    4,
				NumBotMLPLayers:     2,
				NumTopMLPLayers:     2,
				MLPDim:              100,
				NumTables:           10,
				EntriesPerTable:     1000,
				EmbDim:              16,
				PoolingSize:         4,
				NumExperts:          4,
				NumActiveExperts:    2,
			}
		})

		It("should count all experts in parameters but only active ones in FLOPs", func() {
			model, err := NewDLRMMoE(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.MLPParams).To(Equal(int64(100000)))
			Expect(model.MLPActiveParams).To(Equal(int64(60000)))
			Expect(model.BotLayerFLOPs).To(Equal(int64(20000)))
			Expect(model.TopLayerFLOPs).To(Equal(int64(40000)))
			Expect(model.FLOPsPerSample()).To(Equal(int64(120000)))
			Expect(model.TotalParams()).
				To(Equal(model.DenseParams() + model.SparseParams()))
		})

		It("should reject more active experts than experts", func() {
			cfg.NumActiveExperts = 8

			_, err := NewDLRMMoE(cfg)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("num_active_experts"))
		})

		It("should reduce to a dense model when all experts are active", func() {
			cfg.NumActiveExperts = cfg.NumExperts

			model, err := NewDLRMMoE(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.MLPActiveParams).To(Equal(model.MLPParams))
		})
	})

	Describe("DLRM_Transformer", func() {
		var cfg Config

		BeforeEach(func() {
			cfg = Config{
				Name:                 "dlrm-transformer-small",
				Type:                 "DLRM_Transformer",
				BytesPerNonembParam:  4,
				BytesPerEmbParam:     4,
				NumBotMLPLayers:      1,
				NumTopMLPLayers:      1,
				MLPDim:               10,
				NumTables:            10,
				EntriesPerTable:      1000,
				EmbDim:               16,
				PoolingSize:          4,
				NumTransformerLayers: 2,
				NumTransformerHeads:  2,
				AttentionDim:         8,
				TransformerFCDim:     16,
				TransformerSeqLen:    4,
			}
		})

		It("should add the interaction stack on top of the MLPs", func() {
			model, err := NewDLRMTransformer(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.AttentionLayerParams).To(Equal(int64(256)))
			Expect(model.TransformerFCLayerParams).To(Equal(int64(256)))
			Expect(model.TransformerParams).To(Equal(int64(1024)))
			Expect(model.AttentionLayerFLOPs).To(Equal(int64(2048)))
			Expect(model.TransformerFCLayerFLOPs).To(Equal(int64(2048)))
			Expect(model.FLOPsPerSample()).To(Equal(int64(8592)))
		})

		It("should sum dense and sparse into total", func() {
			model, err := NewDLRMTransformer(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.TotalParams()).
				To(Equal(model.DenseParams() + model.SparseParams()))
		})
	})

	Describe("LLM", func() {
		var cfg Config

		BeforeEach(func() {
			cfg = Config{
				Name:                 "llm-small",
				Type:                 "LLM",
				BytesPerNonembParam:  2,
				BytesPerEmbParam:     4,
				EntriesPerTable:      1000,
				NumTransformerLayers: 2,
				NumTransformerHeads:  4,
				AttentionDim:         64,
				TransformerFCDim:     128,
				TransformerSeqLen:    32,
			}
		})

		It("should derive the transformer cost figures", func() {
			model, err := NewLLM(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.WordEmbParams).To(Equal(int64(64000)))
			Expect(model.PositionEmbParams).To(Equal(int64(2048)))
			Expect(model.AttentionLayerParams).To(Equal(int64(16384)))
			Expect(model.TransformerFCLayerParams).To(Equal(int64(16384)))
			Expect(model.DenseParams()).To(Equal(int64(65536)))
			Expect(model.FLOPsPerSample()).To(Equal(int64(4194304)))
			Expect(model.LookupBytes()).To(Equal(int64(16384)))
		})

		It("should sum dense and sparse into total", func() {
			model, err := NewLLM(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.TotalParams()).
				To(Equal(model.DenseParams() + model.SparseParams()))
		})
	})

	Describe("LLM_MoE", func() {
		var cfg Config

		BeforeEach(func() {
			cfg = Config{
				Name:                 "llm-moe-small",
				Type:                 "LLM_MoE",
				BytesPerNonembParam:  2,
				BytesPerEmbParam:     4,
				EntriesPerTable:      1000,
				NumTransformerLayers: 2,
				NumTransformerHeads:  4,
				AttentionDim:         64,
				TransformerFCDim:     128,
				TransformerSeqLen:    32,
				NumExperts:           8,
				NumActiveExperts:     2,
			}
		})

		It("should count all experts in parameters but only active ones in FLOPs", func() {
			model, err := NewLLMMoE(cfg)

			Expect(err).ToNot(HaveOccurred())
			Expect(model.TransformerParams).To(BeNumerically(">",
				model.ActiveTransformerParams))
			Expect(model.DenseParams()).To(Equal(model.TransformerParams))
			Expect(model.TotalParams()).
				To(Equal(model.DenseParams() + model.SparseParams()))
		})

		It("should reject more active experts than experts", func() {
			cfg.NumActiveExperts = 16

			_, err := NewLLMMoE(cfg)

			Expect(err).To(HaveOccurred())
		})

		It("should reduce to the dense transformer when all experts are active", func() {
			cfg.NumExperts = 1
			cfg.NumActiveExperts = 1

			moe, err := NewLLMMoE(cfg)
			Expect(err).ToNot(HaveOccurred())

			cfg.Type = "LLM"
			dense, err := NewLLM(cfg)
			Expect(err).ToNot(HaveOccurred())

			Expect(moe.TransformerParams).To(Equal(dense.TransformerParams))
			Expect(moe.TotalFLOPs).To(Equal(dense.TotalFLOPs))
		})
	})
})
