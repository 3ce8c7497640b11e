package sysmodel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("System", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = Config{
			Name:           "TestCluster",
			Type:           "GPU",
			NumDevices:     16,
			NumNodes:       2,
			F64FLOPS:       1e13,
			F32FLOPS:       2e13,
			F16FLOPS:       1e15,
			I8OPS:          2e15,
			FLOPSUtil:      0.5,
			MemCap:         8e10,
			MemBW:          2e12,
			MemBWUtil:      0.8,
			ScaleUpBW:      4.5e11,
			ScaleUpBWUtil:  0.8,
			ScaleOutBW:     5e10,
			ScaleOutBWUtil: 0.6,
		}
	})

	It("should derate every capability figure by its utilization", func() {
		system, err := NewSystem(cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(system.EffF64FLOPS).To(Equal(5e12))
		Expect(system.EffF32FLOPS).To(Equal(1e13))
		Expect(system.EffF16FLOPS).To(Equal(5e14))
		Expect(system.EffI8OPS).To(Equal(1e15))
		Expect(system.EffMemBW).To(BeNumerically("~", 1.6e12, 1))
		Expect(system.EffScaleUpBW).To(BeNumerically("~", 3.6e11, 1))
		Expect(system.EffScaleOutBW).To(BeNumerically("~", 3e10, 1))
	})

	It("should derive the intra-node device count", func() {
		system, err := NewSystem(cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(system.NumIntraNodeDevices).To(Equal(8))
	})

	It("should reject devices not divisible by nodes", func() {
		cfg.NumDevices = 10
		cfg.NumNodes = 3

		_, err := NewSystem(cfg)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("evenly divisible"))
	})

	It("should list all missing required fields", func() {
		cfg.F16FLOPS = 0
		cfg.MemBW = 0

		_, err := NewSystem(cfg)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("f16_flops"))
		Expect(err.Error()).To(ContainSubstring("mem_bw"))
	})

	It("should reject a utilization above one", func() {
		cfg.FLOPSUtil = 1.2

		_, err := NewSystem(cfg)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("flops_util"))
	})

	It("should pick the fabric by group size", func() {
		system, err := NewSystem(cfg)

		Expect(err).ToNot(HaveOccurred())
		Expect(system.CollectiveBandwidth(8)).To(Equal(system.EffScaleUpBW))
		Expect(system.CollectiveBandwidth(9)).To(Equal(system.EffScaleOutBW))
		Expect(system.CollectiveBandwidth(16)).To(Equal(system.EffScaleOutBW))
	})
})
