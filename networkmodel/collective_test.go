package networkmodel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/syifan/scaleperf/sysmodel"
)

var _ = Describe("RingCollectiveModel", func() {
	var model *RingCollectiveModel

	BeforeEach(func() {
		system, err := sysmodel.NewSystem(sysmodel.Config{
			Name:           "TestCluster",
			NumDevices:     8,
			NumNodes:       2,
			F16FLOPS:       1e15,
			FLOPSUtil:      0.5,
			MemBW:          2e12,
			MemBWUtil:      0.8,
			ScaleUpBW:      100,
			ScaleUpBWUtil:  1,
			ScaleOutBW:     10,
			ScaleOutBWUtil: 1,
		})
		Expect(err).ToNot(HaveOccurred())

		model = &RingCollectiveModel{System: system}
	})

	It("should move the payload twice for an all-reduce", func() {
		out, err := model.EstimateCollective(CollectiveInput{
			Kind:       AllReduce,
			Bytes:      100,
			NumDevices: 4,
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(out.TimeInSec).To(BeNumerically("~", 1.5, 1e-12))
	})

	It("should move the payload once for an all-gather", func() {
		out, err := model.EstimateCollective(CollectiveInput{
			Kind:       AllGather,
			Bytes:      100,
			NumDevices: 4,
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(out.TimeInSec).To(BeNumerically("~", 0.75, 1e-12))
	})

	It("should use the scale-out fabric for a multi-node group", func() {
		out, err := model.EstimateCollective(CollectiveInput{
			Kind:       AllToAll,
			Bytes:      100,
			NumDevices: 8,
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(out.TimeInSec).To(BeNumerically("~", 8.75, 1e-12))
	})

	It("should transfer nothing within a single device", func() {
		out, err := model.EstimateCollective(CollectiveInput{
			Kind:       AllReduce,
			Bytes:      100,
			NumDevices: 1,
		})

		Expect(err).ToNot(HaveOccurred())
		Expect(out.TimeInSec).To(Equal(0.0))
	})

	It("should reject a fabric with no configured bandwidth", func() {
		model.System.EffScaleOutBW = 0

		_, err := model.EstimateCollective(CollectiveInput{
			Kind:       AllReduce,
			Bytes:      100,
			NumDevices: 8,
		})

		Expect(err).To(HaveOccurred())
	})

	It("should reject an undefined collective kind", func() {
		_, err := model.EstimateCollective(CollectiveInput{
			Kind:       CollectiveKind(99),
			Bytes:      100,
			NumDevices: 4,
		})

		Expect(err).To(HaveOccurred())
	})
})
