package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("PipelinedController", func() {
	var (
		mockCtrl *gomock.Controller
		p        *PipelinedController
	)

	fill := func(c *Controller) {
		for i := uint32(0); i < 8; i++ {
			err := c.Fill(i, int32Line(int32(i), int32(i)))
			Expect(err).NotTo(HaveOccurred())
		}
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())

		p = MakeBuilder().
			WithCacheableSetSize(8).
			WithTotalCacheLines(4).
			WithLineSize(2).
			WithFetchCount(3).
			BuildPipelined("PipelinedCache")

		fill(p.Controller)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run a single primed and drained step", func() {
		schedule := NewMockIndexSchedule(mockCtrl)
		schedule.EXPECT().Next().
			Return([]uint32{5, 1, 6}, []uint32{0, 1, 2})

		stats, err := p.UpdateN(schedule, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Updates).To(Equal(uint64(1)))

		lines := p.ReadAll()
		Expect(lines[0]).To(Equal(int32Line(5, 5)))
		Expect(lines[1]).To(Equal(int32Line(1, 1)))
		Expect(lines[2]).To(Equal(int32Line(6, 6)))
	})

	It("should draw one index pair per iteration", func() {
		schedule := NewMockIndexSchedule(mockCtrl)
		schedule.EXPECT().Next().
			Return([]uint32{5, 1, 6}, []uint32{0, 1, 2}).
			Times(4)

		stats, err := p.UpdateN(schedule, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Updates).To(Equal(uint64(4)))
		Expect(stats.BytesFetched).To(Equal(uint64(4 * 3 * 8)))
	})

	It("should abort on a malformed index pair after a full drain", func() {
		schedule := NewMockIndexSchedule(mockCtrl)
		schedule.EXPECT().Next().
			Return([]uint32{5, 1, 6}, []uint32{0, 1, 2})
		schedule.EXPECT().Next().
			Return([]uint32{99, 1, 6}, []uint32{0, 1, 2})

		_, err := p.UpdateN(schedule, 10)
		Expect(err).To(HaveOccurred())

		// The first step completed; the controller is usable again.
		err = p.SetIndices([]uint32{0, 1, 2}, []uint32{0, 1, 2})
		Expect(err).NotTo(HaveOccurred())
		_, err = p.Update()
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject a non-positive iteration count", func() {
		schedule := NewMockIndexSchedule(mockCtrl)

		_, err := p.UpdateN(schedule, 0)
		Expect(err).To(HaveOccurred())
	})

	It("should match the synchronous engine on the same schedule", func() {
		builder := MakeBuilder().
			WithCacheableSetSize(64).
			WithTotalCacheLines(16).
			WithLineSize(4).
			WithFetchCount(8)

		sync := builder.Build("SyncCache")
		pipelined := builder.BuildPipelined("PipelinedCache")

		for i := uint32(0); i < 64; i++ {
			line := int32Line(int32(i), int32(i)+1, int32(i)+2, int32(i)+3)
			Expect(sync.Fill(i, line)).To(Succeed())
			Expect(pipelined.Fill(i, line)).To(Succeed())
		}

		schedule := NewRandomSchedule(8, 64, 16, 42)

		const iterations = 20
		for i := 0; i < iterations; i++ {
			remote, local := schedule.Next()
			Expect(sync.SetIndices(remote, local)).To(Succeed())

			_, err := sync.Update()
			Expect(err).NotTo(HaveOccurred())
		}

		schedule.Restart()
		_, err := pipelined.UpdateN(schedule, iterations)
		Expect(err).NotTo(HaveOccurred())

		Expect(pipelined.ReadAll()).To(Equal(sync.ReadAll()))
	})

	It("should support back-to-back pipelined runs", func() {
		schedule := NewStrideSchedule(3, 1, 8, 4)

		_, err := p.UpdateN(schedule, 5)
		Expect(err).NotTo(HaveOccurred())

		_, err = p.UpdateN(schedule, 5)
		Expect(err).NotTo(HaveOccurred())

		totals := p.Totals()
		Expect(totals.Updates).To(Equal(uint64(10)))
	})
})
