package cache

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func int32Line(vals ...int32) []byte {
	line := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(line[i*4:], uint32(v))
	}

	return line
}

var _ = Describe("Builder", func() {
	It("should reject a fetch count larger than the backing store", func() {
		build := func() {
			MakeBuilder().
				WithCacheableSetSize(4).
				WithTotalCacheLines(8).
				WithLineSize(2).
				WithFetchCount(5).
				Build("Cache")
		}

		Expect(build).To(Panic())
	})

	It("should reject a fetch count larger than the resident set", func() {
		build := func() {
			MakeBuilder().
				WithCacheableSetSize(8).
				WithTotalCacheLines(4).
				WithLineSize(2).
				WithFetchCount(5).
				Build("Cache")
		}

		Expect(build).To(Panic())
	})

	It("should reject a missing fetch count", func() {
		build := func() {
			MakeBuilder().Build("Cache")
		}

		Expect(build).To(Panic())
	})

	It("should reject a zero line size", func() {
		build := func() {
			MakeBuilder().
				WithLineSize(0).
				WithFetchCount(1).
				Build("Cache")
		}

		Expect(build).To(Panic())
	})
})

var _ = Describe("Controller", func() {
	var c *Controller

	BeforeEach(func() {
		c = MakeBuilder().
			WithCacheableSetSize(8).
			WithTotalCacheLines(4).
			WithLineSize(2).
			WithFetchCount(3).
			WithElemType(Int32).
			Build("Cache")

		for i := uint32(0); i < 8; i++ {
			err := c.Fill(i, int32Line(int32(i), int32(i)))
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("should fetch and scatter one update", func() {
		err := c.SetIndices([]uint32{5, 1, 6}, []uint32{0, 1, 2})
		Expect(err).NotTo(HaveOccurred())

		stats, err := c.Update()
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Updates).To(Equal(uint64(1)))
		Expect(stats.BytesFetched).To(Equal(uint64(3 * 8)))
		Expect(stats.BytesScattered).To(Equal(uint64(3 * 8)))

		lines := c.ReadAll()
		Expect(lines[0]).To(Equal(int32Line(5, 5)))
		Expect(lines[1]).To(Equal(int32Line(1, 1)))
		Expect(lines[2]).To(Equal(int32Line(6, 6)))
		Expect(lines[3]).To(Equal(int32Line(0, 0)))
	})

	It("should let the last write win on duplicate destinations", func() {
		// R=[5,1,1], L=[0,0,2]: slot 0 ends up with line 1, slot 2 with
		// line 1, slots 1 and 3 keep their zero fill.
		err := c.SetIndices([]uint32{5, 1, 1}, []uint32{0, 0, 2})
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Update()
		Expect(err).NotTo(HaveOccurred())

		lines := c.ReadAll()
		Expect(lines[0]).To(Equal(int32Line(1, 1)))
		Expect(lines[2]).To(Equal(int32Line(1, 1)))
		Expect(lines[1]).To(Equal(int32Line(0, 0)))
		Expect(lines[3]).To(Equal(int32Line(0, 0)))
	})

	It("should reject out-of-range remote indices without mutation", func() {
		err := c.SetIndices([]uint32{5, 8, 1}, []uint32{0, 1, 2})
		Expect(err).To(HaveOccurred())

		for _, line := range c.ReadAll() {
			Expect(line).To(Equal(int32Line(0, 0)))
		}
	})

	It("should reject out-of-range local indices without mutation", func() {
		err := c.SetIndices([]uint32{5, 1, 1}, []uint32{0, 4, 2})
		Expect(err).To(HaveOccurred())

		for _, line := range c.ReadAll() {
			Expect(line).To(Equal(int32Line(0, 0)))
		}
	})

	It("should reject an index count mismatch", func() {
		err := c.SetIndices([]uint32{5, 1}, []uint32{0, 1})
		Expect(err).To(HaveOccurred())
	})

	It("should refuse to update before indices are installed", func() {
		_, err := c.Update()
		Expect(err).To(HaveOccurred())
	})

	It("should keep a rejected batch from replacing installed indices", func() {
		err := c.SetIndices([]uint32{5, 1, 6}, []uint32{0, 1, 2})
		Expect(err).NotTo(HaveOccurred())

		err = c.SetIndices([]uint32{0, 99, 0}, []uint32{0, 1, 2})
		Expect(err).To(HaveOccurred())

		_, err = c.Update()
		Expect(err).NotTo(HaveOccurred())

		lines := c.ReadAll()
		Expect(lines[0]).To(Equal(int32Line(5, 5)))
	})

	It("should be idempotent when re-running the same update", func() {
		c.SetIndices([]uint32{5, 1, 6}, []uint32{0, 1, 2})

		_, err := c.Update()
		Expect(err).NotTo(HaveOccurred())
		first := c.ReadAll()

		_, err = c.Update()
		Expect(err).NotTo(HaveOccurred())
		second := c.ReadAll()

		Expect(second).To(Equal(first))
	})

	It("should see store updates made between updates", func() {
		c.SetIndices([]uint32{5, 1, 6}, []uint32{0, 1, 2})
		c.Update()

		err := c.Fill(5, int32Line(42, 43))
		Expect(err).NotTo(HaveOccurred())

		c.Update()

		lines := c.ReadAll()
		Expect(lines[0]).To(Equal(int32Line(42, 43)))
	})

	It("should accumulate totals across updates", func() {
		c.SetIndices([]uint32{5, 1, 6}, []uint32{0, 1, 2})
		c.Update()
		c.Update()

		totals := c.Totals()
		Expect(totals.Updates).To(Equal(uint64(2)))
		Expect(totals.BytesFetched).To(Equal(uint64(2 * 3 * 8)))
	})
})
