package cache

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CopyPlan", func() {
	It("should size the offset buffers to the fetch count", func() {
		p := NewCopyPlan(16, 64)
		p.Plan()

		Expect(p.CreateFetchOffsetsBuffer()).To(HaveLen(16))
		Expect(p.CreateScatterOffsetsBuffer()).To(HaveLen(16))
	})

	It("should refuse to be prepared twice", func() {
		p := NewCopyPlan(16, 64)
		p.Plan()

		Expect(func() { p.Plan() }).To(Panic())
	})

	It("should refuse to run unprepared", func() {
		p := NewCopyPlan(16, 64)

		Expect(func() { p.forEachTask(func(lo, hi int) {}) }).To(Panic())
	})

	It("should keep small fetches in a single task", func() {
		p := NewCopyPlan(4, 16)
		p.Plan()

		Expect(p.LinesPerTask()).To(BeNumerically(">=", 4))
		Expect(p.NumWorkers()).To(Equal(1))
	})

	It("should split large lines one per task", func() {
		p := NewCopyPlan(4, 1024*1024)
		p.Plan()

		Expect(p.LinesPerTask()).To(Equal(1))
	})

	It("should cover every line exactly once", func() {
		p := NewCopyPlan(1000, 1024)
		p.Plan()

		var mu sync.Mutex
		covered := make([]int, 1000)

		p.forEachTask(func(lo, hi int) {
			mu.Lock()
			defer mu.Unlock()

			for i := lo; i < hi; i++ {
				covered[i]++
			}
		})

		for i, count := range covered {
			Expect(count).To(Equal(1), "line %d", i)
		}
	})
})
