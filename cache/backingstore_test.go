package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BackingStore", func() {
	var store *BackingStore

	BeforeEach(func() {
		store = NewBackingStore(8, 4)
	})

	It("should write and read back a line", func() {
		err := store.Put(3, []byte{1, 2, 3, 4})
		Expect(err).NotTo(HaveOccurred())

		line, err := store.Line(3)
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should read untouched lines as zeros", func() {
		line, err := store.Line(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal([]byte{0, 0, 0, 0}))
	})

	It("should reject an out-of-range put without mutation", func() {
		err := store.Put(8, []byte{1, 2, 3, 4})
		Expect(err).To(HaveOccurred())
	})

	It("should reject a wrongly sized line", func() {
		err := store.Put(0, []byte{1, 2})
		Expect(err).To(HaveOccurred())

		line, _ := store.Line(0)
		Expect(line).To(Equal([]byte{0, 0, 0, 0}))
	})

	It("should keep its own copy of the data", func() {
		line := []byte{1, 2, 3, 4}
		store.Put(0, line)
		line[0] = 99

		stored, _ := store.Line(0)
		Expect(stored).To(Equal([]byte{1, 2, 3, 4}))
	})

	Context("when pulling", func() {
		var staging *StagingBuffer

		BeforeEach(func() {
			for i := uint32(0); i < 8; i++ {
				b := byte(i)
				store.Put(i, []byte{b, b, b, b})
			}

			staging = NewStagingBuffer(3, 4)
		})

		It("should pull lines in the order given", func() {
			err := store.Pull([]uint32{5, 1, 6}, staging)
			Expect(err).NotTo(HaveOccurred())

			Expect(staging.Line(0)).To(Equal([]byte{5, 5, 5, 5}))
			Expect(staging.Line(1)).To(Equal([]byte{1, 1, 1, 1}))
			Expect(staging.Line(2)).To(Equal([]byte{6, 6, 6, 6}))
		})

		It("should yield independent copies for duplicate indices", func() {
			err := store.Pull([]uint32{2, 2, 2}, staging)
			Expect(err).NotTo(HaveOccurred())

			staging.Line(0)[0] = 99
			Expect(staging.Line(1)).To(Equal([]byte{2, 2, 2, 2}))
			Expect(staging.Line(2)).To(Equal([]byte{2, 2, 2, 2}))
		})

		It("should reject the whole batch on an out-of-range index", func() {
			err := store.Pull([]uint32{0, 8, 1}, staging)
			Expect(err).To(HaveOccurred())

			Expect(staging.Line(0)).To(Equal([]byte{0, 0, 0, 0}))
			Expect(staging.Line(1)).To(Equal([]byte{0, 0, 0, 0}))
		})

		It("should reject an index count mismatch", func() {
			err := store.Pull([]uint32{0, 1}, staging)
			Expect(err).To(HaveOccurred())
		})
	})
})
