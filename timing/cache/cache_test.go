package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesim/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// 1KB, 64B lines: 16 lines, 6 offset bits, 4 index bits
		var err error
		c, err = cache.New(cache.Config{Size: 1024, LineSize: 64})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Construction", func() {
		It("should allocate size / lineSize invalid lines", func() {
			lines := c.State()
			Expect(lines).To(HaveLen(16))
			for i, line := range lines {
				Expect(line.Index).To(Equal(i))
				Expect(line.Valid).To(BeFalse())
				Expect(line.Dirty).To(BeFalse())
				Expect(line.Tag).To(Equal("0x0"))
				Expect(line.Data).To(Equal("0x0"))
			}
		})

		It("should reject a non-power-of-two size", func() {
			_, err := cache.New(cache.Config{Size: 1000, LineSize: 64})
			Expect(err).To(MatchError(cache.ErrInvalidConfig))
		})

		It("should reject a non-power-of-two line size", func() {
			_, err := cache.New(cache.Config{Size: 1024, LineSize: 48})
			Expect(err).To(MatchError(cache.ErrInvalidConfig))
		})

		It("should reject a line size larger than the cache", func() {
			_, err := cache.New(cache.Config{Size: 64, LineSize: 128})
			Expect(err).To(MatchError(cache.ErrInvalidConfig))
		})
	})

	Describe("Address split", func() {
		It("should compute index and tag from the address", func() {
			Expect(c.Index(0x40)).To(Equal(1))
			Expect(c.Tag(0x40)).To(Equal(uint64(0)))
			Expect(c.Index(0x440)).To(Equal(1))
			Expect(c.Tag(0x440)).To(Equal(uint64(1)))
			Expect(c.Index(0x7FF)).To(Equal(15))
		})
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			hit, err := c.Access("0x1000", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(hit).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should miss then hit on the same address", func() {
			Expect(c.AccessAddr(0x40, false)).To(BeFalse())
			Expect(c.AccessAddr(0x40, false)).To(BeTrue())

			stats := c.Stats()
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Activity).To(Equal(uint64(2)))
		})

		It("should hit on different addresses in same cache line", func() {
			c.AccessAddr(0x1000, false)
			Expect(c.AccessAddr(0x1008, false)).To(BeTrue())
		})

		It("should accept addresses without a 0x prefix", func() {
			c.AccessAddr(0x40, false)
			hit, err := c.Access("40", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(hit).To(BeTrue())
		})

		It("should install the line with its tag", func() {
			c.AccessAddr(0x440, false)

			line := c.State()[1]
			Expect(line.Valid).To(BeTrue())
			Expect(line.Dirty).To(BeFalse())
			Expect(line.Tag).To(Equal("0x1"))
			Expect(line.Data).To(HavePrefix("0x"))
		})
	})

	Describe("Write operations", func() {
		It("should allocate a dirty line on write miss", func() {
			Expect(c.AccessAddr(0x80, true)).To(BeFalse())

			line := c.State()[2]
			Expect(line.Valid).To(BeTrue())
			Expect(line.Dirty).To(BeTrue())
		})

		It("should mark a clean line dirty on write hit", func() {
			c.AccessAddr(0x80, false)
			before := c.State()[2]

			Expect(c.AccessAddr(0x80, true)).To(BeTrue())

			after := c.State()[2]
			Expect(after.Dirty).To(BeTrue())
			Expect(after.Data).NotTo(Equal(before.Data))
		})
	})

	Describe("Eviction", func() {
		It("should evict on an index conflict", func() {
			Expect(c.AccessAddr(0x40, false)).To(BeFalse())
			Expect(c.AccessAddr(0x440, false)).To(BeFalse())
			Expect(c.AccessAddr(0x40, false)).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Evictions).To(Equal(uint64(2)))
			Expect(stats.Writebacks).To(Equal(uint64(0)))
		})

		It("should charge extra activity for a dirty write-back", func() {
			c.AccessAddr(0x40, true)
			c.AccessAddr(0x440, false)

			stats := c.Stats()
			Expect(stats.Writebacks).To(Equal(uint64(1)))
			Expect(stats.Activity).To(Equal(uint64(3)))
			Expect(c.ActivityFactor()).To(BeNumerically("~", 1.5))

			line := c.State()[1]
			Expect(line.Dirty).To(BeFalse())
			Expect(line.Tag).To(Equal("0x1"))
		})
	})

	Describe("Rates", func() {
		It("should report zero rates before the first access", func() {
			Expect(c.HitRate()).To(Equal(0.0))
			Expect(c.MissRate()).To(Equal(1.0))
			Expect(c.ActivityFactor()).To(Equal(0.0))
		})

		It("should keep hit rate and miss rate summing to one", func() {
			for _, addr := range []uint64{0x0, 0x40, 0x0, 0x440, 0x40, 0x0, 0x7C0} {
				c.AccessAddr(addr, addr%0x80 == 0)
				Expect(c.HitRate() + c.MissRate()).To(BeNumerically("~", 1.0, 1e-12))
			}
		})
	})

	Describe("Invalid addresses", func() {
		It("should reject malformed hex and leave state unchanged", func() {
			_, err := c.Access("0xZZ", false)
			Expect(err).To(MatchError(cache.ErrInvalidAddress))

			_, err = c.Access("", true)
			Expect(err).To(MatchError(cache.ErrInvalidAddress))

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
		})
	})

	Describe("Reset and Configure", func() {
		It("should clear lines and counters on reset", func() {
			c.AccessAddr(0x40, true)
			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.State()[1].Valid).To(BeFalse())
		})

		It("should yield identical states on repeated reset", func() {
			c.AccessAddr(0x40, true)
			c.Reset()
			first := c.State()
			c.Reset()
			Expect(c.State()).To(Equal(first))
		})

		It("should reallocate lines on configure", func() {
			c.AccessAddr(0x40, false)

			err := c.Configure(cache.Config{Size: 512, LineSize: 32})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.State()).To(HaveLen(16))
			Expect(c.Stats().Accesses()).To(Equal(uint64(0)))
			Expect(c.Config().LineSize).To(Equal(32))
		})

		It("should leave the cache unchanged on an invalid configure", func() {
			c.AccessAddr(0x40, false)

			err := c.Configure(cache.Config{Size: 100, LineSize: 64})
			Expect(err).To(MatchError(cache.ErrInvalidConfig))
			Expect(c.Config().Size).To(Equal(1024))
			Expect(c.Stats().Misses).To(Equal(uint64(1)))
		})
	})

	Describe("Default configurations", func() {
		It("should create L1 configs", func() {
			Expect(cache.DefaultL1IConfig()).To(Equal(cache.Config{Size: 32 * 1024, LineSize: 64}))
			Expect(cache.DefaultL1DConfig().NumLines()).To(Equal(512))
		})

		It("should create L2 config", func() {
			config := cache.DefaultL2Config()
			Expect(config.Size).To(Equal(256 * 1024))
			Expect(config.Validate()).To(Succeed())
		})
	})
})

var _ = Describe("Diff", func() {
	It("should report line transitions", func() {
		c := cache.MustNew(cache.Config{Size: 256, LineSize: 64})
		before := c.State()

		c.AccessAddr(0x40, true)
		changes := cache.Diff(before, c.State())

		Expect(changes).To(HaveLen(2))
		Expect(changes[0].String()).To(Equal("Cache line 1: Activated"))
		Expect(changes[1].String()).To(Equal("Cache line 1: Modified"))
	})

	It("should report a new tag and a write-back", func() {
		c := cache.MustNew(cache.Config{Size: 256, LineSize: 64})
		c.AccessAddr(0x40, true)
		before := c.State()

		c.AccessAddr(0x140, false)
		changes := cache.Diff(before, c.State())

		Expect(changes).To(ConsistOf(
			cache.LineChange{Index: 1, Message: "Written back to memory"},
			cache.LineChange{Index: 1, Message: "New data loaded from tag 0x1"},
		))
	})

	It("should report nothing for identical states", func() {
		c := cache.MustNew(cache.Config{Size: 256, LineSize: 64})
		Expect(cache.Diff(c.State(), c.State())).To(BeEmpty())
	})
})
