package cache

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/blockstore"
)

func mustBuild(b Builder) *Cache {
	c, err := b.Build()
	Expect(err).ToNot(HaveOccurred())

	return c
}

var _ = Describe("Builder", func() {
	It("should derive the number of sets", func() {
		c := mustBuild(MakeBuilder().
			WithBlockSize(32).
			WithWayAssociativity(2).
			WithCacheSize(1024))

		Expect(c.NumSets()).To(Equal(16))
		Expect(c.Ways()).To(Equal(2))
		Expect(c.BlockSize()).To(Equal(32))
		Expect(c.Capacity()).To(Equal(1024))
		Expect(c.PrefetchDistance()).To(Equal(8))
	})

	It("should clamp a tiny cache to one set", func() {
		c := mustBuild(MakeBuilder().
			WithBlockSize(32).
			WithWayAssociativity(8).
			WithCacheSize(64))

		Expect(c.NumSets()).To(Equal(1))
	})

	DescribeTable("should reject invalid parameters",
		func(b Builder) {
			_, err := b.Build()
			Expect(err).To(MatchError(ErrInvalidConfig))
		},
		Entry("zero block size", MakeBuilder().WithBlockSize(0)),
		Entry("zero ways", MakeBuilder().WithWayAssociativity(0)),
		Entry("negative cache size", MakeBuilder().WithCacheSize(-1)),
		Entry("negative prefetch distance",
			MakeBuilder().WithPrefetchDistance(-1)),
	)
})

var _ = Describe("Cache", func() {
	var (
		store *blockstore.Store
		c     *Cache
	)

	BeforeEach(func() {
		var err error
		store, err = blockstore.NewStore(64, 32)
		Expect(err).ToNot(HaveOccurred())

		c = mustBuild(MakeBuilder().
			WithBlockSize(32).
			WithWayAssociativity(2).
			WithCacheSize(1024).
			WithPrefetchDistance(0).
			WithBackingStore(store))
	})

	access := func(addr uint64) bool {
		hit, err := c.Access(addr)
		Expect(err).ToNot(HaveOccurred())

		return hit
	}

	It("should report undefined rates before any access", func() {
		Expect(math.IsNaN(c.Stats().HitRate())).To(BeTrue())
		Expect(math.IsNaN(c.Stats().EffectiveHitRate())).To(BeTrue())
	})

	It("should miss on every block of a cold sequential sweep", func() {
		for i := uint64(0); i < 32; i++ {
			Expect(access(i * 32)).To(BeFalse())
		}

		Expect(c.Stats().Hits).To(BeZero())
		Expect(c.Stats().Misses).To(Equal(uint64(32)))
		Expect(c.Stats().HitRate()).To(Equal(0.0))
	})

	It("should hit on a block that fewer than ways blocks displaced", func() {
		for i := uint64(0); i < 32; i++ {
			access(i * 32)
		}

		Expect(c.SetBlocks(0)).To(Equal([]uint64{16, 0}))
		Expect(access(0)).To(BeTrue())
	})

	It("should evict the least recently used block of a set", func() {
		access(0 * 32)
		access(16 * 32)
		access(32 * 32)

		Expect(c.SetIndex(32 * 32)).To(Equal(0))
		Expect(c.SetBlocks(0)).To(Equal([]uint64{32, 16}))
		Expect(c.Contains(0)).To(BeFalse())
		Expect(c.Stats().Evictions).To(Equal(uint64(1)))
	})

	It("should hit when accessing the same address twice", func() {
		for _, addr := range []uint64{5, 700, 1999} {
			access(addr)
			Expect(access(addr)).To(BeTrue())
		}
	})

	It("should hit on any address of a resident block", func() {
		access(64)

		Expect(access(65)).To(BeTrue())
		Expect(access(95)).To(BeTrue())
		Expect(access(96)).To(BeFalse())
	})

	It("should fetch the missed block from the store", func() {
		access(0)
		access(1)

		Expect(c.Stats().DemandReads).To(Equal(uint64(1)))
		Expect(store.NumReads()).To(Equal(uint64(1)))
	})

	It("should not change anything when the fetch is out of range", func() {
		access(0)
		before := c.Stats()

		hit, err := c.Access(64 * 32)

		Expect(hit).To(BeFalse())
		Expect(err).To(MatchError(blockstore.ErrOutOfRange))
		Expect(c.Stats()).To(Equal(before))
		Expect(c.SetBlocks(0)).To(Equal([]uint64{0}))
	})

	It("should count every access for all associativities", func() {
		for _, ways := range []int{2, 4, 8} {
			c = mustBuild(MakeBuilder().
				WithWayAssociativity(ways).
				WithCacheSize(1024).
				WithPrefetchDistance(2).
				WithBackingStore(store))

			r := rand.New(rand.NewSource(int64(ways)))
			for i := 0; i < 5000; i++ {
				access(uint64(r.Intn(64 * 32)))

				for s := 0; s < c.NumSets(); s++ {
					Expect(len(c.SetBlocks(s))).To(BeNumerically("<=", ways))
				}
			}

			Expect(c.Stats().Accesses()).To(Equal(uint64(5000)))
		}
	})

	It("should not be perturbed by contains", func() {
		probed := mustBuild(MakeBuilder().
			WithCacheSize(1024).
			WithPrefetchDistance(0).
			WithBackingStore(store))

		r := rand.New(rand.NewSource(7))
		for i := 0; i < 2000; i++ {
			addr := uint64(r.Intn(64 * 32))

			for j := 0; j < 3; j++ {
				probed.Contains(uint64(r.Intn(64 * 32)))
			}

			hit := access(addr)
			probedHit, err := probed.Access(addr)
			Expect(err).ToNot(HaveOccurred())
			Expect(probedHit).To(Equal(hit))
		}

		Expect(probed.Stats()).To(Equal(c.Stats()))
	})

	It("should work without a backing store", func() {
		c = mustBuild(MakeBuilder().
			WithCacheSize(1024).
			WithPrefetchDistance(4))

		Expect(access(1 << 40)).To(BeFalse())
		Expect(access(1 << 40)).To(BeTrue())
		Expect(c.Stats().DemandReads).To(BeZero())
		Expect(c.Stats().PrefetchReads).To(BeZero())
	})
})

var _ = Describe("Prefetching", func() {
	var (
		mockCtrl *gomock.Controller
		store    *MockBlockReader
		c        *Cache
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		store = NewMockBlockReader(mockCtrl)
		store.EXPECT().Size().Return(4).AnyTimes()

		c = mustBuild(MakeBuilder().
			WithBlockSize(32).
			WithWayAssociativity(2).
			WithCacheSize(1024).
			WithPrefetchDistance(4).
			WithBackingStore(store))
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should skip blocks beyond the end of the store", func() {
		store.EXPECT().ReadBlock(uint64(2)).Return(blockstore.Block{}, nil)
		store.EXPECT().ReadBlock(uint64(3)).Return(blockstore.Block{}, nil)

		hit, err := c.Access(2 * 32)

		Expect(hit).To(BeFalse())
		Expect(err).ToNot(HaveOccurred())
		Expect(c.Stats().PrefetchReads).To(Equal(uint64(1)))
	})

	It("should not prefetch past the last block", func() {
		store.EXPECT().ReadBlock(uint64(3)).Return(blockstore.Block{}, nil)

		_, err := c.Access(3 * 32)

		Expect(err).ToNot(HaveOccurred())
		Expect(c.Stats().PrefetchReads).To(BeZero())
	})

	It("should propagate a store failure", func() {
		failure := errors.New("store failure")
		store.EXPECT().ReadBlock(uint64(0)).Return(nil, failure)

		_, err := c.Access(0)

		Expect(err).To(MatchError(failure))
		Expect(c.Stats().Misses).To(BeZero())
	})
})

var _ = Describe("Prefetch accounting", func() {
	var c *Cache

	BeforeEach(func() {
		store, err := blockstore.NewStore(64, 32)
		Expect(err).ToNot(HaveOccurred())

		c = mustBuild(MakeBuilder().
			WithBlockSize(32).
			WithWayAssociativity(2).
			WithCacheSize(1024).
			WithPrefetchDistance(2).
			WithBackingStore(store))
	})

	It("should count resident neighbors as prefetch hits", func() {
		_, _ = c.Access(1 * 32)
		_, _ = c.Access(0)

		stats := c.Stats()
		Expect(stats.Misses).To(Equal(uint64(2)))
		Expect(stats.PrefetchHits).To(Equal(uint64(1)))
		Expect(stats.PrefetchReads).To(Equal(uint64(3)))
		Expect(stats.DemandReads).To(Equal(uint64(2)))
		Expect(stats.HitRate()).To(Equal(0.0))
		Expect(stats.EffectiveHitRate()).To(BeNumerically("~", 1.0/3.0))
	})

	It("should never install prefetched blocks", func() {
		_, _ = c.Access(0)

		Expect(c.Contains(1 * 32)).To(BeFalse())
		Expect(c.Contains(2 * 32)).To(BeFalse())

		hit, _ := c.Access(1 * 32)
		Expect(hit).To(BeFalse())
	})

	It("should keep the effective hit rate above the raw one", func() {
		_, _ = c.Access(1 * 32)
		_, _ = c.Access(0)
		_, _ = c.Access(0)

		stats := c.Stats()
		Expect(stats.PrefetchHits).To(BeNumerically(">", 0))
		Expect(stats.HitRate()).To(BeNumerically("~", 1.0/3.0))
		Expect(stats.EffectiveHitRate()).To(Equal(0.5))
		Expect(stats.EffectiveHitRate()).To(
			BeNumerically(">=", stats.HitRate()))
	})
})
