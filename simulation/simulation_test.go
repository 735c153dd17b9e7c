package simulation_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/cachesim/blockstore"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/pattern"
	"github.com/sarchlab/cachesim/simulation"
)

type fakeRecorder struct {
	tables  []string
	entries map[string][]any
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{entries: make(map[string][]any)}
}

func (r *fakeRecorder) CreateTable(name string, _ any) error {
	r.tables = append(r.tables, name)
	return nil
}

func (r *fakeRecorder) InsertData(name string, entry any) error {
	r.entries[name] = append(r.entries[name], entry)
	return nil
}

func (r *fakeRecorder) ListTables() []string { return r.tables }
func (r *fakeRecorder) Flush() error         { return nil }
func (r *fakeRecorder) Close() error         { return nil }

func mustBuild(b simulation.Builder) *simulation.Simulator {
	s, err := b.Build()
	Expect(err).ToNot(HaveOccurred())

	return s
}

type counters struct {
	Hits, Misses, PrefetchHits, PrefetchReads, Evictions uint64
}

func countersOf(r simulation.Report) counters {
	return counters{r.Hits, r.Misses, r.PrefetchHits, r.PrefetchReads,
		r.Evictions}
}

var _ = Describe("Builder", func() {
	It("should pick a seed when none is given", func() {
		s := mustBuild(simulation.MakeBuilder())

		Expect(s.Seed()).ToNot(BeZero())
		Expect(s.ID()).ToNot(BeEmpty())
		Expect(s.Associativities()).To(Equal([]int{2, 4, 8}))
	})

	It("should keep an explicit seed", func() {
		s := mustBuild(simulation.MakeBuilder().WithSeed(42))

		Expect(s.Seed()).To(Equal(int64(42)))
	})

	DescribeTable("should reject invalid parameters",
		func(b simulation.Builder) {
			_, err := b.Build()
			Expect(err).To(HaveOccurred())
		},
		Entry("no associativity",
			simulation.MakeBuilder().WithAssociativities()),
		Entry("zero ways",
			simulation.MakeBuilder().WithAssociativities(2, 0)),
		Entry("no elements", simulation.MakeBuilder().WithNumElements(0)),
		Entry("zero block size", simulation.MakeBuilder().WithBlockSize(0)),
		Entry("probability above one",
			simulation.MakeBuilder().WithHotAccessProb(1.5)),
		Entry("unknown pattern",
			simulation.MakeBuilder().WithPattern("zigzag")),
	)

	It("should wrap parameter errors", func() {
		_, err := simulation.MakeBuilder().WithNumElements(-1).Build()
		Expect(err).To(MatchError(simulation.ErrInvalidParameter))

		_, err = simulation.MakeBuilder().WithPattern("zigzag").Build()
		Expect(err).To(MatchError(pattern.ErrUnknownKind))
	})
})

var _ = Describe("Simulator", func() {
	It("should run every associativity in order", func() {
		s := mustBuild(simulation.MakeBuilder().WithSeed(1))

		reports, err := s.Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(reports).To(HaveLen(3))
		for i, ways := range []int{2, 4, 8} {
			r := reports[i]
			Expect(r.Associativity).To(Equal(ways))
			Expect(r.Hits + r.Misses).To(Equal(uint64(4096)))
			Expect(r.NumSets).To(Equal(2048 / (32 * ways)))
			Expect(r.RunID).ToNot(BeEmpty())
			Expect(r.Seed).To(Equal(int64(1)))
			Expect(r.EffectiveHitRate).To(BeNumerically(">=", r.HitRate))
		}
	})

	It("should give the same results in any order", func() {
		forward := mustBuild(simulation.MakeBuilder().
			WithSeed(42).
			WithAssociativities(2, 4, 8))
		backward := mustBuild(simulation.MakeBuilder().
			WithSeed(42).
			WithAssociativities(8, 4, 2))

		f, err := forward.Run()
		Expect(err).ToNot(HaveOccurred())
		b, err := backward.Run()
		Expect(err).ToNot(HaveOccurred())

		Expect(countersOf(f[0])).To(Equal(countersOf(b[2])))
		Expect(countersOf(f[1])).To(Equal(countersOf(b[1])))
		Expect(countersOf(f[2])).To(Equal(countersOf(b[0])))
	})

	It("should reproduce a run from its seed", func() {
		for _, kind := range pattern.Kinds() {
			b := simulation.MakeBuilder().
				WithSeed(7).
				WithPattern(kind).
				WithAssociativities(4)

			first, err := mustBuild(b).RunOne(4)
			Expect(err).ToNot(HaveOccurred())
			second, err := mustBuild(b).RunOne(4)
			Expect(err).ToNot(HaveOccurred())

			Expect(countersOf(first)).To(Equal(countersOf(second)))
		}
	})

	It("should hit on every element of a block after its miss", func() {
		s := mustBuild(simulation.MakeBuilder().
			WithPattern(pattern.Sequential).
			WithCacheSize(1024).
			WithBlockSize(32).
			WithPrefetchDistance(0).
			WithNumElements(1024).
			WithAssociativities(2))

		reports, err := s.Run()

		Expect(err).ToNot(HaveOccurred())
		Expect(reports[0].Misses).To(Equal(uint64(32)))
		Expect(reports[0].Hits).To(Equal(uint64(992)))
		Expect(reports[0].Pattern).To(Equal("sequential"))
	})

	It("should count the prefetch probes of a sequential sweep", func() {
		s := mustBuild(simulation.MakeBuilder().
			WithPattern(pattern.Sequential).
			WithCacheSize(1024).
			WithPrefetchDistance(2).
			WithNumElements(4 * 32).
			WithAssociativities(2))

		report, err := s.RunOne(2)

		Expect(err).ToNot(HaveOccurred())
		Expect(report.Misses).To(Equal(uint64(4)))
		Expect(report.PrefetchHits).To(BeZero())
		Expect(report.PrefetchReads).To(Equal(uint64(2 + 2 + 1)))
	})

	It("should abort runs that read past the store", func() {
		s := mustBuild(simulation.MakeBuilder().
			WithPattern(pattern.Sequential).
			WithStoreBlocks(2).
			WithAssociativities(2, 4))

		reports, err := s.Run()

		Expect(reports).To(BeEmpty())
		Expect(errors.Is(err, blockstore.ErrOutOfRange)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("2-way run"))
		Expect(err.Error()).To(ContainSubstring("4-way run"))
	})

	It("should record every report", func() {
		recorder := newFakeRecorder()
		s := mustBuild(simulation.MakeBuilder().
			WithSeed(3).
			WithDataRecorder(recorder))

		reports, err := s.Run()
		Expect(err).ToNot(HaveOccurred())

		Expect(recorder.tables).To(Equal([]string{simulation.RunTableName}))
		records := recorder.entries[simulation.RunTableName]
		Expect(records).To(HaveLen(3))

		record := records[1].(simulation.RunRecord)
		Expect(record.SimulationID).To(Equal(s.ID()))
		Expect(record.RunID).To(Equal(reports[1].RunID))
		Expect(record.Hits).To(Equal(reports[1].Hits))
	})

	It("should publish reports to the monitor", func() {
		monitor := monitoring.NewMonitor()
		server := httptest.NewServer(monitor.Router())
		defer server.Close()

		s := mustBuild(simulation.MakeBuilder().
			WithSeed(5).
			WithMonitor(monitor))

		_, err := s.Run()
		Expect(err).ToNot(HaveOccurred())

		rsp, err := http.Get(server.URL + "/api/reports")
		Expect(err).ToNot(HaveOccurred())
		defer rsp.Body.Close()

		var reports []simulation.Report
		Expect(json.NewDecoder(rsp.Body).Decode(&reports)).To(Succeed())
		Expect(reports).To(HaveLen(3))
		Expect(reports[2].Associativity).To(Equal(8))

		rsp, err = http.Get(server.URL + "/api/progress")
		Expect(err).ToNot(HaveOccurred())
		defer rsp.Body.Close()

		var bars []map[string]any
		Expect(json.NewDecoder(rsp.Body).Decode(&bars)).To(Succeed())
		Expect(bars).To(BeEmpty())
	})

	It("should log every run", func() {
		logger, hook := logrustest.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)

		s := mustBuild(simulation.MakeBuilder().
			WithSeed(9).
			WithAssociativities(2, 4).
			WithLogger(logrus.NewEntry(logger)))

		_, err := s.Run()
		Expect(err).ToNot(HaveOccurred())

		finished := 0
		for _, e := range hook.AllEntries() {
			if e.Message == "run finished" {
				finished++
				Expect(e.Data).To(HaveKeyWithValue("simulation", s.ID()))
				Expect(e.Data).To(HaveKey("ways"))
			}
		}
		Expect(finished).To(Equal(2))
	})

	It("should log aborted runs as errors", func() {
		logger, hook := logrustest.NewNullLogger()

		s := mustBuild(simulation.MakeBuilder().
			WithPattern(pattern.Sequential).
			WithStoreBlocks(1).
			WithAssociativities(2).
			WithLogger(logrus.NewEntry(logger)))

		_, err := s.Run()
		Expect(err).To(HaveOccurred())

		Expect(hook.LastEntry()).ToNot(BeNil())
		Expect(hook.LastEntry().Level).To(Equal(logrus.ErrorLevel))
		Expect(hook.LastEntry().Message).To(Equal("run aborted"))
		Expect(fmt.Sprint(hook.LastEntry().Data[logrus.ErrorKey])).To(
			ContainSubstring("out of range"))
	})
})
