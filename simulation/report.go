package simulation

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// A Report is the outcome of one run.
type Report struct {
	RunID            string        `json:"run_id"`
	Associativity    int           `json:"associativity"`
	CacheSize        int           `json:"cache_size"`
	BlockSize        int           `json:"block_size"`
	NumSets          int           `json:"num_sets"`
	PrefetchDistance int           `json:"prefetch_distance"`
	NumElements      int           `json:"num_elements"`
	Pattern          string        `json:"pattern"`
	Seed             int64         `json:"seed"`
	Elapsed          time.Duration `json:"elapsed"`
	Hits             uint64        `json:"hits"`
	Misses           uint64        `json:"misses"`
	PrefetchHits     uint64        `json:"prefetch_hits"`
	PrefetchReads    uint64        `json:"prefetch_reads"`
	Evictions        uint64        `json:"evictions"`
	HitRate          float64       `json:"hit_rate"`
	EffectiveHitRate float64       `json:"effective_hit_rate"`
}

// RunRecord is the flat form of a report that goes into the database.
type RunRecord struct {
	SimulationID     string
	RunID            string
	Associativity    int
	CacheSize        int
	BlockSize        int
	NumSets          int
	PrefetchDistance int
	NumElements      int
	Pattern          string
	Seed             int64
	ElapsedSeconds   float64
	Hits             uint64
	Misses           uint64
	PrefetchHits     uint64
	PrefetchReads    uint64
	Evictions        uint64
	HitRate          float64
	EffectiveHitRate float64
}

// Record converts the report into a database record.
func (r Report) Record(simulationID string) RunRecord {
	return RunRecord{
		SimulationID:     simulationID,
		RunID:            r.RunID,
		Associativity:    r.Associativity,
		CacheSize:        r.CacheSize,
		BlockSize:        r.BlockSize,
		NumSets:          r.NumSets,
		PrefetchDistance: r.PrefetchDistance,
		NumElements:      r.NumElements,
		Pattern:          r.Pattern,
		Seed:             r.Seed,
		ElapsedSeconds:   r.Elapsed.Seconds(),
		Hits:             r.Hits,
		Misses:           r.Misses,
		PrefetchHits:     r.PrefetchHits,
		PrefetchReads:    r.PrefetchReads,
		Evictions:        r.Evictions,
		HitRate:          r.HitRate,
		EffectiveHitRate: r.EffectiveHitRate,
	}
}

const separator = "================================"

// WriteBanner prints the program banner.
func WriteBanner(w io.Writer) error {
	title := "SET-ASSOCIATIVE CACHE SIMULATOR WITH PREFETCHING"
	_, err := fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))

	return err
}

// WriteText prints a human-readable report. The fields always come in the
// same order so that the output can be compared against golden files.
func WriteText(w io.Writer, r Report) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\nRESULTS %d-WAY (%s)\n", r.Associativity, r.Pattern)
	fmt.Fprintf(&sb, "%s\n", separator)
	fmt.Fprintf(&sb, "Configuration:\n")
	fmt.Fprintf(&sb, "- Associativity: %d ways\n", r.Associativity)
	fmt.Fprintf(&sb, "- Cache size: %d elements\n", r.CacheSize)
	fmt.Fprintf(&sb, "- Block size: %d elements\n", r.BlockSize)
	fmt.Fprintf(&sb, "- Prefetch: %d blocks\n", r.PrefetchDistance)
	fmt.Fprintf(&sb, "- Total elements: %d\n", r.NumElements)
	fmt.Fprintf(&sb, "\nMetrics:\n")
	fmt.Fprintf(&sb, "- Elapsed: %.6fs\n", r.Elapsed.Seconds())
	fmt.Fprintf(&sb, "- Hits: %d\n", r.Hits)
	fmt.Fprintf(&sb, "- Misses: %d\n", r.Misses)
	fmt.Fprintf(&sb, "- Prefetch hits: %d\n", r.PrefetchHits)
	fmt.Fprintf(&sb, "- Hit rate: %s\n", formatPercent(r.HitRate))
	fmt.Fprintf(&sb, "- Effective hit rate (with prefetch): %s\n",
		formatPercent(r.EffectiveHitRate))
	fmt.Fprintf(&sb, "%s\n", separator)

	_, err := io.WriteString(w, sb.String())

	return err
}

func formatPercent(rate float64) string {
	if math.IsNaN(rate) {
		return "undefined"
	}

	return fmt.Sprintf("%.2f%%", rate*100)
}
