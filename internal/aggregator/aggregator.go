// Package aggregator folds parse outcomes into running statistics in a
// single pass. Memory grows with the number of distinct IPs, endpoints and
// status codes, never with the number of lines.
package aggregator

import (
	"cmp"
	"slices"

	"log-analyzer/internal/models"
)

// Aggregator owns the running counters for one pass over the input.
// It is not safe for concurrent use: a pass has exactly one writer.
type Aggregator struct {
	totalValid     int
	totalMalformed int

	levelCounts    map[models.LogLevel]int
	ipCounts       map[string]int
	ipErrorCounts  map[string]int
	endpointCounts map[string]int
	statusCounts   map[int]int
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		levelCounts:    make(map[models.LogLevel]int, len(models.Levels)),
		ipCounts:       make(map[string]int),
		ipErrorCounts:  make(map[string]int),
		endpointCounts: make(map[string]int),
		statusCounts:   make(map[int]int),
	}
}

// Ingest folds one outcome into the counters. Malformed outcomes only bump
// the malformed counter.
func (a *Aggregator) Ingest(outcome models.ParseOutcome) {
	if !outcome.IsValid() {
		a.totalMalformed++
		return
	}

	entry := outcome.Entry
	a.totalValid++
	a.levelCounts[entry.Level]++
	a.ipCounts[entry.IP]++
	a.endpointCounts[entry.Endpoint]++
	a.statusCounts[entry.Status]++
	if entry.Level == models.LevelError {
		a.ipErrorCounts[entry.IP]++
	}
}

// Ingested returns the number of outcomes seen so far, valid or not.
func (a *Aggregator) Ingested() int {
	return a.totalValid + a.totalMalformed
}

// Valid returns the number of valid entries seen so far.
func (a *Aggregator) Valid() int {
	return a.totalValid
}

// Malformed returns the number of malformed lines seen so far.
func (a *Aggregator) Malformed() int {
	return a.totalMalformed
}

// Finalize builds a Snapshot from the current counters without modifying
// them, so it can be called repeatedly with different parameters.
//
// topN bounds the IP and endpoint tables (a non-positive value yields empty
// tables). An IP is flagged when its ERROR count is strictly greater than
// errorThreshold.
func (a *Aggregator) Finalize(topN, errorThreshold int) models.Snapshot {
	levels := make(map[models.LogLevel]models.LevelCount, len(models.Levels))
	for _, level := range models.Levels {
		count := a.levelCounts[level]
		levels[level] = models.LevelCount{Count: count, Percentage: a.percentage(count)}
	}

	statuses := make(map[string]int, len(a.statusCounts))
	for status, count := range a.statusCounts {
		statuses[models.FormatStatusCode(status)] = count
	}

	return models.Snapshot{
		TotalEntries:           a.totalValid,
		MalformedEntries:       a.totalMalformed,
		LevelCounts:            levels,
		TopIPs:                 a.topN(a.ipCounts, topN),
		TopEndpoints:           a.topN(a.endpointCounts, topN),
		FlaggedIPs:             a.flagged(errorThreshold),
		StatusCodeDistribution: statuses,
		ErrorThreshold:         errorThreshold,
		TopN:                   topN,
	}
}

// topN ranks counts by count descending, then key ascending, and keeps at
// most n rows.
func (a *Aggregator) topN(counts map[string]int, n int) []models.RankedItem {
	items := make([]models.RankedItem, 0, len(counts))
	for value, count := range counts {
		items = append(items, models.RankedItem{Value: value, Count: count})
	}

	slices.SortStableFunc(items, func(x, y models.RankedItem) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Value, y.Value)
	})

	n = max(n, 0)
	if len(items) > n {
		items = items[:n]
	}
	for i := range items {
		items[i].Percentage = a.percentage(items[i].Count)
	}
	return items
}

// flagged lists IPs over the error threshold, worst first, ties by IP.
func (a *Aggregator) flagged(threshold int) []models.FlaggedIP {
	flagged := make([]models.FlaggedIP, 0)
	for ip, errorCount := range a.ipErrorCounts {
		if errorCount <= threshold {
			continue
		}
		total := a.ipCounts[ip]
		flagged = append(flagged, models.FlaggedIP{
			IP:            ip,
			ErrorCount:    errorCount,
			TotalRequests: total,
			ErrorRate:     ratio(errorCount, total),
		})
	}

	slices.SortStableFunc(flagged, func(x, y models.FlaggedIP) int {
		if c := cmp.Compare(y.ErrorCount, x.ErrorCount); c != 0 {
			return c
		}
		return cmp.Compare(x.IP, y.IP)
	})
	return flagged
}

// percentage is count's share of all valid entries.
func (a *Aggregator) percentage(count int) float64 {
	return ratio(count, a.totalValid)
}

// ratio returns part/whole*100 rounded to one decimal, half away from zero.
// Rounding happens on integer tenths so exact halves such as 23/80 (28.75)
// are not lost to binary floating point. A zero whole yields 0.
func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	tenths := (2*part*1000 + whole) / (2 * whole)
	return float64(tenths) / 10
}
