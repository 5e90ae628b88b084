package aggregator

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"log-analyzer/internal/models"
	"log-analyzer/internal/parser"
)

var readmeLines = []string{
	"2024-01-15T10:30:00Z [INFO] 192.168.1.1 GET /api/users 200",
	"2024-01-15T10:30:01Z [WARN] 10.0.0.2 POST /upload 429",
	"2024-01-15T10:30:02Z [ERROR] 172.16.0.1 DELETE /resource/42 500",
}

func entry(ip string, level models.LogLevel, endpoint string, status int) models.ParseOutcome {
	return models.Valid(models.LogEntry{
		Timestamp: "2024-01-01T00:00:00Z",
		Level:     level,
		IP:        ip,
		Method:    models.MethodGet,
		Endpoint:  endpoint,
		Status:    status,
	})
}

func ingestLines(a *Aggregator, lines ...string) {
	for _, line := range lines {
		a.Ingest(parser.Parse(line))
	}
}

func TestFinalize_ReadmeExample(t *testing.T) {
	a := New()
	ingestLines(a, readmeLines...)

	s := a.Finalize(10, 5)

	assert.Equal(t, 3, s.TotalEntries)
	assert.Equal(t, 0, s.MalformedEntries)
	for _, level := range models.Levels {
		assert.Equal(t, models.LevelCount{Count: 1, Percentage: 33.3}, s.LevelCounts[level], level)
	}
	assert.Equal(t, map[string]int{"200": 1, "429": 1, "500": 1}, s.StatusCodeDistribution)
	assert.Equal(t, 10, s.TopN)
	assert.Equal(t, 5, s.ErrorThreshold)
	assert.Empty(t, s.FlaggedIPs)

	// All counts tie at one, so keys come back in ascending order.
	require.Len(t, s.TopIPs, 3)
	assert.Equal(t, "10.0.0.2", s.TopIPs[0].Value)
	assert.Equal(t, "172.16.0.1", s.TopIPs[1].Value)
	assert.Equal(t, "192.168.1.1", s.TopIPs[2].Value)
	assert.Equal(t, 33.3, s.TopIPs[0].Percentage)
}

func TestIngest_BlankLineIsMalformed(t *testing.T) {
	a := New()
	ingestLines(a, append([]string{""}, readmeLines...)...)

	s := a.Finalize(10, 5)
	assert.Equal(t, 1, s.MalformedEntries)
	assert.Equal(t, 3, s.TotalEntries)
	assert.Equal(t, 4, a.Ingested())
}

func TestIngest_MalformedTouchesNothingElse(t *testing.T) {
	a := New()
	a.Ingest(models.Malformed(parser.FieldIP, "invalid ip", "x"))

	assert.Equal(t, 0, a.Valid())
	assert.Equal(t, 1, a.Malformed())
	assert.Empty(t, a.ipCounts)
	assert.Empty(t, a.endpointCounts)
	assert.Empty(t, a.statusCounts)
	assert.Empty(t, a.levelCounts)
}

func TestFinalize_FlagsAtThresholdZero(t *testing.T) {
	a := New()
	a.Ingest(entry("9.9.9.9", models.LevelError, "/bad", 500))
	a.Ingest(entry("9.9.9.9", models.LevelError, "/bad", 500))

	s := a.Finalize(5, 0)
	require.Len(t, s.FlaggedIPs, 1)
	assert.Equal(t, models.FlaggedIP{IP: "9.9.9.9", ErrorCount: 2, TotalRequests: 2, ErrorRate: 100.0}, s.FlaggedIPs[0])
}

func TestFinalize_FlaggingIsStrict(t *testing.T) {
	a := New()
	for i := 0; i < 5; i++ {
		a.Ingest(entry("1.1.1.1", models.LevelError, "/bad", 500))
	}
	for i := 0; i < 6; i++ {
		a.Ingest(entry("9.9.9.9", models.LevelError, "/bad", 500))
	}

	s := a.Finalize(5, 5)
	require.Len(t, s.FlaggedIPs, 1)
	assert.Equal(t, "9.9.9.9", s.FlaggedIPs[0].IP)
	assert.Equal(t, 6, s.FlaggedIPs[0].ErrorCount)
}

func TestFinalize_FlaggedOrderAndRate(t *testing.T) {
	a := New()
	// 10.0.0.3: 2 errors out of 3 requests.
	a.Ingest(entry("10.0.0.3", models.LevelError, "/a", 500))
	a.Ingest(entry("10.0.0.3", models.LevelError, "/a", 500))
	a.Ingest(entry("10.0.0.3", models.LevelInfo, "/a", 200))
	// 10.0.0.1: 2 errors out of 2, ties with 10.0.0.3 on error count.
	a.Ingest(entry("10.0.0.1", models.LevelError, "/b", 503))
	a.Ingest(entry("10.0.0.1", models.LevelError, "/b", 503))
	// 10.0.0.2: 3 errors.
	for i := 0; i < 3; i++ {
		a.Ingest(entry("10.0.0.2", models.LevelError, "/c", 500))
	}

	s := a.Finalize(1, 1)
	require.Len(t, s.FlaggedIPs, 3)
	assert.Equal(t, "10.0.0.2", s.FlaggedIPs[0].IP)
	assert.Equal(t, "10.0.0.1", s.FlaggedIPs[1].IP)
	assert.Equal(t, "10.0.0.3", s.FlaggedIPs[2].IP)
	assert.Equal(t, 66.7, s.FlaggedIPs[2].ErrorRate)
	assert.Equal(t, 3, s.FlaggedIPs[2].TotalRequests)

	// Flagging is independent of the top-N cut.
	require.Len(t, s.TopIPs, 1)
	assert.Equal(t, "10.0.0.2", s.TopIPs[0].Value)
}

func TestFinalize_TopNOrdering(t *testing.T) {
	a := New()
	a.Ingest(entry("1.1.1.1", models.LevelInfo, "/", 200))
	a.Ingest(entry("1.1.1.1", models.LevelInfo, "/", 200))
	a.Ingest(entry("1.1.1.2", models.LevelInfo, "/", 200))
	a.Ingest(entry("1.1.1.1", models.LevelInfo, "/x", 200))

	s := a.Finalize(5, 3)
	require.Len(t, s.TopIPs, 2)
	assert.Equal(t, models.RankedItem{Value: "1.1.1.1", Count: 3, Percentage: 75}, s.TopIPs[0])
	assert.Equal(t, models.RankedItem{Value: "1.1.1.2", Count: 1, Percentage: 25}, s.TopIPs[1])

	require.Len(t, s.TopEndpoints, 2)
	assert.Equal(t, "/", s.TopEndpoints[0].Value)
	assert.Equal(t, "/x", s.TopEndpoints[1].Value)
}

func TestFinalize_TopNTruncates(t *testing.T) {
	a := New()
	for i := 0; i < 20; i++ {
		for j := 0; j <= i; j++ {
			a.Ingest(entry(fmt.Sprintf("10.0.0.%d", i), models.LevelInfo, fmt.Sprintf("/e%02d", i), 200))
		}
	}

	tests := []struct {
		topN int
		want int
	}{
		{1, 1},
		{5, 5},
		{20, 20},
		{50, 20},
		{0, 0},
		{-3, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("top_%d", tt.topN), func(t *testing.T) {
			s := a.Finalize(tt.topN, 0)
			assert.Len(t, s.TopIPs, tt.want)
			assert.Len(t, s.TopEndpoints, tt.want)
			if tt.want > 0 {
				assert.Equal(t, "10.0.0.19", s.TopIPs[0].Value)
				assert.Equal(t, "/e19", s.TopEndpoints[0].Value)
			}
		})
	}
}

func TestFinalize_EmptyInput(t *testing.T) {
	s := New().Finalize(10, 5)

	assert.Equal(t, 0, s.TotalEntries)
	assert.Equal(t, 0, s.MalformedEntries)
	require.Len(t, s.LevelCounts, 3)
	for _, level := range models.Levels {
		assert.Equal(t, models.LevelCount{}, s.LevelCounts[level])
	}
	assert.NotNil(t, s.TopIPs)
	assert.NotNil(t, s.TopEndpoints)
	assert.NotNil(t, s.FlaggedIPs)
	assert.NotNil(t, s.StatusCodeDistribution)
	assert.Empty(t, s.TopIPs)
}

func TestFinalize_AllMalformed(t *testing.T) {
	a := New()
	ingestLines(a, "", "garbage", "ts [DEBUG] 1.2.3.4 GET / 200")

	s := a.Finalize(10, 0)
	assert.Equal(t, 0, s.TotalEntries)
	assert.Equal(t, 3, s.MalformedEntries)
	for _, lc := range s.LevelCounts {
		assert.Equal(t, 0.0, lc.Percentage)
	}

	data, err := s.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"top_ips": []`)
	assert.Contains(t, string(data), `"flagged_ips": []`)
}

func TestFinalize_IsRepeatable(t *testing.T) {
	a := New()
	ingestLines(a, readmeLines...)
	a.Ingest(entry("172.16.0.1", models.LevelError, "/resource/42", 500))

	first := a.Finalize(2, 0)
	second := a.Finalize(2, 0)
	assert.Equal(t, first, second)

	// A different cut does not disturb later calls.
	wide := a.Finalize(10, 1)
	assert.Len(t, wide.TopIPs, 3)
	assert.Equal(t, first, a.Finalize(2, 0))

	// Mutating a returned snapshot must not leak into the aggregator.
	first.StatusCodeDistribution["999"] = 42
	first.LevelCounts[models.LevelInfo] = models.LevelCount{Count: 99}
	assert.Equal(t, second, a.Finalize(2, 0))
}

func TestFinalize_Invariants(t *testing.T) {
	a := New()
	lines := []string{
		"t [INFO] 1.1.1.1 GET /a 200",
		"t [ERROR] 1.1.1.1 GET /a 500",
		"t [ERROR] 1.1.1.1 POST /b 502",
		"t [WARN] 2.2.2.2 GET /a 404",
		"not a log line",
		"t [ERROR] 3.3.3.3 PUT /c 500",
		"",
	}
	ingestLines(a, lines...)
	s := a.Finalize(2, 0)

	sum := 0
	for _, lc := range s.LevelCounts {
		sum += lc.Count
	}
	assert.Equal(t, s.TotalEntries, sum)
	assert.Equal(t, len(lines), s.TotalEntries+s.MalformedEntries)
	assert.LessOrEqual(t, len(s.TopIPs), 2)

	statusSum := 0
	for _, c := range s.StatusCodeDistribution {
		statusSum += c
	}
	assert.Equal(t, s.TotalEntries, statusSum)

	for _, f := range s.FlaggedIPs {
		assert.LessOrEqual(t, f.ErrorCount, f.TotalRequests)
		assert.InDelta(t, 100*float64(f.ErrorCount)/float64(f.TotalRequests), f.ErrorRate, 0.05)
	}
	require.Len(t, s.FlaggedIPs, 2)
	assert.Equal(t, "1.1.1.1", s.FlaggedIPs[0].IP)
	assert.Equal(t, 66.7, s.FlaggedIPs[0].ErrorRate)
}

func TestFinalize_StatusCodesZeroPadded(t *testing.T) {
	a := New()
	a.Ingest(entry("1.1.1.1", models.LevelInfo, "/", 4))
	a.Ingest(entry("1.1.1.1", models.LevelInfo, "/", 200))

	s := a.Finalize(1, 0)
	assert.Equal(t, map[string]int{"004": 1, "200": 1}, s.StatusCodeDistribution)
}

func TestRatio(t *testing.T) {
	tests := []struct {
		part, whole int
		want        float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{1, 8, 12.5},
		{1, 16, 6.3},
		{3, 3, 100},
		{23, 80, 28.8},
		{41, 80, 51.3},
		{51, 80, 63.8},
		{1, 2000, 0.1},
		{1, 2001, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ratio(tt.part, tt.whole), "%d/%d", tt.part, tt.whole)
	}
}

// Every share of a small whole must agree with exact decimal rounding.
func TestRatio_ExactHalves(t *testing.T) {
	for whole := 1; whole <= 400; whole++ {
		for part := 0; part <= whole; part++ {
			exact := new(big.Rat).SetFrac64(int64(part)*1000, int64(whole))
			exact.Add(exact, big.NewRat(1, 2))
			tenths := new(big.Int).Quo(exact.Num(), exact.Denom())
			want, _ := new(big.Rat).SetFrac(tenths, big.NewInt(10)).Float64()
			if got := ratio(part, whole); got != want {
				t.Fatalf("ratio(%d, %d) = %v, want %v", part, whole, got, want)
			}
		}
	}
}

func BenchmarkAggregator_Ingest(b *testing.B) {
	a := New()
	outcome := parser.Parse(readmeLines[2])
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		a.Ingest(outcome)
	}
}
