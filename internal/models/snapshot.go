package models

import "encoding/json"

// LevelCount is a count with its share of all valid entries.
type LevelCount struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RankedItem is one row of a top-N table (an IP or an endpoint).
type RankedItem struct {
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// FlaggedIP is an address whose ERROR count exceeded the threshold.
type FlaggedIP struct {
	IP            string  `json:"ip"`
	ErrorCount    int     `json:"error_count"`
	TotalRequests int     `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
}

// Snapshot is the final result of a pass. Its JSON form is the export schema.
type Snapshot struct {
	TotalEntries     int                     `json:"total_entries"`
	MalformedEntries int                     `json:"malformed_entries"`
	LevelCounts      map[LogLevel]LevelCount `json:"level_counts"`
	TopIPs           []RankedItem            `json:"top_ips"`
	TopEndpoints     []RankedItem            `json:"top_endpoints"`
	FlaggedIPs       []FlaggedIP             `json:"flagged_ips"`
	// StatusCodeDistribution is keyed by the three digit code.
	StatusCodeDistribution map[string]int `json:"status_code_distribution"`
	ErrorThreshold         int            `json:"error_threshold"`
	TopN                   int            `json:"top_n"`
}

// ToJSON serializes the snapshot as indented JSON.
func (s *Snapshot) ToJSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// SnapshotFromJSON deserializes a snapshot previously written by ToJSON.
func SnapshotFromJSON(data []byte) (*Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
