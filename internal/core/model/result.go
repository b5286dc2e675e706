package model

// FusedResult is one recipe after fusion across paths. Sources is never
// empty; FinalScore never drops below the best contributing path score.
type FusedResult struct {
	Recipe
	Sources    []string `json:"sources"`
	FinalScore float64  `json:"final_score"`
}

// SearchResponse is the complete answer to one user query.
type SearchResponse struct {
	Query           string         `json:"query"`
	Intent          ParsedIntent   `json:"parsed_intent"`
	Results         []FusedResult  `json:"results"`
	SourceBreakdown map[string]int `json:"source_breakdown"`
	Routing         []string       `json:"routing_explanation"`
	Retried         bool           `json:"retried,omitempty"`
}

// Breakdown counts fused results per contributing path, plus the combined
// relational+vector bucket for rows that satisfied both criteria.
func Breakdown(results []FusedResult) map[string]int {
	counts := map[string]int{
		SourceGraph:      0,
		SourceRelational: 0,
		SourceVector:     0,
		SourceRelational + "+" + SourceVector: 0,
	}
	for _, r := range results {
		seen := make(map[string]bool, len(r.Sources))
		for _, s := range r.Sources {
			seen[s] = true
			counts[s]++
		}
		if seen[SourceRelational] && seen[SourceVector] {
			counts[SourceRelational+"+"+SourceVector]++
		}
	}
	return counts
}
