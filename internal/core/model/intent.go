package model

// ParsedIntent is the structured, routable form of one user query attempt.
// Structured fields hold controlled-vocabulary values or are empty; the
// routing flags select which retrieval paths run.
type ParsedIntent struct {
	Cuisine            string   `json:"cuisine,omitempty"`
	Diet               string   `json:"diet,omitempty"`
	Course             string   `json:"course,omitempty"`
	MaxPrepTimeMins    int      `json:"max_prep_time_mins,omitempty"`
	MaxCookTimeMins    int      `json:"max_cook_time_mins,omitempty"`
	IngredientsInclude []string `json:"ingredients_include,omitempty"`
	IngredientsExclude []string `json:"ingredients_exclude,omitempty"`
	SemanticQuery      string   `json:"semantic_query,omitempty"`
	UseGraph           bool     `json:"use_graph"`
	UseRelational      bool     `json:"use_relational"`
	UseVector          bool     `json:"use_vector"`
}

// HasStructuredFilter reports whether any relational filter field is set.
func (p *ParsedIntent) HasStructuredFilter() bool {
	return p.Cuisine != "" || p.Diet != "" || p.Course != "" ||
		p.MaxPrepTimeMins > 0 || p.MaxCookTimeMins > 0
}

// DeriveRouting recomputes the routing flags from the populated fields,
// overriding whatever the model claimed. Guarantees at least one flag is
// set: when nothing structured was extracted the query falls back to a
// vector search.
func (p *ParsedIntent) DeriveRouting() {
	p.UseRelational = p.HasStructuredFilter()
	p.UseGraph = len(p.IngredientsInclude) > 0
	p.UseVector = p.SemanticQuery != "" || (!p.UseRelational && !p.UseGraph)
}

// VectorOnly returns the degraded intent used when extraction fails: a pure
// semantic search over the raw query text.
func VectorOnly(rawQuery string) *ParsedIntent {
	return &ParsedIntent{
		SemanticQuery: rawQuery,
		UseVector:     true,
	}
}
