package model

const (
	SourceGraph      = "graph"
	SourceRelational = "relational"
	SourceVector     = "vector"
)

// Recipe holds the display attributes of one recipe row. Candidates from
// the graph path carry only the fields stored on graph nodes; the engine
// backfills the rest from the relational store before fusion.
type Recipe struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	Cuisine      string   `json:"cuisine,omitempty"`
	Course       string   `json:"course,omitempty"`
	Diet         string   `json:"diet,omitempty"`
	PrepTimeMins int      `json:"prep_time_mins,omitempty"`
	CookTimeMins int      `json:"cook_time_mins,omitempty"`
	Rating       float64  `json:"rating"`
	VoteCount    int      `json:"vote_count"`
	Ingredients  []string `json:"ingredients,omitempty"`
}

// RecipeCandidate is one row returned by a single query path before fusion.
// Score is path-local: graph uses normalized ingredient overlap, relational
// is always 1.0, vector is cosine similarity, all in [0,1].
type RecipeCandidate struct {
	Recipe
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}

type Vocabulary struct {
	Cuisines    []string `json:"cuisines"`
	Courses     []string `json:"courses"`
	Diets       []string `json:"diets"`
	Ingredients []string `json:"ingredients"`
}

// Empty reports whether the snapshot carries no usable values.
func (v Vocabulary) Empty() bool {
	return len(v.Cuisines) == 0 && len(v.Courses) == 0 &&
		len(v.Diets) == 0 && len(v.Ingredients) == 0
}
