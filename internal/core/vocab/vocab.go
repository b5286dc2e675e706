// Package vocab grounds LLM-extracted values onto the controlled
// vocabulary actually present in the data store. Anything that cannot be
// resolved is dropped rather than passed through as an invented term.
package vocab

import (
	"fmt"
	"strings"

	"github.com/agenthands/saffron/internal/core/common"
	"github.com/agenthands/saffron/internal/core/model"
)

const (
	fieldThreshold      = 0.7
	ingredientThreshold = 0.5
)

// ingredientHints maps free-text keywords to preferred vocabulary entries,
// for paraphrases that no string distance catches ("soy-based bean protein"
// should land on Tofu, not nothing).
var ingredientHints = map[string][]string{
	"soy":       {"Tofu", "Tempeh", "Soybeans"},
	"soy-based": {"Tofu", "Tempeh", "Soybeans"},
	"soybean":   {"Soybeans"},
	"bean curd": {"Tofu"},
	"garbanzo":  {"Chickpeas"},
	"chickpea":  {"Chickpeas", "Chana Dal"},
}

// FormatForPrompt renders the snapshot as the constraint section of the
// intent-extraction prompt, capping each category so the prompt stays small.
func FormatForPrompt(v model.Vocabulary, ingredientLimit int) string {
	var sections []string

	formatList := func(name string, values []string, limit int) {
		if len(values) == 0 {
			return
		}
		subset := values
		if limit > 0 && len(values) > limit {
			subset = values[:limit]
		}
		entry := fmt.Sprintf("- %s: %s", name, strings.Join(subset, ", "))
		if extra := len(values) - len(subset); extra > 0 {
			entry += fmt.Sprintf(" (+%d more)", extra)
		}
		sections = append(sections, entry)
	}

	formatList("Cuisines", v.Cuisines, 30)
	formatList("Courses", v.Courses, 20)
	formatList("Diets", v.Diets, 20)
	formatList("Ingredients", v.Ingredients, ingredientLimit)

	if len(sections) == 0 {
		return ""
	}

	header := "Use only the following controlled values when setting structured filters or ingredient names:"
	return strings.Join(append([]string{header}, sections...), "\n")
}

// MatchValue resolves a model-emitted value onto one of the options, or ""
// if nothing clears the threshold. Resolution order: exact normalized
// match, keyword hints, then similarity ratio / token overlap.
func MatchValue(value string, options []string, hints map[string][]string, threshold float64) string {
	if value == "" || len(options) == 0 {
		return ""
	}

	normalized := common.NormalizeText(value)
	if normalized == "" {
		return ""
	}

	for _, opt := range options {
		if common.NormalizeText(opt) == normalized {
			return opt
		}
	}

	lower := strings.ToLower(value)
	for keyword, preferred := range hints {
		if !strings.Contains(lower, keyword) {
			continue
		}
		for _, target := range preferred {
			for _, opt := range options {
				if strings.EqualFold(opt, target) {
					return opt
				}
			}
		}
	}

	var best string
	var bestScore float64
	valueTokens := common.Tokenize(value)

	for _, opt := range options {
		normOpt := common.NormalizeText(opt)
		score := similarity(normalized, normOpt)
		if len(valueTokens) > 0 {
			optTokens := make(map[string]bool)
			for _, t := range common.Tokenize(opt) {
				optTokens[t] = true
			}
			overlap := 0
			contained := false
			for _, t := range valueTokens {
				if optTokens[t] {
					overlap++
				}
				if t != "" && strings.Contains(normOpt, t) {
					contained = true
				}
			}
			if r := float64(overlap) / float64(len(valueTokens)); r > score {
				score = r
			}
			// A shared token substring is strong evidence even when the
			// full strings diverge ("basmati" vs "Basmati Rice").
			if contained && score < 0.72 {
				score = 0.72
			}
		}
		if score > bestScore {
			bestScore = score
			best = opt
		}
	}

	if bestScore >= threshold {
		return best
	}
	return ""
}

// similarity is a [0,1] ratio based on edit distance of the normalized
// strings: 1 - dist/maxLen.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1 - float64(prev[len(rb)])/float64(maxLen)
}

// Apply resolves every structured field of the intent against the
// vocabulary in place. Unresolvable values are dropped; the exclude set is
// made disjoint from the include set.
func Apply(intent *model.ParsedIntent, v model.Vocabulary) {
	intent.Cuisine = MatchValue(intent.Cuisine, v.Cuisines, nil, fieldThreshold)
	intent.Course = MatchValue(intent.Course, v.Courses, nil, fieldThreshold)
	intent.Diet = MatchValue(intent.Diet, v.Diets, nil, fieldThreshold)

	intent.IngredientsInclude = resolveIngredients(intent.IngredientsInclude, v.Ingredients)
	intent.IngredientsExclude = resolveIngredients(intent.IngredientsExclude, v.Ingredients)

	if len(intent.IngredientsInclude) > 0 && len(intent.IngredientsExclude) > 0 {
		included := make(map[string]bool, len(intent.IngredientsInclude))
		for _, ing := range intent.IngredientsInclude {
			included[ing] = true
		}
		var exclude []string
		for _, ing := range intent.IngredientsExclude {
			if !included[ing] {
				exclude = append(exclude, ing)
			}
		}
		intent.IngredientsExclude = exclude
	}
}

func resolveIngredients(values, options []string) []string {
	if len(values) == 0 {
		return nil
	}
	var resolved []string
	seen := make(map[string]bool)
	for _, value := range values {
		mapped := MatchValue(value, options, ingredientHints, ingredientThreshold)
		if mapped != "" && !seen[mapped] {
			seen[mapped] = true
			resolved = append(resolved, mapped)
		}
	}
	return resolved
}
