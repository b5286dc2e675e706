package common

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseJSON cleans and unmarshals a JSON string into a type T.
// It handles common LLM quirks like surrounding markdown or extra text.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr := response

	// Find first '{' and last '}'
	start := -1
	end := -1

	for i, c := range jsonStr {
		if c == '{' {
			start = i
			break
		}
	}
	for i := len(jsonStr) - 1; i >= 0; i-- {
		if c := jsonStr[i]; c == '}' {
			end = i + 1
			break
		}
	}

	if start != -1 && end != -1 && start < end {
		jsonStr = jsonStr[start:end]
	} else if start == -1 {
		return zero, fmt.Errorf("no JSON object found in response (missing '{')")
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, jsonStr)
	}

	return result, nil
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeText lowercases and collapses non-alphanumeric runs to single
// spaces, so "Chana-Dal " and "chana dal" compare equal.
func NormalizeText(value string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(value), " "))
}

// Tokenize splits on non-alphanumeric boundaries after lowercasing.
func Tokenize(value string) []string {
	var tokens []string
	for _, t := range nonAlnum.Split(strings.ToLower(value), -1) {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Clamp01 bounds a score to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
