package core

import "github.com/agenthands/saffron/internal/core/model"

// Stage names the orchestrator states. Transitions are strictly forward
// within one attempt: reasoning -> parsing -> querying -> complete, with
// error as the only other terminal.
type Stage string

const (
	StageReasoning Stage = "reasoning"
	StageParsing   Stage = "parsing"
	StageQuerying  Stage = "querying"
	StageComplete  Stage = "complete"
	StageError     Stage = "error"
)

// Event is one message on the streaming search protocol. Reasoning events
// carry text deltas; the querying event carries the resolved intent and
// routing explanation; the complete event carries the response. Attempt is
// 2 for the broadened retry.
type Event struct {
	Stage    Stage                 `json:"stage"`
	QueryID  string                `json:"query_id"`
	Attempt  int                   `json:"attempt"`
	Delta    string                `json:"delta,omitempty"`
	Intent   *model.ParsedIntent   `json:"intent,omitempty"`
	Routing  []string              `json:"routing,omitempty"`
	Response *model.SearchResponse `json:"response,omitempty"`
	Error    string                `json:"error,omitempty"`
}
