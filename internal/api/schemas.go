package api

import (
	"github.com/ivlev/camwork/internal/analyzer"
	"github.com/ivlev/camwork/internal/director"
	"github.com/ivlev/camwork/internal/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
	Store   bool   `json:"store"`
}

// SynthesizeRequest is the body of POST /v1/motion/synthesize.
// SequenceAware defaults to true when omitted.
type SynthesizeRequest struct {
	TimelineID    string          `json:"timeline_id"`
	SequenceAware *bool           `json:"sequence_aware"`
	Persist       bool            `json:"persist"`
	Segments      []analyzer.Hint `json:"segments"`
}

type SynthesizeResponse struct {
	RequestID string             `json:"request_id"`
	Results   []engine.Result    `json:"results"`
	Rejected  []engine.Rejection `json:"rejected"`
}

type RulesResponse struct {
	Rules []director.RuleInfo `json:"rules"`
}
