package ai

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// RelevanceShape records which response layout the scores were read from.
type RelevanceShape int

const (
	RelevanceUnparseable RelevanceShape = iota
	RelevanceArray
	RelevanceResultsKey
	RelevanceRankingsKey
	RelevanceFirstArrayKey
)

func (s RelevanceShape) String() string {
	switch s {
	case RelevanceArray:
		return "array"
	case RelevanceResultsKey:
		return "results"
	case RelevanceRankingsKey:
		return "rankings"
	case RelevanceFirstArrayKey:
		return "first_array"
	default:
		return "unparseable"
	}
}

const (
	MinRelevanceScore = 0.0
	MaxRelevanceScore = 10.0
)

// RelevanceScore is one graded candidate. Index is 1-based and is not
// validated here; callers bound-check it against their candidate list.
type RelevanceScore struct {
	Index int
	Score float64
}

type RelevanceResult struct {
	Shape  RelevanceShape
	Scores []RelevanceScore
}

func (r RelevanceResult) Parsed() bool {
	return r.Shape != RelevanceUnparseable
}

type rawRelevanceScore struct {
	Index *float64 `json:"index"`
	Score *float64 `json:"score"`
}

type namedField struct {
	key   string
	value json.RawMessage
}

// ParseRelevanceScores reads reranker output. It accepts a bare array of
// {index, score}, or an object holding that array under "results", then
// "rankings", then the first key whose value is an array. Anything else is
// reported as RelevanceUnparseable.
func ParseRelevanceScores(output string) RelevanceResult {
	data := []byte(stripCodeFence(output))
	if res, ok := parseRelevanceDocument(data); ok {
		return res
	}
	if inner, ok := sliceJSONValue(data); ok {
		if res, ok := parseRelevanceDocument(inner); ok {
			return res
		}
	}
	return RelevanceResult{Shape: RelevanceUnparseable}
}

func parseRelevanceDocument(data []byte) (RelevanceResult, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return RelevanceResult{}, false
	}
	switch trimmed[0] {
	case '[':
		scores, ok := decodeScoreArray(trimmed)
		if !ok {
			return RelevanceResult{}, false
		}
		return RelevanceResult{Shape: RelevanceArray, Scores: scores}, true
	case '{':
		fields, ok := decodeObjectFields(trimmed)
		if !ok {
			return RelevanceResult{}, false
		}
		for _, candidate := range []struct {
			key   string
			shape RelevanceShape
		}{
			{key: "results", shape: RelevanceResultsKey},
			{key: "rankings", shape: RelevanceRankingsKey},
		} {
			for _, field := range fields {
				if field.key != candidate.key || !isJSONArray(field.value) {
					continue
				}
				scores, ok := decodeScoreArray(field.value)
				if !ok {
					return RelevanceResult{}, false
				}
				return RelevanceResult{Shape: candidate.shape, Scores: scores}, true
			}
		}
		for _, field := range fields {
			if !isJSONArray(field.value) {
				continue
			}
			scores, ok := decodeScoreArray(field.value)
			if !ok {
				return RelevanceResult{}, false
			}
			return RelevanceResult{Shape: RelevanceFirstArrayKey, Scores: scores}, true
		}
	}
	return RelevanceResult{}, false
}

func decodeScoreArray(data []byte) ([]RelevanceScore, bool) {
	var items []rawRelevanceScore
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	scores := make([]RelevanceScore, 0, len(items))
	for _, item := range items {
		if item.Index == nil || item.Score == nil {
			continue
		}
		idx := *item.Index
		if idx != math.Trunc(idx) || math.IsNaN(*item.Score) {
			continue
		}
		scores = append(scores, RelevanceScore{Index: int(idx), Score: clampScore(*item.Score)})
	}
	return scores, true
}

// clampScore bounds a model score to the 0-10 grading scale.
func clampScore(score float64) float64 {
	return math.Max(MinRelevanceScore, math.Min(MaxRelevanceScore, score))
}

// decodeObjectFields returns the top-level members of a JSON object in
// document order.
func decodeObjectFields(data []byte) ([]namedField, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}
	var fields []namedField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		fields = append(fields, namedField{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	return fields, true
}

func isJSONArray(value json.RawMessage) bool {
	trimmed := bytes.TrimSpace(value)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func stripCodeFence(output string) string {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// sliceJSONValue cuts the outermost array or object out of surrounding prose.
func sliceJSONValue(data []byte) ([]byte, bool) {
	start := bytes.IndexAny(data, "[{")
	if start < 0 {
		return nil, false
	}
	closer := byte(']')
	if data[start] == '{' {
		closer = '}'
	}
	end := bytes.LastIndexByte(data, closer)
	if end <= start {
		return nil, false
	}
	return data[start : end+1], true
}
