package service

import (
	"context"
	"math"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/medrag/internal/ai"
	"github.com/xxxsen/medrag/internal/model"
)

type RelevanceScorer interface {
	ScoreRelevance(ctx context.Context, query string, passages []string) (ai.RelevanceResult, error)
}

// Reranker re-scores ANN candidates with a relevance model. It never fails:
// provider or parse problems fall back to the candidate order.
type Reranker struct {
	scorer RelevanceScorer
}

func NewReranker(scorer RelevanceScorer) *Reranker {
	return &Reranker{scorer: scorer}
}

func (r *Reranker) Rerank(ctx context.Context, query string, candidates []model.StoredChunk, topK int) []model.RankedChunk {
	if len(candidates) == 0 || topK <= 0 {
		return []model.RankedChunk{}
	}
	logger := logutil.GetLogger(ctx).With(zap.Int("candidates", len(candidates)), zap.Int("top_k", topK))
	if r.scorer == nil {
		return fallbackRanking(candidates, topK)
	}
	passages := make([]string, 0, len(candidates))
	for _, c := range candidates {
		passages = append(passages, c.Content)
	}
	result, err := r.scorer.ScoreRelevance(ctx, query, passages)
	if err != nil {
		logger.Warn("rerank failed, keep vector order", zap.Error(err))
		return fallbackRanking(candidates, topK)
	}
	if !result.Parsed() {
		logger.Warn("rerank output unparseable, keep vector order")
		return fallbackRanking(candidates, topK)
	}
	logger.Debug("rerank scored", zap.String("shape", result.Shape.String()), zap.Int("scores", len(result.Scores)))
	return applyScores(candidates, result.Scores, topK)
}

// applyScores maps 1-based indices onto candidates. Out of range and
// repeated indices are ignored; the first score for an index wins. Scores
// are bounded to the 0-10 scale.
func applyScores(candidates []model.StoredChunk, scores []ai.RelevanceScore, topK int) []model.RankedChunk {
	slots := make([]*float64, len(candidates))
	for _, s := range scores {
		idx := s.Index - 1
		if idx < 0 || idx >= len(candidates) || slots[idx] != nil {
			continue
		}
		score := math.Max(ai.MinRelevanceScore, math.Min(ai.MaxRelevanceScore, s.Score))
		slots[idx] = &score
	}
	scored := make([]model.RankedChunk, 0, len(candidates))
	for i, slot := range slots {
		if slot != nil {
			scored = append(scored, model.RankedChunk{StoredChunk: candidates[i], RelevanceScore: *slot})
		}
	}
	// scored is in candidate order, so ties keep the vector ranking
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	for i := 0; i < len(candidates) && len(scored) < topK; i++ {
		if slots[i] != nil {
			continue
		}
		scored = append(scored, model.RankedChunk{StoredChunk: candidates[i]})
	}
	return scored
}

func fallbackRanking(candidates []model.StoredChunk, topK int) []model.RankedChunk {
	n := min(topK, len(candidates))
	out := make([]model.RankedChunk, 0, n)
	for _, c := range candidates[:n] {
		out = append(out, model.RankedChunk{StoredChunk: c})
	}
	return out
}
