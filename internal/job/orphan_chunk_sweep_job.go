package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type orphanDeleter interface {
	DeleteOrphans(ctx context.Context, before int64) (int64, error)
}

// OrphanChunkSweepJob removes chunk rows left behind by ingests that never
// committed their resource row. The grace period keeps in-flight ingests
// out of reach.
type OrphanChunkSweepJob struct {
	index orphanDeleter
	grace time.Duration
	now   func() time.Time
}

func NewOrphanChunkSweepJob(index orphanDeleter, grace time.Duration) *OrphanChunkSweepJob {
	return &OrphanChunkSweepJob{index: index, grace: grace, now: time.Now}
}

func (j *OrphanChunkSweepJob) Name() string {
	return "orphan_chunk_sweep"
}

func (j *OrphanChunkSweepJob) Run(ctx context.Context) error {
	if j.index == nil {
		return nil
	}
	grace := j.grace
	if grace <= 0 {
		grace = time.Hour
	}
	removed, err := j.index.DeleteOrphans(ctx, j.now().Add(-grace).Unix())
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("orphan chunks removed", zap.Int64("count", removed))
	}
	return nil
}
