package jobs

import (
	"context"

	"github.com/wonny/twpicks/pkg/logger"
)

// Pruner drops expired cache entries and reports how many were removed
type Pruner interface {
	Prune() int
}

// CachePruneJob evicts expired source responses from the in-process cache
type CachePruneJob struct {
	cache  Pruner
	logger *logger.Logger
}

// NewCachePruneJob creates a new cache prune job
func NewCachePruneJob(cache Pruner, log *logger.Logger) *CachePruneJob {
	return &CachePruneJob{
		cache:  cache,
		logger: log.WithField("job", "cache_prune"),
	}
}

// Name returns the job name
func (j *CachePruneJob) Name() string {
	return "cache_prune"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *CachePruneJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run executes the cache prune
func (j *CachePruneJob) Run(ctx context.Context) error {
	removed := j.cache.Prune()
	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Cache prune completed")
	}
	return nil
}
