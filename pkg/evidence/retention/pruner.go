package retention

import (
	"context"
	"time"

	"mercator-hq/parley/pkg/evidence"
	"mercator-hq/parley/pkg/telemetry/logging"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// Days is the number of days to retain records.
	// 0 keeps records forever.
	Days int

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is a standard cron expression, for example "0 3 * * *".
	// Empty disables scheduled pruning.
	PruneSchedule string
}

// Pruner enforces retention limits on a storage.
type Pruner struct {
	storage evidence.Storage
	config  Config
	logger  *logging.Logger
	now     func() time.Time
}

// NewPruner creates a pruner. A nil logger discards logs.
func NewPruner(storage evidence.Storage, cfg Config, logger *logging.Logger) *Pruner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pruner{
		storage: storage,
		config:  cfg,
		logger:  logger.With("component", "evidence.retention"),
		now:     time.Now,
	}
}

// Config returns the pruner's configuration.
func (p *Pruner) Config() Config {
	return p.config
}

// Prune deletes records older than Days, then the oldest records beyond
// MaxRecords. It returns the total number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		deleted, err := p.pruneByAge(ctx)
		if err != nil {
			return total, evidence.NewRetentionError("age", err)
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, evidence.NewRetentionError("count", err)
		}
		total += deleted
	}

	if total == 0 {
		p.logger.DebugContext(ctx, "no records pruned",
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
		return 0, nil
	}

	p.logger.InfoContext(ctx, "evidence pruning completed",
		"deleted", total,
		"retention_days", p.config.Days,
		"max_records", p.config.MaxRecords,
	)
	return total, nil
}

func (p *Pruner) pruneByAge(ctx context.Context) (int64, error) {
	// Until is inclusive; step back one nanosecond so a record exactly at the
	// cutoff survives.
	cutoff := p.now().AddDate(0, 0, -p.config.Days).Add(-time.Nanosecond)
	return p.storage.Delete(ctx, &evidence.Query{Until: &cutoff})
}

func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &evidence.Query{})
	if err != nil {
		return 0, err
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	excess := count - p.config.MaxRecords
	oldest, err := p.storage.Query(ctx, &evidence.Query{Oldest: true, Limit: int(excess)})
	if err != nil {
		return 0, err
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	p.logger.InfoContext(ctx, "record count exceeds limit, pruning oldest",
		"current", count,
		"max_records", p.config.MaxRecords,
		"excess", excess,
	)

	cutoff := oldest[len(oldest)-1].CalledAt
	return p.storage.Delete(ctx, &evidence.Query{Until: &cutoff})
}
