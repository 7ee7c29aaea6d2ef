// Package recorder writes evidence records asynchronously so that storage
// latency never delays a tool call.
package recorder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/parley/pkg/evidence"
	"mercator-hq/parley/pkg/feedback"
	"mercator-hq/parley/pkg/security/auth"
	"mercator-hq/parley/pkg/telemetry/logging"
	"mercator-hq/parley/pkg/tool"
	"mercator-hq/parley/pkg/validation"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// Config configures a Recorder.
type Config struct {
	// AsyncBuffer is the size of the write queue.
	// Default: 1000
	AsyncBuffer int

	// WriteTimeout bounds each write and the wait for queue space.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// RecordArgs keeps the canonical arguments, not only their hash.
	// Default: false
	RecordArgs bool
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() Config {
	return Config{AsyncBuffer: 1000, WriteTimeout: 5 * time.Second}
}

// Recorder queues records and writes them from a single worker.
type Recorder struct {
	storage evidence.Storage
	config  Config
	records chan *evidence.Record
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64
	logger  *logging.Logger
}

// New starts a recorder writing to storage. A nil logger discards logs.
func New(storage evidence.Storage, cfg Config, logger *logging.Logger) *Recorder {
	def := DefaultConfig()
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = def.AsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	r := &Recorder{
		storage: storage,
		config:  cfg,
		records: make(chan *evidence.Record, cfg.AsyncBuffer),
		done:    make(chan struct{}),
		logger:  logger.With("component", "evidence.recorder"),
	}
	r.wg.Add(1)
	go r.worker()

	r.logger.Debug("evidence recorder started",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
		"record_args", cfg.RecordArgs,
	)
	return r
}

// Middleware records every call that passes through it. Place it inside
// logging and outside idempotency so that replays are marked.
func (r *Recorder) Middleware() tool.Middleware {
	return func(next tool.Handler) tool.Handler {
		return func(ctx context.Context, call *tool.Call) (*feedback.CallResult, error) {
			start := time.Now()
			result, err := next(ctx, call)

			record := r.newRecord(ctx, call, result, err, start)
			if qerr := r.Record(record); qerr != nil {
				r.logger.WarnContext(ctx, "evidence record dropped", "error", qerr)
			}
			return result, err
		}
	}
}

// Record queues a record. It blocks for at most WriteTimeout when the queue
// is full.
func (r *Recorder) Record(record *evidence.Record) error {
	select {
	case <-r.done:
		r.dropped.Add(1)
		return evidence.NewRecorderError(record.ID, errors.New("recorder closed"))
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()
	select {
	case r.records <- record:
		return nil
	case <-timer.C:
		r.dropped.Add(1)
		return evidence.NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-r.done:
		r.dropped.Add(1)
		return evidence.NewRecorderError(record.ID, context.Canceled)
	}
}

// Dropped returns how many records could not be queued.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close drains the queue and stops the worker. It does not close the
// storage.
func (r *Recorder) Close() error {
	r.once.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for {
		select {
		case record := <-r.records:
			r.write(record)
		case <-r.done:
			for {
				select {
				case record := <-r.records:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *evidence.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	record.RecordedAt = time.Now().UTC()
	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store evidence record",
			"record_id", record.ID,
			"call_id", record.CallID,
			"error", err,
		)
		return
	}
	r.logger.Debug("evidence recorded", "record_id", record.ID, "call_id", record.CallID)
}

func (r *Recorder) newRecord(ctx context.Context, call *tool.Call, result *feedback.CallResult, err error, start time.Time) *evidence.Record {
	record := &evidence.Record{
		ID:       uuid.New().String(),
		CallID:   call.ID,
		Tool:     call.Tool.Name(),
		Client:   auth.ClientFrom(ctx),
		Replayed: call.Replayed,
		Duration: time.Since(start),
		CalledAt: start.UTC(),
	}

	switch {
	case err != nil:
		record.Status = evidence.StatusError
		record.Error = err.Error()
		var verr *validation.ValidatorError
		if errors.As(err, &verr) {
			record.InvalidFields = []string{verr.Field}
		}
	case result != nil:
		record.Status = string(result.Status)
		record.InvalidFields = result.InvalidFields()
	}

	if canonical, ok := CanonicalArgs(call.Args); ok {
		record.ArgsHash = HashContent(canonical)
		if r.config.RecordArgs {
			record.Args = canonical
		}
	}
	return record
}

// CanonicalArgs encodes args as RFC 8785 canonical JSON.
func CanonicalArgs(args map[string]any) ([]byte, bool) {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, false
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, false
	}
	return canonical, true
}

// HashContent returns the hex SHA-256 of data.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
