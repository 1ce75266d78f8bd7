package recorder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"kae-hq/kae/pkg/appspec"
	"kae-hq/kae/pkg/history"
	"kae-hq/kae/pkg/telemetry/logging"
	"kae-hq/kae/pkg/telemetry/metrics"
)

// ErrClosed is returned when recording after Close.
var ErrClosed = errors.New("history recorder is closed")

// Config contains configuration for the history recorder.
type Config struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 256
	AsyncBuffer int

	// WriteTimeout bounds both enqueueing and writing one record.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		AsyncBuffer:  256,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder turns validation results into history records and writes them
// in the background so that validation never waits on storage.
type Recorder struct {
	storage    history.Storage
	config     *Config
	metrics    *metrics.Collector
	recordChan chan *history.Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger
}

// NewRecorder creates a recorder and starts its background writer.
// collector may be nil.
func NewRecorder(storage history.Storage, config *Config, collector *metrics.Collector) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = DefaultConfig().AsyncBuffer
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultConfig().WriteTimeout
	}

	r := &Recorder{
		storage:    storage,
		config:     config,
		metrics:    collector,
		recordChan: make(chan *history.Record, config.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     slog.Default().With("component", "history.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// NewRecord builds the history record of res. The request ID and Git
// commit are taken from ctx when present.
func NewRecord(ctx context.Context, res *appspec.Result) *history.Record {
	record := &history.Record{
		ID:             uuid.New().String(),
		RequestID:      logging.GetRequestID(ctx),
		AppName:        res.AppName,
		Source:         res.Source,
		Kind:           res.Kind,
		Commit:         logging.GetCommit(ctx),
		DescriptorHash: res.Hash,
		Size:           res.Size,
		Valid:          res.Valid(),
		ErrorCount:     res.Errors.Count(),
		Duration:       res.Duration,
		RecordedAt:     time.Now().UTC(),
	}
	for _, e := range res.Entries() {
		record.Errors = append(record.Errors, history.ErrorEntry{
			Path:    e.Path,
			Kind:    e.Kind,
			Message: e.Message,
			Line:    e.Line,
		})
	}
	return record
}

// Record enqueues the record of res for writing and returns it. It does
// not wait for the write.
func (r *Recorder) Record(ctx context.Context, res *appspec.Result) (*history.Record, error) {
	record := NewRecord(ctx, res)

	select {
	case <-r.done:
		return nil, ErrClosed
	default:
	}

	timer := time.NewTimer(r.config.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
		return record, nil
	case <-timer.C:
		r.logger.Error("history channel full, dropping record",
			"record_id", record.ID,
			"channel_capacity", r.config.AsyncBuffer,
		)
		r.recordWrite(context.DeadlineExceeded)
		return nil, history.NewStorageError("recorder", "enqueue", context.DeadlineExceeded)
	case <-r.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops accepting records, drains the pending ones and waits for them
// to be written. It does not close the storage.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.writeRecord(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.writeRecord(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) writeRecord(record *history.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	start := time.Now()
	err := r.storage.Store(ctx, record)
	r.recordWrite(err)
	if err != nil {
		r.logger.Error("failed to store history record",
			"record_id", record.ID,
			"appname", record.AppName,
			"error", err,
		)
		return
	}

	r.logger.Debug("validation recorded",
		"record_id", record.ID,
		"appname", record.AppName,
		"valid", record.Valid,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (r *Recorder) recordWrite(err error) {
	if r.metrics != nil {
		r.metrics.RecordHistoryWrite(err)
	}
}
