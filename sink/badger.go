package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/nodeadmin/hpo-parser/enricher"
	"github.com/nodeadmin/hpo-parser/errs"
)

const (
	termKeyPrefix = "term:"
	runKey        = "meta:run"
)

// RunInfo is stored under meta:run once a Badger export commits.
type RunInfo struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	TermCount  int       `json:"term_count"`
}

// BadgerSink stores each document under term:<id>.
type BadgerSink struct {
	db      *badger.DB
	wb      *badger.WriteBatch
	runID   string
	started time.Time
	count   int
	done    bool
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadger opens or creates a Badger directory at path. An empty path
// opens an in-memory store.
func OpenBadger(path string, logger *slog.Logger) (*BadgerSink, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}

	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	return &BadgerSink{
		db:      db,
		wb:      db.NewWriteBatch(),
		runID:   uuid.NewString(),
		started: time.Now().UTC(),
	}, nil
}

// RunID identifies this export in meta:run.
func (s *BadgerSink) RunID() string { return s.runID }

// Write queues rec in the write batch.
func (s *BadgerSink) Write(_ context.Context, rec *enricher.Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", rec.ID, err)
	}
	if err := s.wb.Set([]byte(termKeyPrefix+rec.ID), doc); err != nil {
		return fmt.Errorf("queueing %s: %w", rec.ID, err)
	}
	s.count++
	return nil
}

// Commit flushes the batch and writes the run record.
func (s *BadgerSink) Commit() error {
	if err := s.wb.Flush(); err != nil {
		return fmt.Errorf("flushing batch: %w", err)
	}
	s.done = true

	info, err := json.Marshal(RunInfo{
		RunID:      s.runID,
		StartedAt:  s.started,
		FinishedAt: time.Now().UTC(),
		TermCount:  s.count,
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(runKey), info)
	})
}

// Get returns the stored document for id.
func (s *BadgerSink) Get(id string) (json.RawMessage, error) {
	return s.get(termKeyPrefix + id)
}

// Run returns the last committed run record.
func (s *BadgerSink) Run() (*RunInfo, error) {
	raw, err := s.get(runKey)
	if err != nil {
		return nil, err
	}
	var info RunInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *BadgerSink) get(key string) (json.RawMessage, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, errs.ErrNotFound)
	}
	return out, err
}

// Close cancels an uncommitted batch and closes the database.
func (s *BadgerSink) Close() error {
	if !s.done {
		s.wb.Cancel()
	}
	return s.db.Close()
}
