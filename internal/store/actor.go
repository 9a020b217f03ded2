// Package store persists operational state (backup records, scheduled tasks,
// key/value settings) in an embedded sqlite database. The engine permits a
// single logical owner, so all access is confined to one worker goroutine
// consuming a bounded request queue; the rest of the application talks to it
// through a Handle. Serialization through the queue is the only
// synchronization: it yields a total order over every mutation.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// requestQueueSize bounds the inbound queue so sustained overload suspends
// senders instead of growing memory without limit.
const requestQueueSize = 64

type request struct {
	op    operation
	reply chan result
}

type result struct {
	value any
	err   error
}

// Store owns the sqlite database exclusively. No other component may open
// the database file directly.
type Store struct {
	db       *sql.DB
	requests chan request
	stop     chan struct{}
	done     chan struct{}

	closeOnce sync.Once
}

// Open opens (creating if necessary) the sqlite database at path and starts
// the worker. The caller must call InitTables through a Handle before using
// any other operation on a fresh database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store database: %w", err)
	}
	// One connection: the engine is single-writer and the worker is the
	// only user anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping store database: %w", err)
	}

	s := &Store{
		db:       db,
		requests: make(chan request, requestQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()

	log.Debug("state store opened", "path", path)
	return s, nil
}

// Handle returns a cheaply shareable client for submitting requests.
func (s *Store) Handle() *Handle { return &Handle{store: s} }

// Close stops the worker and closes the database. Requests already picked up
// run to completion; everything still queued or submitted afterwards resolves
// to ErrStoreUnavailable.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func (s *Store) loop() {
	defer close(s.done)
	defer s.db.Close()

	for {
		select {
		case <-s.stop:
			s.drain()
			return
		case req := <-s.requests:
			if fatal := s.serve(req); fatal {
				log.Error("state store worker terminating after fatal failure")
				s.drain()
				return
			}
		}
	}
}

// serve processes exactly one request and always delivers exactly one
// response. A panic out of the storage engine is fatal to the store.
func (s *Store) serve(req request) (fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			req.reply <- result{err: fmt.Errorf("%w: %v", ErrStoreUnavailable, r)}
			fatal = true
		}
	}()

	value, err := req.op.execute(s.db)
	req.reply <- result{value: value, err: err}
	return false
}

// drain fails every request already sitting in the queue so no sender hangs.
func (s *Store) drain() {
	for {
		select {
		case req := <-s.requests:
			req.reply <- result{err: ErrStoreUnavailable}
		default:
			return
		}
	}
}
