package dataset

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store holds the currently loaded table and swaps it atomically on reload.
// Readers always see either the old or the new table, never a partial one.
type Store struct {
	path string
	opts []LoadOption

	mu        sync.RWMutex
	table     *Table
	gen       uint64 // incremented on every successful reload
	loadedAt  time.Time
	listeners []func(*Table)
}

// Open loads path and returns a store serving it.
func Open(path string, opts ...LoadOption) (*Store, error) {
	s := &Store{path: path, opts: opts}
	t, err := Load(path, opts...)
	if err != nil {
		return nil, err
	}
	s.table = t
	s.loadedAt = time.Now()
	return s, nil
}

// NewStore wraps an already loaded table. Reload re-reads path.
func NewStore(path string, t *Table, opts ...LoadOption) *Store {
	return &Store{path: path, opts: opts, table: t, loadedAt: time.Now()}
}

// Path returns the file the store loads from.
func (s *Store) Path() string { return s.path }

// Table returns the current table.
func (s *Store) Table() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Snapshot returns the current table together with its generation. The
// generation changes on every successful reload, so it can key derived data.
func (s *Store) Snapshot() (*Table, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table, s.gen
}

// LoadedAt returns when the current table was loaded.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// OnReload registers fn to be called with the new table after every
// successful reload.
func (s *Store) OnReload(fn func(*Table)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Reload re-reads the file. On failure the previous table stays in place.
func (s *Store) Reload() error {
	t, err := Load(s.path, s.opts...)
	if err != nil {
		log.Printf("store: reload %s failed, keeping previous table: %v", s.path, err)
		return err
	}

	s.mu.Lock()
	s.table = t
	s.gen++
	s.loadedAt = time.Now()
	listeners := append([]func(*Table){}, s.listeners...)
	s.mu.Unlock()

	log.Printf("store: reloaded %s (%d rows, %d crops)", s.path, t.Len(), len(t.Crops()))
	for _, fn := range listeners {
		fn(t)
	}
	return nil
}

// Watch reloads the table whenever the file is written or replaced, until
// ctx is cancelled. The parent directory is watched so that editors which
// write via rename are picked up too.
func (s *Store) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	log.Printf("store: watching %s", abs)

	// Editors often emit several events per save; coalesce them.
	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			_ = s.Reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("store: watcher error: %v", err)
		}
	}
}
