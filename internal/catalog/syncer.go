// Package catalog mirrors the sample-files directory into the database on a
// cron schedule so the HTTP surface can list files without walking disk.
package catalog

import (
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sync"

	"github.com/chris/schemascout/internal/db"
	"github.com/robfig/cron/v3"
)

type Store interface {
	UpsertFile(name, fileType string, size int64) error
}

type Syncer struct {
	cron  *cron.Cron
	root  string
	store Store

	mu sync.Mutex // serializes scans
}

func New(root string, store Store) *Syncer {
	return &Syncer{cron: cron.New(), root: root, store: store}
}

// Sync upserts every regular file under root and returns how many it saw.
// Names are slash-separated and relative to root.
func (s *Syncer) Sync() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if err := s.store.UpsertFile(name, db.FileType(name), info.Size()); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("scanning %s: %w", s.root, err)
	}
	return n, nil
}

// Start runs one scan immediately and then on schedule (a standard five-field
// cron expression). An empty schedule only runs the initial scan.
func (s *Syncer) Start(schedule string) error {
	s.run()
	if schedule == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return fmt.Errorf("invalid cron %q: %w", schedule, err)
	}
	s.cron.Start()
	log.Printf("catalog: scanning %s on %q", s.root, schedule)
	return nil
}

func (s *Syncer) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Syncer) run() {
	n, err := s.Sync()
	if err != nil {
		log.Printf("catalog: sync: %v", err)
		return
	}
	log.Printf("catalog: synced %d file(s)", n)
}
