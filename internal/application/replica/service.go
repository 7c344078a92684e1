// Package replica mirrors the active content set to replica hosts. Each host
// gets its own Syncer; a per-host "<host>.synced" sentinel in the content
// directory marks that the host already carries the current generation.
package replica

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const syncedSuffix = ".synced"

// Transport is the secure remote-copy channel a Syncer pushes through.
type Transport interface {
	// Push uploads the named files from dir into remoteDir on host.
	Push(ctx context.Context, host, dir string, files []string, remoteDir string) error
	// Remove deletes one remote path on host.
	Remove(ctx context.Context, host, remotePath string) error
}

// Syncer keeps one replica host eventually consistent with the content
// directory. Rescan is its only entry point; at most one transfer job is in
// flight per host, and a newer generation always supersedes an older one.
type Syncer struct {
	host      string
	dir       string
	remoteDir string
	trigger   string
	transport Transport
	backoff   time.Duration
	logger    *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncer creates a syncer for one host. trigger is the name of the
// change-trigger sentinel to delete remotely after a successful push, so the
// replica's own change monitor fires.
func NewSyncer(host, dir, remoteDir, trigger string, transport Transport, backoff time.Duration, logger *log.Logger) *Syncer {
	return &Syncer{
		host:      host,
		dir:       dir,
		remoteDir: remoteDir,
		trigger:   trigger,
		transport: transport,
		backoff:   backoff,
		logger:    logger,
	}
}

// Host returns the replica host this syncer serves.
func (s *Syncer) Host() string {
	return s.host
}

// Rescan inspects the content directory and, unless the host is already
// marked synced, cancels any stale in-flight job and starts a fresh transfer
// of the current file set in the background.
func (s *Syncer) Rescan() {
	s.logger.Printf("syncer:%s: rescanning %s", s.host, s.dir)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Printf("syncer:%s: listing %s failed: %v", s.host, s.dir, err)
		return
	}

	var pending []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(name, syncedSuffix) {
			if name == s.sentinelName() {
				s.logger.Printf("syncer:%s: already synced", s.host)
				return
			}
			// Sentinels for other hosts are not content.
			continue
		}
		s.logger.Printf("syncer:%s: %s to be synced", s.host, name)
		pending = append(pending, name)
	}

	s.supersede()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	go s.run(ctx, pending, done)
}

// Cancel aborts any in-flight transfer and returns only once the job has
// wound down. The supervisor calls it before rewriting the content directory,
// so a stale job can never mark the new generation synced.
func (s *Syncer) Cancel() {
	s.supersede()
}

// Close cancels any in-flight transfer and waits for it to wind down.
func (s *Syncer) Close() {
	s.supersede()
}

// supersede cancels the previous job, if any, and waits until its goroutine
// has stopped so transfers never overlap on the same host.
func (s *Syncer) supersede() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	s.logger.Printf("syncer:%s: superseding in-flight sync", s.host)
	cancel()
	<-done
}

func (s *Syncer) run(ctx context.Context, files []string, done chan struct{}) {
	defer close(done)

	job := uuid.NewString()[:8]
	s.logger.Printf("syncer:%s: job %s: syncing %d files", s.host, job, len(files))

	for {
		err := s.pass(ctx, files)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			s.logger.Printf("syncer:%s: job %s: cancelled", s.host, job)
			return
		}
		s.logger.Printf("syncer:%s: job %s: sync failed, retrying in %s: %v", s.host, job, s.backoff, err)
		select {
		case <-ctx.Done():
			s.logger.Printf("syncer:%s: job %s: cancelled", s.host, job)
			return
		case <-time.After(s.backoff):
		}
	}

	// The sentinel is only written after a fully successful, uncancelled
	// pass, so a superseded generation can never be marked synced.
	if ctx.Err() != nil {
		s.logger.Printf("syncer:%s: job %s: cancelled after transfer", s.host, job)
		return
	}
	if err := s.markSynced(); err != nil {
		s.logger.Printf("syncer:%s: job %s: writing sync sentinel failed: %v", s.host, job, err)
		return
	}
	s.logger.Printf("syncer:%s: job %s: synced", s.host, job)
}

func (s *Syncer) pass(ctx context.Context, files []string) error {
	if len(files) > 0 {
		if err := s.transport.Push(ctx, s.host, s.dir, files, s.remoteDir); err != nil {
			return fmt.Errorf("pushing files: %w", err)
		}
	}
	if err := s.transport.Remove(ctx, s.host, path.Join(s.remoteDir, s.trigger)); err != nil {
		return fmt.Errorf("removing remote trigger: %w", err)
	}
	return nil
}

func (s *Syncer) sentinelName() string {
	return s.host + syncedSuffix
}

func (s *Syncer) markSynced() error {
	return os.WriteFile(filepath.Join(s.dir, s.sentinelName()), []byte(s.host+"\n"), 0o644)
}
