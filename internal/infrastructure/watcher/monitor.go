// Package watcher implements the change monitor: it watches the media drop
// directory for the deletion of a trigger sentinel file, publishes a rescan
// command when that happens, and re-arms itself by recreating the sentinel.
package watcher

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"skylt/internal/application/player"
)

const triggerContents = "Remove this file when you want the player to rescan the media directory\n"

// Monitor watches one directory for the removal of its trigger file.
type Monitor struct {
	queue   *player.Queue
	dir     string
	trigger string
	watcher *fsnotify.Watcher
	logger  *log.Logger
	closed  chan struct{}
}

// NewMonitor starts watching dir for deletion of the named trigger file. The
// trigger is created right away when absent, so the external convention of
// "delete the well-known file to request a rescan" always has something to
// delete.
func NewMonitor(queue *player.Queue, dir, trigger string, logger *log.Logger) (*Monitor, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		queue:   queue,
		dir:     abs,
		trigger: trigger,
		logger:  logger,
		closed:  make(chan struct{}),
	}

	if err := m.createTrigger(); err != nil {
		return nil, fmt.Errorf("creating trigger file: %w", err)
	}

	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := m.watcher.Add(m.dir); err != nil {
		m.watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", m.dir, err)
	}

	go m.loop()
	return m, nil
}

// TriggerPath returns the full path of the trigger sentinel.
func (m *Monitor) TriggerPath() string {
	return filepath.Join(m.dir, m.trigger)
}

// Close stops watching.
func (m *Monitor) Close() error {
	err := m.watcher.Close()
	<-m.closed
	return err
}

func (m *Monitor) loop() {
	defer close(m.closed)
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handle(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Printf("%s: watch error: %v", m.dir, err)
		}
	}
}

func (m *Monitor) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if filepath.Dir(event.Name) != m.dir {
		m.logger.Printf("%s: event %s received for a directory we were not monitoring", event.Name, event.Op)
		return
	}
	if filepath.Base(event.Name) != m.trigger {
		return
	}

	// Push never blocks, so re-arming cannot be starved by a busy consumer.
	m.queue.Push(player.CmdRescan)

	if err := m.createTrigger(); err != nil {
		m.logger.Printf("%s: recreating trigger file failed: %v", m.dir, err)
	}
}

func (m *Monitor) createTrigger() error {
	path := m.TriggerPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(triggerContents), 0o644)
}
