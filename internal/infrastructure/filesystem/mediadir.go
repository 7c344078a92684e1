// Package filesystem implements the media directory scanner and the physical
// relocation of content between the drop, current and previous directories.
package filesystem

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"skylt/internal/application/player"
	"skylt/internal/domain/media"
)

// MediaDir is one watched media location. Its bucket state is discarded and
// rebuilt wholesale on every Scan; it is never merged incrementally.
type MediaDir struct {
	path    string
	backup  *MediaDir
	logger  *log.Logger
	buckets []*media.Set
	winner  *media.Set
}

// NewMediaDir creates a scanner for path. backup, when non-nil, receives the
// directory's prior content before another MediaDir moves assets in.
func NewMediaDir(path string, backup *MediaDir, logger *log.Logger) *MediaDir {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	d := &MediaDir{path: abs, backup: backup, logger: logger}
	d.clear()
	return d
}

// Path returns the absolute directory path.
func (d *MediaDir) Path() string {
	return d.path
}

func (d *MediaDir) clear() {
	d.buckets = d.buckets[:0]
	for _, kind := range media.Kinds() {
		d.buckets = append(d.buckets, media.NewSet(kind, d.path))
	}
	d.winner = nil
}

// Scan rebuilds the buckets from the directory contents and returns the
// winning non-empty snapshot: the bucket whose most recently modified member
// is newest, ties broken by kind priority order. Returns nil when the
// directory is absent or holds nothing recognizable.
func (d *MediaDir) Scan() (*media.Set, error) {
	d.clear()

	entries, err := os.ReadDir(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", d.path, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		d.add(entry.Name())
	}

	for _, bucket := range d.buckets {
		if bucket.Empty() {
			continue
		}
		if d.winner == nil || bucket.ModifiedAt.After(d.winner.ModifiedAt) {
			d.winner = bucket
		}
	}
	return d.winner, nil
}

// add classifies one directory entry into its bucket. Unrecognized names are
// skipped with a log note; they are not an error.
func (d *MediaDir) add(name string) {
	kind, ok := media.KindOf(name)
	if !ok {
		d.logger.Printf("%s: %s: media type unknown, skipped", d.path, name)
		return
	}

	info, err := os.Stat(filepath.Join(d.path, name))
	if err != nil {
		d.logger.Printf("%s: %s: stat failed, skipped: %v", d.path, name, err)
		return
	}

	d.logger.Printf("%s: %s: %s", d.path, name, kind)
	d.buckets[int(kind)].Add(media.File{Name: name, ModifiedAt: info.ModTime()})
}

// MoveAssetsTo physically relocates every scanned file into dest and
// transplants the in-memory bucket state onto it, leaving this directory's
// record empty. dest's prior content is first backed up when configured.
func (d *MediaDir) MoveAssetsTo(dest player.Library) error {
	other, ok := dest.(*MediaDir)
	if !ok {
		return fmt.Errorf("cannot move assets into %T", dest)
	}
	d.logger.Printf("%s: moving assets to %s", d.path, other.path)

	if err := other.backupAssets(); err != nil {
		return err
	}

	if err := os.RemoveAll(other.path); err != nil {
		return fmt.Errorf("clearing %s: %w", other.path, err)
	}
	if err := os.MkdirAll(other.path, 0o755); err != nil {
		return fmt.Errorf("recreating %s: %w", other.path, err)
	}

	for _, bucket := range d.buckets {
		for _, f := range bucket.Files {
			src := filepath.Join(d.path, f.Name)
			dst := filepath.Join(other.path, f.Name)
			if err := os.Rename(src, dst); err != nil {
				return fmt.Errorf("moving %s: %w", f.Name, err)
			}
		}
	}

	other.buckets = other.buckets[:0]
	for _, bucket := range d.buckets {
		other.buckets = append(other.buckets, bucket.Rebase(other.path))
	}
	other.winner = nil
	if d.winner != nil {
		other.winner = other.buckets[int(d.winner.Kind)]
	}

	d.clear()
	return nil
}

// backupAssets moves this directory's current content into the configured
// backup directory, when one is set and there is content to preserve.
func (d *MediaDir) backupAssets() error {
	if d.backup == nil {
		return nil
	}
	winner, err := d.Scan()
	if err != nil {
		return err
	}
	if winner.Empty() {
		return nil
	}
	return d.MoveAssetsTo(d.backup)
}
