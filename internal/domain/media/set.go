package media

import (
	"sort"
	"time"
)

// Set is an immutable snapshot of one scan bucket: every recognized file of a
// single kind found in a directory, plus the most recently modified member.
// A Set with zero files is not a presentation candidate.
type Set struct {
	Kind       Kind
	Root       string
	Files      []File
	MostRecent string
	ModifiedAt time.Time
}

// NewSet creates an empty bucket rooted at dir.
func NewSet(kind Kind, root string) *Set {
	return &Set{Kind: kind, Root: root}
}

// Add records a file in the bucket and updates the most-recent pointer.
// Must be called at most once per file per scan pass.
func (s *Set) Add(f File) {
	s.Files = append(s.Files, f)
	if s.MostRecent == "" || f.ModifiedAt.After(s.ModifiedAt) {
		s.MostRecent = f.Name
		s.ModifiedAt = f.ModifiedAt
	}
}

// Empty reports whether the bucket holds no files.
func (s *Set) Empty() bool {
	return s == nil || len(s.Files) == 0
}

// Names returns the member file names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Rebase returns a copy of the snapshot rooted at a new directory.
func (s *Set) Rebase(root string) *Set {
	clone := *s
	clone.Root = root
	clone.Files = append([]File(nil), s.Files...)
	return &clone
}
