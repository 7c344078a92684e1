package media

import (
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
		ok   bool
	}{
		{"photo.jpg", KindImage, true},
		{"photo.PNG", KindImage, true},
		{"clip.mp4", KindVideo, true},
		{"clip.webm", KindVideo, true},
		{"report.pdf", KindDocument, true},
		{"deck.odp", KindSlides, true},
		{"notes.txt", 0, false},
		{"README", 0, false},
		{"archive.zip", 0, false},
	}

	for _, tc := range cases {
		kind, ok := KindOf(tc.name)
		if ok != tc.ok {
			t.Errorf("%s: recognized=%v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if ok && kind != tc.kind {
			t.Errorf("%s: kind=%s, want %s", tc.name, kind, tc.kind)
		}
	}
}

func TestSetTracksMostRecent(t *testing.T) {
	set := NewSet(KindImage, "/srv/media")
	if !set.Empty() {
		t.Fatalf("new set should be empty")
	}

	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	set.Add(File{Name: "b.jpg", ModifiedAt: base.Add(time.Hour)})
	set.Add(File{Name: "a.jpg", ModifiedAt: base})
	set.Add(File{Name: "c.jpg", ModifiedAt: base.Add(2 * time.Hour)})

	if set.Empty() {
		t.Fatalf("set with files should not be empty")
	}
	if set.MostRecent != "c.jpg" {
		t.Fatalf("most recent = %s, want c.jpg", set.MostRecent)
	}
	if !set.ModifiedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("modified at = %s, want max member time", set.ModifiedAt)
	}

	names := set.Names()
	want := []string{"a.jpg", "b.jpg", "c.jpg"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestSetRebase(t *testing.T) {
	set := NewSet(KindVideo, "/srv/media")
	set.Add(File{Name: "x.mp4", ModifiedAt: time.Now()})

	moved := set.Rebase("/srv/media/current")
	if moved.Root != "/srv/media/current" {
		t.Fatalf("root = %s", moved.Root)
	}
	if set.Root != "/srv/media" {
		t.Fatalf("rebase must not mutate the source snapshot")
	}
	if moved.MostRecent != "x.mp4" || len(moved.Files) != 1 {
		t.Fatalf("rebased snapshot lost members")
	}
}

func TestNilSetIsEmpty(t *testing.T) {
	var set *Set
	if !set.Empty() {
		t.Fatalf("nil set should report empty")
	}
}
