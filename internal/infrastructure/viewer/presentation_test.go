package viewer

import (
	"io"
	"log"
	"testing"
	"time"

	"skylt/internal/application/player"
	"skylt/internal/domain/media"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func waitRunning(t *testing.T, pres interface{ IsRunning() bool }) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pres.IsRunning() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("presentation never started")
}

func popWithin(t *testing.T, queue *player.Queue, timeout time.Duration) player.Command {
	t.Helper()
	got := make(chan player.Command, 1)
	go func() { got <- queue.Pop() }()
	select {
	case cmd := <-got:
		return cmd
	case <-time.After(timeout):
		t.Fatalf("no command published within %s", timeout)
		return ""
	}
}

func TestEmptyPresentationStops(t *testing.T) {
	factory := NewFactory(Options{}, testLogger())
	pres := factory.Empty()
	queue := player.NewQueue()

	done := make(chan struct{})
	go func() {
		pres.Run(queue)
		close(done)
	}()

	waitRunning(t, pres)
	if err := pres.Stop(); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("empty presentation did not stop")
	}
	if pres.IsRunning() {
		t.Fatalf("still running after stop")
	}
	if queue.Len() != 0 {
		t.Fatalf("stopping must not publish player-exited")
	}
}

func TestEmptyPresentationStopBeforeRunDoesNotPark(t *testing.T) {
	factory := NewFactory(Options{}, testLogger())
	pres := factory.Empty()

	if err := pres.Stop(); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		pres.Run(player.NewQueue())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("run parked despite a prior stop")
	}
}

func TestRunnerStopForestallsPendingStart(t *testing.T) {
	r := &runner{logger: testLogger()}
	queue := player.NewQueue()

	// The supervisor may stop a generation before its goroutine has reached
	// the spawn; the viewer must then never start.
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		r.play(queue, "sleep", "60")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("play spawned a viewer despite a prior stop request")
	}
	if r.IsRunning() {
		t.Fatalf("viewer running despite a prior stop request")
	}
	if queue.Len() != 0 {
		t.Fatalf("forestalled start must not publish player-exited")
	}
}

func TestRunnerStopTerminatesViewer(t *testing.T) {
	r := &runner{logger: testLogger()}
	queue := player.NewQueue()

	done := make(chan struct{})
	go func() {
		r.play(queue, "sleep", "60")
		close(done)
	}()
	waitRunning(t, r)

	start := time.Now()
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("polite stop took %s", elapsed)
	}

	<-done
	if r.IsRunning() {
		t.Fatalf("still running after stop")
	}
	if queue.Len() != 0 {
		t.Fatalf("requested stop must not publish player-exited")
	}
}

func TestRunnerStopEscalatesToKill(t *testing.T) {
	r := &runner{logger: testLogger()}
	queue := player.NewQueue()

	go r.play(queue, "sh", "-c", `trap "" TERM; sleep 60`)
	waitRunning(t, r)
	// Give the shell a moment to install its trap.
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	if err := r.Stop(); err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)
	if elapsed > 10*time.Second {
		t.Fatalf("forced kill took %s", elapsed)
	}
	if r.IsRunning() {
		t.Fatalf("still running after forced kill")
	}
}

func TestRunnerSpawnFailurePublishesPlayerExited(t *testing.T) {
	r := &runner{logger: testLogger()}
	queue := player.NewQueue()

	go r.play(queue, "/nonexistent/viewer-binary")
	if cmd := popWithin(t, queue, 2*time.Second); cmd != player.CmdPlayerExited {
		t.Fatalf("command = %s, want player-exited", cmd)
	}
	if r.IsRunning() {
		t.Fatalf("failed spawn must not report running")
	}
}

func TestRunnerNaturalExitPublishesPlayerExited(t *testing.T) {
	r := &runner{logger: testLogger()}
	queue := player.NewQueue()

	go r.play(queue, "true")
	if cmd := popWithin(t, queue, 2*time.Second); cmd != player.CmdPlayerExited {
		t.Fatalf("command = %s, want player-exited", cmd)
	}
}

func TestFactoryBuildsVariantPerKind(t *testing.T) {
	factory := NewFactory(Options{PhotoSeconds: 3, SlideSeconds: 5}, testLogger())

	cases := []struct {
		kind media.Kind
		want string
	}{
		{media.KindImage, "images (1 files)"},
		{media.KindVideo, "videos (1 files)"},
		{media.KindDocument, "document (1 files)"},
		{media.KindSlides, "slides (1 files)"},
	}
	for _, tc := range cases {
		set := media.NewSet(tc.kind, "/srv/media/current")
		set.Add(media.File{Name: "f", ModifiedAt: time.Now()})
		pres := factory.Build(set)
		if pres == nil {
			t.Fatalf("%s: no presentation built", tc.kind)
		}
		if got := pres.Describe(); got != tc.want {
			t.Fatalf("%s: describe = %q, want %q", tc.kind, got, tc.want)
		}
		if pres.IsRunning() {
			t.Fatalf("%s: presentation running before start", tc.kind)
		}
	}

	if got := factory.Empty().Describe(); got != "empty" {
		t.Fatalf("empty describe = %q", got)
	}
}
