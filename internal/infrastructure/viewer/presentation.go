// Package viewer implements the presentation variants: one external-player
// invocation per media kind, each supervised through a shared runner that
// wraps the command in a keep-display-awake wrapper and owns the graceful
// termination sequence.
package viewer

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"skylt/internal/application/player"
	"skylt/internal/domain/media"
)

// Options carries the externally configurable viewer parameters.
type Options struct {
	// PhotoSeconds is the display time per image in the image slideshow.
	PhotoSeconds float64
	// SlideSeconds is the advance time per page in document presentations.
	SlideSeconds int
	// KeepAwake is the wrapper command every player runs under.
	KeepAwake []string
	// ConfigHome is where viewer configuration files are written
	// (defaults to ~/.config).
	ConfigHome string
	// DataHome is where viewer state lives (defaults to ~/.local/share).
	DataHome string
}

// Factory builds runnable presentations from scan snapshots.
type Factory struct {
	opts   Options
	logger *log.Logger
}

// NewFactory creates a presentation factory with the given viewer options.
func NewFactory(opts Options, logger *log.Logger) *Factory {
	if opts.PhotoSeconds <= 0 {
		opts.PhotoSeconds = 1.5
	}
	if opts.SlideSeconds <= 0 {
		opts.SlideSeconds = 2
	}
	if opts.ConfigHome == "" || opts.DataHome == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			if opts.ConfigHome == "" {
				opts.ConfigHome = filepath.Join(home, ".config")
			}
			if opts.DataHome == "" {
				opts.DataHome = filepath.Join(home, ".local", "share")
			}
		}
	}
	return &Factory{opts: opts, logger: logger}
}

// Build returns the presentation variant for the snapshot's kind.
func (f *Factory) Build(set *media.Set) player.Presentation {
	base := filePresentation{
		set:    set,
		opts:   f.opts,
		logger: f.logger,
		runner: &runner{keepAwake: f.opts.KeepAwake, logger: f.logger},
	}
	switch set.Kind {
	case media.KindImage:
		return &imagePresentation{base}
	case media.KindVideo:
		return &videoPresentation{base}
	case media.KindDocument:
		return &documentPresentation{base}
	case media.KindSlides:
		return &slidesPresentation{base}
	default:
		return f.Empty()
	}
}

// Empty returns the presentation that shows nothing.
func (f *Factory) Empty() player.Presentation {
	return &emptyPresentation{logger: f.logger}
}

type filePresentation struct {
	set    *media.Set
	opts   Options
	logger *log.Logger
	*runner
}

func (p *filePresentation) Describe() string {
	return fmt.Sprintf("%s (%d files)", p.set.Kind, len(p.set.Files))
}

// mostRecentPath is the single file shown by single-file variants.
func (p *filePresentation) mostRecentPath() string {
	return filepath.Join(p.set.Root, p.set.MostRecent)
}

// writeList writes the full pathnames of every member, sorted by name, into
// a temporary playlist file. The caller removes it after the player exits.
func (p *filePresentation) writeList(pattern string) (string, error) {
	tf, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	for _, name := range p.set.Names() {
		if _, err := fmt.Fprintln(tf, filepath.Join(p.set.Root, name)); err != nil {
			tf.Close()
			os.Remove(tf.Name())
			return "", err
		}
	}
	if err := tf.Close(); err != nil {
		os.Remove(tf.Name())
		return "", err
	}
	return tf.Name(), nil
}

func (p *filePresentation) abort(queue *player.Queue, err error) {
	p.logger.Printf("%s: preparing presentation failed: %v", p.set.Root, err)
	queue.Push(player.CmdPlayerExited)
}

type imagePresentation struct {
	filePresentation
}

func (p *imagePresentation) Run(queue *player.Queue) {
	p.logger.Printf("image presentation of %d images", len(p.set.Files))
	list, err := p.writeList("skylt-images-*.txt")
	if err != nil {
		p.abort(queue, err)
		return
	}
	defer os.Remove(list)

	delay := strconv.FormatFloat(p.opts.PhotoSeconds, 'f', -1, 64)
	p.play(queue, "feh", "-f", list, "-F", "-Y", "-D", delay)
}

type videoPresentation struct {
	filePresentation
}

func (p *videoPresentation) Run(queue *player.Queue) {
	p.logger.Printf("video presentation of %d videos", len(p.set.Files))
	list, err := p.writeList("skylt-videos-*.vlc")
	if err != nil {
		p.abort(queue, err)
		return
	}
	defer os.Remove(list)

	p.play(queue, "cvlc", "--no-audio", "--loop", "--fullscreen",
		"--video-on-top", "--no-video-title-show", list)
}

type documentPresentation struct {
	filePresentation
}

func (p *documentPresentation) Run(queue *player.Queue) {
	pathname := p.mostRecentPath()
	p.logger.Printf("%s: document presentation", pathname)
	if err := p.prepareViewerState(); err != nil {
		p.abort(queue, err)
		return
	}
	p.play(queue, "okular", "--presentation", "--", pathname)
}

// prepareViewerState configures okular for an unattended looping slideshow
// and wipes its per-document resume state, so playback always starts at the
// first page instead of where a previous run left off.
func (p *documentPresentation) prepareViewerState() error {
	if err := os.MkdirAll(p.opts.ConfigHome, 0o755); err != nil {
		return err
	}

	partrc := fmt.Sprintf("[Core Presentation]\n"+
		"SlidesAdvance=true\n"+
		"SlidesAdvanceTime=%d\n"+
		"SlidesLoop=true\n"+
		"[Dlg Presentation]\n"+
		"SlidesShowProgress=false\n", p.opts.SlideSeconds)
	if err := os.WriteFile(filepath.Join(p.opts.ConfigHome, "okularpartrc"), []byte(partrc), 0o644); err != nil {
		return err
	}

	// Silence the first-run presentation-mode notice.
	kmessagebox := "[General]\npresentationInfo=4\n"
	if err := os.WriteFile(filepath.Join(p.opts.ConfigHome, "okular.kmessagebox"), []byte(kmessagebox), 0o644); err != nil {
		return err
	}

	return os.RemoveAll(filepath.Join(p.opts.DataHome, "okular", "docdata"))
}

type slidesPresentation struct {
	filePresentation
}

func (p *slidesPresentation) Run(queue *player.Queue) {
	pathname := p.mostRecentPath()
	p.logger.Printf("%s: slide deck presentation", pathname)
	p.play(queue, "loimpress", "--nodefault", "--norestore", "--nologo",
		"--nolockcheck", "--show", pathname)
}

// emptyPresentation shows nothing. It has no subprocess: Run parks on an
// internal signal and Stop fulfills it directly. A stop requested before Run
// makes Run return right away instead of parking forever.
type emptyPresentation struct {
	logger *log.Logger

	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

func (p *emptyPresentation) Run(queue *player.Queue) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	p.logger.Printf("starting the empty presentation, doing nothing")
	<-done
	p.logger.Printf("empty presentation stopped")
}

func (p *emptyPresentation) Stop() error {
	p.mu.Lock()
	p.stopped = true
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
	return nil
}

func (p *emptyPresentation) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

func (p *emptyPresentation) Describe() string {
	return "empty"
}
