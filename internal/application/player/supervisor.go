package player

import (
	"log"
	"sync"

	"skylt/internal/domain/media"
)

// Supervisor owns the single active presentation and drives the
// select / run / stop cycle. It is the sole consumer of the command queue;
// everything else only produces tokens.
type Supervisor struct {
	queue    *Queue
	drop     Library
	current  Library
	logo     Library
	builder  Builder
	notifier Notifier
	syncers  []ReplicaSyncer
	logger   *log.Logger

	mu         sync.Mutex
	active     Presentation
	activeSet  *media.Set
	generation uint64
}

// NewSupervisor wires the supervisor with its collaborator ports.
func NewSupervisor(queue *Queue, drop, current, logo Library, builder Builder, notifier Notifier, syncers []ReplicaSyncer, logger *log.Logger) *Supervisor {
	return &Supervisor{
		queue:    queue,
		drop:     drop,
		current:  current,
		logo:     logo,
		builder:  builder,
		notifier: notifier,
		syncers:  syncers,
		logger:   logger,
	}
}

// Queue returns the command queue producers publish into.
func (s *Supervisor) Queue() *Queue {
	return s.queue
}

// Run executes the supervisor loop until a quit command arrives. One loop
// iteration is one generation: select a presentation, start it in the
// background, notify admin clients, then block on the next command.
func (s *Supervisor) Run() error {
	for {
		pres := s.selectPresentation()
		go pres.Run(s.queue)
		s.notifier.TriggerReload()

		cmd := s.queue.Pop()
		s.logger.Printf("queue command: %s", cmd)
		switch cmd {
		case CmdRescan:
			s.stopActive(pres)
		case CmdPlayerExited:
			// The viewer ended on its own; re-select immediately.
		case CmdQuit:
			s.stopActive(pres)
			s.setActive(nil, nil)
			s.logger.Printf("supervisor stopped")
			return nil
		default:
			s.logger.Printf("unexpected queue command %q, rescanning", cmd)
			s.stopActive(pres)
		}
	}
}

// stopActive ends the generation that owns pres. Stop is called
// unconditionally: the presentation goroutine may not have spawned its viewer
// yet when the next command arrives, and Stop is what forestalls that spawn.
func (s *Supervisor) stopActive(pres Presentation) {
	if err := pres.Stop(); err != nil {
		s.logger.Printf("stopping %s failed: %v", pres.Describe(), err)
	}
}

// selectPresentation applies the selection policy: drop directory first
// (relocating its content into "current" and kicking off replica sync), then
// the previously selected "current" content, then the logo fallback, and
// finally the empty presentation.
func (s *Supervisor) selectPresentation() Presentation {
	if set := s.scan(s.drop); !set.Empty() {
		// In-flight transfers must be gone before the content directory is
		// rewritten, or a stale job could mark the new generation synced.
		s.cancelReplicaSync()
		if err := s.drop.MoveAssetsTo(s.current); err != nil {
			s.logger.Printf("%s: relocating assets to %s failed: %v", s.drop.Path(), s.current.Path(), err)
		} else {
			s.syncReplicas()
			return s.start(set.Rebase(s.current.Path()))
		}
	}

	s.logger.Printf("%s: no media found, trying an old current dir", s.drop.Path())
	if set := s.scan(s.current); !set.Empty() {
		s.syncReplicas()
		return s.start(set)
	}

	s.logger.Printf("%s: no media found, trying logo", s.current.Path())
	if set := s.scan(s.logo); !set.Empty() {
		return s.start(set)
	}

	s.logger.Printf("%s: no media found, doing nothing", s.logo.Path())
	pres := s.builder.Empty()
	s.setActive(pres, nil)
	return pres
}

func (s *Supervisor) scan(lib Library) *media.Set {
	set, err := lib.Scan()
	if err != nil {
		s.logger.Printf("%s: scan failed: %v", lib.Path(), err)
		return nil
	}
	return set
}

func (s *Supervisor) start(set *media.Set) Presentation {
	pres := s.builder.Build(set)
	s.setActive(pres, set)
	return pres
}

func (s *Supervisor) syncReplicas() {
	for _, syncer := range s.syncers {
		syncer.Rescan()
	}
}

func (s *Supervisor) cancelReplicaSync() {
	for _, syncer := range s.syncers {
		syncer.Cancel()
	}
}

func (s *Supervisor) setActive(pres Presentation, set *media.Set) {
	s.mu.Lock()
	s.active = pres
	s.activeSet = set
	if pres != nil {
		s.generation++
	}
	s.mu.Unlock()
}

// Status describes the current generation for the admin surface.
type Status struct {
	State      string   `json:"state"`
	Kind       string   `json:"kind,omitempty"`
	Files      []string `json:"files,omitempty"`
	Generation uint64   `json:"generation"`
}

// Status reports what is currently on screen.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{State: "stopped", Generation: s.generation}
	if s.active == nil {
		return status
	}
	status.State = "empty"
	if s.activeSet != nil {
		status.State = "running"
		status.Kind = s.activeSet.Kind.String()
		status.Files = s.activeSet.Names()
	}
	return status
}
