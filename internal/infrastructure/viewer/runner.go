package viewer

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"skylt/internal/application/player"
)

const (
	stopPollInterval = 200 * time.Millisecond
	stopPolitePolls  = 10
)

// runner owns one external viewer subprocess: launch wrapped in the
// keep-display-awake command, wait for exit, and the polite-then-forceful
// termination sequence shared by all presentation variants.
type runner struct {
	keepAwake []string
	logger    *log.Logger

	mu            sync.Mutex
	cmd           *exec.Cmd
	done          chan struct{}
	stopRequested bool
}

func (r *runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cmd != nil
}

// play launches argv under the keep-awake wrapper in its own process group
// and blocks until the player exits. A stop requested before the spawn
// forestalls it, so Stop and a not-yet-started run never race into two live
// viewers. When the exit was not requested through Stop, a player-exited
// token is published so the supervisor re-selects.
func (r *runner) play(queue *player.Queue, argv ...string) {
	full := append(append([]string{}, r.keepAwake...), argv...)

	r.mu.Lock()
	done := make(chan struct{})
	r.done = done
	defer close(done)
	if r.stopRequested {
		r.mu.Unlock()
		r.logger.Printf("stop requested before player start, not starting")
		return
	}

	r.logger.Printf("run %s", strings.Join(full, " "))
	cmd := exec.Command(full[0], full[1:]...)
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		r.mu.Unlock()
		r.logger.Printf("starting player failed: %v", err)
		queue.Push(player.CmdPlayerExited)
		return
	}
	r.cmd = cmd
	r.mu.Unlock()

	pid := cmd.Process.Pid
	r.logger.Printf("player %d started", pid)
	err := cmd.Wait()

	r.mu.Lock()
	r.cmd = nil
	stopped := r.stopRequested
	r.mu.Unlock()

	if err != nil {
		r.logger.Printf("player %d exited: %v", pid, err)
	} else {
		r.logger.Printf("player %d exited with return code 0", pid)
	}

	if !stopped {
		queue.Push(player.CmdPlayerExited)
	}
}

// Stop asks the player's process group to terminate and blocks until it is
// confirmed gone: SIGTERM first, polled every 200ms, escalating to SIGKILL
// after ten polls so Stop always completes even when the viewer ignores the
// polite signal. Called before the run has spawned its viewer, Stop marks the
// request so play declines to start; a run already dispatched is waited out.
func (r *runner) Stop() error {
	r.mu.Lock()
	r.stopRequested = true
	cmd, done := r.cmd, r.done
	r.mu.Unlock()

	if cmd == nil {
		if done != nil {
			<-done
		}
		return nil
	}

	// Setpgid makes the child the leader of its own group, so the group id
	// equals its pid and the signal reaches the wrapper and the player both.
	pgid := cmd.Process.Pid
	r.logger.Printf("stopping player %d", pgid)
	if err := syscall.Kill(-pgid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signalling player group %d: %w", pgid, err)
	}

	for polls := 0; ; polls++ {
		select {
		case <-done:
			r.logger.Printf("player %d stopped", pgid)
			return nil
		case <-time.After(stopPollInterval):
		}
		if polls == stopPolitePolls {
			r.logger.Printf("player %d ignored the stop request, killing", pgid)
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		}
	}
}
