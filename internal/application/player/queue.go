package player

import "sync"

// Command is a control token consumed by the supervisor loop.
type Command string

const (
	CmdRescan       Command = "rescan"
	CmdPlayerExited Command = "player-exited"
	CmdQuit         Command = "quit"
)

// Queue is the supervisor command queue: unbounded FIFO, many producers, one
// consumer. Push never blocks, so signal handlers, watchers and presentation
// goroutines can publish from anywhere.
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []Command
}

// NewQueue creates an empty command queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a command without blocking.
func (q *Queue) Push(cmd Command) {
	q.mu.Lock()
	q.items = append(q.items, cmd)
	q.cond.Signal()
	q.mu.Unlock()
}

// Pop blocks until a command is available and returns the oldest one.
func (q *Queue) Pop() Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	cmd := q.items[0]
	q.items = q.items[1:]
	return cmd
}

// Len reports how many commands are waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
