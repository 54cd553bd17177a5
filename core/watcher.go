package core

import (
	"os"
	"sync"
	"time"
)

// Watcher polls a file and calls onChange whenever its size or modification
// time moves. A file that disappears is ignored until it comes back.
type Watcher struct {
	path     string
	interval time.Duration
	onChange func(path string)

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

func NewWatcher(path string, interval time.Duration, onChange func(path string)) *Watcher {
	return &Watcher{
		path:     path,
		interval: interval,
		onChange: onChange,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start records the file's current state and begins polling.
func (w *Watcher) Start() {
	var size int64
	var mod time.Time
	if info, err := os.Stat(w.path); err == nil {
		size, mod = info.Size(), info.ModTime()
	}
	go w.pollLoop(size, mod)
}

// Stop ends polling and waits for the loop to exit. It is safe to call more
// than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	<-w.done
}

func (w *Watcher) pollLoop(lastSize int64, lastMod time.Time) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if info.Size() == lastSize && info.ModTime().Equal(lastMod) {
				continue
			}
			lastSize, lastMod = info.Size(), info.ModTime()
			w.onChange(w.path)
		}
	}
}
