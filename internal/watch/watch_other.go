//go:build !linux

package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Watcher is the portable fallback for platforms without inotify: it polls
// each watched file's mtime. Same onChange contract as the Linux watcher,
// so cmd/soulc's -watch flag doesn't need a build-tagged call site, only a
// build-tagged implementation, mirroring the teacher's own darwin/unix
// filewatcher split.
type Watcher struct {
	mu    sync.Mutex
	files map[string]time.Time

	onChange func(string)
	stop     chan struct{}
}

func New(onChange func(string)) (*Watcher, error) {
	return &Watcher{
		files:    make(map[string]time.Time),
		onChange: onChange,
		stop:     make(chan struct{}),
	}, nil
}

func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.files[absPath] = info.ModTime()
	w.mu.Unlock()
	return nil
}

func (w *Watcher) Run() {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, last := range w.files {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.ModTime().After(last) {
			w.files[path] = info.ModTime()
			w.onChange(path)
		}
	}
}

func (w *Watcher) Close() error {
	close(w.stop)
	return nil
}
