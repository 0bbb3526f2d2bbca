// Package guard implements the interrupt-safe staging cleanup (spec.md
// §4.F): a process-wide record of the current staging directory, removed
// on SIGINT/SIGTERM before the process exits. Ported from the teacher's C
// ancestor's sigint_handler in original_source/src/createrepo_c.c, which
// called remove_dir(tmp_repodata_path) from inside the handler itself;
// here the handler only signals a goroutine, since doing file I/O
// directly inside a Go signal handler is not the idiom the stdlib's own
// os/signal docs recommend.
package guard

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/luochenglcs/createrepo-go/internal/cralog"
)

// Guard tracks the current staging directory so an interrupt can remove
// it before the process dies mid-publish.
type Guard struct {
	mu      sync.Mutex
	staging string

	sigCh chan os.Signal
	done  chan struct{}
}

// New installs a SIGINT/SIGTERM handler and returns a Guard. Call Stop
// when the run finishes normally to release the signal registration.
func New() *Guard {
	g := &Guard{
		sigCh: make(chan os.Signal, 1),
		done:  make(chan struct{}),
	}
	signal.Notify(g.sigCh, os.Interrupt, syscall.SIGTERM)
	go g.watch()
	return g
}

func (g *Guard) watch() {
	select {
	case sig := <-g.sigCh:
		cralog.L.Warn("guard: received %v, cleaning up staging directory", sig)
		g.cleanup()
		os.Exit(1)
	case <-g.done:
	}
}

func (g *Guard) cleanup() {
	g.mu.Lock()
	dir := g.staging
	g.mu.Unlock()

	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		cralog.L.Error("guard: failed to remove staging dir %s: %v", dir, err)
		return
	}
	cralog.L.Info("guard: removed staging dir %s", dir)
}

// SetStaging records the staging directory currently being written to, or
// clears it by passing "". Call with "" as soon as the directory has been
// published or removed through the normal control flow, so a signal
// arriving afterward does nothing.
func (g *Guard) SetStaging(dir string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.staging = dir
}

// Stop releases the signal registration. Safe to call once, after which
// an interrupt falls through to Go's default handling.
func (g *Guard) Stop() {
	signal.Stop(g.sigCh)
	close(g.done)
}
