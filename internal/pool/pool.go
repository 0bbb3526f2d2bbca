// Package pool runs the bounded-concurrency worker fan-out (spec.md §4.D)
// over the tasks the walker discovered. Bounded concurrency is
// golang.org/x/sync/errgroup's SetLimit, replacing the teacher's own
// sync.WaitGroup + unbounded-goroutine pattern (cmd/godnf/list.go) with
// the idiom the rest of the pack (aquasecurity-trivy-java-db) already
// uses for the same problem.
package pool

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/luochenglcs/createrepo-go/internal/cache"
	"github.com/luochenglcs/createrepo-go/internal/cralog"
	"github.com/luochenglcs/createrepo-go/internal/metrics"
	"github.com/luochenglcs/createrepo-go/internal/model"
	"github.com/luochenglcs/createrepo-go/internal/progress"
	"github.com/luochenglcs/createrepo-go/internal/rpmparse"
	"github.com/luochenglcs/createrepo-go/internal/sink"
)

// Options configures one pool run.
type Options struct {
	Workers        int
	ChecksumType   model.ChecksumType
	ChangelogLimit int
	Cache          *cache.Cache // nil disables the cache lookup entirely
	Progress       *progress.Reporter
	Metrics        *metrics.Registry
}

// parseFn matches rpmparse.Parse's signature; run takes it as a parameter
// rather than calling rpmparse directly so tests can substitute a fake
// parser without touching a real RPM.
type parseFn func(path string, checksumType model.ChecksumType, href, base string, changelogLimit int) (*model.PackageRecord, error)

var defaultParse parseFn = rpmparse.Parse

// Run dispatches one task per worker slot, writing each resulting record
// to trio as soon as it's ready. A single package's parse failure is
// logged as a warning and the task is dropped, never aborting the batch —
// the teacher's own install loop (install/install.go) keeps going after a
// single package's failure instead of aborting, and this preserves that
// shape. Run only fails once every task has finished, and only for
// errors from the sink or the worker context itself.
func Run(ctx context.Context, tasks []model.PackageTask, trio *sink.Trio, locationBase string, opts Options) error {
	return run(ctx, tasks, trio, locationBase, opts, defaultParse)
}

func run(ctx context.Context, tasks []model.PackageTask, trio *sink.Trio, locationBase string, opts Options, parse parseFn) error {
	g, ctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			rec, fromCache, err := resolve(task, locationBase, opts, parse)
			if err != nil {
				cralog.L.Warn("pool: dropping %s: %v", task.Filename, err)
				if opts.Metrics != nil {
					opts.Metrics.IncErrors()
				}
				return nil
			}

			trio.Write(rec)

			if opts.Metrics != nil {
				if fromCache {
					opts.Metrics.IncCacheHits()
				} else {
					opts.Metrics.IncCacheMisses()
				}
				opts.Metrics.IncProcessed()
			}
			if opts.Progress != nil {
				opts.Progress.Increment()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("pool: %w", err)
	}
	return trio.Err()
}

func resolve(task model.PackageTask, locationBase string, opts Options, parse parseFn) (*model.PackageRecord, bool, error) {
	if opts.Cache != nil {
		if rec, ok := opts.Cache.Lookup(task); ok {
			return rec, true, nil
		}
	}

	href := filepath.ToSlash(filepath.Join(task.RelDir, task.Filename))
	rec, err := parse(task.FullPath, opts.ChecksumType, href, locationBase, opts.ChangelogLimit)
	if err != nil {
		return nil, false, err
	}
	return rec, false, nil
}
