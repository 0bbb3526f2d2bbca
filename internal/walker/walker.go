// Package walker implements the two mutually exclusive package-discovery
// modes from spec.md §4.C. Recursive mode is a breadth-first traversal
// using an explicit queue (never recursion), ported from the teacher's C
// ancestor's GQueue-based walk in original_source/src/createrepo_c.c — the
// teacher's own Go code (repodata/parserepo.go) instead used a recursive
// filepath.Walk, which the spec explicitly disallows.
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

const archiveSuffix = ".rpm"

// Options configures one walk.
type Options struct {
	Root         string   // absolute path to the scanned directory
	SkipSymlinks bool
	Excludes     []string // glob patterns matched against the repo-relative path
	PkgList      []string // when non-empty, explicit-list mode: repo-relative paths
}

// Walk runs the configured traversal and returns every admitted task. It
// must run to completion before the sink trio opens, since the package
// count is required by the XML preamble (spec.md §4.C).
func Walk(opts Options) ([]model.PackageTask, error) {
	if len(opts.PkgList) > 0 {
		return walkExplicit(opts)
	}
	return walkRecursive(opts)
}

func walkRecursive(opts Options) ([]model.PackageTask, error) {
	var tasks []model.PackageTask

	// Explicit FIFO queue of directories left to scan — spec.md §4.C
	// requires this, not recursion, so that arbitrarily deep trees never
	// grow the call stack.
	queue := []string{opts.Root}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("walker: read dir %s: %w", dir, err)
		}

		for _, entry := range entries {
			full := filepath.Join(dir, entry.Name())

			if entry.IsDir() {
				queue = append(queue, full)
				continue
			}

			if !strings.HasSuffix(entry.Name(), archiveSuffix) {
				continue
			}

			if opts.SkipSymlinks {
				if info, err := os.Lstat(full); err == nil && info.Mode()&os.ModeSymlink != 0 {
					continue
				}
			}

			relDir, err := filepath.Rel(opts.Root, dir)
			if err != nil {
				return nil, fmt.Errorf("walker: rel %s: %w", dir, err)
			}
			if relDir == "." {
				relDir = ""
			}
			relPath := filepath.Join(relDir, entry.Name())

			if excluded(relPath, opts.Excludes) {
				continue
			}

			tasks = append(tasks, model.PackageTask{
				FullPath: full,
				Filename: entry.Name(),
				RelDir:   relDir,
			})
		}
	}

	return tasks, nil
}

func walkExplicit(opts Options) ([]model.PackageTask, error) {
	var tasks []model.PackageTask

	for _, relPath := range opts.PkgList {
		filename := filepath.Base(relPath)

		if excluded(relPath, opts.Excludes) {
			continue
		}

		tasks = append(tasks, model.PackageTask{
			FullPath: filepath.Join(opts.Root, relPath),
			Filename: filename,
			RelDir:   filepath.Dir(relPath),
		})
	}

	return tasks, nil
}

func excluded(relPath string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := filepath.Match(pat, relPath); ok {
			return true
		}
		// Also match against the basename, so a mask like "*-debug-*.rpm"
		// hits regardless of which subdirectory the package lives in.
		if ok, _ := filepath.Match(pat, filepath.Base(relPath)); ok {
			return true
		}
	}
	return false
}
