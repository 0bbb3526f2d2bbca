// Package cache implements the artifact cache (spec.md §4.B): a lookup
// keyed by package filename that lets the worker pool skip re-parsing an
// RPM header when a prior record for the same file, size, mtime, and
// checksum type is already known. It is loaded from the output dir, the
// input dir and each --update-md-path, merged in the overwrite order the teacher's own
// GetMetadata (repodata/repomd.go) pulled a single remote repomd.xml from,
// generalized here to a list of local directories.
package cache

import (
	"os"

	"github.com/luochenglcs/createrepo-go/internal/cralog"
	"github.com/luochenglcs/createrepo-go/internal/mdparse"
	"github.com/luochenglcs/createrepo-go/internal/model"
)

// entry is one cached record plus the stat fields it was validated against.
type entry struct {
	rec   *model.PackageRecord
	size  int64
	mtime int64
}

// Cache holds previously-indexed records, keyed by package filename.
type Cache struct {
	byName        map[string]entry
	checksumType  model.ChecksumType
	trustMtime    bool // skip re-stat entirely: a name and checksum-type match is enough
}

// Options configures cache construction.
type Options struct {
	OutputDir    string   // previous run's output dir, read first
	InputDir     string   // input package dir, read second (overwrites on conflict)
	UpdateMDPath []string // --update-md-path values, read last, in order given
	ChecksumType model.ChecksumType
	TrustMtime   bool
}

// Load builds a Cache by reading repomd.xml + docs from each configured
// location in turn. A later location's record for the same filename
// overwrites an earlier one, matching spec.md §4.B's --update-md-path
// ordering. Missing or malformed directories are skipped, not fatal: an
// artifact cache is an optimization, never a requirement for a correct run.
func Load(opts Options) *Cache {
	c := &Cache{
		byName:       make(map[string]entry),
		checksumType: opts.ChecksumType,
		trustMtime:   opts.TrustMtime,
	}

	locations := append([]string{opts.OutputDir, opts.InputDir}, opts.UpdateMDPath...)
	for _, dir := range locations {
		if dir == "" {
			continue
		}
		c.mergeFrom(dir)
	}
	return c
}

func (c *Cache) mergeFrom(dir string) {
	records, err := mdparse.LoadRepository(dir)
	if err != nil {
		cralog.L.Debug("cache: no usable metadata under %s: %v", dir, err)
		return
	}
	for name, rec := range records {
		// The staleness baseline is the size/mtime the record was built
		// from on the prior run (rec.SizePackage/rec.TimeFile), not a
		// fresh stat of the package file now — stat-ing here would just
		// reproduce whatever Lookup observes moments later in the same
		// run, making a changed-since-last-run file indistinguishable
		// from an unchanged one.
		c.byName[name] = entry{rec: rec, size: rec.SizePackage, mtime: rec.TimeFile}
	}
}

// Lookup returns a cached record for task if one exists, matches the
// configured checksum type, and (unless trustMtime skip-stat mode is on,
// in which case the cached size/mtime pair is taken on faith) the file's
// current size and mtime still match what the record was built from.
func (c *Cache) Lookup(task model.PackageTask) (*model.PackageRecord, bool) {
	e, ok := c.byName[task.Filename]
	if !ok {
		return nil, false
	}
	if e.rec.ChecksumType != c.checksumType {
		return nil, false
	}

	if c.trustMtime {
		return e.rec, true
	}

	info, err := os.Stat(task.FullPath)
	if err != nil {
		return nil, false
	}
	if info.Size() != e.size || info.ModTime().Unix() != e.mtime {
		return nil, false
	}
	return e.rec, true
}

// Len reports how many entries the cache holds, for diagnostic logging.
func (c *Cache) Len() int {
	return len(c.byName)
}
