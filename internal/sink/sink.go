// Package sink implements the output sink trio (spec.md §4.A): three
// independent compressed XML streams plus three optional sqlite writers,
// each guarded by its own mutex. This is the central concurrency decision
// of the engine — three independent critical sections, never one combined
// lock — ported from the teacher's C ancestor's G_LOCK(LOCK_PRI) /
// G_LOCK(LOCK_FIL) / G_LOCK(LOCK_OTH) pattern in
// original_source/src/createrepo_c.c.
package sink

import (
	"fmt"
	"sync"

	"github.com/luochenglcs/createrepo-go/internal/compressio"
	"github.com/luochenglcs/createrepo-go/internal/mdsqlite"
	"github.com/luochenglcs/createrepo-go/internal/mdxml"
	"github.com/luochenglcs/createrepo-go/internal/model"
)

type stream struct {
	doc string // "primary" | "filelists" | "other"
	mu  sync.Mutex
	cw  *compressio.WriteCloser
	db  *mdsqlite.Writer

	err error // first write error observed on this stream
}

// Trio is the three-stream output sink. Workers call Write once per
// PackageRecord; the orchestrator calls Open once before starting the
// pool and Close once after it drains.
type Trio struct {
	primary   *stream
	filelists *stream
	other     *stream
}

// Paths bundles the three XML artifact paths and, if not nil, the three
// corresponding sqlite paths.
type Paths struct {
	PrimaryXML   string
	FilelistsXML string
	OtherXML     string

	PrimaryDB   string // empty disables sqlite output
	FilelistsDB string
	OtherDB     string
}

// Open creates the three compressed streams (and, if requested, the three
// sqlite databases) and writes each document's opening tag, including the
// packages="N" attribute the walker's final count supplies. No worker may
// be dispatched before Open returns.
func Open(paths Paths, compression model.CompressionType, packages int) (*Trio, error) {
	t := &Trio{
		primary:   &stream{doc: "primary"},
		filelists: &stream{doc: "filelists"},
		other:     &stream{doc: "other"},
	}

	var err error
	if t.primary.cw, err = compressio.Create(paths.PrimaryXML, compression); err != nil {
		return nil, fmt.Errorf("sink: open primary: %w", err)
	}
	if t.filelists.cw, err = compressio.Create(paths.FilelistsXML, compression); err != nil {
		t.primary.cw.Close()
		return nil, fmt.Errorf("sink: open filelists: %w", err)
	}
	if t.other.cw, err = compressio.Create(paths.OtherXML, compression); err != nil {
		t.primary.cw.Close()
		t.filelists.cw.Close()
		return nil, fmt.Errorf("sink: open other: %w", err)
	}

	if paths.PrimaryDB != "" {
		if t.primary.db, err = mdsqlite.NewWriter(paths.PrimaryDB, "primary"); err != nil {
			return nil, fmt.Errorf("sink: open primary db: %w", err)
		}
		if t.filelists.db, err = mdsqlite.NewWriter(paths.FilelistsDB, "filelists"); err != nil {
			return nil, fmt.Errorf("sink: open filelists db: %w", err)
		}
		if t.other.db, err = mdsqlite.NewWriter(paths.OtherDB, "other"); err != nil {
			return nil, fmt.Errorf("sink: open other db: %w", err)
		}
	}

	t.primary.cw.WriteString(mdxml.RootOpen("primary", packages))
	t.filelists.cw.WriteString(mdxml.RootOpen("filelists", packages))
	t.other.cw.WriteString(mdxml.RootOpen("other", packages))

	return t, nil
}

// Write serializes rec and appends its fragment to each of the three
// streams, each under its own independently-acquired-and-released mutex.
// A write failure on one stream is recorded against that stream and does
// not prevent the write to the other two.
func (t *Trio) Write(rec *model.PackageRecord) {
	frags, err := mdxml.Serialize(rec)
	if err != nil {
		t.primary.recordErr(fmt.Errorf("sink: serialize %s: %w", rec.NEVRA(), err))
		return
	}

	t.primary.writeOne(frags.Primary, func() error {
		if t.primary.db == nil {
			return nil
		}
		return t.primary.db.InsertPrimary(rec)
	})
	t.filelists.writeOne(frags.Filelists, func() error {
		if t.filelists.db == nil {
			return nil
		}
		return t.filelists.db.InsertFilelists(rec)
	})
	t.other.writeOne(frags.Other, func() error {
		if t.other.db == nil {
			return nil
		}
		return t.other.db.InsertOther(rec)
	})
}

func (s *stream) writeOne(fragment []byte, insert func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.cw.Write(fragment); err != nil {
		s.recordErrLocked(fmt.Errorf("sink: write %s: %w", s.doc, err))
		return
	}
	if err := insert(); err != nil {
		s.recordErrLocked(fmt.Errorf("sink: insert %s: %w", s.doc, err))
	}
}

func (s *stream) recordErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordErrLocked(err)
}

func (s *stream) recordErrLocked(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Err returns the first error observed across all three streams, if any.
func (t *Trio) Err() error {
	for _, s := range []*stream{t.primary, t.filelists, t.other} {
		s.mu.Lock()
		err := s.err
		s.mu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Close writes each document's closing tag and closes every stream and
// database, in a fixed order. It collects but does not short-circuit on
// individual close errors, returning the first one encountered.
func (t *Trio) Close() error {
	var first error
	record := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}

	for _, s := range []*stream{t.primary, t.filelists, t.other} {
		_, err := s.cw.WriteString(mdxml.RootClose(s.doc))
		record(err)
		record(s.cw.Close())
		if s.db != nil {
			record(s.db.Close())
		}
	}
	return first
}
