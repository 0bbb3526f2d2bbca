// Package orchestrator wires the walker, cache, sink trio, worker pool,
// and finalizer into one indexing run (spec.md §4.G). This is the
// generalization of the teacher's cmd/godnf/install.go top-level
// function: that file drove a fixed sequence (resolve repo -> fetch db ->
// resolve deps -> download -> install) for one client operation; this
// orchestrator drives the analogous fixed sequence for building a
// repository instead of consuming one.
package orchestrator

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/luochenglcs/createrepo-go/internal/cache"
	"github.com/luochenglcs/createrepo-go/internal/checksum"
	"github.com/luochenglcs/createrepo-go/internal/compressio"
	"github.com/luochenglcs/createrepo-go/internal/config"
	"github.com/luochenglcs/createrepo-go/internal/cralog"
	"github.com/luochenglcs/createrepo-go/internal/finalize"
	"github.com/luochenglcs/createrepo-go/internal/guard"
	"github.com/luochenglcs/createrepo-go/internal/mdsqlite"
	"github.com/luochenglcs/createrepo-go/internal/metrics"
	"github.com/luochenglcs/createrepo-go/internal/model"
	"github.com/luochenglcs/createrepo-go/internal/pool"
	"github.com/luochenglcs/createrepo-go/internal/progress"
	"github.com/luochenglcs/createrepo-go/internal/sink"
	"github.com/luochenglcs/createrepo-go/internal/walker"
)

// stagingDirName is the fixed name of the in-progress output directory.
// Its creation is the cross-process lock (spec.md §4.G, §5): a fixed
// name with create-if-not-exists semantics means a second concurrent run
// against the same output directory fails fast instead of silently
// clobbering the first one's work.
const stagingDirName = ".repodata"

// Run executes one full indexing pass: discover packages, optionally load
// the artifact cache, open the sink trio in a fresh staging directory, fan
// out parsing across the worker pool, close the sinks, and publish.
func Run(ctx context.Context, cfg config.Config) error {
	if err := cralog.Configure(cfg.Quiet, cfg.Verbose, cfg.LogFile); err != nil {
		return xerrors.Errorf("orchestrator: configure logging: %w", err)
	}

	g := guard.New()
	defer g.Stop()

	pkgList, err := loadPkgList(cfg.PkgListFile)
	if err != nil {
		return xerrors.Errorf("orchestrator: %w", err)
	}

	tasks, err := walker.Walk(walker.Options{
		Root:         cfg.InDir,
		SkipSymlinks: cfg.SkipSymlinks,
		Excludes:     cfg.Excludes,
		PkgList:      pkgList,
	})
	if err != nil {
		return xerrors.Errorf("orchestrator: walk: %w", err)
	}
	cralog.L.Info("orchestrator: discovered %d packages under %s", len(tasks), cfg.InDir)

	// Loading prior metadata as a cache only happens under --update,
	// matching original_source/src/createrepo_c.c's cmd_options->update
	// gate: without it, every run indexes fresh, and a pre-existing
	// repodata/ the operator happens to have lying around must never be
	// silently reused.
	var c *cache.Cache
	if cfg.Update {
		c = cache.Load(cache.Options{
			OutputDir:    cfg.OutDir,
			InputDir:     cfg.InDir,
			UpdateMDPath: cfg.UpdateMDPath,
			ChecksumType: cfg.ChecksumType,
			TrustMtime:   cfg.SkipStat,
		})
		cralog.L.Debug("orchestrator: cache primed with %d prior records", c.Len())
	}

	staging := filepath.Join(cfg.OutDir, stagingDirName)
	if err := os.Mkdir(staging, 0755); err != nil {
		if os.IsExist(err) {
			return xerrors.Errorf("orchestrator: staging dir %s already exists (another run in progress?): %w", staging, err)
		}
		return xerrors.Errorf("orchestrator: create staging dir %s: %w", staging, err)
	}
	g.SetStaging(staging)

	if cfg.GroupFile != "" {
		if err := copyGroupFile(cfg.GroupFile, staging); err != nil {
			os.RemoveAll(staging)
			g.SetStaging("")
			return xerrors.Errorf("orchestrator: copy groupfile: %w", err)
		}
	}

	paths := sink.Paths{
		PrimaryXML:   filepath.Join(staging, "primary.xml"+compressio.Suffix(cfg.Compression)),
		FilelistsXML: filepath.Join(staging, "filelists.xml"+compressio.Suffix(cfg.Compression)),
		OtherXML:     filepath.Join(staging, "other.xml"+compressio.Suffix(cfg.Compression)),
	}
	if cfg.Database {
		paths.PrimaryDB = filepath.Join(staging, "primary.sqlite")
		paths.FilelistsDB = filepath.Join(staging, "filelists.sqlite")
		paths.OtherDB = filepath.Join(staging, "other.sqlite")
	}

	trio, err := sink.Open(paths, cfg.Compression, len(tasks))
	if err != nil {
		return xerrors.Errorf("orchestrator: open sinks: %w", err)
	}

	var reg *metrics.Registry
	if cfg.MetricsAddr != "" {
		reg = metrics.New()
		go func() {
			if err := reg.Serve(cfg.MetricsAddr); err != nil {
				cralog.L.Warn("orchestrator: metrics server stopped: %v", err)
			}
		}()
	}

	bar := progress.New(len(tasks), cfg.Quiet, os.Stderr)

	poolErr := pool.Run(ctx, tasks, trio, cfg.LocationBase, pool.Options{
		Workers:        cfg.Workers,
		ChecksumType:   cfg.ChecksumType,
		ChangelogLimit: cfg.ChangelogLimit,
		Cache:          c,
		Progress:       bar,
		Metrics:        reg,
	})
	bar.Finish()

	if closeErr := trio.Close(); closeErr != nil && poolErr == nil {
		poolErr = closeErr
	}
	if poolErr != nil {
		os.RemoveAll(staging)
		g.SetStaging("")
		return xerrors.Errorf("orchestrator: %w", poolErr)
	}

	if err := publish(staging, cfg, paths); err != nil {
		return err
	}
	g.SetStaging("")
	return nil
}

func publish(staging string, cfg config.Config, paths sink.Paths) error {
	artifacts := []finalize.Artifact{
		{Type: "primary", RelPath: filepath.Base(paths.PrimaryXML)},
		{Type: "filelists", RelPath: filepath.Base(paths.FilelistsXML)},
		{Type: "other", RelPath: filepath.Base(paths.OtherXML)},
	}

	if cfg.Database {
		for _, p := range []struct {
			typ, path, xmlPath string
		}{
			{"primary_db", paths.PrimaryDB, paths.PrimaryXML},
			{"filelists_db", paths.FilelistsDB, paths.FilelistsXML},
			{"other_db", paths.OtherDB, paths.OtherXML},
		} {
			if err := compressAndStampDB(p.path, p.xmlPath, cfg.ChecksumType, cfg.Compression); err != nil {
				return xerrors.Errorf("orchestrator: finalize %s: %w", p.typ, err)
			}
			artifacts = append(artifacts, finalize.Artifact{
				Type:    p.typ,
				RelPath: filepath.Base(p.path) + compressio.Suffix(cfg.Compression),
			})
		}
	}

	if cfg.GroupFile != "" {
		groupArtifacts, err := publishGroupFile(staging, cfg.GroupFile, cfg.Compression)
		if err != nil {
			return xerrors.Errorf("orchestrator: finalize groupfile: %w", err)
		}
		artifacts = append(artifacts, groupArtifacts...)
	}

	return finalize.Publish(artifacts, finalize.Options{
		StagingDir:        staging,
		OutDir:            cfg.OutDir,
		ChecksumType:      cfg.ChecksumType,
		UniqueMDFilenames: cfg.UniqueMDFilenames,
	})
}

// copyGroupFile stages the operator-supplied group file under its own
// basename, ahead of the pool run, so it survives the swap alongside the
// generated artifacts (spec.md §4.E step 5).
func copyGroupFile(src, stagingDir string) error {
	in, err := os.Open(src)
	if err != nil {
		return xerrors.Errorf("open groupfile %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(stagingDir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return xerrors.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return xerrors.Errorf("copy groupfile to %s: %w", dst, err)
	}
	return nil
}

// publishGroupFile produces, alongside the uncompressed group file already
// staged by copyGroupFile, a compressed copy, and returns repomd artifacts
// for both (spec.md §4.E step 5: "one repomd record for the uncompressed
// form and one for a compressed copy"). Unlike compressAndStampDB's
// compress-then-delete-original handling of the sqlite artifacts, the
// group file's uncompressed form is itself a published artifact and must
// survive alongside the compressed one.
func publishGroupFile(stagingDir, groupFile string, compression model.CompressionType) ([]finalize.Artifact, error) {
	name := filepath.Base(groupFile)
	plainPath := filepath.Join(stagingDir, name)
	compressedName := name + compressio.Suffix(compression)
	compressedPath := filepath.Join(stagingDir, compressedName)

	in, err := os.Open(plainPath)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	out, err := compressio.Create(compressedPath, compression)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, err
	}

	return []finalize.Artifact{
		{Type: "group", RelPath: name},
		{Type: "group_gz", RelPath: compressedName},
	}, nil
}

// compressAndStampDB writes the checksum of the matching compressed XML
// document (xmlPath) into a closed sqlite database's db_info row, then
// compresses the database in place with the configured algorithm, before
// publication, matching the teacher's C ancestor's
// dbinfo_update-then-compress ordering for the *_db artifacts.
func compressAndStampDB(path, xmlPath string, checksumType model.ChecksumType, compression model.CompressionType) error {
	sum, err := checksum.File(xmlPath, checksumType)
	if err != nil {
		return err
	}
	if err := mdsqlite.UpdateChecksum(path, sum); err != nil {
		return err
	}
	_, err = compressio.CompressFile(path, compression)
	return err
}

func loadPkgList(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("read pkglist %s: %w", path, err)
	}
	var out []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			line := string(data[start:i])
			if line != "" {
				out = append(out, line)
			}
			start = i + 1
		}
	}
	if start < len(data) {
		if line := string(data[start:]); line != "" {
			out = append(out, line)
		}
	}
	return out, nil
}
