// Package rpmparse is the "given a path, yield a populated metadata
// record" collaborator spec.md §6 declares external to the indexing
// engine. It wraps the teacher's own header-reading dependency,
// github.com/cavaliergopher/rpm, and is the one package in this module
// whose correctness the spec explicitly does not ask us to own.
package rpmparse

import (
	"fmt"
	"os"

	"github.com/cavaliergopher/rpm"
	"github.com/luochenglcs/createrepo-go/internal/checksum"
	"github.com/luochenglcs/createrepo-go/internal/model"
)

// Parse reads the RPM header at path and returns a populated
// PackageRecord. checksumType selects the pkgid digest algorithm; href
// and base become the record's location fields; changelogLimit bounds
// how many changelog entries are retained (0 means unbounded).
func Parse(path string, checksumType model.ChecksumType, href, base string, changelogLimit int) (*model.PackageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rpmparse: open %s: %w", path, err)
	}
	defer f.Close()

	pkg, err := rpm.Read(f)
	if err != nil {
		return nil, fmt.Errorf("rpmparse: read header %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("rpmparse: stat %s: %w", path, err)
	}

	sum, err := checksum.File(path, checksumType)
	if err != nil {
		return nil, fmt.Errorf("rpmparse: checksum %s: %w", path, err)
	}

	rec := &model.PackageRecord{
		Name:         pkg.Name(),
		Epoch:        epochString(pkg.Epoch()),
		Version:      pkg.Version(),
		Release:      pkg.Release(),
		Arch:         pkg.Architecture(),
		Checksum:     sum,
		ChecksumType: checksumType,
		SizePackage:  info.Size(),
		TimeFile:     info.ModTime().Unix(),
		TimeBuild:    pkg.BuildTime().Unix(),
		Summary:      pkg.Summary(),
		Description:  pkg.Description(),
		Packager:     pkg.Packager(),
		URL:          pkg.URL(),
		License:      pkg.License(),
		Group:        pkg.Group(),
		Vendor:       pkg.Vendor(),
		BuildHost:    pkg.BuildHost(),
		SourceRPM:    pkg.SourceRPM(),
		LocationHref: href,
		LocationBase: base,
	}

	rec.Provides = convertDeps(pkg.Provides())
	rec.Requires = convertDeps(pkg.Requires())
	rec.Conflicts = convertDeps(pkg.Conflicts())
	rec.Obsoletes = convertDeps(pkg.Obsoletes())

	for _, pf := range pkg.Files() {
		ft := model.FileTypeFile
		if pf.IsDir() {
			ft = model.FileTypeDir
		} else if pf.Flags()&rpm.FileFlagGhost != 0 {
			ft = model.FileTypeGhost
		}
		rec.Files = append(rec.Files, model.FileEntry{Path: pf.Name(), Type: ft})
	}

	changelog := pkg.ChangeLog()
	if changelogLimit > 0 && len(changelog) > changelogLimit {
		changelog = changelog[:changelogLimit]
	}
	for _, c := range changelog {
		rec.Changelog = append(rec.Changelog, model.ChangelogEntry{
			Author: c.Name(),
			Date:   c.Time().Unix(),
			Text:   c.Text(),
		})
	}

	return rec, nil
}

func epochString(e int) string {
	if e == 0 {
		return ""
	}
	return fmt.Sprintf("%d", e)
}

func convertDeps(deps []rpm.Dependency) []model.DepSpec {
	out := make([]model.DepSpec, 0, len(deps))
	for _, d := range deps {
		out = append(out, model.DepSpec{
			Name:    d.Name(),
			Flag:    d.Flags().String(),
			Epoch:   epochString(d.Epoch()),
			Version: d.Version(),
			Release: d.Release(),
			Pre:     d.Flags()&rpm.DepFlagPre != 0,
		})
	}
	return out
}
