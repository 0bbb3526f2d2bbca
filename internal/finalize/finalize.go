// Package finalize implements the publish step (spec.md §4.E): swap the
// staging directory into place, compute repomd records for every
// generated artifact, rename each one to its checksum-prefixed form when
// unique metadata filenames are requested, and emit repomd.xml. The ordering — close databases, move surviving
// non-metadata files out of the old output dir, remove the old dir,
// rename staging into place, only then compute checksums and write
// repomd.xml — is ported directly from original_source/src/createrepo_c.c,
// which the teacher's own Go code never modeled since godnf only ever
// read an existing repo, never published one.
package finalize

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/luochenglcs/createrepo-go/internal/checksum"
	"github.com/luochenglcs/createrepo-go/internal/cralog"
	"github.com/luochenglcs/createrepo-go/internal/mdsqlite"
	"github.com/luochenglcs/createrepo-go/internal/model"
)

// Artifact describes one generated file awaiting a repomd record, prior
// to any checksum-prefixed rename.
type Artifact struct {
	Type         string // "primary", "filelists", "other", "primary_db", ...
	RelPath      string // path relative to the repodata dir, pre-rename
	OpenChecksum string // checksum of the uncompressed payload, if known ("" to skip)
	OpenSize     int64
}

// Options configures one publish.
type Options struct {
	StagingDir        string // the .repodata-style directory being published
	OutDir            string // final repo root (contains/ will contain repodata/)
	ChecksumType      model.ChecksumType
	DBCompression     model.CompressionType // not read by Publish; sqlite compression and db_info stamping happen before Publish
	UniqueMDFilenames bool                  // rename each artifact to <checksum>-<basename>
}

// Publish performs the atomic swap of StagingDir into OutDir/repodata,
// then checksums (and, if configured, renames) every artifact and writes
// repomd.xml.
func Publish(artifacts []Artifact, opts Options) error {
	repodataDir := filepath.Join(opts.OutDir, "repodata")

	if err := swapIn(opts.StagingDir, repodataDir); err != nil {
		return err
	}

	records := make([]model.RepomdRecord, 0, len(artifacts))
	for _, a := range artifacts {
		rec, err := finalizeArtifact(repodataDir, a, opts.ChecksumType, opts.UniqueMDFilenames)
		if err != nil {
			return fmt.Errorf("finalize: %s: %w", a.RelPath, err)
		}
		records = append(records, rec)
	}

	return writeRepomd(repodataDir, records)
}

// swapIn removes dst's old metadata, then renames staging into dst's
// place. Any pre-existing non-metadata files in dst (a repo directory can
// hold more than repodata, e.g. comps files placed by a caller) are
// preserved by moving them into staging first.
func swapIn(staging, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		entries, err := os.ReadDir(dst)
		if err != nil {
			return fmt.Errorf("finalize: read old repodata %s: %w", dst, err)
		}
		for _, e := range entries {
			// Old metadata (repomd.xml and the primary/filelists/other
			// documents and databases, checksum-prefixed or not) stays in
			// dst and is deleted with it below.
			name := e.Name()
			base := name[strings.LastIndex(name, "-")+1:]
			if name == "repomd.xml" || strings.HasPrefix(base, "primary.") ||
				strings.HasPrefix(base, "filelists.") || strings.HasPrefix(base, "other.") {
				continue
			}
			oldPath := filepath.Join(dst, e.Name())
			newPath := filepath.Join(staging, e.Name())
			if err := os.Rename(oldPath, newPath); err != nil {
				cralog.L.Warn("finalize: cannot move %s -> %s: %v", oldPath, newPath, err)
			}
		}
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("finalize: remove old repodata %s: %w", dst, err)
		}
	}

	if err := os.Rename(staging, dst); err != nil {
		return fmt.Errorf("finalize: rename %s -> %s: %w", staging, dst, err)
	}
	cralog.L.Debug("finalize: published %s", dst)
	return nil
}

// finalizeArtifact checksums a.RelPath inside repodataDir and, when
// uniqueNames is set (spec.md §4.E step 6, "--unique-md-filenames"),
// renames it to "<checksum>-<basename>"; otherwise the file keeps its
// plain name. Returns the resulting repomd record either way.
func finalizeArtifact(repodataDir string, a Artifact, checksumType model.ChecksumType, uniqueNames bool) (model.RepomdRecord, error) {
	full := filepath.Join(repodataDir, a.RelPath)

	info, err := os.Stat(full)
	if err != nil {
		return model.RepomdRecord{}, err
	}

	sum, err := checksum.File(full, checksumType)
	if err != nil {
		return model.RepomdRecord{}, err
	}

	name := filepath.Base(a.RelPath)
	if uniqueNames {
		newName := sum + "-" + name
		newFull := filepath.Join(repodataDir, newName)
		if err := os.Rename(full, newFull); err != nil {
			return model.RepomdRecord{}, fmt.Errorf("rename %s -> %s: %w", full, newFull, err)
		}
		name = newName
	}

	return model.RepomdRecord{
		Type:         a.Type,
		Href:         "repodata/" + name,
		Checksum:     sum,
		ChecksumType: checksumType,
		Size:         info.Size(),
		OpenChecksum: a.OpenChecksum,
		OpenSize:     a.OpenSize,
		Timestamp:    info.ModTime().Unix(),
	}, nil
}

// UpdateDBChecksum replaces the db_info row of the uncompressed sqlite
// database at path with the given checksum (see mdsqlite.UpdateChecksum).
// path must name the sqlite file itself, not a compressed copy of it.
func UpdateDBChecksum(path, checksum string) error {
	return mdsqlite.UpdateChecksum(path, checksum)
}

type repomdXML struct {
	XMLName  xml.Name        `xml:"repomd"`
	Xmlns    string          `xml:"xmlns,attr"`
	XmlnsRpm string          `xml:"xmlns:rpm,attr"`
	Revision int64           `xml:"revision"`
	Data     []repomdDataXML `xml:"data"`
}

type repomdDataXML struct {
	Type         string        `xml:"type,attr"`
	Checksum     checksumXML   `xml:"checksum"`
	OpenChecksum *checksumXML  `xml:"open-checksum,omitempty"`
	Location     locationXML   `xml:"location"`
	Timestamp    int64         `xml:"timestamp"`
	Size         int64         `xml:"size"`
	OpenSize     int64         `xml:"open-size,omitempty"`
}

type checksumXML struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type locationXML struct {
	Href string `xml:"href,attr"`
}

func writeRepomd(repodataDir string, records []model.RepomdRecord) error {
	doc := repomdXML{
		Xmlns:    "http://linux.duke.edu/metadata/repo",
		XmlnsRpm: "http://linux.duke.edu/metadata/rpm",
		Revision: time.Now().Unix(),
	}
	for _, r := range records {
		d := repomdDataXML{
			Type:      r.Type,
			Checksum:  checksumXML{Type: string(r.ChecksumType), Value: r.Checksum},
			Location:  locationXML{Href: r.Href},
			Timestamp: r.Timestamp,
			Size:      r.Size,
		}
		if r.OpenChecksum != "" {
			d.OpenChecksum = &checksumXML{Type: string(r.ChecksumType), Value: r.OpenChecksum}
			d.OpenSize = r.OpenSize
		}
		doc.Data = append(doc.Data, d)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("finalize: marshal repomd.xml: %w", err)
	}

	path := filepath.Join(repodataDir, "repomd.xml")
	content := append([]byte(xml.Header), out...)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("finalize: write %s: %w", path, err)
	}
	cralog.L.Info("finalize: wrote %s", path)
	return nil
}
