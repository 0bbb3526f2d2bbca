package mdparse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luochenglcs/createrepo-go/internal/model"
	"github.com/luochenglcs/createrepo-go/internal/sink"
)

func writeFixtureRepo(t *testing.T, dir string) model.PackageRecord {
	t.Helper()

	rec := model.PackageRecord{
		Name: "bash", Version: "5.2", Release: "1.fc40", Arch: "x86_64",
		Checksum: "cafebabe", ChecksumType: model.ChecksumSHA256,
		Summary:      "The GNU Bourne Again shell",
		LocationHref: "Packages/bash-5.2-1.fc40.x86_64.rpm",
		Files: []model.FileEntry{
			{Path: "/etc/bashrc", Type: model.FileTypeFile},
			{Path: "/usr/bin/bash", Type: model.FileTypeFile},
		},
		Changelog: []model.ChangelogEntry{
			{Author: "Packager <packager@example.com>", Date: 1700000000, Text: "rebuilt"},
		},
	}

	paths := sink.Paths{
		PrimaryXML:   filepath.Join(dir, "repodata", "primary.xml.gz"),
		FilelistsXML: filepath.Join(dir, "repodata", "filelists.xml.gz"),
		OtherXML:     filepath.Join(dir, "repodata", "other.xml.gz"),
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "repodata"), 0755))

	trio, err := sink.Open(paths, model.CompressionGZ, 1)
	require.NoError(t, err)
	trio.Write(&rec)
	require.NoError(t, trio.Err())
	require.NoError(t, trio.Close())

	repomd := `<?xml version="1.0" encoding="UTF-8"?>
<repomd xmlns="http://linux.duke.edu/metadata/repo">
  <data type="primary">
    <checksum type="sha256">x</checksum>
    <location href="repodata/primary.xml.gz"/>
  </data>
  <data type="filelists">
    <checksum type="sha256">x</checksum>
    <location href="repodata/filelists.xml.gz"/>
  </data>
  <data type="other">
    <checksum type="sha256">x</checksum>
    <location href="repodata/other.xml.gz"/>
  </data>
</repomd>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repodata", "repomd.xml"), []byte(repomd), 0644))

	return rec
}

func TestLoadRepomd_ResolvesThreeDocumentPaths(t *testing.T) {
	dir := t.TempDir()
	writeFixtureRepo(t, dir)

	pri, fil, oth, err := LoadRepomd(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "repodata", "primary.xml.gz"), pri)
	require.Equal(t, filepath.Join(dir, "repodata", "filelists.xml.gz"), fil)
	require.Equal(t, filepath.Join(dir, "repodata", "other.xml.gz"), oth)
}

func TestLoadRepository_RoundTripsARecordWrittenByMdxml(t *testing.T) {
	dir := t.TempDir()
	original := writeFixtureRepo(t, dir)

	records, err := LoadRepository(dir)
	require.NoError(t, err)

	got, ok := records["bash-5.2-1.fc40.x86_64.rpm"]
	require.True(t, ok)
	require.Equal(t, original.Name, got.Name)
	require.Equal(t, original.Checksum, got.Checksum)
	require.Equal(t, original.ChecksumType, got.ChecksumType)
	require.ElementsMatch(t, original.Files, got.Files)
	require.Len(t, got.Changelog, 1)
	require.Equal(t, "rebuilt", got.Changelog[0].Text)
}
