package sink

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

func readGzip(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer r.Close()

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestTrio_OpenWriteCloseProducesWellFormedDocuments(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		PrimaryXML:   filepath.Join(dir, "primary.xml.gz"),
		FilelistsXML: filepath.Join(dir, "filelists.xml.gz"),
		OtherXML:     filepath.Join(dir, "other.xml.gz"),
	}

	trio, err := Open(paths, model.CompressionGZ, 2)
	require.NoError(t, err)

	trio.Write(&model.PackageRecord{
		Name: "bash", Version: "5.2", Release: "1.fc40", Arch: "x86_64",
		Checksum: "aaaa", ChecksumType: model.ChecksumSHA256,
		LocationHref: "Packages/bash.rpm",
	})
	trio.Write(&model.PackageRecord{
		Name: "coreutils", Version: "9.4", Release: "1.fc40", Arch: "x86_64",
		Checksum: "bbbb", ChecksumType: model.ChecksumSHA256,
		LocationHref: "Packages/coreutils.rpm",
	})

	require.NoError(t, trio.Err())
	require.NoError(t, trio.Close())

	pri := readGzip(t, paths.PrimaryXML)
	require.Contains(t, pri, `packages="2"`)
	require.Contains(t, pri, "<name>bash</name>")
	require.Contains(t, pri, "<name>coreutils</name>")
	require.Contains(t, pri, "</metadata>")

	fil := readGzip(t, paths.FilelistsXML)
	require.Contains(t, fil, "</filelists>")

	oth := readGzip(t, paths.OtherXML)
	require.Contains(t, oth, "</otherdata>")
}

func TestTrio_OpenWithoutDatabasePathsSkipsSqlite(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{
		PrimaryXML:   filepath.Join(dir, "primary.xml.gz"),
		FilelistsXML: filepath.Join(dir, "filelists.xml.gz"),
		OtherXML:     filepath.Join(dir, "other.xml.gz"),
	}

	trio, err := Open(paths, model.CompressionGZ, 0)
	require.NoError(t, err)
	require.Nil(t, trio.primary.db)
	require.NoError(t, trio.Close())
}
