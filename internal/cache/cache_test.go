package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luochenglcs/createrepo-go/internal/model"
	"github.com/luochenglcs/createrepo-go/internal/sink"
)

func TestCache_LookupMissWhenEmpty(t *testing.T) {
	c := Load(Options{ChecksumType: model.ChecksumSHA256})
	_, ok := c.Lookup(model.PackageTask{Filename: "bash-5.2-1.fc40.x86_64.rpm"})
	require.False(t, ok)
}

func TestCache_LookupRejectsMismatchedChecksumType(t *testing.T) {
	c := &Cache{
		byName: map[string]entry{
			"x.rpm": {rec: &model.PackageRecord{ChecksumType: model.ChecksumSHA1}},
		},
		checksumType: model.ChecksumSHA256,
	}
	_, ok := c.Lookup(model.PackageTask{Filename: "x.rpm"})
	require.False(t, ok)
}

func TestCache_LookupHitsOnMatchingSizeAndMtime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.rpm")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	rec := &model.PackageRecord{Name: "x", ChecksumType: model.ChecksumSHA256}
	c := &Cache{
		byName: map[string]entry{
			"x.rpm": {rec: rec, size: info.Size(), mtime: info.ModTime().Unix()},
		},
		checksumType: model.ChecksumSHA256,
	}

	got, ok := c.Lookup(model.PackageTask{Filename: "x.rpm", FullPath: path})
	require.True(t, ok)
	require.Same(t, rec, got)
}

func TestCache_LookupMissesWhenFileChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.rpm")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	c := &Cache{
		byName: map[string]entry{
			"x.rpm": {rec: &model.PackageRecord{ChecksumType: model.ChecksumSHA256}, size: info.Size(), mtime: info.ModTime().Unix()},
		},
		checksumType: model.ChecksumSHA256,
	}

	// Rewrite with different content and a later mtime.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("a different, longer payload"), 0644))

	_, ok := c.Lookup(model.PackageTask{Filename: "x.rpm", FullPath: path})
	require.False(t, ok)
}

// writePriorRepo builds a real repomd-backed repo (as a prior run would
// have left behind) whose single record's SizePackage/TimeFile describe
// the package file's state *at the time that prior run indexed it* — not
// whatever the file looks like now.
func writePriorRepo(t *testing.T, dir string, size int64, mtime int64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "repodata"), 0755))

	rec := &model.PackageRecord{
		Name: "x", ChecksumType: model.ChecksumSHA256,
		LocationHref: "x.rpm", SizePackage: size, TimeFile: mtime,
	}
	paths := sink.Paths{
		PrimaryXML:   filepath.Join(dir, "repodata", "primary.xml.gz"),
		FilelistsXML: filepath.Join(dir, "repodata", "filelists.xml.gz"),
		OtherXML:     filepath.Join(dir, "repodata", "other.xml.gz"),
	}
	trio, err := sink.Open(paths, model.CompressionGZ, 1)
	require.NoError(t, err)
	trio.Write(rec)
	require.NoError(t, trio.Err())
	require.NoError(t, trio.Close())

	repomd := `<?xml version="1.0" encoding="UTF-8"?>
<repomd xmlns="http://linux.duke.edu/metadata/repo">
  <data type="primary"><checksum type="sha256">x</checksum><location href="repodata/primary.xml.gz"/></data>
  <data type="filelists"><checksum type="sha256">x</checksum><location href="repodata/filelists.xml.gz"/></data>
  <data type="other"><checksum type="sha256">x</checksum><location href="repodata/other.xml.gz"/></data>
</repomd>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "repodata", "repomd.xml"), []byte(repomd), 0644))
}

func TestCache_LoadUsesRecordStatsNotLoadTimeStat(t *testing.T) {
	dir := t.TempDir()
	// The prior run saw x.rpm as 5 bytes, modified at a fixed instant.
	priorMtime := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	writePriorRepo(t, dir, 5, priorMtime)

	// The file on disk right now has since been rewritten — different
	// size and a much later mtime — simulating a package changed since
	// the prior run completed, moments before this run's cache loads.
	pkgPath := filepath.Join(dir, "x.rpm")
	require.NoError(t, os.WriteFile(pkgPath, []byte("a much longer payload than before"), 0644))

	c := Load(Options{InputDir: dir, ChecksumType: model.ChecksumSHA256})
	require.Equal(t, 1, c.Len())

	_, ok := c.Lookup(model.PackageTask{Filename: "x.rpm", FullPath: pkgPath})
	require.False(t, ok, "a package modified since the prior run's record must miss, even though both stats were taken in this same run")
}

func TestCache_TrustMtimeSkipsStat(t *testing.T) {
	rec := &model.PackageRecord{ChecksumType: model.ChecksumSHA256}
	c := &Cache{
		byName:       map[string]entry{"x.rpm": {rec: rec}},
		checksumType: model.ChecksumSHA256,
		trustMtime:   true,
	}

	got, ok := c.Lookup(model.PackageTask{Filename: "x.rpm", FullPath: "/does/not/exist"})
	require.True(t, ok)
	require.Same(t, rec, got)
}
