package finalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

func TestPublish_SwapsStagingDirIntoPlaceAndWritesRepomd(t *testing.T) {
	outDir := t.TempDir()
	staging := filepath.Join(outDir, ".staging")
	require.NoError(t, os.MkdirAll(staging, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(staging, "primary.xml.gz"), []byte("primary-bytes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "filelists.xml.gz"), []byte("filelists-bytes"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "other.xml.gz"), []byte("other-bytes"), 0644))

	artifacts := []Artifact{
		{Type: "primary", RelPath: "primary.xml.gz"},
		{Type: "filelists", RelPath: "filelists.xml.gz"},
		{Type: "other", RelPath: "other.xml.gz"},
	}

	err := Publish(artifacts, Options{
		StagingDir:   staging,
		OutDir:       outDir,
		ChecksumType: model.ChecksumSHA256,
	})
	require.NoError(t, err)

	_, err = os.Stat(staging)
	require.True(t, os.IsNotExist(err), "staging dir should have been renamed away")

	repodata := filepath.Join(outDir, "repodata")
	entries, err := os.ReadDir(repodata)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.Contains(t, names, "repomd.xml")

	repomdBytes, err := os.ReadFile(filepath.Join(repodata, "repomd.xml"))
	require.NoError(t, err)
	repomd := string(repomdBytes)
	require.Contains(t, repomd, `type="primary"`)
	require.Contains(t, repomd, `type="filelists"`)
	require.Contains(t, repomd, `type="other"`)
}

func TestPublish_DefaultKeepsPlainArtifactNames(t *testing.T) {
	outDir := t.TempDir()
	staging := filepath.Join(outDir, ".staging")
	require.NoError(t, os.MkdirAll(staging, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "primary.xml.gz"), []byte("p"), 0644))

	err := Publish([]Artifact{{Type: "primary", RelPath: "primary.xml.gz"}}, Options{
		StagingDir: staging, OutDir: outDir, ChecksumType: model.ChecksumSHA256,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "repodata", "primary.xml.gz"))
	require.NoError(t, err, "without --unique-md-filenames the artifact keeps its plain name")
}

func TestPublish_UniqueMDFilenamesRenamesToChecksumPrefixed(t *testing.T) {
	outDir := t.TempDir()
	staging := filepath.Join(outDir, ".staging")
	require.NoError(t, os.MkdirAll(staging, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "primary.xml.gz"), []byte("p"), 0644))

	err := Publish([]Artifact{{Type: "primary", RelPath: "primary.xml.gz"}}, Options{
		StagingDir: staging, OutDir: outDir, ChecksumType: model.ChecksumSHA256, UniqueMDFilenames: true,
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(outDir, "repodata"))
	require.NoError(t, err)
	var sawPrefixed bool
	for _, e := range entries {
		if e.Name() != "primary.xml.gz" && filepath.Ext(e.Name()) == ".gz" {
			sawPrefixed = true
		}
	}
	require.True(t, sawPrefixed, "with --unique-md-filenames the artifact must be renamed to <checksum>-<basename>")
}

func TestPublish_PreservesExistingRepoFilesNotUnderRepodata(t *testing.T) {
	outDir := t.TempDir()

	oldRepodata := filepath.Join(outDir, "repodata")
	require.NoError(t, os.MkdirAll(oldRepodata, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(oldRepodata, "comps.xml"), []byte("old comps"), 0644))

	staging := filepath.Join(outDir, ".staging")
	require.NoError(t, os.MkdirAll(staging, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "primary.xml.gz"), []byte("p"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "filelists.xml.gz"), []byte("f"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(staging, "other.xml.gz"), []byte("o"), 0644))

	artifacts := []Artifact{
		{Type: "primary", RelPath: "primary.xml.gz"},
		{Type: "filelists", RelPath: "filelists.xml.gz"},
		{Type: "other", RelPath: "other.xml.gz"},
	}

	err := Publish(artifacts, Options{StagingDir: staging, OutDir: outDir, ChecksumType: model.ChecksumMD5})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "repodata", "comps.xml"))
	require.NoError(t, err, "comps.xml from the previous publish should have survived the swap")
}
