package mdxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

func sampleRecord() *model.PackageRecord {
	return &model.PackageRecord{
		Name:         "bash",
		Version:      "5.2",
		Release:      "1.fc40",
		Arch:         "x86_64",
		Checksum:     "deadbeef",
		ChecksumType: model.ChecksumSHA256,
		Summary:      "The GNU Bourne Again shell",
		LocationHref: "Packages/bash-5.2-1.fc40.x86_64.rpm",
		Provides:     []model.DepSpec{{Name: "bash", Version: "5.2", Release: "1.fc40"}},
		Files: []model.FileEntry{
			{Path: "/etc/bashrc", Type: model.FileTypeFile},
			{Path: "/usr/share/doc/bash/README", Type: model.FileTypeFile},
			{Path: "/usr/bin/bash", Type: model.FileTypeFile},
		},
	}
}

func TestSerialize_PrimaryFragmentContainsIdentity(t *testing.T) {
	frags, err := Serialize(sampleRecord())
	require.NoError(t, err)

	pri := string(frags.Primary)
	require.Contains(t, pri, "<name>bash</name>")
	require.Contains(t, pri, `ver="5.2" rel="1.fc40"`)
	require.Contains(t, pri, `checksum type="sha256" pkgid="YES">deadbeef</checksum>`)
}

func TestSerialize_PrimaryFragmentFiltersFileList(t *testing.T) {
	frags, err := Serialize(sampleRecord())
	require.NoError(t, err)

	pri := string(frags.Primary)
	require.Contains(t, pri, "/etc/bashrc")
	require.Contains(t, pri, "/usr/bin/bash")
	require.NotContains(t, pri, "/usr/share/doc/bash/README")
}

func TestSerialize_FilelistsFragmentHasEveryFile(t *testing.T) {
	frags, err := Serialize(sampleRecord())
	require.NoError(t, err)

	fil := string(frags.Filelists)
	require.Contains(t, fil, "/etc/bashrc")
	require.Contains(t, fil, "/usr/share/doc/bash/README")
	require.Contains(t, fil, "/usr/bin/bash")
	require.Contains(t, fil, `pkgid="deadbeef"`)
}

func TestSerialize_EscapesSpecialCharacters(t *testing.T) {
	rec := sampleRecord()
	rec.Summary = "A & B <test>"

	frags, err := Serialize(rec)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(frags.Primary), "A &amp; B &lt;test&gt;"))
}

func TestRootOpenClose_MatchTagsPerDocument(t *testing.T) {
	require.Contains(t, RootOpen("primary", 3), `packages="3"`)
	require.Contains(t, RootOpen("primary", 3), "<metadata")
	require.Equal(t, "</metadata>\n", RootClose("primary"))
	require.Equal(t, "</filelists>\n", RootClose("filelists"))
	require.Equal(t, "</otherdata>\n", RootClose("other"))
}
