// Package mdxml is the "serialize one PackageRecord into three XML
// fragments" collaborator spec.md §6 declares external to the indexing
// engine. Each fragment is a single self-contained <package>/<file>
// element — never a whole document — because the sink trio writes one
// fragment per record into an already-open root element (see
// internal/sink). The element shapes mirror the struct tags the teacher
// vendored from github.com/oneumyvakin/rpmeta for reading repomd.xml back.
package mdxml

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

const (
	NSCommon    = "http://linux.duke.edu/metadata/common"
	NSRPM       = "http://linux.duke.edu/metadata/rpm"
	NSFilelists = "http://linux.duke.edu/metadata/filelists"
	NSOther     = "http://linux.duke.edu/metadata/other"
)

// Fragments holds the three per-package XML fragments produced for one
// PackageRecord.
type Fragments struct {
	Primary   []byte
	Filelists []byte
	Other     []byte
}

// Serialize renders the three fragments for rec.
func Serialize(rec *model.PackageRecord) (Fragments, error) {
	pri, err := primaryFragment(rec)
	if err != nil {
		return Fragments{}, err
	}
	fil, err := filelistsFragment(rec)
	if err != nil {
		return Fragments{}, err
	}
	oth, err := otherFragment(rec)
	if err != nil {
		return Fragments{}, err
	}
	return Fragments{Primary: pri, Filelists: fil, Other: oth}, nil
}

func esc(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func primaryFragment(rec *model.PackageRecord) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<package type=\"rpm\">\n")
	fmt.Fprintf(&b, "  <name>%s</name>\n", esc(rec.Name))
	fmt.Fprintf(&b, "  <arch>%s</arch>\n", esc(rec.Arch))
	fmt.Fprintf(&b, "  <version epoch=\"%s\" ver=\"%s\" rel=\"%s\"/>\n", esc(orZero(rec.Epoch)), esc(rec.Version), esc(rec.Release))
	fmt.Fprintf(&b, "  <checksum type=\"%s\" pkgid=\"YES\">%s</checksum>\n", esc(string(rec.ChecksumType)), esc(rec.Checksum))
	fmt.Fprintf(&b, "  <summary>%s</summary>\n", esc(rec.Summary))
	fmt.Fprintf(&b, "  <description>%s</description>\n", esc(rec.Description))
	fmt.Fprintf(&b, "  <packager>%s</packager>\n", esc(rec.Packager))
	fmt.Fprintf(&b, "  <url>%s</url>\n", esc(rec.URL))
	fmt.Fprintf(&b, "  <time file=\"%d\" build=\"%d\"/>\n", rec.TimeFile, rec.TimeBuild)
	fmt.Fprintf(&b, "  <size package=\"%d\" installed=\"%d\" archive=\"%d\"/>\n", rec.SizePackage, rec.SizeInstalled, rec.SizeArchive)
	fmt.Fprintf(&b, "  <location href=\"%s\"%s/>\n", esc(rec.LocationHref), locationBase(rec.LocationBase))
	fmt.Fprintf(&b, "  <format>\n")
	fmt.Fprintf(&b, "    <rpm:license>%s</rpm:license>\n", esc(rec.License))
	fmt.Fprintf(&b, "    <rpm:vendor>%s</rpm:vendor>\n", esc(rec.Vendor))
	fmt.Fprintf(&b, "    <rpm:group>%s</rpm:group>\n", esc(rec.Group))
	fmt.Fprintf(&b, "    <rpm:buildhost>%s</rpm:buildhost>\n", esc(rec.BuildHost))
	fmt.Fprintf(&b, "    <rpm:sourcerpm>%s</rpm:sourcerpm>\n", esc(rec.SourceRPM))
	writeDeps(&b, "rpm:provides", rec.Provides)
	writeDeps(&b, "rpm:requires", rec.Requires)
	writeDeps(&b, "rpm:conflicts", rec.Conflicts)
	writeDeps(&b, "rpm:obsoletes", rec.Obsoletes)
	writeDeps(&b, "rpm:suggests", rec.Suggests)
	writeDeps(&b, "rpm:enhances", rec.Enhances)
	writeDeps(&b, "rpm:recommends", rec.Recommends)
	writeDeps(&b, "rpm:supplements", rec.Supplements)
	for _, fe := range primaryFiles(rec.Files) {
		fmt.Fprintf(&b, "    <file%s>%s</file>\n", fileTypeAttr(fe.Type), esc(fe.Path))
	}
	fmt.Fprintf(&b, "  </format>\n")
	fmt.Fprintf(&b, "</package>\n")
	return b.Bytes(), nil
}

// primaryFiles returns only the subset of the file list that primary.xml
// conventionally carries: entries flagged "ghost" or whose path starts
// with one of a small set of well-known prefixes (dirs containing
// binaries/config). Consumers
// that need the complete list read filelists.xml instead.
func primaryFiles(files []model.FileEntry) []model.FileEntry {
	var out []model.FileEntry
	for _, f := range files {
		if f.Type == model.FileTypeGhost || isPrimaryPath(f.Path) {
			out = append(out, f)
		}
	}
	return out
}

func isPrimaryPath(p string) bool {
	for _, prefix := range []string{"/etc/", "/usr/lib/sendmail", "/usr/bin/", "/usr/sbin/", "/bin/", "/sbin/"} {
		if len(p) >= len(prefix) && p[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func fileTypeAttr(t model.FileType) string {
	switch t {
	case model.FileTypeDir:
		return " type=\"dir\""
	case model.FileTypeGhost:
		return " type=\"ghost\""
	default:
		return ""
	}
}

func writeDeps(b *bytes.Buffer, tag string, deps []model.DepSpec) {
	if len(deps) == 0 {
		return
	}
	fmt.Fprintf(b, "    <%s>\n", tag)
	for _, d := range deps {
		fmt.Fprintf(b, "      <rpm:entry name=\"%s\"%s/>\n", esc(d.Name), depAttrs(d))
	}
	fmt.Fprintf(b, "    </%s>\n", tag)
}

func depAttrs(d model.DepSpec) string {
	var b bytes.Buffer
	if d.Flag != "" {
		fmt.Fprintf(&b, " flags=\"%s\"", esc(d.Flag))
	}
	if d.Epoch != "" {
		fmt.Fprintf(&b, " epoch=\"%s\"", esc(d.Epoch))
	}
	if d.Version != "" {
		fmt.Fprintf(&b, " ver=\"%s\"", esc(d.Version))
	}
	if d.Release != "" {
		fmt.Fprintf(&b, " rel=\"%s\"", esc(d.Release))
	}
	if d.Pre {
		b.WriteString(" pre=\"1\"")
	}
	return b.String()
}

func locationBase(base string) string {
	if base == "" {
		return ""
	}
	return fmt.Sprintf(" base=\"%s\"", esc(base))
}

func orZero(epoch string) string {
	if epoch == "" {
		return "0"
	}
	return epoch
}

func filelistsFragment(rec *model.PackageRecord) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<package pkgid=\"%s\" name=\"%s\" arch=\"%s\">\n", esc(rec.Checksum), esc(rec.Name), esc(rec.Arch))
	fmt.Fprintf(&b, "  <version epoch=\"%s\" ver=\"%s\" rel=\"%s\"/>\n", esc(orZero(rec.Epoch)), esc(rec.Version), esc(rec.Release))
	for _, fe := range rec.Files {
		fmt.Fprintf(&b, "  <file%s>%s</file>\n", fileTypeAttr(fe.Type), esc(fe.Path))
	}
	fmt.Fprintf(&b, "</package>\n")
	return b.Bytes(), nil
}

func otherFragment(rec *model.PackageRecord) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<package pkgid=\"%s\" name=\"%s\" arch=\"%s\">\n", esc(rec.Checksum), esc(rec.Name), esc(rec.Arch))
	fmt.Fprintf(&b, "  <version epoch=\"%s\" ver=\"%s\" rel=\"%s\"/>\n", esc(orZero(rec.Epoch)), esc(rec.Version), esc(rec.Release))
	for _, c := range rec.Changelog {
		fmt.Fprintf(&b, "  <changelog author=\"%s\" date=\"%d\">%s</changelog>\n", esc(c.Author), c.Date, esc(c.Text))
	}
	fmt.Fprintf(&b, "</package>\n")
	return b.Bytes(), nil
}

// RootOpen returns the opening tag for one of the three top-level
// documents, including the XML prolog and the given package count.
func RootOpen(doc string, packages int) string {
	switch doc {
	case "primary":
		return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<metadata xmlns=\"%s\" xmlns:rpm=\"%s\" packages=\"%d\">\n", NSCommon, NSRPM, packages)
	case "filelists":
		return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<filelists xmlns=\"%s\" packages=\"%d\">\n", NSFilelists, packages)
	case "other":
		return fmt.Sprintf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<otherdata xmlns=\"%s\" packages=\"%d\">\n", NSOther, packages)
	default:
		return ""
	}
}

// RootClose returns the closing tag for one of the three top-level
// documents.
func RootClose(doc string) string {
	switch doc {
	case "primary":
		return "</metadata>\n"
	case "filelists":
		return "</filelists>\n"
	case "other":
		return "</otherdata>\n"
	default:
		return ""
	}
}
