// Package model holds the data types shared by every stage of the indexing
// pipeline: the task a worker consumes, the record it produces, and the
// repomd bookkeeping the finalizer emits.
package model

// ChecksumType names the digest algorithm used to fingerprint a package
// archive and, when requested, its pkgid.
type ChecksumType string

const (
	ChecksumMD5    ChecksumType = "md5"
	ChecksumSHA1   ChecksumType = "sha1"
	ChecksumSHA256 ChecksumType = "sha256"
	ChecksumSHA512 ChecksumType = "sha512"
)

// CompressionType names the stream compression used for the published
// metadata artifacts.
type CompressionType string

const (
	CompressionGZ  CompressionType = "gz"
	CompressionBZ2 CompressionType = "bz2"
	CompressionXZ  CompressionType = "xz"
)

// FileType classifies one entry in a package's file list.
type FileType string

const (
	FileTypeFile  FileType = "file"
	FileTypeDir   FileType = "dir"
	FileTypeGhost FileType = "ghost"
)

// PackageTask is one unit of walker output: a single archive waiting to be
// turned into a PackageRecord. It is owned by whoever currently holds it —
// the walker until it is queued, a worker while it is processing it — and
// is discarded once the worker has written its record into the sinks.
type PackageTask struct {
	FullPath string // absolute path to the archive on disk
	Filename string // basename of FullPath
	RelDir   string // FullPath's directory, relative to the scanned root
}

// DepSpec is one dependency entry: a provide, require, conflict, obsolete,
// suggest, enhance, recommend or supplement. Flag follows the RPM sense
// convention ("EQ", "LT", "LE", "GT", "GE", or empty for an unversioned
// dependency).
type DepSpec struct {
	Name    string
	Flag    string
	Epoch   string
	Version string
	Release string
	Pre     bool
}

// FileEntry is one path within a package's file list.
type FileEntry struct {
	Path string
	Type FileType
}

// ChangelogEntry is one changelog record, newest first, bounded by the
// configured changelog limit.
type ChangelogEntry struct {
	Author string
	Date   int64 // seconds since epoch
	Text   string
}

// PackageRecord is the complete semantic fingerprint of one package,
// whether it was freshly parsed from an archive header or reloaded from a
// cached repository's XML.
type PackageRecord struct {
	// Identity
	Name    string
	Epoch   string
	Version string
	Release string
	Arch    string

	// Integrity
	Checksum     string
	ChecksumType ChecksumType
	SizePackage  int64
	SizeInstalled int64
	SizeArchive  int64
	TimeFile     int64
	TimeBuild    int64

	// Descriptive
	Summary     string
	Description string
	Packager    string
	URL         string
	License     string
	Group       string
	Vendor      string
	BuildHost   string
	SourceRPM   string

	// Relational
	Provides    []DepSpec
	Requires    []DepSpec
	Conflicts   []DepSpec
	Obsoletes   []DepSpec
	Suggests    []DepSpec
	Enhances    []DepSpec
	Recommends  []DepSpec
	Supplements []DepSpec

	// Content
	Files     []FileEntry
	Changelog []ChangelogEntry

	// Location
	LocationHref string
	LocationBase string
}

// NEVRA renders the package's name-epoch:version-release.arch identity,
// matching the de facto RPM display convention used throughout the
// toolchain (and the teacher's own ReqRes formatting).
func (p *PackageRecord) NEVRA() string {
	if p.Epoch == "" || p.Epoch == "0" {
		return p.Name + "-" + p.Version + "-" + p.Release + "." + p.Arch
	}
	return p.Name + "-" + p.Epoch + ":" + p.Version + "-" + p.Release + "." + p.Arch
}

// RepomdRecord is the file-level metadata for one published artifact,
// aggregated by the finalizer into the repomd.xml manifest.
type RepomdRecord struct {
	Type         string // e.g. "primary", "primary_db", "group", "group_gz"
	Href         string // repo-relative path, e.g. "repodata/primary.xml.gz"
	Checksum     string
	ChecksumType ChecksumType
	OpenChecksum string // checksum of the decompressed bytes, when applicable
	Size         int64
	OpenSize     int64
	Timestamp    int64
}
