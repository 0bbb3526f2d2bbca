// Package mdsqlite is the "sqlite schema creation and row insertion
// primitives" collaborator spec.md §6 declares external to the indexing
// engine. Column names (pkgKey, Name, Epoch, Version, Release, Arch,
// Flags) are carried over verbatim from the teacher's
// source/sqlite/requies.go, which queried exactly these columns out of a
// createrepo-produced primary.sqlite; here they are the CREATE TABLE /
// INSERT side of that same schema instead of the SELECT side. The driver
// is modernc.org/sqlite (cgo-free), already used by two of the teacher's
// three sqlite files — github.com/mattn/go-sqlite3, used only by
// requies.go, is dropped; see DESIGN.md.
package mdsqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const primarySchema = `
CREATE TABLE packages (
	pkgKey INTEGER PRIMARY KEY AUTOINCREMENT,
	pkgId TEXT,
	name TEXT,
	arch TEXT,
	version TEXT,
	epoch TEXT,
	release TEXT,
	summary TEXT,
	description TEXT,
	url TEXT,
	time_file INTEGER,
	time_build INTEGER,
	rpm_license TEXT,
	rpm_vendor TEXT,
	rpm_group TEXT,
	rpm_buildhost TEXT,
	rpm_sourcerpm TEXT,
	rpm_packager TEXT,
	size_package INTEGER,
	size_installed INTEGER,
	size_archive INTEGER,
	location_href TEXT,
	location_base TEXT,
	checksum_type TEXT
);
CREATE TABLE provides (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE requires (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT, pre TEXT);
CREATE TABLE conflicts (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE obsoletes (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE suggests (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE enhances (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE recommends (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE supplements (pkgKey INTEGER, name TEXT, flags TEXT, epoch TEXT, version TEXT, release TEXT);
CREATE TABLE files (pkgKey INTEGER, name TEXT, type TEXT);
CREATE TABLE db_info (dbversion INTEGER, checksum TEXT);
CREATE INDEX packagename ON packages (name);
CREATE INDEX packageId ON packages (pkgId);
`

const filelistsSchema = `
CREATE TABLE packages (pkgKey INTEGER PRIMARY KEY AUTOINCREMENT, pkgId TEXT);
CREATE TABLE filelist (pkgKey INTEGER, dirname TEXT, filenames TEXT, filetypes TEXT);
CREATE TABLE db_info (dbversion INTEGER, checksum TEXT);
CREATE INDEX pkgId ON packages (pkgId);
`

const otherSchema = `
CREATE TABLE packages (pkgKey INTEGER PRIMARY KEY AUTOINCREMENT, pkgId TEXT);
CREATE TABLE changelog (pkgKey INTEGER, author TEXT, date INTEGER, changelog TEXT);
CREATE TABLE db_info (dbversion INTEGER, checksum TEXT);
CREATE INDEX pkgId ON packages (pkgId);
`

// Open creates a fresh sqlite database at path with the schema for kind
// ("primary", "filelists" or "other").
func Open(path, kind string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("mdsqlite: open %s: %w", path, err)
	}

	var schema string
	switch kind {
	case "primary":
		schema = primarySchema
	case "filelists":
		schema = filelistsSchema
	case "other":
		schema = otherSchema
	default:
		db.Close()
		return nil, fmt.Errorf("mdsqlite: unknown kind %q", kind)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("mdsqlite: create schema %s: %w", path, err)
	}
	return db, nil
}

// UpdateChecksum writes the published XML document's checksum into
// db_info, so consumers can confirm the sqlite and XML views are coupled.
// This reopens the already-closed, already-published database in place,
// matching the teacher's createrepo_c dbinfo_update step.
func UpdateChecksum(path string, checksum string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec("DELETE FROM db_info"); err != nil {
		return err
	}
	_, err = db.Exec("INSERT INTO db_info (dbversion, checksum) VALUES (?, ?)", 10, checksum)
	return err
}
