package mdsqlite

import (
	"database/sql"
	"fmt"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

// Writer owns one of the three open sqlite databases plus its prepared
// statements, so that Insert{Primary,Filelists,Other} is one exec per
// call instead of a fresh parse+plan every time — the same rationale as
// the teacher's DbPrimaryStatements-style handles, generalized to Go
// prepared statements.
type Writer struct {
	db   *sql.DB
	kind string

	insertPackage    *sql.Stmt
	insertDep        map[string]*sql.Stmt
	insertFile       *sql.Stmt
	insertFilelist   *sql.Stmt
	insertChangelog  *sql.Stmt
}

// NewWriter opens (creating) the sqlite database at path for the given
// kind ("primary", "filelists", "other") and prepares its statements.
func NewWriter(path, kind string) (*Writer, error) {
	db, err := Open(path, kind)
	if err != nil {
		return nil, err
	}

	w := &Writer{db: db, kind: kind, insertDep: make(map[string]*sql.Stmt)}

	switch kind {
	case "primary":
		w.insertPackage, err = db.Prepare(`INSERT INTO packages (
			pkgId, name, arch, version, epoch, release, summary, description, url,
			time_file, time_build, rpm_license, rpm_vendor, rpm_group, rpm_buildhost,
			rpm_sourcerpm, rpm_packager, size_package, size_installed, size_archive,
			location_href, location_base, checksum_type
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("mdsqlite: prepare packages insert: %w", err)
		}
		for _, tbl := range []string{"provides", "requires", "conflicts", "obsoletes", "suggests", "enhances", "recommends", "supplements"} {
			extra := ""
			if tbl == "requires" {
				extra = ", pre"
			}
			placeholders := "?,?,?,?,?,?"
			if tbl == "requires" {
				placeholders = "?,?,?,?,?,?,?"
			}
			stmt, err := db.Prepare(fmt.Sprintf("INSERT INTO %s (pkgKey, name, flags, epoch, version, release%s) VALUES (%s)", tbl, extra, placeholders))
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("mdsqlite: prepare %s insert: %w", tbl, err)
			}
			w.insertDep[tbl] = stmt
		}
		w.insertFile, err = db.Prepare(`INSERT INTO files (pkgKey, name, type) VALUES (?,?,?)`)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("mdsqlite: prepare files insert: %w", err)
		}
	case "filelists":
		w.insertPackage, err = db.Prepare(`INSERT INTO packages (pkgId) VALUES (?)`)
		if err != nil {
			db.Close()
			return nil, err
		}
		w.insertFilelist, err = db.Prepare(`INSERT INTO filelist (pkgKey, dirname, filenames, filetypes) VALUES (?,?,?,?)`)
		if err != nil {
			db.Close()
			return nil, err
		}
	case "other":
		w.insertPackage, err = db.Prepare(`INSERT INTO packages (pkgId) VALUES (?)`)
		if err != nil {
			db.Close()
			return nil, err
		}
		w.insertChangelog, err = db.Prepare(`INSERT INTO changelog (pkgKey, author, date, changelog) VALUES (?,?,?,?)`)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	return w, nil
}

// InsertPrimary records rec's identity, integrity, descriptive, and
// relational fields into the primary database.
func (w *Writer) InsertPrimary(rec *model.PackageRecord) error {
	res, err := w.insertPackage.Exec(
		rec.Checksum, rec.Name, rec.Arch, rec.Version, rec.Epoch, rec.Release,
		rec.Summary, rec.Description, rec.URL, rec.TimeFile, rec.TimeBuild,
		rec.License, rec.Vendor, rec.Group, rec.BuildHost, rec.SourceRPM, rec.Packager,
		rec.SizePackage, rec.SizeInstalled, rec.SizeArchive,
		rec.LocationHref, rec.LocationBase, string(rec.ChecksumType),
	)
	if err != nil {
		return fmt.Errorf("mdsqlite: insert package %s: %w", rec.NEVRA(), err)
	}
	pkgKey, err := res.LastInsertId()
	if err != nil {
		return err
	}

	groups := map[string][]model.DepSpec{
		"provides": rec.Provides, "requires": rec.Requires, "conflicts": rec.Conflicts,
		"obsoletes": rec.Obsoletes, "suggests": rec.Suggests, "enhances": rec.Enhances,
		"recommends": rec.Recommends, "supplements": rec.Supplements,
	}
	for tbl, deps := range groups {
		stmt := w.insertDep[tbl]
		for _, d := range deps {
			var execErr error
			if tbl == "requires" {
				_, execErr = stmt.Exec(pkgKey, d.Name, d.Flag, d.Epoch, d.Version, d.Release, d.Pre)
			} else {
				_, execErr = stmt.Exec(pkgKey, d.Name, d.Flag, d.Epoch, d.Version, d.Release)
			}
			if execErr != nil {
				return fmt.Errorf("mdsqlite: insert %s for %s: %w", tbl, rec.NEVRA(), execErr)
			}
		}
	}

	for _, f := range rec.Files {
		if _, err := w.insertFile.Exec(pkgKey, f.Path, string(f.Type)); err != nil {
			return fmt.Errorf("mdsqlite: insert file for %s: %w", rec.NEVRA(), err)
		}
	}
	return nil
}

// InsertFilelists records rec's file list, grouped by directory the way
// the real createrepo filelists.sqlite schema compacts repeated dirnames.
func (w *Writer) InsertFilelists(rec *model.PackageRecord) error {
	res, err := w.insertPackage.Exec(rec.Checksum)
	if err != nil {
		return fmt.Errorf("mdsqlite: insert filelists package %s: %w", rec.NEVRA(), err)
	}
	pkgKey, err := res.LastInsertId()
	if err != nil {
		return err
	}

	byDir := make(map[string][]model.FileEntry)
	var order []string
	for _, f := range rec.Files {
		dir := dirname(f.Path)
		if _, ok := byDir[dir]; !ok {
			order = append(order, dir)
		}
		byDir[dir] = append(byDir[dir], f)
	}
	for _, dir := range order {
		var names, types string
		for i, f := range byDir[dir] {
			if i > 0 {
				names += "/"
				types += " "
			}
			names += basename(f.Path)
			types += string(f.Type)
		}
		if _, err := w.insertFilelist.Exec(pkgKey, dir, names, types); err != nil {
			return fmt.Errorf("mdsqlite: insert filelist row for %s: %w", rec.NEVRA(), err)
		}
	}
	return nil
}

// InsertOther records rec's changelog into the other database.
func (w *Writer) InsertOther(rec *model.PackageRecord) error {
	res, err := w.insertPackage.Exec(rec.Checksum)
	if err != nil {
		return fmt.Errorf("mdsqlite: insert other package %s: %w", rec.NEVRA(), err)
	}
	pkgKey, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, c := range rec.Changelog {
		if _, err := w.insertChangelog.Exec(pkgKey, c.Author, c.Date, c.Text); err != nil {
			return fmt.Errorf("mdsqlite: insert changelog for %s: %w", rec.NEVRA(), err)
		}
	}
	return nil
}

// Close finalizes all prepared statements and closes the database.
func (w *Writer) Close() error {
	stmts := []*sql.Stmt{w.insertPackage, w.insertFile, w.insertFilelist, w.insertChangelog}
	for _, s := range w.insertDep {
		stmts = append(stmts, s)
	}
	for _, s := range stmts {
		if s != nil {
			s.Close()
		}
	}
	return w.db.Close()
}

func dirname(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i+1]
		}
	}
	return ""
}

func basename(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
