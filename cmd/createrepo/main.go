package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/luochenglcs/createrepo-go/internal/config"
	"github.com/luochenglcs/createrepo-go/internal/orchestrator"
	"github.com/luochenglcs/createrepo-go/version"
)

func main() {
	app := cli.NewApp()
	app.Name = "createrepo-go"
	app.Usage = "build YUM/DNF repository metadata for a directory of RPM packages"
	app.Version = version.Version
	app.ArgsUsage = "<directory>"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "outputdir", Usage: "write repodata/ here instead of <directory>"},
		cli.IntFlag{Name: "workers", Usage: "number of concurrent package-parsing workers"},
		cli.StringFlag{Name: "checksum", Usage: "checksum algorithm: md5, sha1, sha256, sha512"},
		cli.StringFlag{Name: "compression", Usage: "compression for XML artifacts: gz, bz2, xz"},
		cli.IntFlag{Name: "changelog-limit", Usage: "max changelog entries retained per package"},
		cli.StringSliceFlag{Name: "update-md-path", Usage: "additional path(s) to look for cacheable prior metadata"},
		cli.StringFlag{Name: "pkglist", Usage: "file listing package paths to index, one per line"},
		cli.StringSliceFlag{Name: "excludes", Usage: "glob pattern(s) of packages to skip"},
		cli.BoolFlag{Name: "skip-symlinks", Usage: "ignore symlinked packages during the directory walk"},
		cli.BoolFlag{Name: "skip-stat", Usage: "trust cached size/mtime without re-stat'ing every file"},
		cli.BoolTFlag{Name: "database", Usage: "also emit sqlite databases (default true)"},
		cli.BoolFlag{Name: "quiet", Usage: "suppress all log output and the progress bar"},
		cli.BoolFlag{Name: "verbose", Usage: "enable debug logging"},
		cli.StringFlag{Name: "logfile", Usage: "write logs to this file instead of stdout"},
		cli.StringFlag{Name: "metrics-addr", Usage: "expose Prometheus metrics on this address, e.g. :9090"},
		cli.StringFlag{Name: "config", Usage: "path to an .ini file of defaults"},
		cli.BoolFlag{Name: "update", Usage: "load prior metadata as a cache instead of indexing fresh"},
		cli.StringFlag{Name: "location-base", Usage: "base URL recorded as location_base for freshly parsed packages"},
		cli.StringFlag{Name: "groupfile", Usage: "comps-style group file to publish alongside repodata"},
		cli.BoolFlag{Name: "unique-md-filenames", Usage: "rename each artifact to <checksum>-<basename>"},
		cli.BoolFlag{Name: "xz", Usage: "alias forcing xz compression"},
	}

	app.Action = func(c *cli.Context) error {
		cfg, err := config.Load(c)
		if err != nil {
			return err
		}
		return orchestrator.Run(context.Background(), cfg)
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "createrepo-go:", err)
		os.Exit(1)
	}
}
