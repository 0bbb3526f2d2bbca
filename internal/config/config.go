// Package config implements the layered configuration loader (spec.md
// §4.H): CLI flags override environment variables, which override an
// optional .ini file, which overrides built-in defaults. gopkg.in/ini.v1
// is carried over from the teacher's repodata/parserepo.go (there used to
// read /etc/yum.repos.d/*.repo files); koanf/env is new, sourced from the
// rest of the retrieval pack, since the teacher never layered environment
// variables into its own config at all.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli"
	"gopkg.in/ini.v1"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

const envPrefix = "CREATEREPO_"

// Config holds one fully-resolved run's settings.
type Config struct {
	InDir             string
	OutDir            string
	Workers           int
	ChecksumType      model.ChecksumType
	Compression       model.CompressionType
	ChangelogLimit    int
	UpdateMDPath      []string
	PkgListFile       string
	Excludes          []string
	SkipSymlinks      bool
	SkipStat          bool
	Database          bool
	Quiet             bool
	Verbose           bool
	LogFile           string
	MetricsAddr       string
	IniPath           string
	Update            bool   // load the artifact cache from prior metadata (original createrepo_c's cmd_options->update)
	LocationBase      string // prefix recorded in location_base for freshly parsed packages
	GroupFile         string // comps-style group file to copy into the published repodata
	UniqueMDFilenames bool
}

// defaults returns the built-in fallback values, the lowest layer.
func defaults() Config {
	return Config{
		Workers:        4,
		ChecksumType:   model.ChecksumSHA256,
		Compression:    model.CompressionGZ,
		ChangelogLimit: 10,
		Database:       true,
	}
}

// Load resolves a Config from (in increasing priority) built-in defaults,
// an optional .ini file, environment variables prefixed CREATEREPO_, and
// the parsed CLI flags on c.
func Load(c *cli.Context) (Config, error) {
	cfg := defaults()

	iniPath := c.String("config")
	if iniPath != "" {
		if err := applyIni(&cfg, iniPath); err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		cfg.IniPath = iniPath
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	applyFlags(&cfg, c)

	if cfg.InDir == "" {
		if c.NArg() > 0 {
			cfg.InDir = c.Args().Get(0)
		} else {
			cfg.InDir = "."
		}
	}
	if cfg.OutDir == "" {
		cfg.OutDir = cfg.InDir
	}

	return cfg, nil
}

func applyIni(cfg *Config, path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("load ini %s: %w", path, err)
	}
	sec := f.Section("createrepo")

	if v := sec.Key("workers").MustInt(0); v > 0 {
		cfg.Workers = v
	}
	if v := sec.Key("checksum").String(); v != "" {
		cfg.ChecksumType = model.ChecksumType(v)
	}
	if v := sec.Key("compression").String(); v != "" {
		cfg.Compression = model.CompressionType(v)
	}
	if v := sec.Key("changelog_limit").MustInt(-1); v >= 0 {
		cfg.ChangelogLimit = v
	}
	cfg.Database = sec.Key("database").MustBool(cfg.Database)
	if v := sec.Key("excludes").String(); v != "" {
		cfg.Excludes = strings.Split(v, ",")
	}
	return nil
}

// applyEnv overlays CREATEREPO_WORKERS, CREATEREPO_CHECKSUM,
// CREATEREPO_COMPRESSION, CREATEREPO_DATABASE, etc. on top of the ini
// layer, using koanf as the env-var provider the same way the rest of
// the retrieval pack wires environment-driven config.
func applyEnv(cfg *Config) error {
	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if v := k.String("workers"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := k.String("checksum"); v != "" {
		cfg.ChecksumType = model.ChecksumType(v)
	}
	if v := k.String("compression"); v != "" {
		cfg.Compression = model.CompressionType(v)
	}
	if v := k.String("database"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database = b
		}
	}
	if v := k.String("metrics_addr"); v != "" {
		cfg.MetricsAddr = v
	}
	return nil
}

func applyFlags(cfg *Config, c *cli.Context) {
	if v := c.String("outputdir"); v != "" {
		cfg.OutDir = v
	}
	if v := c.Int("workers"); v > 0 {
		cfg.Workers = v
	}
	if v := c.String("checksum"); v != "" {
		cfg.ChecksumType = model.ChecksumType(v)
	}
	if v := c.String("compression"); v != "" {
		cfg.Compression = model.CompressionType(v)
	}
	if c.IsSet("changelog-limit") {
		cfg.ChangelogLimit = c.Int("changelog-limit")
	}
	if v := c.StringSlice("update-md-path"); len(v) > 0 {
		cfg.UpdateMDPath = v
	}
	if v := c.String("pkglist"); v != "" {
		cfg.PkgListFile = v
	}
	if v := c.StringSlice("excludes"); len(v) > 0 {
		cfg.Excludes = v
	}
	if c.IsSet("skip-symlinks") {
		cfg.SkipSymlinks = c.Bool("skip-symlinks")
	}
	if c.IsSet("skip-stat") {
		cfg.SkipStat = c.Bool("skip-stat")
	}
	if c.IsSet("database") {
		cfg.Database = c.Bool("database")
	}
	if c.Bool("quiet") {
		cfg.Quiet = true
	}
	if c.Bool("verbose") {
		cfg.Verbose = true
	}
	if v := c.String("logfile"); v != "" {
		cfg.LogFile = v
	}
	if v := c.String("metrics-addr"); v != "" {
		cfg.MetricsAddr = v
	}
	if c.Bool("update") {
		cfg.Update = true
	}
	if v := c.String("location-base"); v != "" {
		cfg.LocationBase = v
	}
	if v := c.String("groupfile"); v != "" {
		cfg.GroupFile = v
	}
	if c.IsSet("unique-md-filenames") {
		cfg.UniqueMDFilenames = c.Bool("unique-md-filenames")
	}
	// --xz is an alias forcing xz compression, applied last so it wins
	// over a plain --compression value, matching createrepo_c's own
	// "--xz" shorthand.
	if c.Bool("xz") {
		cfg.Compression = model.CompressionXZ
	}
}
