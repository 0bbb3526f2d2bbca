package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"github.com/luochenglcs/createrepo-go/internal/model"
)

func contextWithFlags(t *testing.T, args []string) *cli.Context {
	t.Helper()
	app := cli.NewApp()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "outputdir"},
		cli.IntFlag{Name: "workers"},
		cli.StringFlag{Name: "checksum"},
		cli.StringFlag{Name: "compression"},
		cli.IntFlag{Name: "changelog-limit"},
		cli.StringSliceFlag{Name: "update-md-path"},
		cli.StringFlag{Name: "pkglist"},
		cli.StringSliceFlag{Name: "excludes"},
		cli.BoolFlag{Name: "skip-symlinks"},
		cli.BoolFlag{Name: "skip-stat"},
		cli.BoolTFlag{Name: "database"},
		cli.BoolFlag{Name: "quiet"},
		cli.BoolFlag{Name: "verbose"},
		cli.StringFlag{Name: "logfile"},
		cli.StringFlag{Name: "metrics-addr"},
		cli.StringFlag{Name: "config"},
		cli.BoolFlag{Name: "update"},
		cli.StringFlag{Name: "location-base"},
		cli.StringFlag{Name: "groupfile"},
		cli.BoolFlag{Name: "unique-md-filenames"},
		cli.BoolFlag{Name: "xz"},
	}

	var got *cli.Context
	app.Action = func(c *cli.Context) error {
		got = c
		return nil
	}
	require.NoError(t, app.Run(append([]string{"createrepo-go"}, args...)))
	return got
}

func TestLoad_DefaultsWhenNothingSet(t *testing.T) {
	c := contextWithFlags(t, []string{"/repo"})
	cfg, err := Load(c)
	require.NoError(t, err)

	require.Equal(t, "/repo", cfg.InDir)
	require.Equal(t, "/repo", cfg.OutDir)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, model.ChecksumSHA256, cfg.ChecksumType)
	require.Equal(t, model.CompressionGZ, cfg.Compression)
	require.True(t, cfg.Database)
}

func TestLoad_FlagsOverrideDefaults(t *testing.T) {
	c := contextWithFlags(t, []string{
		"--workers", "8",
		"--checksum", "sha1",
		"--compression", "xz",
		"--outputdir", "/out",
		"--database=false",
		"/repo",
	})
	cfg, err := Load(c)
	require.NoError(t, err)

	require.Equal(t, 8, cfg.Workers)
	require.Equal(t, model.ChecksumSHA1, cfg.ChecksumType)
	require.Equal(t, model.CompressionXZ, cfg.Compression)
	require.Equal(t, "/out", cfg.OutDir)
	require.False(t, cfg.Database)
}

func TestLoad_EnvironmentOverridesIniButNotFlags(t *testing.T) {
	t.Setenv("CREATEREPO_WORKERS", "16")
	iniPath := t.TempDir() + "/config.ini"
	require.NoError(t, os.WriteFile(iniPath, []byte("[createrepo]\nworkers = 12\n"), 0644))

	c := contextWithFlags(t, []string{"--config", iniPath, "/repo"})
	cfg, err := Load(c)
	require.NoError(t, err)
	require.Equal(t, 16, cfg.Workers)

	c2 := contextWithFlags(t, []string{"--config", iniPath, "--workers", "2", "/repo"})
	cfg2, err := Load(c2)
	require.NoError(t, err)
	require.Equal(t, 2, cfg2.Workers)
}

func TestLoad_UpdateLocationBaseAndUniqueMDFilenamesFlags(t *testing.T) {
	c := contextWithFlags(t, []string{
		"--update",
		"--location-base", "https://example.test/repo",
		"--groupfile", "/tmp/g.xml",
		"--unique-md-filenames",
		"/repo",
	})
	cfg, err := Load(c)
	require.NoError(t, err)

	require.True(t, cfg.Update)
	require.Equal(t, "https://example.test/repo", cfg.LocationBase)
	require.Equal(t, "/tmp/g.xml", cfg.GroupFile)
	require.True(t, cfg.UniqueMDFilenames)
}

func TestLoad_XZFlagForcesXZCompressionOverExplicitValue(t *testing.T) {
	c := contextWithFlags(t, []string{"--compression", "gz", "--xz", "/repo"})
	cfg, err := Load(c)
	require.NoError(t, err)
	require.Equal(t, model.CompressionXZ, cfg.Compression)
}

func TestApplyIni_ReadsCreateRepoSection(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.ini"
	require.NoError(t, os.WriteFile(path, []byte("[createrepo]\nworkers = 12\nchecksum = sha512\n"), 0644))

	var cfg Config = defaults()
	require.NoError(t, applyIni(&cfg, path))
	require.Equal(t, 12, cfg.Workers)
	require.Equal(t, model.ChecksumSHA512, cfg.ChecksumType)
}
