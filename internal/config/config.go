// Package config loads quickfind's service configuration from a TOML
// file.
package config

import (
	"os"
	"path/filepath"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

const (
	DefaultPipeName      = `\\.\pipe\quickfind`
	DefaultLogLevel      = "info"
	defaultConfigFile    = "quickfind.toml"
	defaultSnapshotFile  = "quickfind.db"
	defaultLogDirName    = "logs"
)

// Config is quickfind's service-level configuration. The drive letter
// and prune threshold are admin-tunable rather than hard-coded.
type Config struct {
	DriveLetter    string        `toml:"drive_letter"`
	RootDir        string        `toml:"root_dir"`
	LogDir         string        `toml:"log_dir"`
	LogLevel       string        `toml:"log_level"`
	LogToStdout    bool          `toml:"log_to_stdout"`
	PipeName       string        `toml:"pipe_name"`
	PollInterval   time.Duration `toml:"poll_interval"`
	SnapshotEvery  int           `toml:"snapshot_every"`  // worker iterations between snapshots
	PruneThreshold float64       `toml:"prune_threshold"` // tombstone ratio that triggers Store.Prune
	MFTChunkSize   int           `toml:"mft_chunk_size"`
	MetricsAddr    string        `toml:"metrics_addr"`
}

// NewDefault returns the configuration the service runs with when no
// TOML overrides are supplied.
func NewDefault() Config {
	return Config{
		DriveLetter:    "C",
		RootDir:        defaultRootDir(),
		LogDir:         defaultLogDirName,
		LogLevel:       DefaultLogLevel,
		LogToStdout:    false,
		PipeName:       DefaultPipeName,
		PollInterval:   time.Second, // USN journal poll cadence
		SnapshotEvery:  60,          // iterations between persisted snapshots
		PruneThreshold: 0.25,        // tombstone ratio that triggers a compaction
		MFTChunkSize:   64 * 1024,
		MetricsAddr:    "",
	}
}

func defaultRootDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "quickfind")
	}
	return "."
}

// Load reads a TOML file at path over the defaults; a missing file is
// not an error, matching a service that runs fine unconfigured.
func Load(path string) (Config, error) {
	cfg := NewDefault()
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "config: read %s", path)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}

// DriveLetterByte returns the configured drive letter as its ASCII byte.
func (c Config) DriveLetterByte() byte {
	if len(c.DriveLetter) == 0 {
		return 'C'
	}
	return c.DriveLetter[0]
}

// SnapshotPath resolves the snapshot file location under RootDir,
// securely joined so a RootDir taken from an admin-edited TOML file
// cannot be escaped by a crafted relative component.
func (c Config) SnapshotPath() (string, error) {
	return securejoin.SecureJoin(c.RootDir, defaultSnapshotFile)
}

// LogDirPath resolves LogDir under RootDir the same way.
func (c Config) LogDirPath() (string, error) {
	return securejoin.SecureJoin(c.RootDir, c.LogDir)
}
