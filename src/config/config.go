package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mosaicnetworks/nrs/src/common"
	"github.com/mosaicnetworks/nrs/src/net"
	"github.com/mosaicnetworks/nrs/src/peers"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database of a component host.
	DefaultBadgerFile = "badger_db"

	// DefaultConfigName is the name of the config file, without extension,
	// looked up in the data directory.
	DefaultConfigName = "nrs"
)

// Default configuration values.
const (
	DefaultLogLevel         = "debug"
	DefaultBindAddr         = "127.0.0.1:1337"
	DefaultServiceAddr      = "127.0.0.1:8000"
	DefaultPollInterval     = 10 * time.Millisecond
	DefaultSlowPollInterval = 1000 * time.Millisecond
	DefaultJobTimeout       = 30 * time.Second
	DefaultTCPTimeout       = 1000 * time.Millisecond
	DefaultMaxPool          = 2
	DefaultAutoLink         = true
	DefaultStore            = false
	DefaultNoService        = false
)

// Config contains all the configuration properties of an NRS editor engine or
// component host.
type Config struct {
	// DataDir is the top-level directory containing the configuration file,
	// the component routing table (components.json), and the database of a
	// component host.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, if set, receives a copy of every log entry in addition to the
	// console.
	LogFile string `mapstructure:"log-file"`

	// BindAddr is the local address:port where the transport listens for
	// requests and replies.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is the address that peers use to reach this process. It
	// is carried in the From field of every request, so replies go to this
	// address. Defaults to BindAddr.
	AdvertiseAddr string `mapstructure:"advertise"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// PollInterval is the period of scheduler passes while jobs are pending.
	PollInterval time.Duration `mapstructure:"poll"`

	// SlowPollInterval is the period of scheduler passes when no job is
	// pending.
	SlowPollInterval time.Duration `mapstructure:"slow-poll"`

	// JobTimeout is how long a job may stay pending before it is aborted. Zero
	// disables the timeout.
	JobTimeout time.Duration `mapstructure:"job-timeout"`

	// TCPTimeout is the timeout of transport connections. It also bounds the
	// submission of the two halves of a link exchange.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// MaxPool controls how many connections are pooled per target.
	MaxPool int `mapstructure:"max-pool"`

	// AutoLink enables the creation of links to sibling nodes when a node has
	// been constructed remotely.
	AutoLink bool `mapstructure:"auto-link"`

	// Store activates persistent storage of a component host.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// ComponentName is the name under which a component host serves nodes.
	ComponentName string `mapstructure:"component"`

	// Transport, if set, is used instead of a TCP transport on BindAddr.
	Transport net.Transport

	// Peers, if set, is used instead of the components.json in DataDir.
	Peers *peers.PeerSet

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:          DefaultDataDir(),
		LogLevel:         DefaultLogLevel,
		BindAddr:         DefaultBindAddr,
		ServiceAddr:      DefaultServiceAddr,
		NoService:        DefaultNoService,
		PollInterval:     DefaultPollInterval,
		SlowPollInterval: DefaultSlowPollInterval,
		JobTimeout:       DefaultJobTimeout,
		TCPTimeout:       DefaultTCPTimeout,
		MaxPool:          DefaultMaxPool,
		AutoLink:         DefaultAutoLink,
		Store:            DefaultStore,
		DatabaseDir:      DefaultDatabaseDir(),
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.NoService = true
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database directory
// if it is currently set to the default value. If the database directory is
// not currently the default, it means the user has explicitely set it to
// something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Advertise returns AdvertiseAddr, or BindAddr if it is not set.
func (c *Config) Advertise() string {
	if c.AdvertiseAddr != "" {
		return c.AdvertiseAddr
	}
	return c.BindAddr
}

// Logger returns a formatted logrus Entry, with prefix set to "nrs".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				c.LogFile,
				&logrus.JSONFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "nrs")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level NRS config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".NRS")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "NRS")
		} else {
			return filepath.Join(home, ".nrs")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
