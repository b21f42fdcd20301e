// Package config loads the configuration file of the httpoll command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/stealthrocket/httpoll/internal/http1"
	"github.com/stealthrocket/httpoll/internal/human"
	"github.com/stealthrocket/httpoll/internal/network"
	"github.com/stealthrocket/httpoll/pkg/httpoll"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "~/.httpoll/config.yaml"
	// Below 2 B/s, no window of one second ever grants a full byte.
	minBandwidthLimit = human.Bandwidth(2)
)

// Path is the path to the configuration file.
var Path human.Path = defaultConfigPath

// Load opens and reads the configuration file. The default configuration is
// returned if the file does not exist.
func Load() (*Config, error) {
	r, _, err := Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Read(r)
}

// Open opens the configuration file and returns it with its resolved path.
// When the file does not exist, the reader yields the default configuration.
func Open() (io.ReadCloser, string, error) {
	path, err := Path.Expand()
	if err != nil {
		return nil, path, err
	}
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, path, err
		}
		b, _ := yaml.Marshal(Default())
		return io.NopCloser(bytes.NewReader(b)), path, nil
	}
	return f, path, nil
}

// Read parses and validates a configuration. Fields that are absent keep
// their default values, unknown fields are errors.
func Read(r io.Reader) (*Config, error) {
	c := Default()
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the default configuration.
func Default() *Config {
	c := new(Config)
	c.Client.Timeout = human.Duration(60 * time.Second)
	c.Client.ConnectTimeout = human.Duration(5 * time.Second)
	c.Client.PollInterval = human.Duration(50 * time.Millisecond)
	c.Client.DrainTimeout = human.Duration(httpoll.DefaultDrainTimeout)
	c.Network.NoDelay = true
	c.Network.ReadSize = 16 * human.KiB
	return c
}

// Config is the httpoll configuration.
type Config struct {
	Client struct {
		Timeout        human.Duration  `json:"timeout" yaml:"timeout"`
		ConnectTimeout human.Duration  `json:"connectTimeout" yaml:"connectTimeout"`
		BandwidthLimit human.Bandwidth `json:"bandwidthLimit" yaml:"bandwidthLimit"`
		Headers        []string        `json:"headers,omitempty" yaml:"headers,omitempty"`
		PollInterval   human.Duration  `json:"pollInterval" yaml:"pollInterval"`
		DrainTimeout   human.Duration  `json:"drainTimeout" yaml:"drainTimeout"`
	} `json:"client" yaml:"client"`

	Network struct {
		NoDelay       bool           `json:"noDelay" yaml:"noDelay"`
		SendBuffer    human.Bytes    `json:"sendBuffer" yaml:"sendBuffer"`
		// Unset leaves the kernel default and its auto-tuning in place, a null
		// value in the file clears it.
		ReceiveBuffer *human.Bytes   `json:"receiveBuffer" yaml:"receiveBuffer"`
		// Zero keeps the default keep-alive interval, negative values disable
		// keep-alive.
		KeepAlive     human.Duration `json:"keepAlive" yaml:"keepAlive"`
		ReadSize      human.Bytes    `json:"readSize" yaml:"readSize"`
	} `json:"network" yaml:"network"`

	Log struct {
		Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
	} `json:"log" yaml:"log"`
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if _, err := http1.MergeHeaders(c.Client.Headers...); err != nil {
		return fmt.Errorf("client.headers: %w", err)
	}
	if c.Client.PollInterval <= 0 {
		return fmt.Errorf("client.pollInterval: must be positive, got %v", c.Client.PollInterval)
	}
	// Uploads are paced in windows of one second, each tick is granted the
	// bytes allowed by the time elapsed since the window started.
	if limit := c.Client.BandwidthLimit; limit != 0 {
		if limit < minBandwidthLimit {
			return fmt.Errorf("client.bandwidthLimit: must be at least %v, got %v", minBandwidthLimit, limit)
		}
		if c.Client.PollInterval >= human.Duration(time.Second) {
			return fmt.Errorf("client.pollInterval: must be less than 1s when a bandwidth limit is set, got %v", c.Client.PollInterval)
		}
	}
	if c.Network.ReadSize == 0 {
		return errors.New("network.readSize: must not be zero")
	}
	switch c.Log.Mode {
	case "", "production", "development":
	default:
		return fmt.Errorf("log.mode: must be production or development, got %q", c.Log.Mode)
	}
	return nil
}

// ClientOptions returns the client options matching the configuration.
func (c *Config) ClientOptions() []httpoll.Option {
	net := network.Options{
		NoDelay:    c.Network.NoDelay,
		SendBuffer: int(c.Network.SendBuffer),
		KeepAlive:  time.Duration(c.Network.KeepAlive),
	}
	if size := c.Network.ReceiveBuffer; size != nil {
		net.ReceiveBuffer = int(*size)
	}
	return []httpoll.Option{
		httpoll.WithTimeout(time.Duration(c.Client.Timeout)),
		httpoll.WithConnectTimeout(time.Duration(c.Client.ConnectTimeout)),
		httpoll.WithBandwidthLimit(int64(c.Client.BandwidthLimit)),
		httpoll.WithDrainTimeout(time.Duration(c.Client.DrainTimeout)),
		httpoll.WithNetwork(net),
		httpoll.WithReadSize(int(c.Network.ReadSize)),
	}
}

// NewClient constructs a client configured with the client options and the
// default headers of the configuration. Options passed as arguments are
// applied last.
func (c *Config) NewClient(opts ...httpoll.Option) *httpoll.Client {
	client := httpoll.New(append(c.ClientOptions(), opts...)...)
	client.Headers = append(client.Headers, c.Client.Headers...)
	return client
}

// NewLogger constructs the logger selected by log.mode. When verbose is set,
// debug logs are enabled in development mode regardless of the configuration.
func (c *Config) NewLogger(verbose bool) (*zap.Logger, error) {
	switch {
	case verbose:
		return zap.NewDevelopment()
	case c.Log.Mode == "production":
		return zap.NewProduction()
	case c.Log.Mode == "development":
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		return config.Build()
	default:
		return zap.NewNop(), nil
	}
}
