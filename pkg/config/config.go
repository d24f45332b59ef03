// Package config loads the YAML configuration files of the pingboard client
// and the pingboardd backend. Each loader reads the file, applies defaults,
// overlays the PINGBOARD_TOKEN environment variable and validates the
// result, reporting every problem at once.
package config

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// TokenEnv overrides the token from either config file when set.
const TokenEnv = "PINGBOARD_TOKEN"

const (
	DefaultPollInterval    = 10 * time.Second
	DefaultRequestTimeout  = 10 * time.Second
	DefaultListenAddr      = ":1982"
	DefaultDataFile        = "data.json"
	DefaultHistoryWindow   = 60
	DefaultResolverTimeout = 2 * time.Second
	DefaultSaveRate        = 1.0
	DefaultSaveBurst       = 5
)

// LoggingConfig selects the logrus level and formatter.
type LoggingConfig struct {
	// Level is any level accepted by logrus.ParseLevel. Defaults to "info".
	Level string `yaml:"log_level"`
	// Format is "text" or "json". Defaults to "text".
	Format string `yaml:"log_format"`
}

// NewLogger builds a logger writing to out.
func (c LoggingConfig) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	switch c.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func (c *LoggingConfig) applyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
}

func (c *LoggingConfig) validate(add func(string, ...any)) {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		add("log_level %q is invalid: %v", c.Level, err)
	}
	switch c.Format {
	case "text", "json":
	default:
		add("log_format %q is invalid; must be one of text, json", c.Format)
	}
}

// ClientConfig configures the pingboard dashboard client.
type ClientConfig struct {
	// ServerURL is the backend base URL, e.g. "http://monitor.lan:1982".
	ServerURL string `yaml:"server_url"`
	// Token is the bearer credential sent with every request.
	Token string `yaml:"token"`
	// PollInterval is the snapshot refresh cadence.
	PollInterval time.Duration `yaml:"poll_interval"`
	// RequestTimeout bounds each fetch or push.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	LoggingConfig `yaml:",inline"`
}

// ServerConfig configures the pingboardd backend.
type ServerConfig struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`
	// DataFile is the JSON host file.
	DataFile string `yaml:"data_file"`
	// Token is the bearer credential clients must present.
	Token string `yaml:"token"`
	// HistoryWindow caps the samples kept per host on save.
	HistoryWindow int `yaml:"history_window"`
	// Resolver is a host:port DNS server used to name hosts saved without
	// a name. Empty disables the lookup.
	Resolver        string        `yaml:"resolver"`
	ResolverTimeout time.Duration `yaml:"resolver_timeout"`
	// SaveRate is the sustained number of saves allowed per second, with
	// bursts of up to SaveBurst.
	SaveRate  float64 `yaml:"save_rate"`
	SaveBurst int     `yaml:"save_burst"`

	LoggingConfig `yaml:",inline"`
}

// LoadClientConfig reads the client config at path. An empty path yields
// the defaults, which still need a server URL and token to validate.
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseClientConfig(data)
}

// ParseClientConfig decodes, defaults and validates a client config.
func ParseClientConfig(data []byte) (*ClientConfig, error) {
	var cfg ClientConfig
	if err := decode(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := joinErrors(cfg.Validate()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ClientConfig) applyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if tok := os.Getenv(TokenEnv); tok != "" {
		c.Token = tok
	}
	c.LoggingConfig.applyDefaults()
}

// Validate returns every problem with c. An empty slice means c is valid.
func (c *ClientConfig) Validate() []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.ServerURL == "" {
		add("server_url must not be empty")
	} else if u, err := url.Parse(c.ServerURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("server_url %q must be an absolute http or https URL", c.ServerURL)
	}
	if c.Token == "" {
		add("token must not be empty (set it in the file or %s)", TokenEnv)
	}
	if c.PollInterval <= 0 {
		add("poll_interval must be positive")
	}
	if c.RequestTimeout <= 0 {
		add("request_timeout must be positive")
	}
	c.LoggingConfig.validate(add)

	return errs
}

// LoadServerConfig reads the backend config at path. An empty path yields
// the defaults, which still need a token to validate.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return ParseServerConfig(data)
}

// ParseServerConfig decodes, defaults and validates a backend config.
func ParseServerConfig(data []byte) (*ServerConfig, error) {
	var cfg ServerConfig
	if err := decode(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := joinErrors(cfg.Validate()); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *ServerConfig) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}
	if c.HistoryWindow == 0 {
		c.HistoryWindow = DefaultHistoryWindow
	}
	if c.ResolverTimeout == 0 {
		c.ResolverTimeout = DefaultResolverTimeout
	}
	if c.SaveRate == 0 {
		c.SaveRate = DefaultSaveRate
	}
	if c.SaveBurst == 0 {
		c.SaveBurst = DefaultSaveBurst
	}
	if tok := os.Getenv(TokenEnv); tok != "" {
		c.Token = tok
	}
	c.LoggingConfig.applyDefaults()
}

// Validate returns every problem with c. An empty slice means c is valid.
func (c *ServerConfig) Validate() []error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		add("listen_addr %q is not a valid host:port address: %v", c.ListenAddr, err)
	}
	if c.DataFile == "" {
		add("data_file must not be empty")
	}
	if c.Token == "" {
		add("token must not be empty (set it in the file or %s)", TokenEnv)
	}
	if c.HistoryWindow < 0 {
		add("history_window must not be negative")
	}
	if c.Resolver != "" {
		if _, _, err := net.SplitHostPort(c.Resolver); err != nil {
			add("resolver %q is not a valid host:port address: %v", c.Resolver, err)
		}
	}
	if c.ResolverTimeout <= 0 {
		add("resolver_timeout must be positive")
	}
	if c.SaveRate < 0 {
		add("save_rate must not be negative")
	}
	if c.SaveBurst < 0 {
		add("save_burst must not be negative")
	}
	c.LoggingConfig.validate(add)

	return errs
}

func readFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}
	return data, nil
}

// decode rejects unknown keys. Empty input leaves out untouched.
func decode(data []byte, out any) error {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("parsing YAML: %w", err)
	}
	return nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(msgs, "\n  - "))
}
