package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Service   string `yaml:"service"` // ironbot
	Version   string `yaml:"version"` // v0.1.0
	Level     string `yaml:"level"`   // debug|info|warn|error
	Format    string `yaml:"format"`  // text|json
	AddSource bool   `yaml:"addSource"`

	// sampling applies to json output only
	SampleInitial    int `yaml:"sampleInitial"`
	SampleThereafter int `yaml:"sampleThereafter"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Gateway struct {
	FeedURL     string `yaml:"feedUrl"` // ws(s):// event stream
	BaseURL     string `yaml:"baseUrl"` // http(s):// room management API
	Token       string `yaml:"token"`
	CallTimeout string `yaml:"callTimeout"` // per room-management call, default 15s
}

type Auth struct {
	Secret   string `yaml:"secret"` // HS256 key for the admin API
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// Points controls accrual and the two sweeps. Zero values fall back to the
// policy defaults in validate().
type Points struct {
	BlockSeconds      int64  `yaml:"blockSeconds"`
	PointsPerBlock    int64  `yaml:"pointsPerBlock"`
	AFKSeconds        int64  `yaml:"afkSeconds"`
	MuteGraceSeconds  int64  `yaml:"muteGraceSeconds"`
	AFKInterval       string `yaml:"afkInterval"`
	ReconcileInterval string `yaml:"reconcileInterval"`
}

type Groups struct {
	Size              int      `yaml:"size"`
	TriggerName       string   `yaml:"triggerName"`
	RoomNames         []string `yaml:"roomNames"`
	Containers        []string `yaml:"containers"`        // eligible container names
	PrivateTriggers   []string `yaml:"privateTriggers"`   // one-off private room triggers
	PrivateNamePrefix string   `yaml:"privateNamePrefix"` // "Host: " + display name
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Gateway  Gateway  `yaml:"gateway"`
	Auth     Auth     `yaml:"auth"`
	Points   Points   `yaml:"points"`
	Groups   Groups   `yaml:"groups"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Gateway.FeedURL == "" {
		return errors.New("gateway.feedUrl is required")
	}
	if c.Gateway.BaseURL == "" {
		return errors.New("gateway.baseUrl is required")
	}
	if c.Points.BlockSeconds < 0 || c.Points.PointsPerBlock < 0 {
		return fmt.Errorf("points: negative policy values")
	}

	if c.Logging.Service == "" {
		c.Logging.Service = "ironbot"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Points.BlockSeconds == 0 {
		c.Points.BlockSeconds = 30 * 60
	}
	if c.Points.PointsPerBlock == 0 {
		c.Points.PointsPerBlock = 5
	}
	if c.Points.AFKSeconds == 0 {
		c.Points.AFKSeconds = 60 * 60
	}
	if c.Points.MuteGraceSeconds == 0 {
		c.Points.MuteGraceSeconds = 60 * 60
	}

	if c.Groups.Size == 0 {
		c.Groups.Size = 4
	}
	if c.Groups.TriggerName == "" {
		c.Groups.TriggerName = "Create Teams"
	}
	if len(c.Groups.RoomNames) == 0 {
		for i := 1; i <= c.Groups.Size; i++ {
			c.Groups.RoomNames = append(c.Groups.RoomNames, fmt.Sprintf("Team %d", i))
		}
	}
	if len(c.Groups.RoomNames) != c.Groups.Size {
		return fmt.Errorf("groups: %d room names for size %d", len(c.Groups.RoomNames), c.Groups.Size)
	}
	if len(c.Groups.PrivateTriggers) == 0 {
		c.Groups.PrivateTriggers = []string{"Create Room"}
	}
	if c.Groups.PrivateNamePrefix == "" {
		c.Groups.PrivateNamePrefix = "Host: "
	}
	return nil
}

func (c *Config) AFKInterval() time.Duration {
	return parseDurationOr(time.Minute, c.Points.AFKInterval)
}

func (c *Config) ReconcileInterval() time.Duration {
	return parseDurationOr(5*time.Minute, c.Points.ReconcileInterval)
}

func (c *Config) GatewayCallTimeout() time.Duration {
	return parseDurationOr(15*time.Second, c.Gateway.CallTimeout)
}

func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
