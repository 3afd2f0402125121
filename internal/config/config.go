package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/wlhuang/riskgate/internal/mail"
	"github.com/wlhuang/riskgate/params"
)

const (
	DefaultListenAddr    = ":3000"
	DefaultSessionMaxAge = 24 * time.Hour
	DefaultCookieName    = "sid"
	DefaultPolicyFile    = "policy.csv"
)

type MySQLConfig struct {
	Dsn             string `mapstructure:"dsn"`
	ReplicaDsn      string `mapstructure:"replicaDsn"`
	TablePrefix     string `mapstructure:"tablePrefix"`
	MaxIdleConns    int    `mapstructure:"maxIdleConns"`
	MaxOpenConns    int    `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime int    `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime int    `mapstructure:"connMaxLifetime"`
}

type SessionConfig struct {
	SessionMaxAge  time.Duration `mapstructure:"sessionMaxAge"`
	CookieName     string        `mapstructure:"cookieName"`
	CookieHttpOnly bool          `mapstructure:"cookieHttpOnly"`
	CookieSecure   bool          `mapstructure:"cookieSecure"`
}

type MailConfig struct {
	Backend string          `mapstructure:"backend"`
	From    string          `mapstructure:"from"`
	SMTP    mail.SMTPConfig `mapstructure:"smtp"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type PolicyConfig struct {
	File      string `mapstructure:"file"`
	OTPDigits int    `mapstructure:"otpDigits"`
}

// MetadataConfig maps authenticator AAGUIDs to their certification status.
// Feeds the static metadata backend; AAGUIDs absent from the map are treated
// as unknown devices.
type MetadataConfig struct {
	AAGUIDStatuses map[string]string `mapstructure:"aaguidStatuses"`
}

type Config struct {
	Debug        bool           `mapstructure:"debug"`
	ListenAddr   string         `mapstructure:"listenAddr"`
	MasterKey    string         `mapstructure:"masterKey"`
	AllowOrigins []string       `mapstructure:"allowOrigins"`
	Redis        RedisConfig    `mapstructure:"redis"`
	Session      SessionConfig  `mapstructure:"session"`
	Mail         MailConfig     `mapstructure:"mail"`
	MySQL        MySQLConfig    `mapstructure:"mysql"`
	Policy       PolicyConfig   `mapstructure:"policy"`
	Metadata     MetadataConfig `mapstructure:"metadata"`
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.MasterKey == "" {
		return errors.New("missing masterKey")
	}
	if c.Session.SessionMaxAge == 0 {
		c.Session.SessionMaxAge = DefaultSessionMaxAge
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultCookieName
	}
	if c.Policy.File == "" {
		c.Policy.File = DefaultPolicyFile
	}
	if c.Policy.OTPDigits == 0 {
		c.Policy.OTPDigits = params.StepUpOTPDigits
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
