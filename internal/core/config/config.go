package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const DefaultPath = "./configs/config.local.yaml"

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 为空则只写 stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	LeewaySec         int
}

func (j JWT) TTL() time.Duration    { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) Leeway() time.Duration { return time.Duration(j.LeewaySec) * time.Second }

type Redis struct {
	Addr        string `mapstructure:"addr"` // 为空则关闭缓存
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	CacheTTLSec int    `mapstructure:"cachettlsec"`
}

type DB struct {
	Driver             string // postgres | mysql | sqlite
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Limits struct {
	RPS               float64
	Burst             int
	AuthRPS           float64 // 登录/注册 每 IP
	AuthBurst         int
	Concurrency       int64
	MaxBodyBytes      int64
	RequestTimeoutSec int
}

type Config struct {
	App    App
	Log    Log
	JWT    JWT
	DB     DB
	Redis  Redis `mapstructure:"redis"`
	Limits Limits
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "powerfolio")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 12000)
	v.SetDefault("app.http.readtimeoutsec", 5)
	v.SetDefault("app.http.writetimeoutsec", 10)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 12001)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 5)
	v.SetDefault("log.maxagedays", 14)
	v.SetDefault("log.compress", true)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "powerfolio")
	v.SetDefault("jwt.accesstokenttlmin", 30*24*60) // 30 天
	v.SetDefault("jwt.leewaysec", 0)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "powerfolio.db")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 5)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cachettlsec", 60)

	v.SetDefault("limits.rps", 200)
	v.SetDefault("limits.burst", 400)
	v.SetDefault("limits.authrps", 1)
	v.SetDefault("limits.authburst", 10)
	v.SetDefault("limits.concurrency", 300)
	v.SetDefault("limits.maxbodybytes", 16<<20)
	v.SetDefault("limits.requesttimeoutsec", 10)
}

// Load 读取 YAML + APP_ 前缀环境变量（APP_JWT_SECRET 覆盖 jwt.secret）。
// path 为空时依次尝试 CONFIG_PATH 与 DefaultPath；默认路径不存在不算错误。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		explicit = path != ""
		if path == "" {
			path = DefaultPath
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		_, statErr := os.Stat(path)
		missing := errors.As(err, &notFound) || os.IsNotExist(statErr)
		if explicit || !missing {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate 启动期校验，签名密钥必须显式配置
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 16 {
		return errors.New("config: jwt.secret must be at least 16 bytes (set APP_JWT_SECRET)")
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return errors.New("config: jwt.accessTokenTTLMin must be positive")
	}
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	return nil
}
