package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"vacation-approval/pkg/idgen"
	"vacation-approval/pkg/logger"
	"vacation-approval/pkg/vacation"
)

// EnvPrefix 环境变量前缀，如 VACATION_SERVER_ADDR
const EnvPrefix = "VACATION"

// ErrInvalid 配置不合法
var ErrInvalid = errors.New("config: invalid configuration")

// Config 服务配置
type Config struct {
	Server ServerConfig         `mapstructure:"server"`
	Log    logger.Config        `mapstructure:"log"`
	Rules  vacation.RulesConfig `mapstructure:"rules"`
	Store  StoreConfig          `mapstructure:"store"`
	Redis  RedisConfig          `mapstructure:"redis"`
	Auth   AuthConfig           `mapstructure:"auth"`
	IDGen  idgen.Config         `mapstructure:"idgen"`
}

// ServerConfig HTTP 服务
//   - ConflictTimeout: 等待代理人冲突检查的最长时间，超时后该节点报告为等待中
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ConflictTimeout time.Duration `mapstructure:"conflict_timeout"`
}

// StoreConfig 代理人承诺日期存储
//   - Driver: memory | sqlite | mysql | postgres
//   - Seed: 启动时写入演示数据
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Seed   bool   `mapstructure:"seed"`
}

// RedisConfig 承诺日期缓存
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AuthConfig JWT 鉴权，JWTSecret 为空时不启用
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

func setDefaults(v *viper.Viper) {
	rules := vacation.DefaultRulesConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.conflict_timeout", 2*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)

	v.SetDefault("rules.name_max_length", rules.NameMaxLength)
	v.SetDefault("rules.min_days", rules.MinDays)
	v.SetDefault("rules.max_days", rules.MaxDays)
	v.SetDefault("rules.max_range_days", rules.MaxRangeDays)
	v.SetDefault("rules.window_years", rules.WindowYears)
	v.SetDefault("rules.date_format", rules.DateFormat)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.seed", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "vacation-approval")

	v.SetDefault("idgen.datacenter_id", 0)
	v.SetDefault("idgen.worker_id", 0)
}

// Load 读取配置：默认值 < 配置文件 < 环境变量
// path 为空时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 检查配置
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	}
	if c.Server.ConflictTimeout <= 0 {
		return fmt.Errorf("%w: server.conflict_timeout must be positive", ErrInvalid)
	}
	switch c.Store.Driver {
	case "memory":
	case "sqlite", "mysql", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for driver %q", ErrInvalid, c.Store.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalid, c.Store.Driver)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is empty", ErrInvalid)
	}
	if err := c.Rules.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.IDGen.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
