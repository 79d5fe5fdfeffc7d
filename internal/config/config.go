package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	Draft      DraftConfig      `mapstructure:"draft"`
	Inspection InspectionConfig `mapstructure:"inspection"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpire time.Duration `mapstructure:"access_token_expire"`
	Issuer            string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DraftConfig 录入草稿存储
type DraftConfig struct {
	Backend string        `mapstructure:"backend"` // redis/memory
	TTL     time.Duration `mapstructure:"ttl"`
}

// LimitConfig 单个属性的限值覆盖，缺省一侧表示开放
type LimitConfig struct {
	Min *float64 `mapstructure:"min"`
	Max *float64 `mapstructure:"max"`
}

// BandConfig 公差带覆盖
type BandConfig struct {
	Standard float64 `mapstructure:"standard"`
	Min      float64 `mapstructure:"min"`
	Max      float64 `mapstructure:"max"`
}

// InspectionConfig 判定参数
type InspectionConfig struct {
	SpecLimits         map[string]LimitConfig `mapstructure:"spec_limits"`
	EnforceHardness    bool                   `mapstructure:"enforce_hardness"`
	ToleranceBands     map[string]BandConfig  `mapstructure:"tolerance_bands"`
	LadleDeltas        map[string]float64     `mapstructure:"ladle_deltas"`
	LadleGatesMaterial bool                   `mapstructure:"ladle_gates_material"`
}

func Load() (*Config, error) {
	v := viper.New()

	// 设置配置文件
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// 配置文件不存在，使用环境变量
	}

	bindEnvVariables(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("minio.bucket", "rm-reports")

	v.SetDefault("jwt.issuer", "rmqc")
	v.SetDefault("jwt.access_token_expire", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("draft.backend", "memory")
	v.SetDefault("draft.ttl", 7*24*time.Hour)

	v.SetDefault("inspection.enforce_hardness", true)
	v.SetDefault("inspection.ladle_gates_material", false)
}

func bindEnvVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	// Database
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// MinIO
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Draft
	v.BindEnv("draft.backend", "DRAFT_BACKEND")

	// Inspection
	v.BindEnv("inspection.enforce_hardness", "RM_ENFORCE_HARDNESS")
	v.BindEnv("inspection.ladle_gates_material", "RM_LADLE_GATES_MATERIAL")
}

// Limits 合并默认限值与配置覆盖；enforce_hardness=false 时硬度只要求录入不校验范围
func (c InspectionConfig) Limits() (*engine.Limits, error) {
	overrides := make([]engine.SpecLimit, 0, len(c.SpecLimits))
	for name, l := range c.SpecLimits {
		attr, ok := engine.ResolveAttribute(name)
		if !ok {
			return nil, fmt.Errorf("spec_limits: unknown attribute %q", name)
		}
		overrides = append(overrides, engine.SpecLimit{Attribute: attr, Min: l.Min, Max: l.Max})
	}
	var drop []engine.AttributeID
	if !c.EnforceHardness {
		drop = append(drop, engine.AttrHardness)
	}
	limits, err := engine.Override(engine.DefaultSpecLimits(), overrides, drop...)
	if err != nil {
		return nil, fmt.Errorf("spec_limits: %w", err)
	}
	return limits, nil
}

// Bands 默认公差带叠加配置中的覆盖或新增型号
func (c InspectionConfig) Bands() (*engine.BandTable, error) {
	byClass := make(map[string]engine.ToleranceBand)
	order := make([]string, 0)
	for _, b := range engine.DefaultBands() {
		byClass[b.Class] = b
		order = append(order, b.Class)
	}
	for name, b := range c.ToleranceBands {
		class := strings.ToUpper(strings.TrimSpace(name))
		if _, ok := byClass[class]; !ok {
			order = append(order, class)
		}
		byClass[class] = engine.ToleranceBand{Class: class, Standard: b.Standard, Min: b.Min, Max: b.Max}
	}
	bands := make([]engine.ToleranceBand, 0, len(order))
	for _, class := range order {
		bands = append(bands, byClass[class])
	}
	t, err := engine.NewBandTable(bands...)
	if err != nil {
		return nil, fmt.Errorf("tolerance_bands: %w", err)
	}
	return t, nil
}

// LadleDeltasByAttribute 炉前对照允许偏差，未配置时使用默认值
func (c InspectionConfig) LadleDeltasByAttribute() (map[engine.AttributeID]float64, error) {
	out := engine.DefaultLadleDeltas()
	for name, d := range c.LadleDeltas {
		attr, ok := engine.ResolveAttribute(name)
		if !ok {
			return nil, fmt.Errorf("ladle_deltas: unknown attribute %q", name)
		}
		if d < 0 {
			return nil, fmt.Errorf("ladle_deltas: negative delta for %s", attr)
		}
		out[attr] = d
	}
	return out, nil
}

// NewEngine 按配置构造判定引擎
func (c InspectionConfig) NewEngine() (*engine.Engine, error) {
	limits, err := c.Limits()
	if err != nil {
		return nil, err
	}
	bands, err := c.Bands()
	if err != nil {
		return nil, err
	}
	deltas, err := c.LadleDeltasByAttribute()
	if err != nil {
		return nil, err
	}
	return engine.New(
		engine.WithLimits(limits),
		engine.WithBands(bands),
		engine.WithLadleDeltas(deltas),
		engine.WithLadleGate(c.LadleGatesMaterial),
	), nil
}

// GetEnvOrDefault 获取环境变量，如果不存在则返回默认值
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
