package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Mask    MaskConfig    `mapstructure:"mask"`
	GrabCut GrabCutConfig `mapstructure:"grabcut"`
	TryOn   TryOnConfig   `mapstructure:"tryon"`
	Janitor JanitorConfig `mapstructure:"janitor"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize          int64    `mapstructure:"max_size"`
	UploadDir        string   `mapstructure:"upload_dir"`
	OutputDir        string   `mapstructure:"output_dir"`
	AllowedExts      []string `mapstructure:"allowed_exts"`
	CleanupTempFiles bool     `mapstructure:"cleanup_temp_files"`
}

// MaskConfig 阈值化与质量门参数
type MaskConfig struct {
	Threshold       int     `mapstructure:"threshold"`
	AutoThreshold   bool    `mapstructure:"auto_threshold"`
	KernelSize      int     `mapstructure:"kernel_size"`
	MinAreaRatio    float64 `mapstructure:"min_area_ratio"`
	RectMargin      int     `mapstructure:"rect_margin"`
	DefaultStrategy string  `mapstructure:"default_strategy"`
}

type GrabCutConfig struct {
	Iterations    int `mapstructure:"iterations"`
	MaxDimension  int `mapstructure:"max_dimension"`
	MaxConcurrent int `mapstructure:"max_concurrent"`
	QueueTimeout  int `mapstructure:"queue_timeout"`
}

// TryOnConfig 外部试穿程序，Command 为空时禁用
type TryOnConfig struct {
	Command string        `mapstructure:"command"`
	Args    []string      `mapstructure:"args"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type JanitorConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Schedule  string        `mapstructure:"schedule"`
	Retention time.Duration `mapstructure:"retention"`
}

// Load 从 YAML 文件加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// New 使用默认配置路径加载配置
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		// 如果加载失败，返回默认配置
		return Default()
	}
	return cfg
}

// Validate 检查无法在启动后纠正的取值
func (c *Config) Validate() error {
	if c.Mask.Threshold < 0 || c.Mask.Threshold > 255 {
		return fmt.Errorf("mask.threshold must be within [0, 255], got %d", c.Mask.Threshold)
	}
	if c.Mask.KernelSize < 1 || c.Mask.KernelSize%2 == 0 {
		return fmt.Errorf("mask.kernel_size must be a positive odd number, got %d", c.Mask.KernelSize)
	}
	if c.GrabCut.Iterations < 1 {
		return fmt.Errorf("grabcut.iterations must be positive, got %d", c.GrabCut.Iterations)
	}
	if c.GrabCut.MaxConcurrent < 1 {
		return fmt.Errorf("grabcut.max_concurrent must be positive, got %d", c.GrabCut.MaxConcurrent)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("upload.max_size", d.Upload.MaxSize)
	v.SetDefault("upload.upload_dir", d.Upload.UploadDir)
	v.SetDefault("upload.output_dir", d.Upload.OutputDir)
	v.SetDefault("upload.allowed_exts", d.Upload.AllowedExts)
	v.SetDefault("upload.cleanup_temp_files", d.Upload.CleanupTempFiles)

	v.SetDefault("mask.threshold", d.Mask.Threshold)
	v.SetDefault("mask.auto_threshold", d.Mask.AutoThreshold)
	v.SetDefault("mask.kernel_size", d.Mask.KernelSize)
	v.SetDefault("mask.min_area_ratio", d.Mask.MinAreaRatio)
	v.SetDefault("mask.rect_margin", d.Mask.RectMargin)
	v.SetDefault("mask.default_strategy", d.Mask.DefaultStrategy)

	v.SetDefault("grabcut.iterations", d.GrabCut.Iterations)
	v.SetDefault("grabcut.max_dimension", d.GrabCut.MaxDimension)
	v.SetDefault("grabcut.max_concurrent", d.GrabCut.MaxConcurrent)
	v.SetDefault("grabcut.queue_timeout", d.GrabCut.QueueTimeout)

	v.SetDefault("tryon.command", d.TryOn.Command)
	v.SetDefault("tryon.args", d.TryOn.Args)
	v.SetDefault("tryon.timeout", d.TryOn.Timeout)

	v.SetDefault("janitor.enabled", d.Janitor.Enabled)
	v.SetDefault("janitor.schedule", d.Janitor.Schedule)
	v.SetDefault("janitor.retention", d.Janitor.Retention)
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			Mode:         "debug",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  true,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Upload: UploadConfig{
			MaxSize:          10 * 1024 * 1024,
			UploadDir:        "./uploads",
			OutputDir:        "./outputs",
			AllowedExts:      []string{".jpg", ".jpeg", ".png"},
			CleanupTempFiles: true,
		},
		Mask: MaskConfig{
			Threshold:       250,
			AutoThreshold:   true,
			KernelSize:      5,
			MinAreaRatio:    0.001,
			RectMargin:      5,
			DefaultStrategy: "auto",
		},
		GrabCut: GrabCutConfig{
			Iterations:    5,
			MaxDimension:  800,
			MaxConcurrent: 3,
			QueueTimeout:  30,
		},
		TryOn: TryOnConfig{
			Args:    []string{"--cloth", "{cloth}", "--mask", "{mask}", "--output", "{output}"},
			Timeout: 5 * time.Minute,
		},
		Janitor: JanitorConfig{
			Enabled:   true,
			Schedule:  "@every 10m",
			Retention: time.Hour,
		},
	}
}
