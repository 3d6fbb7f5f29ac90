package connector

import "time"

// Config describes one PostgreSQL endpoint.
type Config struct {
	Host           string            `json:"host" yaml:"host"`
	Port           int               `json:"port" yaml:"port"`
	Database       string            `json:"database" yaml:"database"`
	Username       string            `json:"username" yaml:"username"`
	Password       string            `json:"password" yaml:"password"`
	SSLMode        string            `json:"ssl_mode" yaml:"ssl_mode"`
	Params         map[string]string `json:"params" yaml:"params"`
	Pool           PoolConfig        `json:"pool" yaml:"pool"`
	ConnectTimeout time.Duration     `json:"connect_timeout" yaml:"connect_timeout"`
	Retry          *RetryOptions     `json:"retry" yaml:"retry"`
}

type PoolConfig struct {
	MaxOpen     int           `json:"max_open" yaml:"max_open"`
	MinIdle     int           `json:"min_idle" yaml:"min_idle"`
	MaxLifetime time.Duration `json:"max_lifetime" yaml:"max_lifetime"`
	MaxIdleTime time.Duration `json:"max_idle_time" yaml:"max_idle_time"`
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.MaxOpen <= 0 {
		c.MaxOpen = 10
	}
	if c.MinIdle < 0 {
		c.MinIdle = 1
	}
	if c.MaxLifetime == 0 {
		c.MaxLifetime = time.Hour
	}
	if c.MaxIdleTime == 0 {
		c.MaxIdleTime = 30 * time.Minute
	}
	return c
}
