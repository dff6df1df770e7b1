package config

import (
	"fmt"
	"strings"
	"time"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetRequestTimeout() time.Duration
	GetShutdownTimeout() time.Duration
}

type EnvVars struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	AppName         string        `env:"APP_NAME" envDefault:"Go Token Server"`
	Environment     string        `env:"ENV" envDefault:"DEV"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Environment == "" {
		return "DEV"
	}
	return e.Environment
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetRequestTimeout() time.Duration {
	return e.RequestTimeout
}

func (e EnvVars) GetShutdownTimeout() time.Duration {
	if e.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return e.ShutdownTimeout
}
