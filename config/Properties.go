package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultEnv = "dev"
const DefaultDir = "properties"

// Properties is the server configuration, read from
// <dir>/<env>.properties and overridden by env vars, then by flags.
type Properties struct {
	Env           string
	HostIP        string
	HostPort      string
	TickInterval  time.Duration
	EvictInterval time.Duration
	SendBuffer    int
	StaticDir     string
}

// Addr is the listen address.
func (p Properties) Addr() string {
	return fmt.Sprintf("%s:%s", p.HostIP, p.HostPort)
}

// BindFlags registers the flags that can override properties.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("host", "", "listen address (HOST_IP)")
	flags.String("port", "", "listen port (HOST_PORT, PORT)")
	flags.Duration("tick", 0, "room tick interval (TICK_INTERVAL)")
	flags.String("static", "", "directory served at / (STATIC_DIR)")
}

// ReadProperties loads configuration for env from dir. A .env file in the
// working directory is loaded first when present; flags may be nil.
func ReadProperties(dir, env string, flags *pflag.FlagSet) (Properties, error) {
	_ = godotenv.Load()

	if env == "" {
		env = DefaultEnv
	}

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("properties")
	v.AddConfigPath(dir)

	v.SetDefault("HOST_IP", "")
	v.SetDefault("HOST_PORT", "3000")
	v.SetDefault("TICK_INTERVAL", "16ms")
	v.SetDefault("EVICT_INTERVAL", "1m")
	v.SetDefault("SEND_BUFFER", 256)
	v.SetDefault("STATIC_DIR", "")

	for _, key := range []string{"HOST_IP", "TICK_INTERVAL", "EVICT_INTERVAL", "SEND_BUFFER", "STATIC_DIR"} {
		if err := v.BindEnv(key); err != nil {
			return Properties{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	if err := v.BindEnv("HOST_PORT", "HOST_PORT", "PORT"); err != nil {
		return Properties{}, fmt.Errorf("bind env HOST_PORT: %w", err)
	}

	if flags != nil {
		for key, name := range map[string]string{
			"HOST_IP":       "host",
			"HOST_PORT":     "port",
			"TICK_INTERVAL": "tick",
			"STATIC_DIR":    "static",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Properties{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Properties{}, fmt.Errorf("read %s: %w", filepath.Join(dir, env+".properties"), err)
		}
	}

	tick, err := cast.ToDurationE(v.Get("TICK_INTERVAL"))
	if err != nil {
		return Properties{}, fmt.Errorf("TICK_INTERVAL: %w", err)
	}
	if tick <= 0 {
		return Properties{}, fmt.Errorf("TICK_INTERVAL must be positive, got %s", tick)
	}
	evict, err := cast.ToDurationE(v.Get("EVICT_INTERVAL"))
	if err != nil {
		return Properties{}, fmt.Errorf("EVICT_INTERVAL: %w", err)
	}
	sendBuffer, err := cast.ToIntE(v.Get("SEND_BUFFER"))
	if err != nil {
		return Properties{}, fmt.Errorf("SEND_BUFFER: %w", err)
	}

	return Properties{
		Env:           env,
		HostIP:        cast.ToString(v.Get("HOST_IP")),
		HostPort:      cast.ToString(v.Get("HOST_PORT")),
		TickInterval:  tick,
		EvictInterval: evict,
		SendBuffer:    sendBuffer,
		StaticDir:     cast.ToString(v.Get("STATIC_DIR")),
	}, nil
}
