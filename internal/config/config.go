package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"ride-sim/internal/mylogger"
)

type Config struct {
	DB        *DBconfig
	RabbitMq  *RabbitMqconfig
	Srv       *Serviceconfig
	Log       *Loggerconfig
	Sim       *Simconfig
	Router    *Routerconfig
	Device    *Deviceconfig
	Telemetry *Telemetryconfig
}

type DBconfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	MaxRetries int    `yaml:"max_retries"`
}
type RabbitMqconfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}
type Serviceconfig struct {
	SimServicePort string `yaml:"sim_service"`
}
type Loggerconfig struct {
	Level string `yaml:"level"`
}

// Simconfig holds the rider simulation tunables. RefreshTicks is the number
// of motion ticks between two route refreshes.
type Simconfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	RefreshTicks  int           `yaml:"refresh_ticks"`
	Step          float64       `yaml:"step"`
	RiderOffset   float64       `yaml:"rider_offset"`
	ArrivalPolicy string        `yaml:"arrival_policy"`
}

type Routerconfig struct {
	Kind    string        `yaml:"kind"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Points  int           `yaml:"points"`
}

// Deviceconfig describes the static device used by headless runs.
type Deviceconfig struct {
	Latitude    float64 `yaml:"latitude"`
	Longitude   float64 `yaml:"longitude"`
	Permission  string  `yaml:"permission"`
	AutoRestart bool    `yaml:"auto_restart"`
}

type Telemetryconfig struct {
	BrokerEnabled bool `yaml:"broker_enabled"`
	DBEnabled     bool `yaml:"db_enabled"`
}

// New reads the configuration from the environment. Missing or malformed
// values fall back to their defaults with a warning on log.
func New(log mylogger.Logger) *Config {
	l := log.Action("load_config")

	getEnv := func(key, def string) string {
		val := os.Getenv(key)
		if val == "" {
			l.Debug("using default key", "key", key, "default-key", def)
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			l.Debug("using default key", "key", key, "default-key", def)
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			l.Warn("cannot use atoi, using default key", "key", key, "default-key", def)
			return def
		}
		return val
	}

	getEnvFloat := func(key string, def float64) float64 {
		valStr := os.Getenv(key)
		if valStr == "" {
			l.Debug("using default key", "key", key, "default-key", def)
			return def
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			l.Warn("cannot parse float, using default key", "key", key, "default-key", def)
			return def
		}
		return val
	}

	getEnvDuration := func(key string, def time.Duration) time.Duration {
		valStr := os.Getenv(key)
		if valStr == "" {
			l.Debug("using default key", "key", key, "default-key", def.String())
			return def
		}
		val, err := time.ParseDuration(valStr)
		if err != nil || val <= 0 {
			l.Warn("cannot parse duration, using default key", "key", key, "default-key", def.String())
			return def
		}
		return val
	}

	getEnvBool := func(key string, def bool) bool {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.ParseBool(strings.TrimSpace(valStr))
		if err != nil {
			l.Warn("cannot parse bool, using default key", "key", key, "default-key", def)
			return def
		}
		return val
	}

	cnf := &Config{
		DB: &DBconfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", 5432),
			User:       getEnv("DB_USER", "ridesim_user"),
			Password:   getEnv("DB_PASSWORD", "ridesim_pass"),
			Database:   getEnv("DB_NAME", "ridesim_db"),
			MaxRetries: getEnvInt("DB_MAX_RETRIES", 3),
		},
		RabbitMq: &RabbitMqconfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnvInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", ""),
		},
		Srv: &Serviceconfig{
			SimServicePort: getEnv("SIM_SERVICE_PORT", "3000"),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
		Sim: &Simconfig{
			TickInterval:  getEnvDuration("SIM_TICK_INTERVAL", time.Second),
			RefreshTicks:  getEnvInt("SIM_REFRESH_TICKS", 10),
			Step:          getEnvFloat("SIM_STEP", 0.0006),
			RiderOffset:   getEnvFloat("SIM_RIDER_OFFSET", 0.050022),
			ArrivalPolicy: getEnv("SIM_ARRIVAL_POLICY", "any"),
		},
		Router: &Routerconfig{
			Kind:    getEnv("ROUTER_KIND", "osrm"),
			URL:     getEnv("ROUTER_URL", "https://router.project-osrm.org"),
			Timeout: getEnvDuration("ROUTER_TIMEOUT", 10*time.Second),
			Points:  getEnvInt("ROUTER_POINTS", 16),
		},
		Device: &Deviceconfig{
			Latitude:    getEnvFloat("DEVICE_LAT", 12.9716),
			Longitude:   getEnvFloat("DEVICE_LON", 77.5946),
			Permission:  getEnv("DEVICE_PERMISSION", "authorizedWhenInUse"),
			AutoRestart: getEnvBool("DEVICE_AUTO_RESTART", false),
		},
		Telemetry: &Telemetryconfig{
			BrokerEnabled: getEnvBool("BROKER_ENABLED", false),
			DBEnabled:     getEnvBool("DB_ENABLED", false),
		},
	}

	if cnf.Sim.RefreshTicks < 1 {
		l.Warn("refresh ticks must be positive, using default key", "key", "SIM_REFRESH_TICKS", "default-key", 10)
		cnf.Sim.RefreshTicks = 10
	}
	if cnf.Sim.Step <= 0 {
		l.Warn("step must be positive, using default key", "key", "SIM_STEP", "default-key", 0.0006)
		cnf.Sim.Step = 0.0006
	}

	return cnf
}
