package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/geotrackd/internal/errors"
	"codeberg.org/mutker/geotrackd/internal/model"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultInterval     = 30   // seconds between continuous samples
	defaultTickInterval = 15   // minutes between schedule evaluations
	defaultListen       = ":8080"
	defaultDatabase     = "/var/lib/geotrackd/geotrackd.db"
	defaultGpsd         = "localhost:2947"
	defaultConnectivity = "1.1.1.1:53"
	defaultScheduleFrom = "08:00"
	defaultScheduleTo   = "18:00"
)

type Config struct {
	Mode          string   `mapstructure:"mode"`
	Interval      int      `mapstructure:"interval"`
	TickInterval  int      `mapstructure:"tick_interval"`
	Listen        string   `mapstructure:"listen"`
	Database      string   `mapstructure:"database"`
	Gpsd          string   `mapstructure:"gpsd"`
	Fallback      bool     `mapstructure:"fallback"`
	FallbackLat   float64  `mapstructure:"fallback_latitude"`
	FallbackLon   float64  `mapstructure:"fallback_longitude"`
	Connectivity  string   `mapstructure:"connectivity"`
	ScheduleDays  []string `mapstructure:"schedule_days"`
	ScheduleStart string   `mapstructure:"schedule_start"`
	ScheduleEnd   string   `mapstructure:"schedule_end"`
	LogLevel      string   `mapstructure:"log_level"`
	Debug         bool     `mapstructure:"debug"`
	Verbose       bool     `mapstructure:"verbose"`
}

func Load() (*Config, error) {
	errFactory := errors.New()
	v := viper.New()

	flags := pflag.CommandLine
	if flags.Lookup("mode") == nil {
		flags.String("mode", string(model.ModeContinuous), "Collection mode: continuous or scheduled")
		flags.Int("interval", defaultInterval, "Seconds between samples in continuous mode")
		flags.Int("tick-interval", defaultTickInterval, "Minutes between schedule evaluations")
		flags.String("listen", defaultListen, "Telemetry API listen address")
		flags.String("database", defaultDatabase, "Path to the sqlite database")
		flags.String("log-level", "", "Log level (debug, info, warning, error)")
		flags.Bool("debug", false, "Enable debugging mode")
		flags.Bool("verbose", false, "Enable verbose logging")
	}
	if !flags.Parsed() {
		flags.ParseErrorsWhitelist.UnknownFlags = true
		flags.Parse(os.Args[1:])
	}

	v.SetDefault("mode", string(model.ModeContinuous))
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("tick_interval", defaultTickInterval)
	v.SetDefault("listen", defaultListen)
	v.SetDefault("database", defaultDatabase)
	v.SetDefault("gpsd", defaultGpsd)
	v.SetDefault("connectivity", defaultConnectivity)
	v.SetDefault("schedule_days", []string{"monday", "tuesday", "wednesday", "thursday", "friday"})
	v.SetDefault("schedule_start", defaultScheduleFrom)
	v.SetDefault("schedule_end", defaultScheduleTo)
	v.SetDefault("log_level", DefaultLogLevel)

	if path := os.Getenv("GEOTRACKD_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("geotrackd")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.WithMessage(errors.ErrReadConfig, "Failed to read config file: "+err.Error())
		}
	}

	// Command line flags override config file values.
	flags.Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		v.Set(key, f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrReadConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if !model.Mode(c.Mode).Valid() {
		return errFactory.WithData(errors.ErrInvalidConfig, c.Mode)
	}

	if c.Interval <= 0 || c.TickInterval <= 0 {
		return errFactory.New(errors.ErrInvalidInterval)
	}

	if c.Database == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "database path is required")
	}

	if _, err := c.Schedule(); err != nil {
		return err
	}

	return nil
}

// Schedule converts the configured weekly window into its model form.
func (c *Config) Schedule() (model.ScheduleConfig, error) {
	errFactory := errors.New()

	var schedule model.ScheduleConfig
	for _, name := range c.ScheduleDays {
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return schedule, errFactory.WithData(errors.ErrInvalidSchedule, name)
		}
		schedule.Days[int(day)] = true
	}

	start, err := parseMinuteOfDay(c.ScheduleStart)
	if err != nil {
		return schedule, err
	}
	end, err := parseMinuteOfDay(c.ScheduleEnd)
	if err != nil {
		return schedule, err
	}

	schedule.StartMinute = start
	schedule.EndMinute = end

	return schedule, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseMinuteOfDay(value string) (int, error) {
	errFactory := errors.New()

	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, errFactory.WithData(errors.ErrInvalidSchedule, value)
	}

	return parsed.Hour()*60 + parsed.Minute(), nil
}
