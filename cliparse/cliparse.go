package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	AdminKey     string
	IPHashSalt   string
	LogLevel     slog.Level
	ConfigFile   string

	// Hostname is the public host used in vote links.
	Hostname string

	// Schedule
	OpenDays     []time.Weekday
	OpenAt       time.Duration
	CloseAt      time.Duration
	Location     *time.Location
	NoRepeatDays int
	TickInterval time.Duration

	// Mail; an empty SMTPHost logs announcements instead of sending them.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	MailPace     time.Duration
}

// MailEnabled reports whether an SMTP server is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// flagValues holds raw flag input; empty means unset.
type flagValues struct {
	port         int
	databaseURL  string
	databaseType string
	adminKey     string
	ipSalt       string
	logLevel     string
	configFile   string
	hostname     string
	openDays     string
	openAt       string
	closeAt      string
	timezone     string
	noRepeat     string
	tick         string
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	smtpFrom     string
	mailPace     string
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var fv flagValues

	fs := flag.NewFlagSet("lunchvote", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&fv.port, "p", 0, "Server port")
	fs.StringVar(&fv.databaseURL, "d", "", "Database URL")
	fs.StringVar(&fv.databaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&fv.configFile, "c", "", "Config file (json, yaml or toml)")
	fs.StringVar(&fv.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&fv.hostname, "hostname", "", "Public hostname for vote links")

	// Schedule
	fs.StringVar(&fv.openDays, "open-days", "", "Days a vote opens (mon..sun or 0-6 with 0=Monday)")
	fs.StringVar(&fv.openAt, "open-at", "", "Time of day voting opens (HH:MM)")
	fs.StringVar(&fv.closeAt, "close-at", "", "Time of day voting closes (HH:MM)")
	fs.StringVar(&fv.timezone, "tz", "", "Time zone the schedule is read in")
	fs.StringVar(&fv.noRepeat, "norepeat", "", "Days a winner sits out")
	fs.StringVar(&fv.tick, "tick", "", "Scheduler tick interval")

	// Mail
	fs.StringVar(&fv.smtpHost, "smtp-host", "", "SMTP server")
	fs.StringVar(&fv.smtpPort, "smtp-port", "", "SMTP port")
	fs.StringVar(&fv.smtpUser, "smtp-user", "", "SMTP user")
	fs.StringVar(&fv.smtpFrom, "smtp-from", "", "Sender address")
	fs.StringVar(&fv.mailPace, "mail-pace", "", "Pause between open announcements")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&fv.adminKey, "admin-key", "", "Admin key (prefer env)")
	fs.StringVar(&fv.ipSalt, "ip-salt", "", "IP hash salt (prefer env)")
	fs.StringVar(&fv.smtpPassword, "smtp-pass", "", "SMTP password (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := resolve(fv)
	if err != nil {
		return Config{}, err
	}

	// Secrets - MUST be provided
	if cfg.AdminKey == "" {
		return Config{}, errors.New("ADMIN_KEY required")
	}

	return cfg, nil
}

// Load resolves configuration from the environment and an optional config
// file, without flags. Secrets are not required.
func Load(configFile string) (Config, error) {
	return resolve(flagValues{configFile: configFile})
}

func resolve(fv flagValues) (Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	var cfg Config
	var err error

	cfg.ConfigFile = first(fv.configFile, os.Getenv("CONFIG_FILE"))
	file, err := readConfigFile(cfg.ConfigFile)
	if err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	cfg.Port = fv.port
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	cfg.DatabaseType = first(fv.databaseType, os.Getenv("DATABASE_TYPE"), "sqlite")
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}
	cfg.DatabaseURL = first(fv.databaseURL, os.Getenv("DATABASE_URL"), file.str("lunch.dbfile"))
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType != "sqlite" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "lunch.db"
	}

	cfg.AdminKey = first(fv.adminKey, os.Getenv("ADMIN_KEY"))
	cfg.IPHashSalt = first(fv.ipSalt, os.Getenv("IP_HASH_SALT"), cfg.AdminKey)
	cfg.Hostname = first(fv.hostname, os.Getenv("PUBLIC_HOSTNAME"), file.str("lunch.hostname"), "localhost")

	if cfg.LogLevel, err = parseLevel(first(fv.logLevel, os.Getenv("LOG_LEVEL"), "info")); err != nil {
		return Config{}, err
	}

	// Schedule
	if cfg.OpenDays, err = scheduleDays(first(fv.openDays, os.Getenv("OPEN_DAYS")), file); err != nil {
		return Config{}, err
	}
	if cfg.OpenAt, err = clockSetting(first(fv.openAt, os.Getenv("OPEN_AT")), file, "lunch.time_start", 9*time.Hour+30*time.Minute); err != nil {
		return Config{}, fmt.Errorf("open time: %w", err)
	}
	if cfg.CloseAt, err = clockSetting(first(fv.closeAt, os.Getenv("CLOSE_AT")), file, "lunch.time_end", 11*time.Hour); err != nil {
		return Config{}, fmt.Errorf("close time: %w", err)
	}
	if cfg.OpenAt >= cfg.CloseAt {
		return Config{}, errors.New("voting must open before it closes")
	}

	if cfg.Location, err = time.LoadLocation(first(fv.timezone, os.Getenv("TIMEZONE"), "Local")); err != nil {
		return Config{}, fmt.Errorf("time zone: %w", err)
	}

	noRepeat := first(fv.noRepeat, os.Getenv("NO_REPEAT_DAYS"), file.str("lunch.norepeat"), "21")
	if cfg.NoRepeatDays, err = strconv.Atoi(noRepeat); err != nil || cfg.NoRepeatDays < 0 {
		return Config{}, fmt.Errorf("invalid no-repeat window %q", noRepeat)
	}

	tick := first(fv.tick, os.Getenv("TICK_INTERVAL"), "30s")
	if cfg.TickInterval, err = time.ParseDuration(tick); err != nil || cfg.TickInterval <= 0 {
		return Config{}, fmt.Errorf("invalid tick interval %q", tick)
	}

	// Mail
	cfg.SMTPHost = first(fv.smtpHost, os.Getenv("SMTP_HOST"), file.str("smtp.server"))
	smtpPort := first(fv.smtpPort, os.Getenv("SMTP_PORT"), file.str("smtp.port"), "587")
	if cfg.SMTPPort, err = strconv.Atoi(smtpPort); err != nil {
		return Config{}, fmt.Errorf("invalid SMTP port %q", smtpPort)
	}
	cfg.SMTPUser = first(fv.smtpUser, os.Getenv("SMTP_USER"), file.str("smtp.user"))
	cfg.SMTPPassword = first(fv.smtpPassword, os.Getenv("SMTP_PASSWORD"), file.str("smtp.pass"))
	cfg.SMTPFrom = first(fv.smtpFrom, os.Getenv("SMTP_FROM"), file.str("smtp.from"), cfg.SMTPUser)

	pace := first(fv.mailPace, os.Getenv("MAIL_PACE"), "0s")
	if cfg.MailPace, err = time.ParseDuration(pace); err != nil || cfg.MailPace < 0 {
		return Config{}, fmt.Errorf("invalid mail pace %q", pace)
	}

	return cfg, nil
}

// fileConfig wraps an optional viper instance.
type fileConfig struct {
	v *viper.Viper
}

func readConfigFile(path string) (fileConfig, error) {
	if path == "" {
		return fileConfig{}, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	return fileConfig{v: v}, nil
}

func (f fileConfig) isSet(key string) bool {
	return f.v != nil && f.v.IsSet(key)
}

func (f fileConfig) str(key string) string {
	if !f.isSet(key) {
		return ""
	}
	return f.v.GetString(key)
}

// first returns the first non-empty value.
func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

var dayNames = map[string]time.Weekday{
	"mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday, "thu": time.Thursday,
	"fri": time.Friday, "sat": time.Saturday, "sun": time.Sunday,
}

// ParseDays reads a comma-separated day list. Days are three-letter names or
// numbers 0-6 counted from Monday.
func ParseDays(s string) ([]time.Weekday, error) {
	var days []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if d, ok := dayNames[part[:min(3, len(part))]]; ok {
			days = append(days, d)
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid day %q", part)
		}
		d, err := mondayIndexed(n)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, errors.New("at least one open day required")
	}
	return days, nil
}

func mondayIndexed(n int) (time.Weekday, error) {
	if n < 0 || n > 6 {
		return 0, fmt.Errorf("invalid day %d", n)
	}
	return time.Weekday((n + 1) % 7), nil
}

func scheduleDays(s string, file fileConfig) ([]time.Weekday, error) {
	if s != "" {
		return ParseDays(s)
	}
	if !file.isSet("lunch.time_days") {
		return []time.Weekday{time.Thursday}, nil
	}
	if raw, ok := file.v.Get("lunch.time_days").(string); ok {
		return ParseDays(raw)
	}
	var days []time.Weekday
	for _, n := range file.v.GetIntSlice("lunch.time_days") {
		d, err := mondayIndexed(n)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return nil, errors.New("at least one open day required")
	}
	return days, nil
}

// ParseClock reads "HH:MM" as an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// clockSetting reads a time of day from s, else from the config file as
// "HH:MM" or [hour, minute], else def.
func clockSetting(s string, file fileConfig, key string, def time.Duration) (time.Duration, error) {
	if s != "" {
		return ParseClock(s)
	}
	if !file.isSet(key) {
		return def, nil
	}
	if raw, ok := file.v.Get(key).(string); ok {
		return ParseClock(raw)
	}
	hm := file.v.GetIntSlice(key)
	if len(hm) != 2 || hm[0] < 0 || hm[0] > 23 || hm[1] < 0 || hm[1] > 59 {
		return 0, fmt.Errorf("invalid %s %v", key, hm)
	}
	return time.Duration(hm[0])*time.Hour + time.Duration(hm[1])*time.Minute, nil
}
