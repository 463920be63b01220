// Package config — настройки бота. Читаются один раз при старте:
// значения по умолчанию → YAML-файл → переменные окружения TGFARM_* →
// флаги CLI. После Load конфиг не меняется.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"
)

type ThrottleConf struct {
	MinDelay time.Duration `yaml:"min_delay" env:"MIN_DELAY"`
	MaxDelay time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	// SlowMode — для свежих аккаунтов: задержки ×3.
	SlowMode bool `yaml:"slow_mode" env:"SLOW_MODE"`
	// FastMode — задержки ÷3. SlowMode сильнее.
	FastMode bool `yaml:"fast_mode" env:"FAST_MODE"`
}

// Bounds — итоговые границы случайной задержки с учётом режима.
func (t ThrottleConf) Bounds() (time.Duration, time.Duration) {
	switch {
	case t.SlowMode:
		return t.MinDelay * 3, t.MaxDelay * 3
	case t.FastMode:
		return t.MinDelay / 3, t.MaxDelay / 3
	default:
		return t.MinDelay, t.MaxDelay
	}
}

type GatewayConf struct {
	URL            string        `yaml:"url" env:"URL"`
	Token          string        `yaml:"token" env:"TOKEN"`
	Retries        int           `yaml:"retries" env:"RETRIES"`
	RetryDelay     time.Duration `yaml:"retry_delay" env:"RETRY_DELAY"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

type NotificationsConf struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Channel — канал по умолчанию: telegram|discord|slack|desktop|log.
	Channel        string        `yaml:"channel" env:"CHANNEL"`
	TelegramToken  string        `yaml:"telegram_token" env:"TELEGRAM_TOKEN"`
	TelegramChat   string        `yaml:"telegram_chat" env:"TELEGRAM_CHAT"`
	DiscordToken   string        `yaml:"discord_token" env:"DISCORD_TOKEN"`
	DiscordChannel string        `yaml:"discord_channel" env:"DISCORD_CHANNEL"`
	SlackToken     string        `yaml:"slack_token" env:"SLACK_TOKEN"`
	SlackChannel   string        `yaml:"slack_channel" env:"SLACK_CHANNEL"`
	Desktop        bool          `yaml:"desktop" env:"DESKTOP"`
	DesktopTimeout time.Duration `yaml:"desktop_timeout" env:"DESKTOP_TIMEOUT"`
}

type StatsConf struct {
	DBPath string `yaml:"db_path" env:"DB_PATH"` // пусто — только в памяти
	// ReportCron — когда печатать счётчики в лог (cron-выражение).
	ReportCron string `yaml:"report_cron" env:"REPORT_CRON"`
}

type LoggingConf struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type Config struct {
	GameUsername       string `yaml:"game_username" env:"GAME_USERNAME"`
	SelfManagerEnabled bool   `yaml:"self_manager_enabled" env:"SELF_MANAGER_ENABLED"`
	FarmDungeons       bool   `yaml:"farm_dungeons" env:"FARM_DUNGEONS"`
	MinimumHPLevel     int    `yaml:"minimum_hp_level_for_grinding" env:"MINIMUM_HP_LEVEL_FOR_GRINDING"`
	MessageLogLimit    int    `yaml:"message_log_limit" env:"MESSAGE_LOG_LIMIT"`
	PingCommands       string `yaml:"ping_commands" env:"PING_COMMANDS"`
	DungeonCommand     string `yaml:"dungeon_command" env:"DUNGEON_COMMAND"`
	Debug              bool   `yaml:"debug" env:"DEBUG"`

	// ExecutionLimit — лимит работы; 0 — бесконечно. Обычно задаётся флагом --limit.
	ExecutionLimit time.Duration `yaml:"execution_limit" env:"EXECUTION_LIMIT"`
	Cooldown       time.Duration `yaml:"cooldown" env:"COOLDOWN"`
	LoopTick       time.Duration `yaml:"loop_tick" env:"LOOP_TICK"`
	LockFile       string        `yaml:"lock_file" env:"LOCK_FILE"`

	Throttle      ThrottleConf      `yaml:"throttle" envPrefix:"THROTTLE_"`
	Gateway       GatewayConf       `yaml:"gateway" envPrefix:"GATEWAY_"`
	Notifications NotificationsConf `yaml:"notifications" envPrefix:"NOTIFICATIONS_"`
	Stats         StatsConf         `yaml:"stats" envPrefix:"STATS_"`
	Logging       LoggingConf       `yaml:"logging" envPrefix:"LOGGING_"`
}

func Default() Config {
	return Config{
		GameUsername:       "rf_telegram_bot",
		SelfManagerEnabled: true,
		MinimumHPLevel:     50,
		MessageLogLimit:    100,
		PingCommands:       ",.-+=/0",
		DungeonCommand:     "/go_dange_10000",
		Cooldown:           time.Hour,
		LoopTick:           3 * time.Second,
		LockFile:           ".tgfarm.lock",
		Throttle: ThrottleConf{
			MinDelay: time.Second,
			MaxDelay: 3 * time.Second,
		},
		Gateway: GatewayConf{
			URL:            "ws://127.0.0.1:8765/session",
			Retries:        30,
			RetryDelay:     15 * time.Second,
			RequestTimeout: 15 * time.Second,
		},
		Notifications: NotificationsConf{
			Channel:        "log",
			DesktopTimeout: 10 * time.Second,
		},
		Stats: StatsConf{
			ReportCron: "*/30 * * * *",
		},
		Logging: LoggingConf{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.GameUsername) == "" {
		errs = append(errs, errors.New("game_username is required"))
	}
	if strings.TrimSpace(c.Gateway.URL) == "" {
		errs = append(errs, errors.New("gateway.url is required"))
	}
	if c.Throttle.MinDelay < 0 || c.Throttle.MaxDelay < c.Throttle.MinDelay {
		errs = append(errs, fmt.Errorf("throttle: bad bounds [%s, %s]", c.Throttle.MinDelay, c.Throttle.MaxDelay))
	}
	if c.Cooldown <= 0 {
		errs = append(errs, errors.New("cooldown must be positive"))
	}
	if c.ExecutionLimit < 0 {
		errs = append(errs, errors.New("execution_limit must not be negative"))
	}
	if c.PingCommands == "" {
		errs = append(errs, errors.New("ping_commands must not be empty"))
	}
	if expr := strings.TrimSpace(c.Stats.ReportCron); expr != "" {
		gron := gronx.New()
		if !gron.IsValid(expr) {
			errs = append(errs, fmt.Errorf("stats.report_cron: invalid expression %q", expr))
		}
	}
	return errors.Join(errs...)
}
