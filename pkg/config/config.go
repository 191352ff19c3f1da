package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// FlowConfig holds every tunable of the browser automation flow. The reload
// cadence and minimum ready gate intentionally live here rather than as
// constants: earlier variants of this flow shipped with different values
// (30s/180s vs 60s/300s), so the canonical defaults below are documented
// configuration, not magic numbers.
type FlowConfig struct {
	NavigationURL string
	ProfileDir    string
	DownloadDir   string
	Headless      bool
	AutoLogin     bool
	Email         string
	Password      string

	MinContentChars int
	MaxWait         time.Duration // total polling budget
	PollTick        time.Duration // sleep between completion probes
	MinReadyGate    time.Duration // no download attempt before this elapsed time
	ReloadEvery     time.Duration // liveness reload cadence
	ReloadGrace     time.Duration // reloads start only after this elapsed time
	DownloadRetry   time.Duration // spacing between download attempts
	ClickTimeout    time.Duration // per-strategy element wait
	DownloadTimeout time.Duration // click-to-completed-download window
	TwoFactorWait   time.Duration // bounded human-in-the-loop 2FA window
	UISettle        time.Duration // pause after a click before probing the UI
}

// Config holds the application configuration.
type Config struct {
	ServerPort string
	LogLevel   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RunTimeout   time.Duration // outer wall-clock limit per run, independent of MaxWait
	QueuePollGap time.Duration

	Flow FlowConfig
}

// Load loads configuration from the environment, reading a .env file first
// when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "user"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:       getEnv("POSTGRES_DB", "audioflow"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		RunTimeout:       getEnvAsDuration("RUN_TIMEOUT_SECONDS", 1200) * time.Second,
		QueuePollGap:     getEnvAsDuration("QUEUE_POLL_GAP_SECONDS", 1) * time.Second,
		Flow: FlowConfig{
			NavigationURL:   getEnv("NAVIGATION_URL", "https://notebooklm.google.com/"),
			ProfileDir:      getEnv("BROWSER_PROFILE_DIR", defaultProfileDir()),
			DownloadDir:     getEnv("DOWNLOAD_DIR", filepath.Join("static", "audio_downloads")),
			Headless:        getEnvAsBool("BROWSER_HEADLESS", true),
			AutoLogin:       getEnvAsBool("AUTO_LOGIN", false),
			Email:           getEnv("GOOGLE_EMAIL", ""),
			Password:        getEnv("GOOGLE_PASSWORD", ""),
			MinContentChars: getEnvAsInt("MIN_CONTENT_CHARS", 50),
			MaxWait:         getEnvAsDuration("MAX_WAIT_MINUTES", 15) * time.Minute,
			PollTick:        getEnvAsDuration("POLL_TICK_SECONDS", 30) * time.Second,
			MinReadyGate:    getEnvAsDuration("MIN_READY_GATE_SECONDS", 180) * time.Second,
			ReloadEvery:     getEnvAsDuration("RELOAD_EVERY_SECONDS", 60) * time.Second,
			ReloadGrace:     getEnvAsDuration("RELOAD_GRACE_SECONDS", 180) * time.Second,
			DownloadRetry:   getEnvAsDuration("DOWNLOAD_RETRY_SECONDS", 15) * time.Second,
			ClickTimeout:    getEnvAsDuration("CLICK_TIMEOUT_SECONDS", 10) * time.Second,
			DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT_SECONDS", 25) * time.Second,
			TwoFactorWait:   getEnvAsDuration("TWO_FACTOR_WAIT_SECONDS", 120) * time.Second,
			UISettle:        getEnvAsDuration("UI_SETTLE_SECONDS", 3) * time.Second,
		},
	}
}

// defaultProfileDir returns the OS default Chrome user-data directory so an
// existing logged-in Google session can be reused across runs.
func defaultProfileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("static", "browser_profile")
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data", "Default")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default")
	default:
		return filepath.Join(home, ".config", "google-chrome", "Default")
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback))
}
