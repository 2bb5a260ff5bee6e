package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

const dateLayout = "2006-01-02"

type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	Port            string

	// CheckInterval is both the scheduler period and the per-account due
	// threshold: an account is collected when now-lastCheckedAt >= interval.
	CheckInterval time.Duration

	// DefaultWindowFrom/To bound aggregation for accounts without their own
	// window override. Zero values mean no global default.
	DefaultWindowFrom time.Time
	DefaultWindowTo   time.Time

	FetchTimeout time.Duration
	UserAgent    string

	GeminiAPIKey string
	GeminiModel  string
}

func Load() (*Config, error) {
	spreadsheetID := os.Getenv("SPREADSHEET_ID")
	if spreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID environment variable is required but not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	checkIntervalStr := os.Getenv("CHECK_INTERVAL")
	if checkIntervalStr == "" {
		checkIntervalStr = "6h"
	}
	checkInterval, err := time.ParseDuration(checkIntervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_INTERVAL %q: %w", checkIntervalStr, err)
	}

	fetchTimeoutStr := os.Getenv("FETCH_TIMEOUT")
	if fetchTimeoutStr == "" {
		fetchTimeoutStr = "30s"
	}
	fetchTimeout, err := time.ParseDuration(fetchTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT %q: %w", fetchTimeoutStr, err)
	}

	windowFrom, err := parseDateEnv("DEFAULT_WINDOW_FROM")
	if err != nil {
		return nil, err
	}
	windowTo, err := parseDateEnv("DEFAULT_WINDOW_TO")
	if err != nil {
		return nil, err
	}
	if windowFrom.IsZero() != windowTo.IsZero() {
		return nil, fmt.Errorf("DEFAULT_WINDOW_FROM and DEFAULT_WINDOW_TO must be set together")
	}

	userAgent := os.Getenv("SCRAPE_USER_AGENT")
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}

	geminiModel := os.Getenv("GEMINI_MODEL")
	if geminiModel == "" {
		geminiModel = "gemini-1.5-flash"
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, AI article fallback disabled")
	}

	return &Config{
		SpreadsheetID:     spreadsheetID,
		CredentialsFile:   os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Port:              port,
		CheckInterval:     checkInterval,
		DefaultWindowFrom: windowFrom,
		DefaultWindowTo:   windowTo,
		FetchTimeout:      fetchTimeout,
		UserAgent:         userAgent,
		GeminiAPIKey:      geminiAPIKey,
		GeminiModel:       geminiModel,
	}, nil
}

func parseDateEnv(key string) (time.Time, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return t, nil
}
