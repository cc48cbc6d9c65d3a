package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// PublicBaseURL is the externally visible origin of this service,
	// used when building absolute wrapper URLs.
	PublicBaseURL string
	// PackageRoot holds the uploaded package archives, laid out as
	// <root>/<content_type>/<content_id>.zip.
	PackageRoot string
	// ExtractRoot receives unpacked packages, laid out as
	// <root>/<content_type>/<content_id>/.
	ExtractRoot string

	JWTSecret     string
	WrapperSecret string
	WrapperTTL    time.Duration

	SessionTTL     time.Duration
	CommitDebounce time.Duration
	RelayInterval  time.Duration
	SessionSweep   time.Duration
	ProgressAsync  bool
}

func Load() Config {
	return Config{
		PublicBaseURL: getenv("PUBLIC_BASE_URL", ""),
		PackageRoot:   getenv("SCORM_PACKAGE_ROOT", "/data/scorm/packages"),
		ExtractRoot:   getenv("SCORM_EXTRACT_ROOT", "/data/scorm/extracted"),

		JWTSecret:     getenv("JWT_SECRET", ""),
		WrapperSecret: getenv("WRAPPER_SECRET", ""),
		WrapperTTL:    envDuration("WRAPPER_TTL", 2*time.Hour),

		SessionTTL:     envDuration("SESSION_TTL", 30*time.Minute),
		CommitDebounce: envDuration("COMMIT_DEBOUNCE", 5*time.Second),
		RelayInterval:  envDuration("RELAY_INTERVAL", 3*time.Second),
		SessionSweep:   envDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		ProgressAsync:  envBool("PROGRESS_ASYNC", false),
	}
}

func getenv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
