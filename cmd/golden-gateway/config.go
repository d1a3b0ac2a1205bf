package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration
type Config struct {
	Port           string
	EnableTLS      bool
	CertFile       string
	KeyFile        string
	EnableCORS     bool
	LogRequests    bool
	MaxBodySize    int64
	Hostname       string
	HistorySize    int
	Policy         string
	SimulationFile string
	RandomSeed     int64
	RateLimitRPS   float64
	RateLimitBurst int
}

// SimulationProfile tunes the synthetic delivery behavior. Values are loaded
// from a YAML file at startup and fall back to the compiled-in defaults below.
type SimulationProfile struct {
	Policy              string  `yaml:"policy"`
	DisfavoredPlatform  string  `yaml:"disfavoredPlatform"`
	RateLimitSender     string  `yaml:"rateLimitSender"`
	RetryAfterSeconds   int     `yaml:"retryAfterSeconds"`
	HealthyLatencyMinMs int     `yaml:"healthyLatencyMinMs"`
	HealthyLatencyMaxMs int     `yaml:"healthyLatencyMaxMs"`
	LoadedLatencyMinMs  int     `yaml:"loadedLatencyMinMs"`
	LoadedLatencyMaxMs  int     `yaml:"loadedLatencyMaxMs"`
	HealthyErrorRate    float64 `yaml:"healthyErrorRate"`
	LoadedErrorRate     float64 `yaml:"loadedErrorRate"`
}

// defaultProfile returns the baseline simulation numbers: healthy latency
// 50-250ms, degraded latency 500-2500ms, 0.1% baseline error rate rising to
// 50% under simulated load.
func defaultProfile() SimulationProfile {
	return SimulationProfile{
		Policy:              policyPlatform,
		DisfavoredPlatform:  "ios",
		RateLimitSender:     "rate-limit-test",
		RetryAfterSeconds:   30,
		HealthyLatencyMinMs: 50,
		HealthyLatencyMaxMs: 250,
		LoadedLatencyMinMs:  500,
		LoadedLatencyMaxMs:  2500,
		HealthyErrorRate:    0.001,
		LoadedErrorRate:     0.5,
	}
}

// loadSimulationProfile overlays the YAML file at path onto the defaults.
// A missing file is not an error; a malformed one is.
func loadSimulationProfile(path string) (SimulationProfile, error) {
	profile := defaultProfile()
	if path == "" {
		return profile, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return profile, nil
		}
		return profile, fmt.Errorf("read simulation profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse simulation profile: %w", err)
	}
	if err := profile.validate(); err != nil {
		return profile, err
	}
	return profile, nil
}

func (p SimulationProfile) validate() error {
	if p.Policy != policyPlatform && p.Policy != policyDestination {
		return fmt.Errorf("unknown simulation policy %q", p.Policy)
	}
	if p.HealthyLatencyMaxMs < p.HealthyLatencyMinMs || p.LoadedLatencyMaxMs < p.LoadedLatencyMinMs {
		return fmt.Errorf("latency range inverted in simulation profile")
	}
	if p.HealthyErrorRate < 0 || p.HealthyErrorRate > 1 || p.LoadedErrorRate < 0 || p.LoadedErrorRate > 1 {
		return fmt.Errorf("error rates must be within [0,1]")
	}
	return nil
}

// loadConfigFromEnv builds a Config from environment variables.
func loadConfigFromEnv() Config {
	return Config{
		Port:           getEnv("PORT", "3001"),
		EnableTLS:      getEnv("ENABLE_TLS", "false") == "true",
		CertFile:       getEnv("CERT_FILE", "server.crt"),
		KeyFile:        getEnv("KEY_FILE", "server.key"),
		EnableCORS:     getEnv("ENABLE_CORS", "true") == "true",
		LogRequests:    getEnv("LOG_REQUESTS", "true") == "true",
		MaxBodySize:    parseInt64(getEnv("MAX_BODY_SIZE", "1048576")),
		HistorySize:    int(parseInt64(getEnv("GATEWAY_HISTORY_SIZE", "100"))),
		Policy:         getEnv("GATEWAY_POLICY", ""),
		SimulationFile: getEnv("GATEWAY_SIMULATION_FILE", "simulation.yaml"),
		RandomSeed:     parseInt64(getEnv("GATEWAY_RANDOM_SEED", "0")),
		RateLimitRPS:   parseFloat64(getEnv("GATEWAY_RATE_LIMIT_RPS", "0")),
		RateLimitBurst: int(parseInt64(getEnv("GATEWAY_RATE_LIMIT_BURST", "0"))),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64(s string) int64 {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	return 0
}

func parseFloat64(s string) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return 0
}
