package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Failure policies for a dispatch attempt that did not succeed.
const (
	FailurePolicyConsume = "consume" // claim stays taken, the track never fires again
	FailurePolicyRetry   = "retry"   // claim is released, a later in-band sighting may fire
)

// Resize policies for frames whose dimensions differ from the session geometry.
const (
	ResizePolicyReject   = "reject"
	ResizePolicyRederive = "rederive"
)

type Config struct {
	Port          int
	APIKey        string // Puste = API bez autoryzacji
	LogDirectory  string
	AuditDBPath   string // Puste = brak audytu w bazie
	DetectorPort  int    // Port UDP dla detektora, 0 = wyłączony
	FrameQueueLen int

	ActuatorURL           string
	DispatchTimeout       time.Duration
	DispatchWorkers       int // 0 = wysyłka synchroniczna w pętli klatek
	DispatchQueueSize     int
	DispatchFailurePolicy string

	BandHalfWidth        int
	GeometryResizePolicy string
}

// Load reads an optional .env file and then builds the Config from the environment.
func Load() *Config {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	return &Config{
		Port:          getEnvAsInt("PORT", 8080),
		APIKey:        getEnv("API_KEY", ""),
		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),
		AuditDBPath:   getEnv("AUDIT_DB_PATH", filepath.Join(".", "data", "dispatches.db")),
		DetectorPort:  getEnvAsInt("DETECTOR_UDP_PORT", 9000),
		FrameQueueLen: getEnvAsInt("FRAME_QUEUE_SIZE", 32),

		ActuatorURL:           getEnv("ACTUATOR_URL", "http://192.168.5.118:8000"),
		DispatchTimeout:       getEnvAsDuration("DISPATCH_TIMEOUT", 2*time.Second),
		DispatchWorkers:       getEnvAsInt("DISPATCH_WORKERS", 2),
		DispatchQueueSize:     getEnvAsInt("DISPATCH_QUEUE_SIZE", 64),
		DispatchFailurePolicy: getEnvAsChoice("DISPATCH_FAILURE_POLICY", FailurePolicyConsume, FailurePolicyConsume, FailurePolicyRetry),

		BandHalfWidth:        getEnvAsInt("BAND_HALF_WIDTH", 20),
		GeometryResizePolicy: getEnvAsChoice("GEOMETRY_RESIZE_POLICY", ResizePolicyReject, ResizePolicyReject, ResizePolicyRederive),
	}
}

// RetryOnFailure reports whether a failed dispatch gives the claim back.
func (c *Config) RetryOnFailure() bool {
	return c.DispatchFailurePolicy == FailurePolicyRetry
}

// RederiveOnResize reports whether a frame size change rebuilds the geometry.
func (c *Config) RederiveOnResize() bool {
	return c.GeometryResizePolicy == ResizePolicyRederive
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getEnvAsChoice returns the lower-cased value if it is one of allowed, otherwise the default.
func getEnvAsChoice(key, defaultValue string, allowed ...string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	return defaultValue
}
