package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the workbench configuration. Timing constants that the
// constraint engine depends on (minimum shot duration, grid step, align pad)
// live here so deployments can tune them without a rebuild.
type Config struct {
	ServerAddr string
	FFmpegPath string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO object storage for audio assets
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// External render backend (voice generation, master mix, extraction)
	RenderAPIBaseURL string
	RenderAPITimeout time.Duration

	// Host used when rewriting relative /api/ asset paths to absolute URLs.
	AssetHost string

	// Local directory watched for master-mix files dropped by the renderer.
	RenderDropDir string

	// Auth
	JWTSecret string

	// Timeline constraint constants
	MinShotSeconds    float64 // hard floor for any shot duration
	GridStepSeconds   float64 // durations snap up to multiples of this
	AlignPadSeconds   float64 // breathing room added by align-to-voice
	SignedURLSafety   time.Duration
	OverlayPollEvery  time.Duration
	PositionTickEvery time.Duration

	// Waveform / view defaults
	DefaultPeakPoints int
	MinPixelsPerSec   float64
	MaxPixelsPerSec   float64
	MinClipPixels     float64
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		FFmpegPath: getEnv("FFMPEG_PATH", "ffmpeg"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "cutroom"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "cutroom"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RenderAPIBaseURL: getEnv("RENDER_API_URL", "http://127.0.0.1:9100"),
		RenderAPITimeout: time.Duration(getEnvInt("RENDER_API_TIMEOUT_SECONDS", 120)) * time.Second,

		AssetHost:     getEnv("ASSET_HOST", "http://127.0.0.1:8080"),
		RenderDropDir: getEnv("RENDER_DROP_DIR", ""),

		JWTSecret: getEnv("JWT_SECRET", "cutroom-dev-secret"),

		MinShotSeconds:    getEnvFloat("MIN_SHOT_SECONDS", 2.0),
		GridStepSeconds:   getEnvFloat("GRID_STEP_SECONDS", 0.5),
		AlignPadSeconds:   getEnvFloat("ALIGN_PAD_SECONDS", 0.4),
		SignedURLSafety:   time.Duration(getEnvInt("SIGNED_URL_SAFETY_SECONDS", 30)) * time.Second,
		OverlayPollEvery:  time.Duration(getEnvInt("OVERLAY_POLL_SECONDS", 5)) * time.Second,
		PositionTickEvery: time.Duration(getEnvInt("POSITION_TICK_MS", 100)) * time.Millisecond,

		DefaultPeakPoints: getEnvInt("PEAK_POINTS", 512),
		MinPixelsPerSec:   getEnvFloat("MIN_PPS", 10),
		MaxPixelsPerSec:   getEnvFloat("MAX_PPS", 200),
		MinClipPixels:     getEnvFloat("MIN_CLIP_PIXELS", 4),
	}
}
