package config

import (
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// Config is an immutable snapshot of the application configuration.
// Components hold the snapshot they were built with; a new snapshot is
// produced only by an explicit Reload (see watch.go), never by implicit
// re-reads on property access.
type Config struct {
	// HTTP
	ListenAddr string

	// Library
	MusicLibraryPath   string // root directory containing artist/album/song files
	DownloadingEnabled bool   // gate for the download endpoint

	// Subsonic protocol
	SubsonicAPIVersion string
	ServerName         string
	ServerVersion      string

	// Credential encryption key for Subsonic passwords (hex, 32 bytes).
	// Subsonic token auth needs the plaintext recoverable server-side.
	PasswordEncryptionKey string

	// JWT signing key for the bespoke REST API.
	JWTSecret string

	// Scrobble backends
	LastFmEnabled       bool
	LastFmAPIKey        string
	LastFmSharedSecret  string
	LastFmSessionKey    string
	ListenBrainzEnabled bool
	ListenBrainzToken   string

	// MySQL
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

	// MinIO (cover art storage)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Logging
	LogLevel   string
	LogPath    string
	LogMaxSize int
}

var (
	mu      sync.RWMutex
	current *Config
)

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

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or
// defaults, and makes the snapshot the current one.
func Load() *Config {
	// godotenv.Load will not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return swapIn(fromEnv())
}

func fromEnv() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":4533"),

		MusicLibraryPath:   getEnv("MUSIC_LIBRARY_PATH", "music"),
		DownloadingEnabled: getEnvBool("DOWNLOADING_ENABLED", true),

		SubsonicAPIVersion: getEnv("SUBSONIC_API_VERSION", "1.16.1"),
		ServerName:         getEnv("SERVER_NAME", "ariafm"),
		ServerVersion:      getEnv("SERVER_VERSION", "0.9.0"),

		PasswordEncryptionKey: os.Getenv("PASSWORD_ENCRYPTION_KEY"),
		JWTSecret:             os.Getenv("JWT_SECRET"),

		LastFmEnabled:       getEnvBool("LASTFM_ENABLED", false),
		LastFmAPIKey:        os.Getenv("LASTFM_API_KEY"),
		LastFmSharedSecret:  os.Getenv("LASTFM_SHARED_SECRET"),
		LastFmSessionKey:    os.Getenv("LASTFM_SESSION_KEY"),
		ListenBrainzEnabled: getEnvBool("LISTENBRAINZ_ENABLED", false),
		ListenBrainzToken:   os.Getenv("LISTENBRAINZ_TOKEN"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "ariafm"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "ariafm"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogPath:    getEnv("LOG_PATH", ""),
		LogMaxSize: getEnvInt("LOG_MAX_SIZE", 100),
	}
}

func swapIn(cfg *Config) *Config {
	mu.Lock()
	current = cfg
	mu.Unlock()
	return cfg
}

// Current returns the latest loaded snapshot, loading once if necessary.
func Current() *Config {
	mu.RLock()
	cfg := current
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}
	return Load()
}

// Reload re-reads the .env file and environment and swaps in a fresh
// snapshot. Overload is needed here: the first Load exported the file's
// values into the process environment, and a plain Load would refuse to
// replace them with the edited ones. Callers holding an old snapshot keep
// seeing the values they started with; live consumers go through Current.
func Reload() *Config {
	if err := godotenv.Overload(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}
	return swapIn(fromEnv())
}
