package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contém todas as configurações da aplicação
type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Media    MediaConfig
	Logging  LoggingConfig
	CORS     CORSConfig
	I18n     I18nConfig
}

type ServerConfig struct {
	Port    string
	Host    string
	BaseURL string // URL base da API para construir URIs RFC 7807
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int
	MinConns    int
	MaxIdleTime int
	AutoMigrate bool
}

type RedisConfig struct {
	URL        string // vazio desabilita o cache
	TTLSeconds int
}

// MediaConfig define onde as imagens enviadas são gravadas e servidas
type MediaConfig struct {
	Root        string
	URL         string
	MaxUploadMB int
}

type LoggingConfig struct {
	Level string
}

type CORSConfig struct {
	AllowedOrigins string
}

type I18nConfig struct {
	LocalesDir      string
	DefaultLanguage string
}

// Load carrega as configurações do arquivo .env (opcional) e das variáveis de ambiente.
// Variáveis já definidas no ambiente têm prioridade sobre o arquivo.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file %s: %w", file, err)
		}
	}

	config := &Config{
		Env: getString("ENV", "development"),
		Server: ServerConfig{
			Port:    getString("PORT", "8080"),
			Host:    getString("HOST", "0.0.0.0"),
			BaseURL: getString("API_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:        getString("DB_HOST", "localhost"),
			Port:        getInt("DB_PORT", 5432),
			User:        getString("DB_USER", "postgres"),
			Password:    getString("DB_PASS", ""),
			DBName:      getString("DB_NAME", "accounts"),
			SSLMode:     getString("DB_SSL_MODE", "disable"),
			MaxConns:    getInt("DB_MAX_CONNS", 25),
			MinConns:    getInt("DB_MIN_CONNS", 5),
			MaxIdleTime: getInt("DB_MAX_IDLE_TIME", 300),
			AutoMigrate: getBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:        getString("REDIS_URL", ""),
			TTLSeconds: getInt("REDIS_USER_TTL_SECONDS", 300),
		},
		Media: MediaConfig{
			Root:        getString("MEDIA_ROOT", "./media"),
			URL:         getString("MEDIA_URL", "/media/"),
			MaxUploadMB: getInt("MEDIA_MAX_UPLOAD_MB", 5),
		},
		Logging: LoggingConfig{
			Level: getString("LOG_LEVEL", "info"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getString("CORS_ALLOWED_ORIGINS", "*"),
		},
		I18n: I18nConfig{
			LocalesDir:      getString("I18N_LOCALES_DIR", ""), // vazio usa as traduções embarcadas
			DefaultLanguage: getString("I18N_DEFAULT_LANGUAGE", "en"),
		},
	}

	if !strings.HasSuffix(config.Media.URL, "/") {
		config.Media.URL += "/"
	}

	return config, nil
}

// DSN retorna a connection string do PostgreSQL
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// MaxUploadBytes retorna o limite de upload em bytes
func (m *MediaConfig) MaxUploadBytes() int64 {
	return int64(m.MaxUploadMB) << 20
}

func getString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
