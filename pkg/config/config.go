package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde
// env y opcionalmente archivo .env).
type Config struct {
	App    AppConfig
	DB     DBConfig
	HTTP   HTTPConfig
	Ledger LedgerConfig
	Notify NotifyConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// DBConfig configuración de PostgreSQL. Si DatabaseURL no está vacío se usa
// como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si
// no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN construye el connection string con URL encoding para caracteres
// especiales en la contraseña.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LedgerConfig parámetros del motor de inventario.
type LedgerConfig struct {
	// MaxRetries intentos totales del loop CAS antes de devolver
	// CONCURRENT_MODIFICATION.
	MaxRetries int
	// RetryBackoff intervalo inicial del backoff exponencial entre intentos.
	RetryBackoff time.Duration
	// ReplayAudit reproduce el log al arrancar y reporta deriva de integridad.
	ReplayAudit bool
}

// NotifyConfig colaborador de notificaciones de alertas.
// Mode: "webhook" (POST JSON), "redis" (publish a un canal) o "off".
type NotifyConfig struct {
	Mode         string
	WebhookURL   string
	RedisAddr    string
	RedisChannel string
}

// Load lee la configuración desde variables de entorno (y opcionalmente un
// archivo .env). Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "cine-ledger"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "cine_ledger"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Ledger: LedgerConfig{
			MaxRetries:   getInt(v, "LEDGER_MAX_RETRIES", 5),
			RetryBackoff: time.Duration(getInt(v, "LEDGER_RETRY_BACKOFF_MS", 20)) * time.Millisecond,
			ReplayAudit:  getString(v, "LEDGER_REPLAY_AUDIT", "false") == "true",
		},
		Notify: NotifyConfig{
			Mode:         getString(v, "NOTIFY_MODE", "off"),
			WebhookURL:   getString(v, "NOTIFY_WEBHOOK_URL", ""),
			RedisAddr:    getString(v, "NOTIFY_REDIS_ADDR", "localhost:6379"),
			RedisChannel: getString(v, "NOTIFY_REDIS_CHANNEL", "ledger.alerts"),
		},
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
