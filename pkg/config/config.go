package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App            AppConfig
	DB             DBConfig
	JWT            JWTConfig
	HTTP           HTTPConfig
	SRI            SRIConfig
	Redis          RedisConfig
	Reconciliacion ReconciliacionConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// SRIConfig configuración del ciclo de emisión electrónica SRI.
type SRIConfig struct {
	Ambiente        string        // "1" pruebas, "2" producción
	URLRecepcion    string        // WS RecepcionComprobantesOffline (vacío = por defecto según ambiente)
	URLAutorizacion string        // WS AutorizacionComprobantesOffline
	Timeout         time.Duration // timeout por llamada SOAP
	BackoffBase     time.Duration // espera base entre reintentos (se duplica por intento)
	CertPath        string        // ruta al certificado .p12 de firma
	CertPassword    string        // contraseña del .p12
	Simulado        bool          // true = no llama al WS (desarrollo local)
}

// RedisConfig conexión a Redis (lease del job de reconciliación).
type RedisConfig struct {
	URL string // redis://host:puerto/db
}

// ReconciliacionConfig parámetros del job de reconciliación de pendientes.
type ReconciliacionConfig struct {
	Intervalo      time.Duration // periodicidad del barrido
	TamanoLote     int           // máximo de comprobantes por barrido
	Trabajadores   int           // tamaño del pool de workers
	DirPendientes  string        // cola durable de XML firmados pendientes
	DirAutorizados string        // archivo de XML autorizados
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
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

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
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

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, SRI_AMBIENTE, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "sri-core"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "sri_core"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "sri-core"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		SRI: SRIConfig{
			Ambiente:        getString(v, "SRI_AMBIENTE", "1"),
			URLRecepcion:    getString(v, "SRI_URL_RECEPCION", ""),
			URLAutorizacion: getString(v, "SRI_URL_AUTORIZACION", ""),
			Timeout:         time.Duration(getInt(v, "SRI_TIMEOUT_SEGUNDOS", 30)) * time.Second,
			BackoffBase:     time.Duration(getInt(v, "SRI_BACKOFF_SEGUNDOS", 5)) * time.Second,
			CertPath:        getString(v, "SRI_CERT_PATH", ""),
			CertPassword:    getString(v, "SRI_CERT_PASSWORD", ""),
			Simulado:        getString(v, "SRI_SIMULADO", "false") == "true",
		},
		Redis: RedisConfig{
			URL: getString(v, "REDIS_URL", "redis://localhost:6379/0"),
		},
		Reconciliacion: ReconciliacionConfig{
			Intervalo:      time.Duration(getInt(v, "RECONCILIACION_INTERVALO_MINUTOS", 60)) * time.Minute,
			TamanoLote:     getInt(v, "RECONCILIACION_LOTE", 50),
			Trabajadores:   getInt(v, "RECONCILIACION_TRABAJADORES", 4),
			DirPendientes:  getString(v, "RECONCILIACION_DIR_PENDIENTES", "./data/pendientes"),
			DirAutorizados: getString(v, "RECONCILIACION_DIR_AUTORIZADOS", "./data/autorizados"),
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
