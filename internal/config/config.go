package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinBcryptCost is the lowest work factor accepted for password and
// refresh-credential hashes.
const MinBcryptCost = 10

type Config struct {
	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"saturn_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Session credentials (access and refresh are signed with distinct secrets)
	JWTSecret          string        `env:"JWT_SECRET"`
	RefreshSecret      string        `env:"REFRESH_TOKEN_SECRET"`
	JWTAccessExpiry    time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry   time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`
	RefreshRotateOnUse bool          `env:"REFRESH_ROTATE_ON_USE" envDefault:"false"`
	BcryptCost         int           `env:"BCRYPT_COST" envDefault:"10"`

	// Cookies
	CookieSecure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	CookieSameSite string `env:"COOKIE_SAMESITE" envDefault:"Lax"`
	CookieDomain   string `env:"COOKIE_DOMAIN"`

	// CORS fallback for first-party dashboards
	DashboardOrigins []string `env:"DASHBOARD_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:5174"`

	// OTP
	OTPTTL         time.Duration `env:"OTP_TTL" envDefault:"10m"`
	OTPMaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`

	// Notification providers
	NotifyTimeout    time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	BrevoAPIKey      string        `env:"BREVO_API_KEY"`
	BrevoAPIURL      string        `env:"BREVO_API_URL" envDefault:"https://api.brevo.com/v3/smtp/email"`
	BrevoSenderEmail string        `env:"BREVO_SENDER_EMAIL" envDefault:"noreply@saturn.local"`
	BrevoSenderName  string        `env:"BREVO_SENDER_NAME" envDefault:"Saturn Platform"`
	FCMServerKey     string        `env:"FCM_SERVER_KEY"`
	FCMAPIURL        string        `env:"FCM_API_URL" envDefault:"https://fcm.googleapis.com/fcm/send"`

	// Tenant context cache (disabled when RedisURL is empty)
	RedisURL       string        `env:"REDIS_URL"`
	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"30s"`

	// Admin
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`

	// Server
	Port               string        `env:"PORT" envDefault:"5000"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	LogRetention       time.Duration `env:"LOG_RETENTION" envDefault:"720h"`
	SentryDSN          string        `env:"SENTRY_DSN"`
	AppEnv             string        `env:"APP_ENV" envDefault:"development"`
}

// Load parses the environment into a Config. It does not validate.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.AdminEmails = trimAll(cfg.AdminEmails)
	cfg.DashboardOrigins = trimAll(cfg.DashboardOrigins)
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RefreshSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.JWTSecret != "" && c.JWTSecret == c.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.BcryptCost < MinBcryptCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be at least %d", MinBcryptCost))
	}
	if c.JWTAccessExpiry <= 0 || c.JWTRefreshExpiry <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	if c.JWTAccessExpiry >= c.JWTRefreshExpiry {
		errs = append(errs, errors.New("JWT_ACCESS_EXPIRY must be shorter than JWT_REFRESH_EXPIRY"))
	}
	if c.OTPTTL <= 0 {
		errs = append(errs, errors.New("OTP_TTL must be positive"))
	}
	if c.OTPMaxAttempts < 0 {
		errs = append(errs, errors.New("OTP_MAX_ATTEMPTS must not be negative"))
	}
	if c.NotifyTimeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must be positive"))
	}
	switch strings.ToLower(c.CookieSameSite) {
	case "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("COOKIE_SAMESITE %q is not one of Lax, Strict, None", c.CookieSameSite))
	}
	if strings.EqualFold(c.CookieSameSite, "none") && !c.CookieSecure {
		errs = append(errs, errors.New("COOKIE_SAMESITE=None requires COOKIE_SECURE=true"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func trimAll(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
