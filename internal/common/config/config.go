package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
		AppURL string `env:"APP_URL" envDefault:"http://localhost:3000"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"beamr"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Auth struct {
		// Secret used to sign session tokens. Loaded once at startup and
		// never re-read per request.
		JWTSecret     string        `env:"JWT_SECRET,required"`
		SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
		Domain        string        `env:"APP_DOMAIN" envDefault:"localhost"`
		VerifyURL     string        `env:"QUICKAUTH_VERIFY_URL" envDefault:"https://auth.farcaster.xyz/verify"`
		AdminFIDs     []int64       `env:"ADMIN_FIDS" envSeparator:","`
	}

	Webhook struct {
		// Shared secret for HMAC-SHA512 webhook signatures.
		Secret string `env:"WEBHOOK_SECRET,required"`
	}

	Neynar struct {
		APIKey   string        `env:"NEYNAR_API_KEY,required"`
		BaseURL  string        `env:"NEYNAR_BASE_URL" envDefault:"https://api.neynar.com"`
		Timeout  time.Duration `env:"NEYNAR_TIMEOUT" envDefault:"5s"`
		CacheTTL time.Duration `env:"NEYNAR_CACHE_TTL" envDefault:"1h"`
	}

	Beamr struct {
		// The only account whose casts may carry variable-value grants.
		AccountFID  int64  `env:"BEAMR_ACCOUNT_FID" envDefault:"1149437"`
		ChannelName string `env:"BEAMR_CHANNEL_NAME" envDefault:"beamr"`
		CastMarker  string `env:"BEAMR_CAST_MARKER" envDefault:"#beamrsup"`
	}

	Points struct {
		WalletConfirmation int64 `env:"POINTS_WALLET_CONFIRMATION" envDefault:"150"`
		Follow             int64 `env:"POINTS_FOLLOW" envDefault:"100"`
		ChannelJoin        int64 `env:"POINTS_CHANNEL_JOIN" envDefault:"100"`
		AppAdd             int64 `env:"POINTS_APP_ADD" envDefault:"100"`
		Cast               int64 `env:"POINTS_CAST" envDefault:"100"`
		ReferralBonus      int64 `env:"POINTS_REFERRAL_BONUS" envDefault:"100"`
	}

	Notify struct {
		Secret  string        `env:"NOTIFY_SECRET" envDefault:""`
		Timeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
	}
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password,
		c.Postgres.Database, c.Postgres.SSLMode)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Missing .env is fine; in production the variables are set directly.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
