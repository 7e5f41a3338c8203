package config

import (
	"flag"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	defaultServerAddress         = ":8080"
	defaultDatabaseDSN           = ""
	defaultLogLevel              = "debug"
	defaultCurrency              = "mxn"
	defaultShippingFlatFee       = int64(9900)
	defaultFreeShippingThreshold = int64(150000)
	defaultLoyaltyGrant          = int64(100)
	defaultGatewayTimeout        = 10 * time.Second
	defaultProofDir              = "./proofs"
	defaultManualRedirectURL     = "http://localhost:8080/pay/manual"
)

type Config struct {
	ServerAddr  string
	DatabaseDSN string
	LogLevel    string

	Currency              string
	ShippingFlatFee       int64
	FreeShippingThreshold int64
	LoyaltyGrant          int64
	GatewayTimeout        time.Duration

	StripeAPIKey        string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string

	WalletBaseURL  string
	WalletSecret   string
	WalletCurrency string
	WalletFXRate   float64

	ManualRedirectURL string
	ProofDir          string

	AuthTokenKey  string
	AdminLogin    string
	AdminPassword string
}

var (
	once      sync.Once
	singleton *Config
)

// New returns new Config. It parses command line and environment variables only once.
func New() (*Config, error) {
	once.Do(func() {
		cfg := Config{
			Currency:              defaultCurrency,
			ShippingFlatFee:       defaultShippingFlatFee,
			FreeShippingThreshold: defaultFreeShippingThreshold,
			LoyaltyGrant:          defaultLoyaltyGrant,
			GatewayTimeout:        defaultGatewayTimeout,
			ProofDir:              defaultProofDir,
			ManualRedirectURL:     defaultManualRedirectURL,
			WalletCurrency:        "usd",
			WalletFXRate:          0.058,
		}

		// initialize flags
		flag.StringVar(&cfg.ServerAddr, "a", defaultServerAddress, "server address")
		flag.StringVar(&cfg.DatabaseDSN, "d", defaultDatabaseDSN, "database DSN")
		flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

		flag.Parse()

		// if environment variable is set, then using it
		if v := os.Getenv("RUN_ADDRESS"); v != "" {
			cfg.ServerAddr = v
		}
		if v := os.Getenv("DATABASE_URI"); v != "" {
			cfg.DatabaseDSN = v
		}
		if v := os.Getenv("LOG_LEVEL"); v != "" {
			cfg.LogLevel = v
		}
		if v := os.Getenv("CURRENCY"); v != "" {
			cfg.Currency = v
		}
		if v := os.Getenv("SHIPPING_FLAT_FEE"); v != "" {
			if fee, err := strconv.ParseInt(v, 10, 64); err == nil {
				cfg.ShippingFlatFee = fee
			}
		}
		if v := os.Getenv("FREE_SHIPPING_THRESHOLD"); v != "" {
			if threshold, err := strconv.ParseInt(v, 10, 64); err == nil {
				cfg.FreeShippingThreshold = threshold
			}
		}
		if v := os.Getenv("LOYALTY_GRANT"); v != "" {
			if grant, err := strconv.ParseInt(v, 10, 64); err == nil {
				cfg.LoyaltyGrant = grant
			}
		}
		if v := os.Getenv("GATEWAY_TIMEOUT"); v != "" {
			if timeout, err := time.ParseDuration(v); err == nil {
				cfg.GatewayTimeout = timeout
			}
		}
		if v := os.Getenv("STRIPE_API_KEY"); v != "" {
			cfg.StripeAPIKey = v
		}
		if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
			cfg.StripeWebhookSecret = v
		}
		if v := os.Getenv("STRIPE_SUCCESS_URL"); v != "" {
			cfg.StripeSuccessURL = v
		}
		if v := os.Getenv("STRIPE_CANCEL_URL"); v != "" {
			cfg.StripeCancelURL = v
		}
		if v := os.Getenv("WALLET_BASE_URL"); v != "" {
			cfg.WalletBaseURL = v
		}
		if v := os.Getenv("WALLET_SECRET"); v != "" {
			cfg.WalletSecret = v
		}
		if v := os.Getenv("WALLET_CURRENCY"); v != "" {
			cfg.WalletCurrency = v
		}
		if v := os.Getenv("WALLET_FX_RATE"); v != "" {
			if rate, err := strconv.ParseFloat(v, 64); err == nil {
				cfg.WalletFXRate = rate
			}
		}
		if v := os.Getenv("MANUAL_REDIRECT_URL"); v != "" {
			cfg.ManualRedirectURL = v
		}
		if v := os.Getenv("PROOF_DIR"); v != "" {
			cfg.ProofDir = v
		}
		if v := os.Getenv("AUTH_TOKEN_KEY"); v != "" {
			cfg.AuthTokenKey = v
		}
		if v := os.Getenv("ADMIN_LOGIN"); v != "" {
			cfg.AdminLogin = v
		}
		if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
			cfg.AdminPassword = v
		}

		singleton = &cfg
	})

	return singleton, nil
}
