package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string `mapstructure:"env"`
		Build            string `mapstructure:"build"`
		AppName          string `mapstructure:"appName"`
		Debug            bool   `mapstructure:"debug"`
		TestMode         bool   `mapstructure:"testMode"`
		SecretKey        string `mapstructure:"secretKey"`
		DefaultFromEmail string `mapstructure:"defaultFromEmail"`
		FrontendBaseURL  string `mapstructure:"frontendBaseURL"`
		RollbarToken     string `mapstructure:"rollbarToken"`
		SendgridAPIKey   string `mapstructure:"sendgridApiKey"`

		JWTExpirationDelta        time.Duration `mapstructure:"jwtExpirationDelta"`
		JWTRefreshExpirationDelta time.Duration `mapstructure:"jwtRefreshExpirationDelta"`
		PasswordResetTimeoutDelta time.Duration `mapstructure:"passwordResetTimeoutDelta"`

		Server    ServerConfig    `mapstructure:"server"`
		Database  DatabaseConfig  `mapstructure:"database"`
		Frontend  FrontendConfig  `mapstructure:"frontend"`
		RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	}

	ServerConfig struct {
		Host            string        `mapstructure:"host"`
		Addr            string        `mapstructure:"addr"`
		DebugHost       string        `mapstructure:"debugHost"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	}

	DatabaseConfig struct {
		Engine        string `mapstructure:"engine"` // postgres | sqlite | memory
		Host          string `mapstructure:"host"`
		Port          string `mapstructure:"port"`
		Name          string `mapstructure:"name"`
		User          string `mapstructure:"user"`
		Password      string `mapstructure:"password"`
		AdminUser     string `mapstructure:"adminUser"`
		AdminPassword string `mapstructure:"adminPassword"`
		DisableTLS    bool   `mapstructure:"disableTLS"`
		Path          string `mapstructure:"path"` // sqlite file
	}

	FrontendConfig struct {
		Addr               string        `mapstructure:"addr"`
		APIBaseURL         string        `mapstructure:"apiBaseURL"`
		InternalAPIBaseURL string        `mapstructure:"internalApiBaseURL"`
		APITimeout         time.Duration `mapstructure:"apiTimeout"`
		SessionStore       string        `mapstructure:"sessionStore"` // memory | sqlite
		SessionPath        string        `mapstructure:"sessionPath"`
		SessionMaxAge      time.Duration `mapstructure:"sessionMaxAge"`
		SecureCookie       bool          `mapstructure:"secureCookie"`
	}

	RateLimitConfig struct {
		AuthPerMinute int `mapstructure:"authPerMinute"`
		AuthBurst     int `mapstructure:"authBurst"`
	}
)

// NewConfig loads the configuration from the environment.
// Variables are prefixed by the current ENV (DEV by default), e.g. DEV_SECRETKEY, PROD_DATABASE_HOST.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Unifip Acadêmico")
	v.SetDefault("secretKey", "8q!t0-v@z)bm_kx3j#e6p2+u*l9^w1g&y4h$c7rn5sa(dfoi")
	v.SetDefault("defaultFromEmail", "Unifip Acadêmico <noreply@localhost>")
	v.SetDefault("frontendBaseURL", "http://localhost:8001")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("jwtExpirationDelta", 30*time.Minute)
	v.SetDefault("jwtRefreshExpirationDelta", 24*time.Hour)
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("database.engine", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "academico")
	v.SetDefault("database.user", "academico")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "academico.db")

	v.SetDefault("frontend.addr", ":8001")
	v.SetDefault("frontend.apiBaseURL", "http://localhost:8000/api")
	v.SetDefault("frontend.internalApiBaseURL", "http://localhost:8000/api")
	v.SetDefault("frontend.apiTimeout", 10*time.Second)
	v.SetDefault("frontend.sessionStore", "memory")
	v.SetDefault("frontend.sessionPath", "sessions.db")
	v.SetDefault("frontend.sessionMaxAge", 14*24*time.Hour)
	v.SetDefault("frontend.secureCookie", false)

	v.SetDefault("rateLimit.authPerMinute", 10)
	v.SetDefault("rateLimit.authBurst", 5)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.Set("env", env)
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(configDir(), ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	// AutomaticEnv only applies to keys viper already knows, which is the case for every default above.
	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		log.Fatalf("config.Unmarshal(): %v", err)
	}
	if err := conf.Validate(); err != nil {
		log.Fatalf("config.Validate(): %v", err)
	}
	return conf
}

// Validate checks the values the apps cannot run without.
func (c *Config) Validate() error {
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.SecretKey, "secretKey"),
		vala.StringNotEmpty(c.Database.Engine, "database.engine"),
	).Check()
}

// DefaultFromAddress parses Config.DefaultFromEmail.
func (c *Config) DefaultFromAddress() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: "noreply@localhost"}
}

func (d DatabaseConfig) Address() string {
	return net.JoinHostPort(d.Host, d.Port)
}

// configDir returns the directory holding the .env files: $CONFIG_DIR or ./config.
func configDir() string {
	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	return filepath.Join(wd, "config")
}
