package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database engines
const (
	EngineMongo    = "mongo"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
	EngineInMem    = "inmem"
)

type Config struct {
	Env          string
	AppName      string
	Debug        bool
	TestMode     bool
	SecretKey    string
	RollbarToken string
	WorkDir      string

	Server struct {
		Address         string
		DebugAddress    string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	Database struct {
		Engine        string // mongo | postgres | sqlite | inmem
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string // creates the app user & database, postgres only
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite file, ":memory:" allowed
		MongoURI      string
	}

	AMQP struct {
		URL      string
		Exchange string
	}

	Email struct {
		DefaultFromEmail string
		SendgridAPIKey   string
	}

	JWT struct {
		Issuer string
	}
}

// DatabaseAddress returns the "host:port" of the SQL server.
func (c *Config) DatabaseAddress() string {
	return c.Database.Host + ":" + c.Database.Port
}

// NewConfig reads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the upper-cased env name, e.g. `DEV_DATABASE_ENGINE`.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Masomo Bursar")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugAddress", ":4000")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", EngineMongo)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "bursar")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", "bursar.db")
	v.SetDefault("database.mongoURI", "mongodb://localhost:27017")
	v.SetDefault("amqp.exchange", "bursar.finance")
	v.SetDefault("email.defaultFromEmail", "noreply@localhost")
	v.SetDefault("jwt.issuer", "bursar")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		AppName:      v.GetString("appName"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
	}
	conf.Server.Address = v.GetString("server.address")
	conf.Server.DebugAddress = v.GetString("server.debugAddress")
	conf.Server.ReadTimeout = v.GetDuration("server.readTimeout")
	conf.Server.WriteTimeout = v.GetDuration("server.writeTimeout")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")

	conf.Database.Engine = strings.ToLower(v.GetString("database.engine"))
	conf.Database.Host = v.GetString("database.host")
	conf.Database.Port = v.GetString("database.port")
	conf.Database.Name = v.GetString("database.name")
	conf.Database.User = v.GetString("database.user")
	conf.Database.Password = v.GetString("database.password")
	conf.Database.AdminUser = v.GetString("database.adminUser")
	conf.Database.AdminPassword = v.GetString("database.adminPassword")
	conf.Database.DisableTLS = v.GetBool("database.disableTLS")
	conf.Database.Path = v.GetString("database.path")
	conf.Database.MongoURI = v.GetString("database.mongoURI")

	conf.AMQP.URL = v.GetString("amqp.url")
	conf.AMQP.Exchange = v.GetString("amqp.exchange")

	conf.Email.DefaultFromEmail = v.GetString("email.defaultFromEmail")
	conf.Email.SendgridAPIKey = v.GetString("email.sendgridAPIKey")

	conf.JWT.Issuer = v.GetString("jwt.issuer")
	return conf
}
