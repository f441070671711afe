package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config holds the process configuration, loaded from the environment with
// .env autoload in development.
type Config struct {
	// DBDriver is "postgres" or "sqlite".
	DBDriver string
	// DBDSN is the driver connection string; for sqlite it is the file path.
	DBDSN string

	// Codec names the content codec used for new writes: nop, gzip, lz4 or
	// brotli. Reads always follow the codec recorded on the row.
	Codec string

	// RedisAddr enables the compiled cache when non-empty.
	RedisAddr string

	// KafkaBrokers enables the event queue when non-empty. KafkaTopic
	// defaults to "burdy.posts".
	KafkaBrokers string
	KafkaTopic   string
}

func LoadConfig() *Config {
	cnf := &Config{
		DBDriver:     getenv("DB_DRIVER", "sqlite"),
		DBDSN:        getenv("DB_DSN", ".db/burdy.db"),
		Codec:        getenv("CONTENT_CODEC", "nop"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:   getenv("KAFKA_TOPIC", "burdy.posts"),
	}

	return cnf
}

// GetDb opens the configured database. TranslateError is on so unique index
// violations surface as gorm.ErrDuplicatedKey on every driver.
func GetDb(cnf *Config) *gorm.DB {
	var dialector gorm.Dialector
	switch cnf.DBDriver {
	case "postgres":
		dialector = postgres.Open(cnf.DBDSN)
	default:
		dialector = sqlite.Open(cnf.DBDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to %s database: %v", cnf.DBDriver, err)
	}

	return db
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
