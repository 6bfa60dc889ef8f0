package config

import (
	"github.com/kelseyhightower/envconfig"
)

type App struct {
	HTTPAddr           string `envconfig:"HTTP_ADDR" default:":8080"`
	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	RedisURL           string `envconfig:"REDIS_URL" default:"localhost:6379"`

	AccessTokenSecret  string `envconfig:"ACCESS_TOKEN_SECRET" required:"true"`
	RefreshTokenSecret string `envconfig:"REFRESH_TOKEN_SECRET" required:"true"`

	// Booking lifecycle events are published to this exchange when AMQP_URL
	// is set; leave it empty to run without a broker.
	AMQPURL       string `envconfig:"AMQP_URL"`
	EventExchange string `envconfig:"EVENT_EXCHANGE" default:"spots.bookings"`
}

func Load() (App, error) {
	var c App
	err := envconfig.Process("", &c)
	return c, err
}
