package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

type Config struct {
	CockroachURL      string        `ff:"long: cockroach-url, default: postgresql://root@127.0.0.1:26257/defaultdb?sslmode=disable, usage: URL for the CockroachDB database"`
	Port              uint32        `ff:"long: port, short: p, default: 4444, usage: Port for the HTTP server"`
	NATSURL           string        `ff:"long: nats-url, usage: NATS URL for cross-instance event delivery (single instance if empty)"`
	TokenKey          string        `ff:"long: token-key, usage: 32-byte secret key for auth tokens"`
	TokenTTL          time.Duration `ff:"long: token-ttl, default: 720h, usage: Lifetime of issued auth tokens"`
	SessionBuffer     int           `ff:"long: session-buffer, default: 32, usage: Outgoing event buffer per websocket session"`
	BackgroundTimeout time.Duration `ff:"long: background-timeout, default: 5s, usage: Timeout for background broadcast operations"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	fs := ff.NewFlagSetFrom("immo", &cfg)
	err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("IMMO"))
	if errors.Is(err, ff.ErrHelp) {
		fmt.Println(ffhelp.Flags(fs))
		os.Exit(0)
	}

	return cfg, err
}
