// Command spendwise-stub runs the in-memory SpendWise backend. It serves both
// the GoTrue auth endpoints and the resource API, which makes it a drop-in
// target for the CLI and for local development.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/hien-duc/spendwise-go/internal/stubserver"
	"github.com/hien-duc/spendwise-go/pkg/logger"
)

func main() {
	var (
		addr     = flag.String("addr", ":8090", "Listen address")
		anonKey  = flag.String("anon-key", "local-anon-key", "API key required on auth calls")
		tokenTTL = flag.Duration("token-ttl", time.Hour, "Access token lifetime")
		seedUser = flag.String("seed-user", "", "Seed account as email:password")
		pretty   = flag.Bool("pretty", true, "Human-readable log output")
	)
	flag.Parse()

	logg := logger.New(logger.Config{Level: "info", Pretty: *pretty, Output: os.Stderr})

	server := stubserver.New(stubserver.Options{
		AnonKey:  *anonKey,
		TokenTTL: *tokenTTL,
		Logger:   logg,
	})

	if *seedUser != "" {
		email, password, ok := splitSeed(*seedUser)
		if !ok {
			log.Fatalf("invalid -seed-user %q, want email:password", *seedUser)
		}
		id := server.Register(email, password)
		logg.Info().Str("email", email).Str("user_id", id).Msg("seeded account")
	}

	logg.Info().Str("addr", *addr).Msg("stub backend listening")
	if err := http.ListenAndServe(*addr, server); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

func splitSeed(s string) (email, password string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:], s[:i] != "" && s[i+1:] != ""
		}
	}
	return "", "", false
}
