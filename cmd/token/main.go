// Command token prints an admin bearer token signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	jwtmw "candle_catalog/internal/platform/jwt"
	"candle_catalog/internal/platform/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info(".env not found; using system environment variables")
	}
	logger.SetupTo(os.Stderr)

	subject := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret, err := jwtmw.LoadSecret()
	if err != nil {
		slog.Error("cannot sign token", "error", err)
		os.Exit(1)
	}

	token, err := jwtmw.NewGenerator(secret, *ttl).GenerateToken(*subject, jwtmw.RoleAdmin)
	if err != nil {
		slog.Error("cannot sign token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
