// Gen-jwt prints a session token for local testing. Run from project root:
//
//	go run ./scripts/gen-jwt --sub alice --email alice@example.com
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"todoshare/internal/middleware"
)

func main() {
	_ = godotenv.Load()

	sub := pflag.String("sub", "test-user", "user id (token subject)")
	email := pflag.String("email", "", "email claim (defaults to <sub>@example.com)")
	username := pflag.String("username", "", "username claim")
	ttl := pflag.Duration("ttl", 24*time.Hour, "token lifetime")
	pflag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}
	if *email == "" {
		*email = *sub + "@example.com"
	}

	signed, err := middleware.NewToken(secret, *sub, *email, *username, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Sign failed:", err)
		os.Exit(1)
	}
	fmt.Println(signed)
}
