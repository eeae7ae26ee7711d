package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET environment variable must be set")
		fmt.Fprintln(os.Stderr, "Usage: JWT_SECRET=secret [JWT_ISSUER=issuer] [JWT_SUBJECT=user] go run scripts/generate-jwt.go")
		os.Exit(1)
	}

	subject := os.Getenv("JWT_SUBJECT")
	if subject == "" {
		subject = "dev-user"
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	if issuer := os.Getenv("JWT_ISSUER"); issuer != "" {
		claims["iss"] = issuer
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(tokenString)
}
