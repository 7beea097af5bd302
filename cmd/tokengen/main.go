// Package main provides a CLI for minting caller tokens and admin token
// hashes for local flightsurety deployments. Production tokens should come
// from POST /v1/admin/tokens on the running server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	jwttoken "flightsurety/internal/jwt_token"
	"flightsurety/pkg/domain"
)

const (
	// Matches config.go when JWT_SIGNING_KEY is not set outside production.
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "flightsurety"
	defaultTokenTTL = 24 * time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	Subject   string            `json:"subject"`
	ExpiresAt time.Time         `json:"expires_at"`
	Usage     map[string]string `json:"usage"`
}

type hashOutput struct {
	Hash  string            `json:"hash"`
	Usage map[string]string `json:"usage"`
}

func main() {
	callerCmd := flag.NewFlagSet("caller", flag.ExitOnError)
	callerAddress := callerCmd.String("address", "", "Caller address (0x-prefixed, 20 bytes)")
	callerTTL := callerCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	callerKey := callerCmd.String("key", envOr("JWT_SIGNING_KEY", devSigningKey), "HS256 signing key")
	callerIssuer := callerCmd.String("issuer", envOr("TOKEN_ISSUER", defaultIssuer), "Token issuer")
	callerJSON := callerCmd.Bool("json", false, "Output as JSON")

	hashCmd := flag.NewFlagSet("admin-hash", flag.ExitOnError)
	hashToken := hashCmd.String("token", "", "Plaintext admin token to hash")
	hashCost := hashCmd.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	hashJSON := hashCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "caller":
		_ = callerCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateCallerToken(*callerAddress, *callerKey, *callerIssuer, *callerTTL, *callerJSON)
	case "admin-hash":
		_ = hashCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		generateAdminHash(*hashToken, *hashCost, *hashJSON)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Mint credentials for a local flightsurety server

Usage:
  tokengen <command> [flags]

Commands:
  caller       Sign a caller bearer token (JWT, subject = caller address)
  admin-hash   Hash an admin token for ADMIN_TOKEN_HASH

Examples:
  # Token for the owner configured in OWNER_ADDRESS
  tokengen caller -address 0x00000000000000000000000000000000000000f0

  # Token signed with the server's key and a short TTL
  JWT_SIGNING_KEY=... tokengen caller -address 0x... -ttl 1h -json

  # Hash for X-Admin-Token
  tokengen admin-hash -token "operator-secret"

A token only authenticates. The caller must still be authorized by the owner
(POST /v1/admin/callers) before the API accepts its calls.`)
}

func generateCallerToken(address, key, issuer string, ttl time.Duration, jsonOutput bool) {
	caller, err := domain.ParseAddress(address)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -address: %v\n", err)
		os.Exit(1)
	}
	svc := jwttoken.NewJWTService(key, issuer, jwttoken.Audience, ttl)
	issued, err := svc.IssueCallerToken(context.Background(), caller, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     issued.Token,
			Type:      "Bearer",
			Subject:   caller.String(),
			ExpiresAt: issued.ExpiresAt,
			Usage: map[string]string{
				"header": "Authorization: Bearer " + issued.Token,
			},
		})
		return
	}
	fmt.Println("Caller Token")
	fmt.Println("============")
	fmt.Printf("Subject:    %s\n", caller)
	fmt.Printf("Expires at: %s\n", issued.ExpiresAt.Format(time.RFC3339))
	fmt.Println()
	fmt.Println(issued.Token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer " + issued.Token + "\" http://localhost:8080/v1/airlines/registered")
}

func generateAdminHash(token string, cost int, jsonOutput bool) {
	if token == "" {
		fmt.Fprintln(os.Stderr, "-token is required")
		os.Exit(1)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(hashOutput{
			Hash: string(hash),
			Usage: map[string]string{
				"env":    "ADMIN_TOKEN_HASH=" + string(hash),
				"header": "X-Admin-Token: <plaintext token>",
			},
		})
		return
	}
	fmt.Println(string(hash))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
