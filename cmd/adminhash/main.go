// Command adminhash prints an argon2id hash for ADMIN_PASSWORD_HASH.
//
//	ADMIN_PASSWORD='s3cret' go run ./cmd/adminhash
//
// The password is read from ADMIN_PASSWORD, or from the first argument.
package main

import (
	"fmt"
	"log"
	"os"

	httpserver "github.com/fairyhunter13/authentyc-landing/internal/adapter/httpserver"
	"github.com/fairyhunter13/authentyc-landing/internal/config"
)

func main() {
	password := os.Getenv("ADMIN_PASSWORD")
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	if password == "" {
		log.Fatal("usage: adminhash <password> (or set ADMIN_PASSWORD)")
	}

	hash, err := httpserver.HashPassword(password, httpserver.DefaultArgon2Params)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(hash)

	// Report whether the current environment already matches.
	if cfg, err := config.Load(); err == nil && cfg.AdminPasswordHash != "" {
		fmt.Fprintf(os.Stderr, "ADMIN_USERNAME: '%s'\n", cfg.AdminUsername)
		fmt.Fprintf(os.Stderr, "current ADMIN_PASSWORD_HASH matches: %v\n", httpserver.VerifyPassword(password, cfg.AdminPasswordHash))
		fmt.Fprintf(os.Stderr, "AdminEnabled(): %v\n", cfg.AdminEnabled())
	}
}
