// Command devtoken prints a signed caller token for exercising the API locally.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"savorysync/internal/auth"
	"savorysync/internal/config"
)

func main() {
	userID := flag.Int64("user", 0, "user id")
	role := flag.String("role", string(auth.RoleCustomer), "customer or seller")
	username := flag.String("name", "", "username claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	caller, err := auth.NewCaller(*userID, *role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	token, err := auth.NewVerifier(cfg.JWTSecret).Sign(caller, *username, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
