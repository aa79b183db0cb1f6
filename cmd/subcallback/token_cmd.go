// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/subcallback/internal/api/middleware"
	"github.com/ManuGH/subcallback/internal/config"
	"github.com/ManuGH/subcallback/internal/version"
)

// runTokenCLI prints an admin bearer token signed with the configured secret.
func runTokenCLI(args []string) int {
	return issueToken(args, os.Stdout, os.Stderr)
}

func issueToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("subcallback token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("config", "", "path to YAML configuration file")
	subject := fs.String("subject", "operator", "token subject")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.NewLoader(strings.TrimSpace(*file), version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	auth := middleware.NewJWTAuth(cfg.Admin.JWTSecret)
	if auth == nil {
		fmt.Fprintln(stderr, "Error: admin.jwt_secret is not configured")
		return 1
	}
	token, err := auth.GenerateToken(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}
