package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inklet/inklet/internal/auth"
	clientcmd "github.com/inklet/inklet/internal/cmd/client"
	serverrun "github.com/inklet/inklet/internal/cmd/server"
	cfgpkg "github.com/inklet/inklet/internal/config"
	pebblestore "github.com/inklet/inklet/internal/storage/pebble"
	logpkg "github.com/inklet/inklet/pkg/log"
)

func main() {
	// Respect INKLET_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("INKLET_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "inklet",
		Short: "Inklet publishing runtime CLI",
		Long:  "Inklet is a single-binary blog publishing runtime with live subscriptions. This CLI manages the server and basic operations.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the inklet server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			configPath, _ := cmd.Flags().GetString("config")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			authSecret, _ := cmd.Flags().GetString("auth-secret")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			}

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			if authSecret != "" {
				cfg.Auth.Secret = authSecret
			}
			if httpAddr != "" {
				cfg.HTTPAddr = httpAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serverrun.Run(ctx, serverrun.Options{
				DataDir:       dataDir,
				HTTPAddr:      cfg.HTTPAddr,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
			})
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (default: platform data dir)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default from config)")
	serverStartCmd.Flags().String("config", "", "Path to a JSON or YAML config file")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().Int("fsync-interval-ms", 5, "Fsync interval for interval mode")
	serverStartCmd.Flags().String("auth-secret", "", "HMAC secret for bearer tokens (overrides config)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// token mint
	tokenCmd := &cobra.Command{Use: "token", Short: "Token helpers"}
	tokenMintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _ := cmd.Flags().GetString("secret")
			user, _ := cmd.Flags().GetString("user")
			name, _ := cmd.Flags().GetString("name")
			ttlMin, _ := cmd.Flags().GetInt("ttl-minutes")
			if secret == "" {
				secret = os.Getenv("INKLET_AUTH_SECRET")
			}
			if secret == "" || user == "" {
				return fmt.Errorf("--secret (or INKLET_AUTH_SECRET) and --user are required")
			}
			tok, err := auth.IssueToken([]byte(secret), auth.Identity{UserID: user, Name: name},
				time.Duration(ttlMin)*time.Minute)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	tokenMintCmd.Flags().String("secret", "", "HMAC secret (defaults to INKLET_AUTH_SECRET)")
	tokenMintCmd.Flags().String("user", "", "User ID")
	tokenMintCmd.Flags().String("name", "", "Display name")
	tokenMintCmd.Flags().Int("ttl-minutes", 60, "Token lifetime in minutes (0 = no expiry)")
	tokenCmd.AddCommand(tokenMintCmd)
	rootCmd.AddCommand(tokenCmd)

	// client commands
	rootCmd.AddCommand(clientcmd.NewRoot(clientcmd.BaseURLFromEnv))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
