package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-wscalc/internal/config"
	"github.com/sirosfoundation/go-wscalc/internal/keystore"
	"github.com/sirosfoundation/go-wscalc/internal/server"
	"github.com/sirosfoundation/go-wscalc/pkg/credential"
	"github.com/sirosfoundation/go-wscalc/pkg/dispatch"
	"github.com/sirosfoundation/go-wscalc/pkg/wssec"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the calculator server",
		RunE:  runServe,
	}
	cmd.Flags().StringP("config", "c", "config.yaml", "Path to configuration file (YAML)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ks, err := keystore.NewProvider(cfg.Keystore)
	if err != nil {
		return fmt.Errorf("opening keystore: %w", err)
	}
	defer ks.Close()

	store, err := cfg.Credentials(ks)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	resolver := credential.NewResolver(store, logger)

	// Responses are signed and encrypted but carry no UsernameToken:
	// the server authenticates by key, not by password
	requestPolicy := cfg.Policy()
	responsePolicy := requestPolicy.Without(wssec.ActionUsernameToken)
	identity := cfg.Identity()

	router := dispatch.NewRouter(
		wssec.NewInbound(resolver, requestPolicy, identity, logger),
		wssec.NewOutbound(resolver, responsePolicy, identity, logger),
		logger,
	)
	router.RegisterCalculator()

	logger.Info("configured security policy",
		"request", requestPolicy.String(),
		"response", responsePolicy.String(),
		"local", identity.Local,
		"peer", identity.Peer,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, router, logger).Run(ctx)
}
