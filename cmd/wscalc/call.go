package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-wscalc/internal/config"
	"github.com/sirosfoundation/go-wscalc/internal/keystore"
	"github.com/sirosfoundation/go-wscalc/pkg/client"
	"github.com/sirosfoundation/go-wscalc/pkg/credential"
	"github.com/sirosfoundation/go-wscalc/pkg/wssec"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <operation> <a> <b>",
		Short: "Call a calculator operation on a remote server",
		Long: `Call invokes one of add, subtract, multiply or divide against a
running server. The configuration file supplies the client's keys and
token credentials; --url supplies the endpoint.`,
		Args: cobra.ExactArgs(3),
		RunE: runCall,
	}
	cmd.Flags().StringP("config", "c", "client.yaml", "Path to configuration file (YAML)")
	cmd.Flags().String("url", "http://localhost:8080/ws", "Service endpoint URL")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	operation := args[0]
	a, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("operand a: %w", err)
	}
	b, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("operand b: %w", err)
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	url, _ := cmd.Flags().GetString("url")

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

	requestPolicy := cfg.Policy()
	responsePolicy := requestPolicy.Without(wssec.ActionUsernameToken)
	identity := cfg.Identity()

	c := client.New(url,
		wssec.NewOutbound(resolver, requestPolicy, identity, logger),
		wssec.NewInbound(resolver, responsePolicy, identity, logger),
		logger,
	)

	result, err := c.Call(cmd.Context(), operation, a, b)
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}
