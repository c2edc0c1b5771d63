package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chainsafe/vault-ledger/pkg/app"
	"github.com/chainsafe/vault-ledger/pkg/app/api"
	"github.com/chainsafe/vault-ledger/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	var runner app.Runner = api.NewServer(cfg)
	if err := runner.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Vault server stopped with error: %v\n", err)
		os.Exit(1)
	}
}
