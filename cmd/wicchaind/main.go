package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wicchain/config"
	"wicchain/core"
	"wicchain/core/types"
	"wicchain/crypto"
	"wicchain/observability/logging"
	"wicchain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	generate := flag.Bool("gen", true, "Produce blocks when this node holds a delegate key")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("WICCHAIN_ENV"))
	logger := logging.Setup("wicchaind", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	network, err := cfg.Network()
	if err != nil {
		logger.Error("invalid network", "err", err)
		os.Exit(1)
	}
	chainParams := config.Params(network)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "chainstate"))
	if err != nil {
		logger.Error("failed to open chainstate", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	wallet := crypto.NewWallet()
	key, err := loadOrCreateDelegateKey(cfg.DataDir)
	if err != nil {
		logger.Error("failed to load delegate key", "err", err)
		os.Exit(1)
	}
	wallet.AddMinerKey(key)
	logger.Info("delegate key loaded", "address", key.PubKey().Address().String())

	genesisAccounts := []core.GenesisAccount{{
		RegID:       types.NewRegID(0, 1),
		OwnerPubKey: key.PubKey().Bytes(),
		Balance:     100_000_000 * config.COIN,
		Votes:       1_000_000 * config.COIN,
	}}

	node, err := core.NewNode(db, cfg, chainParams, wallet, genesisAccounts, logger)
	if err != nil {
		logger.Error("failed to start node", "err", err)
		os.Exit(1)
	}

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics listener failed", "err", err)
			}
		}()
	}

	if *generate {
		node.Miner().GenerateCoinBlock(true, cfg.MineToTarget)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	node.Miner().Stop()
}

// loadOrCreateDelegateKey keeps the node's delegate key at a fixed location
// inside the data directory.
func loadOrCreateDelegateKey(dataDir string) (*crypto.PrivateKey, error) {
	path := filepath.Join(dataDir, "delegate.key")
	raw, err := os.ReadFile(path)
	if err == nil {
		return crypto.PrivateKeyFromBytes(raw)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("persist delegate key: %w", err)
	}
	return key, nil
}
