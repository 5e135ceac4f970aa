package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"wagmi/config"
	"wagmi/core"
	"wagmi/core/state"
	"wagmi/crypto"
	"wagmi/native/governance"
	"wagmi/native/staking"
	"wagmi/native/timelock"
	"wagmi/native/token"
	"wagmi/native/treasury"
	"wagmi/observability/logging"
	"wagmi/rpc"
	"wagmi/storage"
)

const logLevelEnv = "WAGMI_LOG_LEVEL"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "keygen" {
		runKeygen(os.Args[2:])
		return
	}

	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup("wagmid", cfg.NetworkName, logging.ParseLevel(os.Getenv(logLevelEnv)))

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	engines, err := buildEngines(cfg, manager)
	if err != nil {
		logger.Error("Failed to wire engines", slog.Any("error", err))
		os.Exit(1)
	}

	server := rpc.NewServer(engines.staking, engines.governance, engines.timelock, engines.token, engines.treasury, logger, rpc.ServerConfig{
		AuthToken:          cfg.RPCAuthToken,
		RateLimitPerSecond: 50,
		RateLimitBurst:     100,
	})

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting JSON-RPC server", slog.String("addr", cfg.ListenAddress))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Shutting down", slog.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Error("Shutdown failed", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}
}

// runKeygen generates an operator key, or derives the address of an existing
// one, for use in the Owner, Proposers, and Executors config fields.
func runKeygen(args []string) {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	outFile := fs.String("out", "", "Write the hex-encoded private key to this file instead of stdout")
	fromFile := fs.String("from", "", "Print the address of an existing hex-encoded key file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *fromFile != "" {
		raw, err := os.ReadFile(*fromFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read key file: %v\n", err)
			os.Exit(1)
		}
		decoded, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Key file is not hex: %v\n", err)
			os.Exit(1)
		}
		key, err := crypto.PrivateKeyFromBytes(decoded)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid private key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Address: %s\n", key.PubKey().Address())
		return
	}

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
		os.Exit(1)
	}
	encoded := hex.EncodeToString(key.Bytes())
	addr := key.PubKey().Address()
	if *outFile != "" {
		if err := os.WriteFile(*outFile, []byte(encoded+"\n"), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write key file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Address: %s\nKey written to %s\n", addr, *outFile)
		return
	}
	fmt.Printf("Address: %s\nPrivateKey: %s\n", addr, encoded)
}

type engineSet struct {
	token      *token.Engine
	staking    *staking.Engine
	timelock   *timelock.Controller
	governance *governance.Engine
	treasury   *treasury.Engine
}

// buildEngines constructs every module engine over the shared state manager
// and applies the genesis configuration on first start. Genesis steps are
// idempotent: re-running against an initialised database changes nothing.
func buildEngines(cfg *config.Config, manager *state.Manager) (*engineSet, error) {
	tokenAddr := crypto.ModuleAddress("token")
	vaultAddr := crypto.ModuleAddress("staking")
	treasuryAddr := crypto.ModuleAddress("treasury")
	timelockAddr := crypto.ModuleAddress("timelock")
	governanceAddr := crypto.ModuleAddress("governance")

	owner := timelockAddr
	if cfg.Token.Owner != "" {
		parsed, err := config.ParseAddress(cfg.Token.Owner)
		if err != nil {
			return nil, err
		}
		owner = parsed
	}

	tokenEngine := token.NewEngine(token.Metadata{Name: cfg.Token.Name, Symbol: cfg.Token.Symbol}, owner, treasuryAddr)
	tokenEngine.SetState(manager)
	feesConfigured, err := tokenEngine.FeesConfigured()
	if err != nil {
		return nil, err
	}
	// Fees and exemptions seed from config exactly once; after genesis the
	// stored values are owned by governance and survive restarts.
	if !feesConfigured {
		if err := tokenEngine.SetFeeStructure(owner, cfg.Token.BurnFee, cfg.Token.TreasuryFee); err != nil {
			return nil, err
		}
		// Module accounts never pay transfer fees; principal and payouts
		// must move through the vault unshaved.
		for _, addr := range [][20]byte{vaultAddr, treasuryAddr, timelockAddr} {
			if err := tokenEngine.SetFeeExemption(owner, addr, true); err != nil {
				return nil, err
			}
		}
		exempt, err := config.ParseAddresses(cfg.Token.FeeExempt)
		if err != nil {
			return nil, err
		}
		for _, addr := range exempt {
			if err := tokenEngine.SetFeeExemption(owner, addr, true); err != nil {
				return nil, err
			}
		}
	}
	supply, err := config.ParseAmount(cfg.Token.InitialSupply)
	if err != nil {
		return nil, err
	}
	if supply.Sign() > 0 {
		existing, err := tokenEngine.TotalSupply()
		if err != nil {
			return nil, err
		}
		if existing.Sign() == 0 {
			if err := tokenEngine.Mint(owner, owner, supply); err != nil {
				return nil, err
			}
		}
	}

	plans := make([]staking.Plan, len(cfg.Staking.Plans))
	for i, plan := range cfg.Staking.Plans {
		plans[i] = staking.Plan{
			LockPeriod:             plan.LockPeriodSeconds,
			RewardRate:             plan.RewardRatePercent,
			EarlyWithdrawalPenalty: plan.PenaltyPercent,
			VotingMultiplierBps:    plan.VotingMultiplierBps,
		}
	}
	maxPerUser, err := config.ParseAmount(cfg.Staking.MaxStakePerUser)
	if err != nil {
		return nil, err
	}
	maxPerWhale, err := config.ParseAmount(cfg.Staking.MaxStakePerWhale)
	if err != nil {
		return nil, err
	}
	whales, err := config.ParseAddresses(cfg.Staking.Whales)
	if err != nil {
		return nil, err
	}
	stakingEngine := staking.NewEngine(vaultAddr, timelockAddr, plans, staking.Policy{
		MaxStakePerUser:      maxPerUser,
		MaxStakePerWhale:     maxPerWhale,
		Whales:               whales,
		CapAccrualAtMaturity: cfg.Staking.CapAccrualAtMaturity,
		RestrictTopUps:       cfg.Staking.RestrictTopUps,
	})
	stakingEngine.SetState(manager)
	stakingEngine.SetToken(tokenEngine)

	controller := timelock.NewController(timelockAddr)
	controller.SetState(manager)
	if err := seedTimelock(cfg, manager, governanceAddr); err != nil {
		return nil, err
	}

	treasuryEngine := treasury.NewEngine(treasuryAddr, timelockAddr)
	treasuryEngine.SetState(manager)
	treasuryEngine.SetToken(tokenEngine)
	if err := seedTreasuryCategories(cfg, manager); err != nil {
		return nil, err
	}

	router := core.NewRouter()
	router.Register(tokenAddr, tokenEngine)
	router.Register(vaultAddr, stakingEngine)
	router.Register(treasuryAddr, treasuryEngine)
	controller.SetDispatcher(router)

	threshold, err := config.ParseAmount(cfg.Governance.ProposalThreshold)
	if err != nil {
		return nil, err
	}
	quorum, err := config.ParseAmount(cfg.Governance.QuorumPower)
	if err != nil {
		return nil, err
	}
	governanceEngine := governance.NewEngine(governanceAddr, governance.Policy{
		ProposalThreshold:   threshold,
		VotingPeriodSeconds: cfg.Governance.VotingPeriodSeconds,
		QuorumPower:         quorum,
		PassThresholdBps:    cfg.Governance.PassThresholdBps,
		GracePeriodSeconds:  cfg.Governance.GracePeriodSeconds,
	})
	governanceEngine.SetState(manager)
	governanceEngine.SetPowerSource(stakingEngine)
	governanceEngine.SetScheduler(controller)

	return &engineSet{
		token:      tokenEngine,
		staking:    stakingEngine,
		timelock:   controller,
		governance: governanceEngine,
		treasury:   treasuryEngine,
	}, nil
}

// seedTimelock writes the genesis delay and role grants straight into state.
// After genesis, role management goes through the controller's admin surface.
func seedTimelock(cfg *config.Config, manager *state.Manager, governanceAddr [20]byte) error {
	delay, err := manager.TimelockMinDelay()
	if err != nil {
		return err
	}
	if delay == 0 {
		if err := manager.SetTimelockMinDelay(cfg.Timelock.MinDelaySeconds); err != nil {
			return err
		}
	}

	grants := map[timelock.Role][]string{
		timelock.RoleAdmin:    cfg.Timelock.Admins,
		timelock.RoleProposer: cfg.Timelock.Proposers,
		timelock.RoleExecutor: cfg.Timelock.Executors,
	}
	for role, holders := range grants {
		addrs, err := config.ParseAddresses(holders)
		if err != nil {
			return err
		}
		for _, addr := range addrs {
			if err := manager.SetTimelockRole(string(role), addr, true); err != nil {
				return err
			}
		}
	}
	// The governance engine queues and executes approved proposals itself.
	for _, role := range []timelock.Role{timelock.RoleProposer, timelock.RoleExecutor} {
		if err := manager.SetTimelockRole(string(role), governanceAddr, true); err != nil {
			return err
		}
	}
	return nil
}

func seedTreasuryCategories(cfg *config.Config, manager *state.Manager) error {
	existing, err := manager.TreasuryCategories()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	categories := make([]string, 0, len(cfg.Treasury.Categories))
	for _, category := range cfg.Treasury.Categories {
		categories = append(categories, strings.ToLower(strings.TrimSpace(category)))
	}
	return manager.PutTreasuryCategories(categories)
}
