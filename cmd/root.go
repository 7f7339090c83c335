package cmd

import (
	"context"
	"os"
	"time"

	coreconfig "github.com/AzielCF/az-engage/core/config"
	coreDB "github.com/AzielCF/az-engage/core/database"
	domainAccount "github.com/AzielCF/az-engage/domains/account"
	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	"github.com/AzielCF/az-engage/infrastructure/uazapi"
	"github.com/AzielCF/az-engage/infrastructure/valkey"
	"github.com/AzielCF/az-engage/pkg/utils"
	"github.com/AzielCF/az-engage/repository"
	"github.com/AzielCF/az-engage/ui/websocket"
	"github.com/AzielCF/az-engage/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	db       *gorm.DB
	vkClient *valkey.Client
	serverID string

	// Repositories
	accountRepo  *repository.AccountGormRepository
	campaignRepo *repository.CampaignGormRepository

	// Usecase
	accountUsecase   domainAccount.IAccountUsecase
	blacklistUsecase domainBlacklist.IBlacklistUsecase
	campaignUsecase  domainCampaign.ICampaignUsecase

	wsHub *websocket.Hub
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-engage",
	Short: "WhatsApp campaign console over UAZAPI",
	Long: `Dispatch bulk WhatsApp campaigns through a UAZAPI gateway, follow their
progress, reconcile remote status and keep a per-account blacklist of failing numbers.`,
}

func init() {
	if _, err := coreconfig.LoadConfig("."); err != nil {
		logrus.Fatalf("[CONFIG] Failed to load configuration: %v", err)
	}

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initApp)
}

func initFlags() {
	cfg := coreconfig.Global

	rootCmd.PersistentFlags().StringVarP(
		&cfg.App.Port,
		"port", "p",
		cfg.App.Port,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&cfg.App.Debug,
		"debug", "d",
		cfg.App.Debug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringVarP(
		&cfg.App.BasePath,
		"base-path", "",
		cfg.App.BasePath,
		`base path for subpath deployment --base-path <string> | example: --base-path="/engage"`,
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&cfg.App.TrustedProxies,
		"trusted-proxies", "",
		cfg.App.TrustedProxies,
		`trusted proxy IP ranges for reverse proxy deployments | example: --trusted-proxies="10.0.0.0/8,172.16.0.0/12"`,
	)

	// Gateway flags
	rootCmd.PersistentFlags().StringVarP(
		&cfg.Gateway.BaseURL,
		"uazapi-url", "",
		cfg.Gateway.BaseURL,
		`UAZAPI instance server --uazapi-url <string> | example: --uazapi-url="https://acme.uazapi.com"`,
	)
	rootCmd.PersistentFlags().Float64VarP(
		&cfg.Gateway.RatePerSec,
		"uazapi-rate", "",
		cfg.Gateway.RatePerSec,
		`requests per second allowed per gateway token | example: --uazapi-rate=5`,
	)

	// Campaign flags
	rootCmd.PersistentFlags().IntVarP(
		&cfg.Campaign.DefaultDelayMin,
		"delay-min", "",
		cfg.Campaign.DefaultDelayMin,
		`default minimum seconds between messages | example: --delay-min=10`,
	)
	rootCmd.PersistentFlags().IntVarP(
		&cfg.Campaign.DefaultDelayMax,
		"delay-max", "",
		cfg.Campaign.DefaultDelayMax,
		`default maximum seconds between messages | example: --delay-max=30`,
	)
	rootCmd.PersistentFlags().DurationVarP(
		&cfg.Campaign.StuckAfter,
		"stuck-after", "",
		cfg.Campaign.StuckAfter,
		`age after which an active campaign without progress is flagged | example: --stuck-after=72h`,
	)

	// Blacklist flags
	rootCmd.PersistentFlags().StringVarP(
		&cfg.Blacklist.Storage,
		"blacklist-storage", "",
		cfg.Blacklist.Storage,
		`where the blacklist lives: file, valkey or memory | example: --blacklist-storage=valkey`,
	)
}

func initApp() {
	cfg := coreconfig.Global
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := os.MkdirAll(cfg.Paths.Storages, 0o755); err != nil {
		logrus.Errorln(err)
	}

	ctx := context.Background()
	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)

	var err error
	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[DB] Failed to open database: %v", err)
	}

	accountRepo = repository.NewAccountGormRepository(db)
	if err := accountRepo.Init(ctx); err != nil {
		logrus.Fatalf("[DB] Failed to init accounts: %v", err)
	}
	campaignRepo = repository.NewCampaignGormRepository(db)
	if err := campaignRepo.Init(ctx); err != nil {
		logrus.Fatalf("[DB] Failed to init campaigns: %v", err)
	}

	if cfg.Valkey.Enabled {
		vkClient, err = valkey.NewClient(valkey.FromAppConfig(cfg.Valkey))
		if err != nil {
			logrus.Errorf("[VALKEY] Disabled, falling back to local state: %v", err)
			vkClient = nil
		} else {
			logrus.Infof("[VALKEY] Connected to %s", cfg.Valkey.Address)
		}
	}

	blacklistUsecase = usecase.NewBlacklistService(newBlacklistStorage(cfg), usecase.ExpiryPolicyFromConfig(cfg.Blacklist))
	accountUsecase = usecase.NewAccountService(accountRepo)

	wsHub = websocket.NewHub()
	if vkClient != nil {
		wsHub.WithValkey(vkClient, serverID)
	}

	campaignUsecase = usecase.NewCampaignService(usecase.CampaignServiceDeps{
		Accounts:      accountRepo,
		Records:       campaignRepo,
		Gateways:      uazapi.NewFactory(uazapi.FromAppConfig(cfg.Gateway)),
		Blacklist:     blacklistUsecase,
		Builder:       usecase.NewPayloadBuilder(cfg.Campaign.DefaultDelayMin, cfg.Campaign.DefaultDelayMax),
		Registry:      usecase.NewCampaignRegistry(),
		Notifier:      wsHub,
		Policy:        usecase.PolicyFromConfig(cfg.Campaign),
		ListCacheTTL:  cfg.Gateway.ListCacheTTL,
		SweepInterval: cfg.Campaign.SweepInterval,
	})
}

func newBlacklistStorage(cfg *coreconfig.Config) domainBlacklist.Storage {
	switch cfg.Blacklist.Storage {
	case "valkey":
		if vkClient != nil {
			return repository.NewValkeyBlacklistStorage(vkClient, cfg.Blacklist.StorageKey)
		}
		logrus.Warn("[BLACKLIST] Valkey storage requested but Valkey is unavailable, using file storage")
	case "memory":
		logrus.Warn("[BLACKLIST] Using in-memory storage, entries are lost on restart")
		return repository.NewMemoryBlacklistStorage()
	}
	return repository.NewFileBlacklistStorage(cfg.Paths.Storages, cfg.Blacklist.StorageKey)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp closes shared connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if vkClient != nil {
		vkClient.Close()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
