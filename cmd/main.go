package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/gitarch/poap-service/internal/app"
	"github.com/gitarch/poap-service/internal/chain"
	"github.com/gitarch/poap-service/internal/config"
	"github.com/gitarch/poap-service/internal/controllers"
	"github.com/gitarch/poap-service/internal/middleware"
	"github.com/gitarch/poap-service/internal/queues"
	"github.com/gitarch/poap-service/internal/repositories"
	"github.com/gitarch/poap-service/internal/routes"
	"github.com/gitarch/poap-service/internal/services"
	"github.com/gitarch/poap-service/internal/utils"
	"github.com/gitarch/poap-service/internal/utils/pinata"
)

func main() {
	utils.InitLogger(config.AppName)

	// 1) Config
	cfg := config.LoadConfig()

	// 2) Core application (DB pool)
	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize poap-service:", err)
	}
	defer application.Close()

	// 3) Repositories
	projectRepo := repositories.NewProjectRepository(application.DB)
	profileRepo := repositories.NewProfileRepository(application.DB)
	poapRepo := repositories.NewPoapRepository(application.DB)

	// 4) Pinning client
	pinner, err := pinata.NewClient(
		pinata.Credentials{
			JWT:       cfg.PinataJWT,
			APIKey:    cfg.PinataAPIKey,
			APISecret: cfg.PinataAPISecret,
		},
		cfg.PinataBaseURL,
		cfg.IPFSGatewayBase,
		3,
		1*time.Second,
	)
	if err != nil {
		utils.Logger.Fatal("Failed to build pinning client:", err)
	}

	// 5) Contract capability and submission strategy, selected once from
	// configuration
	strategy, contract := buildStrategy(cfg)

	// 6) Reconciliation queue (optional)
	var publisher *queues.RabbitPublisher
	if cfg.RabbitURL != "" {
		publisher, err = queues.NewRabbitPublisher(cfg.RabbitURL, cfg.RabbitExchange, cfg.RabbitQueue, cfg.RabbitRoutingKey)
		if err != nil {
			utils.Logger.Fatal("Failed to connect to RabbitMQ:", err)
		}
		defer publisher.Close()
	}

	// 7) Services
	var reconcilePub services.ReconcilePublisher
	if publisher != nil {
		reconcilePub = publisher
	}
	mintService := services.NewMintService(cfg, projectRepo, profileRepo, poapRepo, pinner, strategy, contract, reconcilePub)
	reconciliationService := services.NewReconciliationService(projectRepo, poapRepo)

	if publisher != nil {
		consumer, cErr := queues.NewRabbitConsumer(publisher.Conn, cfg.RabbitQueue)
		if cErr != nil {
			utils.Logger.Fatal("Failed to open RabbitMQ consumer channel:", cErr)
		}
		if cErr := consumer.StartConsume(reconciliationService.HandleLedgerRepair); cErr != nil {
			utils.Logger.Fatal("Failed to start ledger repair consumer:", cErr)
		}
	}

	// 8) Controllers
	healthController := controllers.NewHealthController(application)
	poapController := controllers.NewPoapController(mintService)

	// 9) Router
	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)

	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	secured.HandleFunc(routes.PoapMint, poapController.MintPoapHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.PoapsByUser, poapController.ListUserPoapsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.PoapsByProject, poapController.ListProjectPoapsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.PoapMetadataURL, poapController.MetadataURLHandler).Methods(http.MethodGet)

	// 10) Scheduled flag repair
	c := cron.New()
	_, cronErr := c.AddFunc("@every 5m", func() {
		if e := reconciliationService.RunFlagRepair(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled flag repair failed")
		}
	})
	if cronErr != nil {
		utils.Logger.WithError(cronErr).Fatal("Failed to schedule flag repair cron")
	}
	c.Start()

	// 11) CORS
	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("poap-service failed to start:", err)
	}
}

// buildStrategy picks the submission variant from configuration, exactly
// once. A configured contract address always means browser-signed; a failed
// metadata fetch degrades the contract to unavailable instead of quietly
// downgrading to simulation.
func buildStrategy(cfg *config.Config) (chain.Strategy, chain.Contract) {
	if cfg.ContractAddress == "" {
		utils.Logger.Warn("Using server-simulated submission strategy; records will be flagged is_simulated")
		return chain.NewServerSimulatedStrategy(cfg.ContractAddress), chain.UnavailableContract{}
	}

	var contract chain.Contract = chain.UnavailableContract{}
	if cfg.ContractMetadataURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m, err := chain.FetchContractMetadata(ctx, &http.Client{Timeout: 10 * time.Second}, cfg.ContractMetadataURL)
		if err != nil {
			utils.Logger.WithError(err).Error("Contract metadata fetch failed; contract calls degraded to unavailable")
		} else {
			contract = chain.NewDeployedContract(m, cfg.ContractAddress, chain.DefaultGasLimit, nil)
		}
	} else {
		utils.Logger.Error("CONTRACT_METADATA_URL not set; contract calls degraded to unavailable")
	}

	utils.Logger.Infof("Using browser-signed submission strategy against contract %s", cfg.ContractAddress)
	return chain.NewBrowserSignedStrategy(
		chain.NewUnconnectedSigner(),
		contract,
		cfg.ChainFinalizeTimeout,
	), contract
}
