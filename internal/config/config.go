package config

import (
	"os"
	"time"

	"github.com/gitarch/poap-service/internal/utils"
)

const AppName = "poap-service"

type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	DBUrl   string

	// Auth
	JWTSecret []byte

	// Pinning (all optional; absence switches the client to degraded mode)
	PinataJWT       string
	PinataAPIKey    string
	PinataAPISecret string
	PinataBaseURL   string
	IPFSGatewayBase string

	// Chain. Empty ContractAddress selects the server-simulated strategy.
	ContractAddress      string
	ContractMetadataURL  string
	ChainFinalizeTimeout time.Duration

	// Reconciliation queue (optional)
	RabbitURL        string
	RabbitExchange   string
	RabbitQueue      string
	RabbitRoutingKey string
}

const defaultFinalizeTimeout = 2 * time.Minute

func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL_FROM_ANYWHERE")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL_FROM_ANYWHERE env var is missing")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		utils.Logger.Fatal("JWT_SECRET env var is missing")
	}

	finalizeTimeout := defaultFinalizeTimeout
	if raw := os.Getenv("CHAIN_FINALIZE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			utils.Logger.Fatalf("CHAIN_FINALIZE_TIMEOUT invalid: %q", raw)
		}
		finalizeTimeout = d
	}

	contractAddress := os.Getenv("POAP_CONTRACT_ADDRESS")
	if contractAddress == "" {
		utils.Logger.Warn("POAP_CONTRACT_ADDRESS not set; mints will use the server-simulated strategy")
	}

	if os.Getenv("PINATA_JWT") == "" && os.Getenv("PINATA_API_KEY") == "" {
		utils.Logger.Warn("No Pinata credential set; metadata will use inline data URIs")
	}

	rabbitExchange := os.Getenv("RABBITMQ_EXCHANGE")
	if rabbitExchange == "" {
		rabbitExchange = "gitarch"
	}
	rabbitQueue := os.Getenv("RABBITMQ_LEDGER_QUEUE")
	if rabbitQueue == "" {
		rabbitQueue = "poap.ledger-repair"
	}

	utils.Logger.Infof("Loaded config for %s", AppName)

	return &Config{
		AppName:              AppName,
		AppPort:              appPort,
		AppUrl:               appUrl,
		DBUrl:                dbURL,
		JWTSecret:            []byte(jwtSecret),
		PinataJWT:            os.Getenv("PINATA_JWT"),
		PinataAPIKey:         os.Getenv("PINATA_API_KEY"),
		PinataAPISecret:      os.Getenv("PINATA_SECRET_KEY"),
		PinataBaseURL:        os.Getenv("PINATA_BASE_URL"),
		IPFSGatewayBase:      os.Getenv("IPFS_GATEWAY_BASE"),
		ContractAddress:      contractAddress,
		ContractMetadataURL:  os.Getenv("CONTRACT_METADATA_URL"),
		ChainFinalizeTimeout: finalizeTimeout,
		RabbitURL:            os.Getenv("RABBITMQ_URL"),
		RabbitExchange:       rabbitExchange,
		RabbitQueue:          rabbitQueue,
		RabbitRoutingKey:     "ledger.repair",
	}
}
