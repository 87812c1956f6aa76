package config

import (
	"errors"
	"fmt"
	"github.com/ZilDuck/opensea-trader/internal/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"math/big"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env            string
	Debug          bool
	Port           string
	LogPath        string
	AccessKey      string
	Erc721AbiPath  string
	DerivationPath string
	NetworkNames   []string

	Rpc       RpcConfig
	OpenSea   OpenSeaConfig
	Seaport   SeaportConfig
	SellRetry RetryConfig

	Networks Networks
}

type RpcConfig struct {
	Url     string
	ApiKey  string
	Timeout time.Duration
	Retries int
}

type OpenSeaConfig struct {
	ApiKey        string
	ApiUrl        string
	TestnetApiUrl string
	RateLimit     float64
	Timeout       time.Duration
	Retries       int
}

type SeaportConfig struct {
	Address         string
	Version         string
	ConduitKey      string
	FeeRecipient    string
	FeeBps          int
	ListingDuration time.Duration
}

type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

var bytes32 = regexp.MustCompile("^0x[0-9a-fA-F]{64}$")

// Init loads the .env file if there is one, builds the configuration and
// installs the global logger.
func Init() *Config {
	envErr := godotenv.Load(".env")

	cfg := Get()
	log.NewLogger(cfg.LogPath, cfg.Debug)

	if envErr != nil {
		zap.L().With(zap.Error(envErr)).Debug("No .env file loaded")
	}

	if err := cfg.Validate(); err != nil {
		for _, e := range multierr.Errors(err) {
			zap.L().With(zap.Error(e)).Error("Invalid configuration")
		}
		zap.L().Fatal("Unable to init config")
	}

	if _, ok := cfg.Networks[primaryNetworkName()]; ok && cfg.OpenSea.ApiKey == "" {
		zap.L().Warn("OPENSEA_API_KEY is empty, mainnet marketplace calls will be rejected")
	}

	return cfg
}

func Get() *Config {
	cfg := &Config{
		Env:            getString("ENV", ""),
		Debug:          getBool("DEBUG", false),
		Port:           getString("PORT", "7777"),
		LogPath:        getString("LOG_PATH", ""),
		AccessKey:      getString("ACCESS_KEY", ""),
		Erc721AbiPath:  getString("ERC721_ABI_PATH", "./abi/erc721.json"),
		DerivationPath: getString("DERIVATION_PATH", "m/44'/60'/0'/0/0"),
		NetworkNames:   getSlice("NETWORKS", []string{"mainnet", "rinkeby"}, ","),
		Rpc: RpcConfig{
			Url:     getString("RPC_URL", "https://%s.infura.io/v3/%s"),
			ApiKey:  getString("INFURA_API_KEY", ""),
			Timeout: getDuration("RPC_TIMEOUT", 30*time.Second),
			Retries: getInt("RPC_RETRIES", 0),
		},
		OpenSea: OpenSeaConfig{
			ApiKey:        getString("OPENSEA_API_KEY", ""),
			ApiUrl:        getString("OPENSEA_API_URL", "https://api.opensea.io"),
			TestnetApiUrl: getString("OPENSEA_TESTNET_API_URL", "https://testnets-api.opensea.io"),
			RateLimit:     getFloat("OPENSEA_RATE_LIMIT", 4),
			Timeout:       getDuration("OPENSEA_TIMEOUT", 30*time.Second),
			Retries:       getInt("OPENSEA_RETRIES", 0),
		},
		Seaport: SeaportConfig{
			Address:         getString("SEAPORT_ADDRESS", "0x0000000000000068F116a894984e2DB1123eB395"),
			Version:         getString("SEAPORT_VERSION", "1.6"),
			ConduitKey:      getString("SEAPORT_CONDUIT_KEY", "0x0000007b02230091a7ed01230072f7006a004d60a8d4e71d599b8104250f0000"),
			FeeRecipient:    getString("OPENSEA_FEE_RECIPIENT", "0x0000a26b00c1F0DF003000390027140000fAa719"),
			FeeBps:          getInt("OPENSEA_FEE_BPS", 250),
			ListingDuration: getDuration("LISTING_DURATION", 30*24*time.Hour),
		},
		SellRetry: RetryConfig{
			Attempts: getInt("SELL_RETRY_ATTEMPTS", 2),
			Delay:    getDuration("SELL_RETRY_DELAY", 3000*time.Millisecond),
		},
	}

	cfg.Networks = buildNetworks(cfg)

	return cfg
}

func (c *Config) Validate() error {
	var err error

	if c.AccessKey == "" {
		err = multierr.Append(err, errors.New("ACCESS_KEY must be set"))
	}

	if c.Erc721AbiPath == "" {
		err = multierr.Append(err, errors.New("ERC721_ABI_PATH must be set"))
	} else if _, statErr := os.Stat(c.Erc721AbiPath); statErr != nil {
		err = multierr.Append(err, fmt.Errorf("ERC721_ABI_PATH: %w", statErr))
	}

	if len(c.NetworkNames) == 0 {
		err = multierr.Append(err, errors.New("NETWORKS must name at least one network"))
	}
	for _, name := range c.NetworkNames {
		if _, ok := knownNetworks[name]; !ok {
			err = multierr.Append(err, ConfigurationError{Network: name, Reason: "unknown network"})
			continue
		}
		if !common.IsHexAddress(c.Networks[name].OperatorAddress) {
			err = multierr.Append(err, ConfigurationError{
				Network: name,
				Reason:  fmt.Sprintf("%s is not a valid address", operatorKey(name)),
			})
		}
	}

	if !common.IsHexAddress(c.Seaport.Address) {
		err = multierr.Append(err, errors.New("SEAPORT_ADDRESS is not a valid address"))
	}
	if !bytes32.MatchString(c.Seaport.ConduitKey) {
		err = multierr.Append(err, errors.New("SEAPORT_CONDUIT_KEY must be a 32 byte hex string"))
	}
	if c.Seaport.FeeBps < 0 || c.Seaport.FeeBps > 10000 {
		err = multierr.Append(err, errors.New("OPENSEA_FEE_BPS must be between 0 and 10000"))
	}
	if c.Seaport.FeeBps > 0 && !common.IsHexAddress(c.Seaport.FeeRecipient) {
		err = multierr.Append(err, errors.New("OPENSEA_FEE_RECIPIENT is not a valid address"))
	}
	if c.Seaport.ListingDuration <= 0 {
		err = multierr.Append(err, errors.New("LISTING_DURATION must be positive"))
	}

	if c.SellRetry.Attempts < 1 {
		err = multierr.Append(err, errors.New("SELL_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.SellRetry.Delay < 0 {
		err = multierr.Append(err, errors.New("SELL_RETRY_DELAY must not be negative"))
	}
	if c.Rpc.Retries < 0 || c.OpenSea.Retries < 0 {
		err = multierr.Append(err, errors.New("RPC_RETRIES and OPENSEA_RETRIES must not be negative"))
	}
	if c.OpenSea.RateLimit <= 0 {
		err = multierr.Append(err, errors.New("OPENSEA_RATE_LIMIT must be positive"))
	}

	return err
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getFloat(key string, defaultValue float64) float64 {
	valStr := getString(key, "")
	if val, err := strconv.ParseFloat(valStr, 64); err == nil {
		return val
	}

	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

// getDuration accepts Go durations ("3s") or a bare number of milliseconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultValue
	}
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	if ms, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	vals := make([]string, 0)
	for _, v := range strings.Split(valStr, sep) {
		if v = strings.TrimSpace(v); v != "" {
			vals = append(vals, v)
		}
	}

	return vals
}
