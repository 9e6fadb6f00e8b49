package flags

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/paritytech/subport/api"
	"github.com/paritytech/subport/common"
	"github.com/paritytech/subport/cryptoutils"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) (log *slog.Logger) {
	logJSON := cCtx.Bool(LogJsonFlag.Name)
	logDebug := cCtx.Bool(LogDebugFlag.Name)
	logUID := cCtx.Bool(LogUidFlag.Name)
	logService := cCtx.String(LogServiceFlag.Name)

	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   logDebug,
		JSON:    logJSON,
		Service: logService,
		Version: common.Version,
	})

	if logUID {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

// ConfigureServer builds the HTTP server settings for runs that wait up to
// finalityTimeout.
func ConfigureServer(cCtx *cli.Context, logger *slog.Logger, listenAddr string, finalityTimeout time.Duration) *api.HTTPServerConfig {
	metricsAddr := cCtx.String(MetricsAddrFlag.Name)
	enablePprof := cCtx.Bool(PprofFlag.Name)
	drainDuration := time.Duration(cCtx.Int64(DrainSecondsFlag.Name)) * time.Second

	return &api.HTTPServerConfig{
		ListenAddr:      listenAddr,
		MetricsAddr:     metricsAddr,
		Log:             logger,
		EnablePprof:     enablePprof,
		DrainDuration:   drainDuration,
		FinalityTimeout: finalityTimeout,
		ShutdownMargin:  time.Duration(cCtx.Int64(ShutdownMarginSecondsFlag.Name)) * time.Second,
		MaxBodySize:     cCtx.Int64(MaxBodySizeFlag.Name),
	}
}

// Network endpoints. They override the URIs of the config profile.
var RococoURIFlag = &cli.StringFlag{
	Name:    "rococo-uri",
	EnvVars: []string{"ROCOCO_URI"},
	Usage:   "websocket endpoint of the target relay chain node",
}
var PolkadotURIFlag = &cli.StringFlag{
	Name:    "polkadot-uri",
	EnvVars: []string{"POLKADOT_URI"},
	Usage:   "websocket endpoint of a Polkadot node, consulted for existing leases",
}
var KusamaURIFlag = &cli.StringFlag{
	Name:    "kusama-uri",
	EnvVars: []string{"KUSAMA_URI"},
	Usage:   "websocket endpoint of a Kusama node, consulted for existing leases",
}

var ConfigFlag = &cli.StringFlag{
	Name:    "config",
	Aliases: []string{"c"},
	EnvVars: []string{"SUBPORT_CONFIG"},
	Usage:   "YAML network profile; built-in Rococo defaults when empty",
}

var FaucetFlag = &cli.StringFlag{
	Name:    "faucet",
	EnvVars: []string{"FAUCET_ADDRESS"},
	Usage:   "account the transfers are paid from (SS58 or 0x hex); defaults to the privileged account",
}

// Credentials. Either a seed and proxy account or a Vault secret.
var SeedFlag = &cli.StringFlag{
	Name:    "seed",
	EnvVars: []string{"SEED"},
	Usage:   "secret of the signing account: secret URI for sr25519 (phrase, 0x seed, //Alice), hex seed for ecdsa",
}
var KeySchemeFlag = &cli.StringFlag{
	Name:    "key-scheme",
	EnvVars: []string{"KEY_SCHEME"},
	Value:   string(cryptoutils.Sr25519),
	Usage:   "signature scheme of the signing secret: sr25519 or ecdsa",
}
var ProxyAccountFlag = &cli.StringFlag{
	Name:    "proxy-account",
	EnvVars: []string{"PROXY_ACCOUNT"},
	Usage:   "privileged account the batch is dispatched as (SS58 or 0x hex)",
}
var VaultAddrFlag = &cli.StringFlag{
	Name:    "vault-addr",
	EnvVars: []string{"VAULT_ADDR"},
	Usage:   "read the seed and proxy account from this Vault server instead",
}
var VaultTokenFlag = &cli.StringFlag{
	Name:    "vault-token",
	EnvVars: []string{"VAULT_TOKEN"},
	Usage:   "Vault token",
}
var VaultMountFlag = &cli.StringFlag{
	Name:  "vault-mount",
	Value: "secret",
	Usage: "KV v2 mount of the credentials secret",
}
var VaultPathFlag = &cli.StringFlag{
	Name:  "vault-path",
	Value: "subport",
	Usage: "path of the credentials secret",
}

var CredentialFlags = []cli.Flag{
	SeedFlag,
	KeySchemeFlag,
	ProxyAccountFlag,
	VaultAddrFlag,
	VaultTokenFlag,
	VaultMountFlag,
	VaultPathFlag,
}

var NetworkFlags = []cli.Flag{
	ConfigFlag,
	RococoURIFlag,
	PolkadotURIFlag,
	KusamaURIFlag,
	FaucetFlag,
}

var ListenAddrFlag = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for API",
}
var ServiceURLFlag = &cli.StringFlag{
	Name:    "service-url",
	Value:   "http://127.0.0.1:8080",
	EnvVars: []string{"SUBPORT_URL"},
	Usage:   "base URL of a running onboarding service",
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var PprofFlag = &cli.BoolFlag{
	Name:  "pprof",
	Value: false,
	Usage: "enable pprof debug endpoint",
}
var DrainSecondsFlag = &cli.Int64Flag{
	Name:  "drain-seconds",
	Value: 45,
	Usage: "seconds to wait in drain HTTP request",
}
var ShutdownMarginSecondsFlag = &cli.Int64Flag{
	Name:  "shutdown-margin-seconds",
	Value: int64(api.DefaultShutdownMargin / time.Second),
	Usage: "seconds granted to in-flight runs on shutdown beyond the finality timeout",
}
var MaxBodySizeFlag = &cli.Int64Flag{
	Name:  "max-body-size",
	Value: api.DefaultMaxBodySize,
	Usage: "maximum size in bytes of an onboarding request body",
}
var MetricsAddrFlag = &cli.StringFlag{
	Name:  "metrics-addr",
	Value: "127.0.0.1:8090",
	Usage: "address to listen on for Prometheus metrics",
}

var LogFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}

var ServerFlags = []cli.Flag{
	ListenAddrFlag,
	PprofFlag,
	DrainSecondsFlag,
	ShutdownMarginSecondsFlag,
	MaxBodySizeFlag,
	MetricsAddrFlag,
}
