package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"time"
)

var (
	errAddressFormat = errors.New("need address in a form `host:port`")
	errPortRange     = errors.New("port must be within 1..65535")
	errAddressHost   = errors.New("host must be an IP address or localhost")
)

// NetAddress is a flag.Value holding a listen address. The host may be
// empty to listen on every interface.
type NetAddress struct {
	Host string
	Port int
}

func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

func (a *NetAddress) Set(s string) error {
	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		return fmt.Errorf("%w: %w", errAddressFormat, err)
	}

	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return fmt.Errorf("%w: %q", errAddressFormat, rawPort)
	}
	if port < 1 || port > 65535 {
		return errPortRange
	}
	if host != "" && host != "localhost" && net.ParseIP(host) == nil {
		return errAddressHost
	}

	a.Host, a.Port = host, port
	return nil
}

// serverFlags is the flag layer of the sync server configuration.
type serverFlags struct {
	httpAddress, grpcAddress NetAddress

	dsn, configPath, envFile, hashKey string
	idempotencyDir, documentsBucket   string
	documentsDir                      string

	requestTimeout, idempotencyTTL, gcInterval time.Duration
}

func (f *serverFlags) register(fs *flag.FlagSet) {
	fs.Var(&f.httpAddress, "a", "HTTP listen address host:port")
	fs.Var(&f.grpcAddress, "grpc-address", "gRPC listen address host:port")
	fs.StringVar(&f.dsn, "d", "", "Database DSN (postgres:// or a SQLite file)")
	fs.StringVar(&f.configPath, "c", "", "JSON config file path")
	fs.StringVar(&f.configPath, "config", "", "JSON config file path (alias of -c)")
	fs.StringVar(&f.envFile, "env-file", "", ".env file path")
	fs.StringVar(&f.hashKey, "hash-key", "", "Key of the batch integrity hash")
	fs.DurationVar(&f.requestTimeout, "request-timeout", 0, "Per-request timeout, e.g. 30s")
	fs.StringVar(&f.idempotencyDir, "idempotency-dir", "", "Badger directory of the idempotency cache")
	fs.DurationVar(&f.idempotencyTTL, "idempotency-ttl", 0, "How long processed action ids are remembered")
	fs.DurationVar(&f.gcInterval, "gc-interval", 0, "Idempotency cache GC interval")
	fs.StringVar(&f.documentsBucket, "documents-bucket", "", "S3 bucket of uploaded documents")
	fs.StringVar(&f.documentsDir, "documents-dir", "", "Local directory of uploaded documents")
}

func (f *serverFlags) config() *StructuredConfig {
	return &StructuredConfig{
		App: App{HashKey: f.hashKey},
		Storage: Storage{
			DB:          DB{DSN: f.dsn},
			Idempotency: Idempotency{Dir: f.idempotencyDir, TTL: f.idempotencyTTL},
			Documents:   Documents{Bucket: f.documentsBucket, LocalDir: f.documentsDir},
		},
		Server: Server{
			HTTPAddress:    f.httpAddress.String(),
			GRPCAddress:    f.grpcAddress.String(),
			RequestTimeout: f.requestTimeout,
		},
		Workers:      Workers{GCInterval: f.gcInterval},
		JSONFilePath: f.configPath,
		EnvFile:      f.envFile,
	}
}

// ParseFlags parses the sync server command line. Unset flags stay zero so
// the builder can fall back to other layers.
func ParseFlags(args []string) (*StructuredConfig, error) {
	var f serverFlags
	fs := flag.NewFlagSet("offline-sync-server", flag.ContinueOnError)
	f.register(fs)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}
	return f.config(), nil
}
