package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	BlobStoreDriverFilesystem = "filesystem"
	BlobStoreDriverMinio      = "minio"
)

const EnvironmentTest = "test"

const defaultConfigFile = "/config/mushee.yaml"

type Config struct {
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries"`
	Environment               string        `koanf:"environment"`
	Hostname                  string        `koanf:"-"`
	JWTSecret                 string        `koanf:"jwt_secret"`
	ServerHost                string        `koanf:"server_host"`
	ServerPort                int           `koanf:"server_port"`

	BlobStoreDriver string `koanf:"blob_store_driver"`
	BlobStoreDir    string `koanf:"blob_store_dir"`
	MinioEndpoint   string `koanf:"minio_endpoint"`
	MinioAccessKey  string `koanf:"minio_access_key"`
	MinioSecretKey  string `koanf:"minio_secret_key"`
	MinioBucket     string `koanf:"minio_bucket"`
	MinioRegion     string `koanf:"minio_region"`
	MinioUseSSL     bool   `koanf:"minio_use_ssl"`

	// MetadataParseTimeout bounds how long a single MusicXML document may
	// take to parse before the upload is rejected.
	MetadataParseTimeout time.Duration `koanf:"metadata_parse_timeout"`
	SeedConcurrency      int           `koanf:"seed_concurrency"`
}

func defaultConfig() *Config {
	return &Config{
		DatabaseBusyTimeout:       5 * time.Second,
		DatabaseConnectRetryCount: 5,
		DatabaseConnectRetryDelay: 2 * time.Second,
		DatabaseMaxRetries:        5,
		ServerHost:                "0.0.0.0",
		ServerPort:                3689,
		BlobStoreDriver:           BlobStoreDriverFilesystem,
		BlobStoreDir:              "/data/blobs",
		MinioBucket:               "mushee",
		MetadataParseTimeout:      5 * time.Second,
		SeedConcurrency:           4,
	}
}

// New loads the config from the YAML file named by CONFIG_FILE (if it exists)
// and then applies environment variable overrides on top of it.
func New() (*Config, error) {
	k := koanf.New(".")

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	err := k.Load(env.Provider("", ".", strings.ToLower), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Hostname = hostname

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validate() error {
	required := map[string]string{
		"database_file_path": cfg.DatabaseFilePath,
		"jwt_secret":         cfg.JWTSecret,
	}
	// Iterate in a fixed order so the first reported key is stable.
	for _, key := range []string{"database_file_path", "jwt_secret"} {
		if required[key] == "" {
			return errors.Errorf("missing required config: %s (%s)", strings.ToUpper(key), key)
		}
	}

	switch cfg.BlobStoreDriver {
	case BlobStoreDriverFilesystem:
		if cfg.BlobStoreDir == "" {
			return errors.New("missing required config: BLOB_STORE_DIR (blob_store_dir)")
		}
	case BlobStoreDriverMinio:
		if cfg.MinioEndpoint == "" {
			return errors.New("missing required config: MINIO_ENDPOINT (minio_endpoint)")
		}
		if cfg.MinioBucket == "" {
			return errors.New("missing required config: MINIO_BUCKET (minio_bucket)")
		}
	default:
		return errors.Errorf("unknown blob store driver %q", cfg.BlobStoreDriver)
	}

	if cfg.MetadataParseTimeout <= 0 {
		return errors.New("metadata_parse_timeout must be positive")
	}
	if cfg.SeedConcurrency < 1 {
		cfg.SeedConcurrency = 1
	}

	return nil
}
