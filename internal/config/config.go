// Package config loads process configuration for the gateway and proxy
// binaries: an optional jarscope.yml project file, a .env file, and
// environment variables, in increasing order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds settings for the execution gateway process.
type ServerConfig struct {
	Addr             string        `yaml:"addr,omitempty"`
	MavenBin         string        `yaml:"mavenBin,omitempty"`
	DecompilerBin    string        `yaml:"decompilerBin,omitempty"`
	WorkRoot         string        `yaml:"workRoot,omitempty"`
	ResolveTimeout   time.Duration `yaml:"resolveTimeout,omitempty"`
	DecompileTimeout time.Duration `yaml:"decompileTimeout,omitempty"`
	CacheSize        int           `yaml:"cacheSize,omitempty"`
	DecompileWorkers int           `yaml:"decompileWorkers,omitempty"`
}

// ProxyConfig holds settings for the protocol proxy process.
type ProxyConfig struct {
	Addr        string        `yaml:"addr,omitempty"`
	GatewayURL  string        `yaml:"gatewayUrl,omitempty"`
	HTTPTimeout time.Duration `yaml:"httpTimeout,omitempty"`
}

// fileConfig is the optional jarscope.yml layout.
type fileConfig struct {
	Server ServerConfig `yaml:"server,omitempty"`
	Proxy  ProxyConfig  `yaml:"proxy,omitempty"`
}

// loadFile attempts to read jarscope.yml or jarscope.yaml from dir.
// Returns a zero-value config (not an error) if no config file exists.
func loadFile(dir string) (*fileConfig, error) {
	for _, name := range []string{"jarscope.yml", "jarscope.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg fileConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &fileConfig{}, nil
}

// LoadServer builds the gateway configuration from jarscope.yml in dir,
// .env, and the environment.
func LoadServer(dir string) (*ServerConfig, error) {
	_ = godotenv.Load()

	file, err := loadFile(dir)
	if err != nil {
		return nil, err
	}
	cfg := file.Server

	cfg.Addr = firstNonEmpty(envAddr("SERVER_HOST", "SERVER_PORT"), cfg.Addr, ":8000")
	cfg.MavenBin = firstNonEmpty(os.Getenv("MVN_BIN"), mavenFromHome(), cfg.MavenBin, "mvn")
	cfg.DecompilerBin = firstNonEmpty(os.Getenv("DECOMPILER_BIN"), cfg.DecompilerBin, "javap")
	cfg.WorkRoot = firstNonEmpty(os.Getenv("WORK_ROOT"), cfg.WorkRoot, filepath.Join(os.TempDir(), "jarscope"))
	cfg.ResolveTimeout = envDuration("RESOLVE_TIMEOUT", cfg.ResolveTimeout, 5*time.Minute)
	cfg.DecompileTimeout = envDuration("DECOMPILE_TIMEOUT", cfg.DecompileTimeout, 30*time.Second)
	cfg.CacheSize = envInt("CACHE_SIZE", cfg.CacheSize, 128)
	cfg.DecompileWorkers = envInt("DECOMPILE_WORKERS", cfg.DecompileWorkers, 4)
	return &cfg, nil
}

// LoadProxy builds the proxy configuration from jarscope.yml in dir, .env,
// and the environment.
func LoadProxy(dir string) (*ProxyConfig, error) {
	_ = godotenv.Load()

	file, err := loadFile(dir)
	if err != nil {
		return nil, err
	}
	cfg := file.Proxy

	cfg.Addr = firstNonEmpty(envAddr("PROXY_HOST", "PROXY_PORT"), cfg.Addr, ":8001")
	cfg.GatewayURL = firstNonEmpty(os.Getenv("REMOTE_SERVER_URL"), cfg.GatewayURL, "http://localhost:8000")
	cfg.HTTPTimeout = envDuration("HTTP_TIMEOUT", cfg.HTTPTimeout, 5*time.Minute)
	return &cfg, nil
}

// mavenFromHome resolves $MAVEN_HOME/bin/mvn when MAVEN_HOME is set.
func mavenFromHome() string {
	home := strings.TrimSpace(os.Getenv("MAVEN_HOME"))
	if home == "" {
		return ""
	}
	return filepath.Join(home, "bin", "mvn")
}

// envAddr combines HOST/PORT env vars into a listen address. A bare port
// is accepted with or without a leading colon.
func envAddr(hostKey, portKey string) string {
	host := strings.TrimSpace(os.Getenv(hostKey))
	port := strings.TrimSpace(os.Getenv(portKey))
	if host == "" && port == "" {
		return ""
	}
	port = strings.TrimPrefix(port, ":")
	if port == "" {
		return host
	}
	return host + ":" + port
}

func envDuration(key string, current, fallback time.Duration) time.Duration {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			return d
		}
		// Bare numbers are read as seconds, matching the original deployments.
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if current > 0 {
		return current
	}
	return fallback
}

func envInt(key string, current, fallback int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	if current > 0 {
		return current
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
