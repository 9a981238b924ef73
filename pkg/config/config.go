// Package config reads the configuration of a party from a TOML file.
//
// A file only needs the role of the party, every other field has a default:
//
//	role = 0
//	parties = 3
//	family = "3PC"
//	mode = "mpc"
//	base_port = 32000
//	savers = ["A"]
//	prime = 67
//	precision = 13
//	log_level = "info"
//
//	[[party]]
//	host = "10.0.0.1"
//	[[party]]
//	host = "10.0.0.2"
//	[[party]]
//	host = "10.0.0.3"
//
//	[tls]
//	cert = "server.crt"
//	key = "server.key"
//	password = ""
//
//	[transfer]
//	timeout = "5s"
//	attempts = 5
//	backoff = "100ms"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/rss-runtime/pkg/party"
	"github.com/taurusgroup/rss-runtime/pkg/runtime"
)

// ErrMissingRole is returned when the file does not set the role of the party.
var ErrMissingRole = errors.New("config: missing role")

type file struct {
	Role      int      `toml:"role"`
	Parties   int      `toml:"parties"`
	Family    string   `toml:"family"`
	Mode      string   `toml:"mode"`
	BasePort  int      `toml:"base_port"`
	Savers    []string `toml:"savers"`
	Prime     uint64   `toml:"prime"`
	Precision uint     `toml:"precision"`
	LogLevel  string   `toml:"log_level"`

	Party []struct {
		Host string `toml:"host"`
	} `toml:"party"`

	TLS struct {
		Cert     string `toml:"cert"`
		Key      string `toml:"key"`
		Password string `toml:"password"`
	} `toml:"tls"`

	Transfer struct {
		Timeout  string `toml:"timeout"`
		Attempts int    `toml:"attempts"`
		Backoff  string `toml:"backoff"`
	} `toml:"transfer"`
}

// Load reads the configuration file at path.
func Load(path string) (runtime.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return runtime.Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return runtime.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a TOML configuration from r and fills the missing fields
// with the values of runtime.DefaultConfig. Unknown keys are rejected.
func Decode(r io.Reader) (runtime.Config, error) {
	var raw file
	md, err := toml.DecodeReader(r, &raw)
	if err != nil {
		return runtime.Config{}, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return runtime.Config{}, fmt.Errorf("config: unknown keys %s", strings.Join(keys, ", "))
	}
	if !md.IsDefined("role") {
		return runtime.Config{}, ErrMissingRole
	}

	cfg := runtime.DefaultConfig(raw.Role)
	if md.IsDefined("parties") {
		cfg.Parties = raw.Parties
	}
	if raw.Family != "" {
		cfg.Family = raw.Family
	}
	if raw.Mode != "" {
		if cfg.Mode, err = runtime.ParseMode(raw.Mode); err != nil {
			return runtime.Config{}, err
		}
	}
	if raw.BasePort != 0 {
		cfg.BasePort = raw.BasePort
	}
	if md.IsDefined("savers") {
		cfg.Savers = make(party.IDSlice, 0, len(raw.Savers))
		for _, s := range raw.Savers {
			id, err := party.FromString(s)
			if err != nil {
				return runtime.Config{}, fmt.Errorf("config: savers: %w", err)
			}
			cfg.Savers = append(cfg.Savers, id)
		}
	}
	if raw.Prime != 0 {
		cfg.Prime = raw.Prime
	}
	if md.IsDefined("precision") {
		cfg.Precision = raw.Precision
	}
	if raw.LogLevel != "" {
		if cfg.LogLevel, err = zerolog.ParseLevel(raw.LogLevel); err != nil {
			return runtime.Config{}, fmt.Errorf("config: log_level: %w", err)
		}
	}

	if len(raw.Party) > 0 {
		cfg.Hosts = make([]string, 0, len(raw.Party))
		for _, p := range raw.Party {
			cfg.Hosts = append(cfg.Hosts, p.Host)
		}
	}
	cfg.ServerCert = raw.TLS.Cert
	cfg.ServerPrivateKey = raw.TLS.Key
	cfg.ServerPrivateKeyPassword = raw.TLS.Password

	if raw.Transfer.Timeout != "" {
		if cfg.Policy.Timeout, err = time.ParseDuration(raw.Transfer.Timeout); err != nil {
			return runtime.Config{}, fmt.Errorf("config: transfer timeout: %w", err)
		}
	}
	if raw.Transfer.Attempts != 0 {
		cfg.Policy.Attempts = raw.Transfer.Attempts
	}
	if raw.Transfer.Backoff != "" {
		if cfg.Policy.Backoff, err = time.ParseDuration(raw.Transfer.Backoff); err != nil {
			return runtime.Config{}, fmt.Errorf("config: transfer backoff: %w", err)
		}
	}
	if err = cfg.Policy.Validate(); err != nil {
		return runtime.Config{}, fmt.Errorf("config: transfer: %w", err)
	}
	return cfg, nil
}
