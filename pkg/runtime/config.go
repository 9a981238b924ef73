package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/rss-runtime/internal/params"
	"github.com/taurusgroup/rss-runtime/pkg/comm"
	"github.com/taurusgroup/rss-runtime/pkg/fixedpoint"
	"github.com/taurusgroup/rss-runtime/pkg/math/table"
	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// ErrConfig is matched by every configuration error returned by Start.
var ErrConfig = party.ErrConfig

// Mode selects between a secure multi-party run and a plaintext run.
type Mode uint8

const (
	// MPC runs the three parties with communication, keys and tables.
	MPC Mode = iota
	// Standalone runs a single process on plaintext; nothing is bootstrapped.
	Standalone
)

func (m Mode) String() string {
	switch m {
	case MPC:
		return "mpc"
	case Standalone:
		return "standalone"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// ParseMode returns the mode named s, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "mpc":
		return MPC, nil
	case "standalone":
		return Standalone, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrConfig, s)
}

// Config is the input of Start. It is never modified.
type Config struct {
	// Role is the integer role of this process: 0, 1 or 2.
	Role int
	// Parties must be 3.
	Parties int
	// Family is the protocol family tag, only params.Family is supported.
	Family string
	Mode   Mode

	// BasePort is the port of party A, zero selects params.BasePort.
	BasePort int
	// Hosts holds the host of each party, indexed by role.
	Hosts []string

	ServerCert               string
	ServerPrivateKey         string
	ServerPrivateKeyPassword string

	// Savers are the parties storing plaintext results.
	Savers party.IDSlice

	// Prime is the cardinality of the comparison field, zero selects params.Prime.
	Prime uint64
	// Precision is the number of fractional bits of the fixed-point encoding.
	Precision uint

	// Policy bounds each transfer, the zero value selects comm.DefaultPolicy.
	Policy comm.Policy

	LogLevel zerolog.Level
	// LogOutput receives the logs, a console writer on stderr if nil.
	LogOutput io.Writer
}

// DefaultConfig returns the configuration of role on localhost.
func DefaultConfig(role int) Config {
	return Config{
		Role:      role,
		Parties:   params.Parties,
		Family:    params.Family,
		Mode:      MPC,
		BasePort:  params.BasePort,
		Hosts:     []string{"127.0.0.1", "127.0.0.1", "127.0.0.1"},
		Savers:    party.IDSlice{party.A},
		Prime:     params.Prime,
		Precision: params.Precision,
		Policy:    comm.DefaultPolicy,
		LogLevel:  zerolog.InfoLevel,
	}
}

func (c Config) prime() uint64 {
	if c.Prime == 0 {
		return params.Prime
	}
	return c.Prime
}

func (c Config) basePort() int {
	if c.BasePort == 0 {
		return params.BasePort
	}
	return c.BasePort
}

func (c Config) codec() fixedpoint.Codec {
	return fixedpoint.Codec{Precision: c.Precision}
}

// validate checks every field which does not depend on the peers, so that
// a misconfigured party fails before opening its channel.
func (c Config) validate() error {
	if c.Mode != MPC && c.Mode != Standalone {
		return fmt.Errorf("%w: invalid mode %s", ErrConfig, c.Mode)
	}
	if err := c.codec().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if c.Mode == MPC {
		if err := table.Validate(c.prime()); err != nil {
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
	}
	savers := party.NewIDSlice(c.Savers)
	if len(savers) > 0 && !savers.Valid() {
		return fmt.Errorf("%w: invalid savers %v", ErrConfig, c.Savers)
	}
	return nil
}

// options returns the transport options of the local party.
func (c Config) options(self party.ID) comm.Options {
	return comm.Options{
		PartyID:                  self,
		Parties:                  c.Parties,
		BasePort:                 c.basePort(),
		Hosts:                    c.Hosts,
		ServerCert:               c.ServerCert,
		ServerPrivateKey:         c.ServerPrivateKey,
		ServerPrivateKeyPassword: c.ServerPrivateKeyPassword,
		Policy:                   c.Policy,
	}
}

func (c Config) logger(self party.ID) zerolog.Logger {
	out := c.LogOutput
	if out == nil {
		out = zerolog.NewConsoleWriter()
	}
	return zerolog.New(out).Level(c.LogLevel).With().
		Timestamp().
		Str("party", self.String()).
		Logger()
}
