package comm

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/taurusgroup/rss-runtime/internal/params"
	"github.com/taurusgroup/rss-runtime/pkg/hash"
	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// Options describes how the local party reaches its peers.
type Options struct {
	// PartyID is the role of the local party.
	PartyID party.ID
	// Parties is the number of parties, always 3.
	Parties int
	// BasePort is the port of party A; party i listens on BasePort+i.
	BasePort int
	// Hosts holds the host of each party, indexed by role.
	Hosts []string

	// TLS material used by transports which authenticate their peers.
	ServerCert               string
	ServerPrivateKey         string
	ServerPrivateKeyPassword string

	// Policy bounds every transfer. The zero value means DefaultPolicy.
	Policy Policy
}

// Validate checks that the options are usable by any transport.
func (o Options) Validate() error {
	if !o.PartyID.Active() {
		return fmt.Errorf("comm: options: invalid party %s", o.PartyID)
	}
	if o.Parties != params.Parties {
		return fmt.Errorf("comm: options: %d parties, expected %d", o.Parties, params.Parties)
	}
	if len(o.Hosts) != o.Parties {
		return fmt.Errorf("comm: options: %d hosts for %d parties", len(o.Hosts), o.Parties)
	}
	for i, host := range o.Hosts {
		if host == "" {
			return fmt.Errorf("comm: options: empty host for party %s", party.ID(i))
		}
	}
	if o.BasePort <= 0 || o.BasePort+o.Parties-1 > 65535 {
		return fmt.Errorf("comm: options: base port %d out of range", o.BasePort)
	}
	if (o.ServerCert == "") != (o.ServerPrivateKey == "") {
		return errors.New("comm: options: certificate and private key must be given together")
	}
	if o.ServerPrivateKeyPassword != "" && o.ServerPrivateKey == "" {
		return errors.New("comm: options: private key password without private key")
	}
	return o.policy().Validate()
}

// Endpoint returns the host:port address of party id.
func (o Options) Endpoint(id party.ID) (string, error) {
	if !id.Active() || int(id) >= len(o.Hosts) {
		return "", fmt.Errorf("comm: no endpoint for party %s", id)
	}
	return net.JoinHostPort(o.Hosts[id], strconv.Itoa(o.BasePort+int(id))), nil
}

// SSID identifies the session shared by all parties configured with the same
// hosts and ports. Messages carrying another SSID are rejected as malformed.
func (o Options) SSID() []byte {
	h := hash.New()
	_ = h.WriteAny(uint64(o.Parties), uint64(o.BasePort))
	for _, host := range o.Hosts {
		_ = h.WriteAny(hash.Labeled{Label: "Host", Data: []byte(host)})
	}
	return h.Sum()
}

func (o Options) policy() Policy {
	if o.Policy == (Policy{}) {
		return DefaultPolicy
	}
	return o.Policy
}
