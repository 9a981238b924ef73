// Package runtime brings a party of the three-party computation up and down.
//
// Start resolves the role of the process, opens the channel to the peers,
// distributes the replicated key schedule and precomputes the comparison
// tables, in this order. Stop closes the channel and wipes the keys.
// Protocols read the resulting Context and never modify it.
package runtime

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/rss-runtime/pkg/comm"
	"github.com/taurusgroup/rss-runtime/pkg/fixedpoint"
	"github.com/taurusgroup/rss-runtime/pkg/keys"
	"github.com/taurusgroup/rss-runtime/pkg/math/table"
	"github.com/taurusgroup/rss-runtime/pkg/party"
	"github.com/taurusgroup/rss-runtime/pkg/prg"
	"github.com/taurusgroup/rss-runtime/protocols/keydist"
)

// ErrUnknownKey is returned by PRG when the local party does not hold the key.
var ErrUnknownKey = errors.New("runtime: key not held by this party")

// Context is the bootstrapped state of the local party.
type Context struct {
	party   party.Context
	mode    Mode
	savers  party.IDSlice
	codec   fixedpoint.Codec
	channel comm.Channel
	keys    *keys.Schedule
	tables  *table.Tables
	log     zerolog.Logger

	mtx     sync.Mutex
	started bool
	stopped bool
}

// Start bootstraps the local party described by cfg, opening its channel through fabric.
// In Standalone mode, fabric is not used and may be nil.
//
// On failure, everything opened so far is released and no Context is returned.
func Start(ctx context.Context, cfg Config, fabric comm.Fabric) (*Context, error) {
	self, err := party.Resolve(cfg.Role, cfg.Parties)
	if err != nil {
		return nil, err
	}
	if err = cfg.validate(); err != nil {
		return nil, err
	}

	log := cfg.logger(self.Self)
	c := &Context{
		party:   self,
		mode:    cfg.Mode,
		savers:  party.NewIDSlice(cfg.Savers),
		codec:   cfg.codec(),
		log:     log,
		started: true,
	}
	log.Info().Str("mode", cfg.Mode.String()).Msg("start")

	if cfg.Mode == Standalone {
		log.Info().Msg("standalone mode, nothing to bootstrap")
		return c, nil
	}

	if fabric == nil {
		return nil, fmt.Errorf("%w: no communication fabric in %s mode", ErrConfig, cfg.Mode)
	}

	commLog := log.With().Str("phase", "comm").Logger()
	commLog.Info().Msg("start")
	c.channel, err = fabric.Open(ctx, cfg.options(self.Self))
	if err != nil {
		commLog.Error().Err(err).Msg("open failed")
		return nil, fmt.Errorf("runtime: open channel: %w", err)
	}
	commLog.Info().Msg("done")

	c.keys, err = keydist.Run(ctx, self, cfg.Family, c.channel, rand.Reader, log.With().Str("phase", "keydist").Logger())
	if err != nil {
		c.abort()
		return nil, fmt.Errorf("runtime: key distribution: %w", err)
	}

	tableLog := log.With().Str("phase", "tables").Logger()
	tableLog.Info().Uint64("prime", cfg.prime()).Msg("start")
	c.tables, err = table.Generate(cfg.prime())
	if err != nil {
		tableLog.Error().Err(err).Msg("generation failed")
		c.abort()
		return nil, fmt.Errorf("runtime: tables: %w", err)
	}
	tableLog.Info().Msg("done")

	log.Info().Msg("done")
	return c, nil
}

// abort releases a partially started Context.
func (c *Context) abort() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.log.Warn().Err(err).Msg("close channel")
		}
	}
	c.keys.Wipe()
}

// Stop closes the channel, then wipes the key schedule.
// Stopping a nil, never started or already stopped Context returns nil.
func (c *Context) Stop() error {
	if c == nil {
		return nil
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if !c.started || c.stopped {
		return nil
	}
	c.stopped = true

	var err error
	if c.channel != nil {
		err = c.channel.Close()
	}
	c.keys.Wipe()
	if err != nil {
		c.log.Error().Err(err).Msg("stop")
		return fmt.Errorf("runtime: close channel: %w", err)
	}
	c.log.Info().Msg("stopped")
	return nil
}

// Stopped returns true once Stop was called.
func (c *Context) Stopped() bool {
	if c == nil {
		return false
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.stopped
}

// SelfID returns the role of the local party, or party.None if c is nil.
func (c *Context) SelfID() party.ID {
	if c == nil || !c.started {
		return party.None
	}
	return c.party.Self
}

// Party returns the resolved party context.
func (c *Context) Party() party.Context { return c.party }

// Mode returns the mode c was started in.
func (c *Context) Mode() Mode { return c.mode }

// Keys returns a read-only view of the key schedule, empty in Standalone mode.
// Only Stop wipes the schedule.
func (c *Context) Keys() keys.View { return c.keys.View() }

// Tables returns the comparison tables, nil in Standalone mode.
func (c *Context) Tables() *table.Tables { return c.tables }

// Channel returns the link to the peers, nil in Standalone mode.
// Only Stop closes the underlying channel.
func (c *Context) Channel() comm.Link { return comm.Restrict(c.channel) }

// Codec returns the fixed-point codec.
func (c *Context) Codec() fixedpoint.Codec { return c.codec }

// Savers returns the parties storing plaintext results.
func (c *Context) Savers() party.IDSlice { return c.savers.Copy() }

// Saves returns true if the local party stores plaintext results.
func (c *Context) Saves() bool { return c.savers.Contains(c.party.Self) }

// Logger returns the logger of the local party.
func (c *Context) Logger() zerolog.Logger { return c.log }

// PRG returns the generator seeded with the key name for domain.
// The holders of the key obtain identical generators.
func (c *Context) PRG(name keys.Name, domain string) (*prg.PRG, error) {
	if c.Stopped() {
		return nil, fmt.Errorf("runtime: prg %s: %w", name, comm.ErrClosed)
	}
	key, ok := c.keys.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	defer key.Wipe()
	return prg.New(key, domain)
}
