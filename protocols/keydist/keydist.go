// Package keydist derives the replicated key schedule shared by the three parties.
//
// Key agreement is generate-then-transfer: the value sent by the source of a
// transfer becomes the shared key, so the channel must already be authenticated
// and confidential. Each party
//
//  1. generates the uniquely owned keys it is the owner of,
//  2. generates a local value for every shared key,
//  3. runs Transfers in order, overwriting its local value when it is the recipient,
//  4. keeps only the keys it holds according to Holders.
package keydist

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/rss-runtime/internal/params"
	"github.com/taurusgroup/rss-runtime/pkg/comm"
	"github.com/taurusgroup/rss-runtime/pkg/keys"
	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// Run executes the key distribution for the local party self over ch.
// Fresh keys are read from source, which should be crypto/rand.Reader outside of tests.
//
// If family is not params.Family, no key is generated and ErrUnsupportedFamily is returned.
// If a transfer fails, every generated key is wiped and an Error is returned;
// a partial schedule is never returned.
func Run(ctx context.Context, self party.Context, family string, ch comm.Channel, source io.Reader, log zerolog.Logger) (*keys.Schedule, error) {
	if family != params.Family {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFamily, family)
	}
	if !self.Self.Active() {
		return nil, fmt.Errorf("keydist: invalid party %s", self.Self)
	}
	if ch == nil {
		return nil, fmt.Errorf("keydist: party %s has no channel", self.Self)
	}
	if ch.Self() != self.Self {
		return nil, fmt.Errorf("keydist: channel belongs to %s, not %s", ch.Self(), self.Self)
	}

	local := make(map[keys.Name]keys.Key, len(keys.Names))
	wipe := func() {
		for _, key := range local {
			key.Wipe()
		}
	}

	log.Info().Msg("start")

	for _, o := range OwnedKeys {
		if o.Owner != self.Self {
			continue
		}
		key, err := keys.NewKey(source)
		if err != nil {
			wipe()
			return nil, fmt.Errorf("keydist: owned key %s: %w", o.Name, err)
		}
		local[o.Name] = key
	}

	for _, name := range SharedKeys {
		key, err := keys.NewKey(source)
		if err != nil {
			wipe()
			return nil, fmt.Errorf("keydist: shared key %s: %w", name, err)
		}
		local[name] = key
	}

	for step, t := range Transfers {
		received, err := ch.Transfer(ctx, t.From, t.To, local[t.Name])
		if err != nil {
			wipe()
			log.Error().Err(err).Int("step", step).Str("key", string(t.Name)).Msg("transfer failed")
			return nil, Error{Step: step, Key: t.Name, From: t.From, To: t.To, Err: err}
		}
		if self.Self != t.To {
			continue
		}
		key := keys.Key(received)
		if err = key.Validate(); err != nil {
			key.Wipe()
			wipe()
			return nil, Error{Step: step, Key: t.Name, From: t.From, To: t.To, Err: fmt.Errorf("%w: %w", comm.ErrMalformedPayload, err)}
		}
		local[t.Name].Wipe()
		local[t.Name] = key.Copy()
		key.Wipe()
		log.Debug().Int("step", step).Str("key", string(t.Name)).Str("from", t.From.String()).
			Str("fingerprint", hex.EncodeToString(local[t.Name].Fingerprint())).Msg("received key")
	}

	held := make(map[keys.Name]keys.Key, len(local))
	for name, key := range local {
		if Holds(self.Self, name) {
			held[name] = key
		}
	}
	schedule, err := keys.NewSchedule(held)
	wipe()
	if err != nil {
		return nil, fmt.Errorf("keydist: %w", err)
	}

	log.Info().Int("keys", schedule.Len()).Msg("done")
	return schedule, nil
}
