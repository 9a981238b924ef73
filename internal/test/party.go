package test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/rss-runtime/pkg/party"
)

// Contexts returns the resolved context of each computing party.
func Contexts() map[party.ID]party.Context {
	contexts := make(map[party.ID]party.Context, len(party.All))
	for _, id := range party.All {
		c, err := party.Resolve(id.Role(), len(party.All))
		if err != nil {
			panic(err)
		}
		contexts[id] = c
	}
	return contexts
}

// Logger returns a logger writing through t, tagged with the party.
func Logger(t testing.TB, id party.ID) zerolog.Logger {
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel).With().
		Str("party", id.String()).
		Logger()
}
