package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/rss-runtime/pkg/comm"
	"github.com/taurusgroup/rss-runtime/pkg/keys"
	"github.com/taurusgroup/rss-runtime/pkg/party"
	"github.com/taurusgroup/rss-runtime/pkg/runtime"
	"github.com/taurusgroup/rss-runtime/protocols/keydist"
	"golang.org/x/sync/errgroup"
	"gopkg.in/urfave/cli.v1"
)

func simulate(c *cli.Context) error {
	n := comm.NewMemoryNetwork()
	contexts := make([]*runtime.Context, len(party.All))
	defer func() {
		for _, rc := range contexts {
			_ = rc.Stop()
		}
	}()

	g, ctx := errgroup.WithContext(context.Background())
	for _, id := range party.All {
		cfg := runtime.DefaultConfig(id.Role())
		cfg.Prime = c.Uint64("prime")
		cfg.Policy.Timeout = c.Duration("timeout")
		cfg.LogLevel = zerolog.GlobalLevel()
		cfg.LogOutput = zerolog.ConsoleWriter{Out: os.Stderr}
		id := id
		g.Go(func() error {
			rc, err := runtime.Start(ctx, cfg, n)
			if err != nil {
				return fmt.Errorf("party %s: %w", id, err)
			}
			contexts[id] = rc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := c.App.Writer
	for _, rc := range contexts {
		fmt.Fprintf(w, "party %s\n", rc.SelfID())
		for _, name := range rc.Keys().Names() {
			fp, _ := rc.Keys().Fingerprint(name)
			fmt.Fprintf(w, "  %-6s %s\n", name, hex.EncodeToString(fp))
		}
	}
	if err := consistent(contexts); err != nil {
		return err
	}
	fmt.Fprintln(w, "key schedules are consistent")
	return nil
}

// consistent returns an error unless every key is held, identically, by exactly its holders.
func consistent(contexts []*runtime.Context) error {
	for _, name := range keys.Names {
		var want []byte
		for _, rc := range contexts {
			id := rc.SelfID()
			fp, ok := rc.Keys().Fingerprint(name)
			if ok != keydist.Holds(id, name) {
				return fmt.Errorf("party %s: key %s held: %t", id, name, ok)
			}
			if !ok {
				continue
			}
			if want == nil {
				want = fp
			} else if !bytes.Equal(want, fp) {
				return fmt.Errorf("key %s differs at party %s", name, id)
			}
		}
	}
	return nil
}
