// Command rss-bootstrap inspects and simulates the bootstrap of the three parties.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/rss-runtime/internal/params"
	"github.com/taurusgroup/rss-runtime/pkg/comm"
	"github.com/taurusgroup/rss-runtime/pkg/config"
	"github.com/taurusgroup/rss-runtime/pkg/math/table"
	"github.com/taurusgroup/rss-runtime/pkg/party"
	"gopkg.in/urfave/cli.v1"
)

func main() {
	cliApp := newApp()
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "rss-bootstrap:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cliApp := cli.NewApp()
	cliApp.Name = "rss-bootstrap"
	cliApp.Usage = "bootstrap the parties of a three-party computation"
	cliApp.Version = "0.1"
	cliApp.Commands = []cli.Command{
		{
			Name:    "simulate",
			Aliases: []string{"s"},
			Usage:   "run the bootstrap of A, B and C in this process and compare their key schedules",
			Action:  simulate,
			Flags: []cli.Flag{
				cli.Uint64Flag{
					Name:  "prime, p",
					Value: params.Prime,
					Usage: "cardinality of the comparison field",
				},
				cli.DurationFlag{
					Name:  "timeout, t",
					Value: comm.DefaultPolicy.Timeout,
					Usage: "timeout of a single transfer attempt",
				},
			},
		},
		{
			Name:      "check",
			Aliases:   []string{"c"},
			Usage:     "validate a party configuration file",
			ArgsUsage: "party.toml",
			Action:    check,
		},
		{
			Name:      "tables",
			Usage:     "print the addition and multiplication tables of a prime field",
			ArgsUsage: "prime",
			Action:    tables,
		},
	}
	cliApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "log, l",
			Value: zerolog.InfoLevel.String(),
			Usage: "log level: debug, info, warn or error",
		},
	}
	cliApp.Before = func(c *cli.Context) error {
		level, err := zerolog.ParseLevel(c.String("log"))
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		return nil
	}
	return cliApp
}

func check(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("please give the configuration file")
	}
	cfg, err := config.Load(c.Args().First())
	if err != nil {
		return err
	}
	self, err := party.Resolve(cfg.Role, cfg.Parties)
	if err != nil {
		return err
	}
	opts := comm.Options{
		PartyID:                  self.Self,
		Parties:                  cfg.Parties,
		BasePort:                 cfg.BasePort,
		Hosts:                    cfg.Hosts,
		ServerCert:               cfg.ServerCert,
		ServerPrivateKey:         cfg.ServerPrivateKey,
		ServerPrivateKeyPassword: cfg.ServerPrivateKeyPassword,
		Policy:                   cfg.Policy,
	}
	if err = opts.Validate(); err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s, family %s, mode %s\n", self, cfg.Family, cfg.Mode)
	for _, id := range party.All {
		endpoint, err := opts.Endpoint(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  %s  %s\n", id, endpoint)
	}
	fmt.Fprintf(w, "savers %v, prime %d, precision %d\n", cfg.Savers, cfg.Prime, cfg.Precision)
	return nil
}

func tables(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("please give the prime")
	}
	var p uint64
	if _, err := fmt.Sscan(c.Args().First(), &p); err != nil {
		return fmt.Errorf("invalid prime %q: %w", c.Args().First(), err)
	}
	t, err := table.Generate(p)
	if err != nil {
		return err
	}
	w := c.App.Writer
	for _, op := range []struct {
		name string
		row  func(uint8) []uint8
	}{{"+", t.AddRow}, {"*", t.MulRow}} {
		fmt.Fprintf(w, "%s mod %d\n", op.name, p)
		for i := uint64(0); i < p; i++ {
			for j, v := range op.row(uint8(i)) {
				if j > 0 {
					fmt.Fprint(w, " ")
				}
				fmt.Fprintf(w, "%3d", v)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
