package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/kovidgoyal/npspec/archive"
	"github.com/kovidgoyal/npspec/config"
	"github.com/kovidgoyal/npspec/server"
)

var _ = fmt.Print

func main() {
	configFile := flag.String("config", "", "read settings from this ini `file`")
	addr := flag.String("addr", "", "listen on this address, overrides [server] addr")
	archivePath := flag.String("archive", "", "archive every request to the database at `path`")
	flag.Parse()

	c, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := c.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *addr != "" {
		c.Server.Addr = *addr
	}
	if *archivePath != "" {
		c.Archive.Path, c.Archive.Enabled = *archivePath, true
	}
	if err = serve(c, log); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

func serve(c *config.Config, log *logrus.Logger) error {
	cat, err := c.Catalog(log)
	if err != nil {
		return err
	}
	conv, err := c.Converter()
	if err != nil {
		return err
	}
	opts := []server.Option{
		server.WithLogger(log),
		server.WithDefaults(c.Particle, c.Spectrum),
		server.ReadLimit(c.Server.ReadLimit),
	}
	if c.Archive.Enabled {
		a, err := archive.Open(c.Archive.Path, log)
		if err != nil {
			return err
		}
		defer a.Close()
		opts = append(opts, server.WithArchive(a))
		log.WithField("path", c.Archive.Path).Info("archiving requests")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()
	log.WithField("materials", len(cat.Names())).Info("material catalog loaded")
	return server.New(cat, conv, opts...).ListenAndServe(ctx, c.Server.Addr)
}
