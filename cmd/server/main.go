// Package main is the entry point for the launchkeyctl API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/james-see/launchkeyctl/pkg/api"
	"github.com/james-see/launchkeyctl/pkg/config"
	"github.com/james-see/launchkeyctl/pkg/port"
	"github.com/james-see/launchkeyctl/pkg/settings"
	"github.com/james-see/launchkeyctl/pkg/surface"
)

func main() {
	addr := flag.String("addr", "", "Listen address (default from config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	path, err := config.SettingsPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	persister := settings.NewFilePersister(path)

	access := port.NewAccess(nil)
	s := surface.New(surface.Options{
		Ports:    access,
		Config:   cfg,
		Settings: settings.NewStore(settings.Load(persister), persister),
	})
	s.Open()

	fmt.Printf("Starting launchkeyctl API server on %s...\n", cfg.Addr)
	fmt.Printf("Swagger docs available at http://localhost%s/swagger/index.html\n", cfg.Addr)

	err = api.StartServer(s, cfg.Addr)
	s.Close()
	_ = access.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
