/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-gfx/engine"
	"github.com/spaghettifunk/anima-gfx/engine/core"
	"github.com/spaghettifunk/anima-gfx/testbed"
)

func main() {
	configPath := flag.String("config", "anima.toml", "path to the application config")
	preload := flag.Bool("preload", false, "build every predefined pipeline at startup")
	flag.Parse()

	cfg, err := engine.LoadApplicationConfig(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		def := engine.DefaultApplicationConfig()
		cfg, err = &def, nil
	}
	if err != nil {
		core.LogFatal("failed to load %s: %s", *configPath, err)
	}

	tb := testbed.NewTestGame(cfg, *preload)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("%s", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("failed to initialize: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the loop owns the device, so a signal only asks it to stop
	go func() {
		<-sigCh
		e.Stop()
	}()

	// run engine
	if err := e.Run(); err != nil {
		core.LogFatal("%s", err)
	}
}
