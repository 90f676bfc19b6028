// File: main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lguibr/bollywood"
	"github.com/quadball-arena/quadball/server"
	"github.com/quadball-arena/quadball/utils"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	cfg := utils.DefaultConfig()
	engine := bollywood.NewEngine()
	srv := server.New(engine, cfg)

	httpServer := &http.Server{Addr: *addr, Handler: srv.Routes()}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("quadball server listening on %s\n", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		fmt.Printf("FATAL: listen on %s failed: %v\n", *addr, err)
		engine.Shutdown(2 * time.Second)
		os.Exit(1)
	case sig := <-sigCh:
		fmt.Printf("received %s, shutting down\n", sig)
		_ = httpServer.Close()
		engine.Shutdown(5 * time.Second)
	}
}
