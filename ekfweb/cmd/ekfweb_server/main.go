// Command ekfweb_server runs the telemetry room that drag fusion publishers
// and viewers connect to.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/westphae/windfusion/ekfweb"
)

// shutdownSignals stop the server gracefully.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	var (
		addr  = flag.String("addr", fmt.Sprintf(":%d", ekfweb.Port), "The address for the drag fusion data publication.")
		debug = flag.Bool("debug", false, "Log at debug level.")
	)
	flag.Parse()

	cfg := zap.NewProductionConfig()
	if *debug {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ekfweb: building logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar().Named("ekfweb")

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	// get the room going
	r := ekfweb.NewRoom(log)
	go r.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle(ekfweb.Path, r)
	mux.HandleFunc("/schema", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ekfweb.DragData{})
	})

	srv := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Infow("starting web server", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalw("ListenAndServe fatal error", "error", err)
	}
}
