package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/host/v3"

	"github.com/michaelkamprath/sn3193/lampd/internal/config"
	"github.com/michaelkamprath/sn3193/lampd/internal/lamp"
	"github.com/michaelkamprath/sn3193/lampd/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "lampd.yaml", "path to the config file")
		listen     = flag.String("listen", "", "listen address, overrides the config")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config not loaded, using defaults")
		cfg = config.Default()
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	ctrl, driverName := openController(cfg)
	st := server.NewState(cfg, *configPath, ctrl, driverName)

	ctx, cancel := context.WithCancel(context.Background())
	go st.RunLoop(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", st.HandleWS)
	mux.HandleFunc("/control", st.HandleControl)
	mux.HandleFunc("/diag", st.HandleDiag)
	mux.HandleFunc("/health", st.HandleHealth)

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Listen).Str("driver", driverName).Msg("lampd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")
	cancel()
	srv.Close()
	if err := ctrl.Close(); err != nil {
		log.Error().Err(err).Msg("close controller")
	}
}

// openController picks the configured backend, falling back to the
// simulator when the hardware is not there.
func openController(cfg *config.Config) (lamp.Controller, string) {
	switch cfg.Driver {
	case "i2c":
		if _, err := host.Init(); err != nil {
			log.Warn().Err(err).Msg("host init failed, falling back to sim")
			return lamp.Sim{}, "sim"
		}
		dev, err := lamp.NewDevice(cfg.Bus)
		if err != nil {
			log.Warn().Err(err).Msg("no SN3193 found, falling back to sim")
			return lamp.Sim{}, "sim"
		}
		return dev, "i2c"
	case "sim", "":
		return lamp.Sim{}, "sim"
	default:
		log.Warn().Str("driver", cfg.Driver).Msg("unknown driver, using sim")
		return lamp.Sim{}, "sim"
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
