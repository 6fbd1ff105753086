package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cbodonnell/ducktag/pkg/config"
	"github.com/cbodonnell/ducktag/pkg/journal"
	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/network"
	"github.com/cbodonnell/ducktag/pkg/version"
)

const journalFlushInterval = time.Second

func main() {
	if err := config.Load(); err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// PORT is honored for hosting platforms that assign one
	fallbackPort := 8080
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		fallbackPort = p
	}
	defaultPort, err := config.GetEnvInt("PORT", fallbackPort)
	if err != nil {
		panic(fmt.Sprintf("Failed to read port: %v", err))
	}

	port := flag.Int("port", defaultPort, "Port to listen on")
	journalPath := flag.String("journal", config.GetEnv("JOURNAL", ""), "Record relayed traffic to this file")
	staticDir := flag.String("static", config.GetEnv("STATIC_DIR", ""), "Serve static files from this directory")
	certFile := flag.String("tls-cert", config.GetEnv("TLS_CERT", ""), "TLS certificate file")
	keyFile := flag.String("tls-key", config.GetEnv("TLS_KEY", ""), "TLS key file")
	logLevel := flag.String("log-level", config.GetEnv("LOG_LEVEL", "info"), "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting relay version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder network.Recorder
	if *journalPath != "" {
		w, err := journal.Create(*journalPath)
		if err != nil {
			panic(fmt.Sprintf("Failed to create journal: %v", err))
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Error("Failed to close journal: %v", err)
			}
		}()
		go flushJournal(ctx, w)
		recorder = w
		log.Info("Recording traffic to %s", *journalPath)
	}

	var tls *network.TLSConfig
	if *certFile != "" && *keyFile != "" {
		tls = &network.TLSConfig{CertFile: *certFile, KeyFile: *keyFile}
	}

	clientManager := network.NewClientManager()
	go logClientEvents(ctx, clientManager)

	relay := network.NewRelayServer(network.NewRelayServerOptions{
		Port:          *port,
		TLS:           tls,
		StaticDir:     *staticDir,
		ClientManager: clientManager,
		Recorder:      recorder,
		Logger:        logger,
	})
	if err := relay.Start(ctx); err != nil {
		log.Error("Relay stopped: %v", err)
		return
	}
	log.Info("Relay stopped")
}

func flushJournal(ctx context.Context, w *journal.Writer) {
	ticker := time.NewTicker(journalFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Flush(); err != nil && !errors.Is(err, journal.ErrClosed) {
				log.Error("Failed to flush journal: %v", err)
			}
		}
	}
}

func logClientEvents(ctx context.Context, cm *network.ClientManager) {
	events := cm.GetClientEventChan()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			log.Debug("Client %s %s, %d connected", ev.ClientID, ev.Type, cm.Count())
		}
	}
}
