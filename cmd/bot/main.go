package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbodonnell/ducktag/client/game"
	"github.com/cbodonnell/ducktag/client/input"
	"github.com/cbodonnell/ducktag/client/network"
	"github.com/cbodonnell/ducktag/pkg/api"
	"github.com/cbodonnell/ducktag/pkg/clock"
	"github.com/cbodonnell/ducktag/pkg/config"
	"github.com/cbodonnell/ducktag/pkg/log"
	"github.com/cbodonnell/ducktag/pkg/queue"
	"github.com/cbodonnell/ducktag/pkg/repositories"
	"github.com/cbodonnell/ducktag/pkg/repositories/models"
	"github.com/cbodonnell/ducktag/pkg/state"
	"github.com/cbodonnell/ducktag/pkg/version"
	"github.com/cbodonnell/ducktag/pkg/workers"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := config.Load(); err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	defaultStatusPort, err := config.GetEnvInt("STATUS_PORT", 0)
	if err != nil {
		panic(fmt.Sprintf("Failed to read status port: %v", err))
	}
	defaultAutoStart, err := config.GetEnvBool("AUTO_START", false)
	if err != nil {
		panic(fmt.Sprintf("Failed to read auto start: %v", err))
	}

	relayAddr := flag.String("relay", config.GetEnv("RELAY", "ws://localhost:8080"), "Relay websocket address")
	name := flag.String("name", config.GetEnv("NAME", ""), "Display name; derived from the id when empty")
	duckType := flag.String("duck", config.GetEnv("DUCK", ""), "Duck type; random when empty")
	statusPort := flag.Int("status-port", defaultStatusPort, "Port for the status API; disabled when 0")
	autoStart := flag.Bool("auto-start", defaultAutoStart, "Start a match when hosting a full lobby")
	databaseURL := flag.String("db", config.GetEnv("DATABASE_URL", "sqlite://ducktag.db"), "Match results database; disabled when empty")
	logLevel := flag.String("log-level", config.GetEnv("LOG_LEVEL", "info"), "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting bot version %s", version.Get())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repository repositories.Repository
	var resultChan chan *models.MatchResult
	workerCtx, cancelWorker := context.WithCancel(context.Background())
	defer cancelWorker()
	if *databaseURL != "" {
		repository, err = repositories.NewRepository(ctx, *databaseURL)
		if err != nil {
			panic(fmt.Sprintf("Failed to create repository: %v", err))
		}
		defer repository.Close(context.Background())

		resultChan = make(chan *models.MatchResult, workers.DefaultResultsBufferSize)
		resultWorker := workers.NewMatchResultWorker(workers.NewMatchResultWorkerOptions{
			Repository: repository,
			ResultChan: resultChan,
		})
		go resultWorker.Start(workerCtx)
	}

	stateManager := state.NewInMemoryStateManager()
	if *statusPort != 0 {
		apiServer := api.NewAPIServer(api.NewAPIServerOptions{
			Port:         *statusPort,
			StateManager: stateManager,
			Repository:   repository,
		})
		go apiServer.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := apiServer.Stop(stopCtx); err != nil {
				log.Error("Failed to stop API server: %v", err)
			}
		}()
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	eventQueue := queue.NewInMemoryQueue(1024)
	wsClient := network.NewWSClient(network.NewWSClientOptions{
		ServerAddr:   *relayAddr,
		MessageQueue: eventQueue,
	})

	g, err := game.NewGame(game.NewGameOptions{
		Sender:       wsClient,
		EventQueue:   eventQueue,
		Input:        input.NewBotInput(r),
		Clock:        clock.SystemClock{},
		Rand:         r,
		StateManager: stateManager,
		ResultChan:   resultChan,
		Profile:      game.Profile{Name: *name, DuckType: *duckType},
		AutoStart:    *autoStart,
		Logger:       logger,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create game: %v", err))
	}
	wsClient.SetHandler(g)

	gameCtx, cancelGame := context.WithCancel(context.Background())
	gameDone := make(chan struct{})
	go func() {
		g.Run(gameCtx)
		close(gameDone)
	}()

	connCtx, cancelConn := context.WithCancel(context.Background())
	defer cancelConn()
	connDone := make(chan error, 1)
	go func() {
		connDone <- wsClient.Run(connCtx)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-connDone:
		if err != nil {
			log.Error("Connection to relay ended: %v", err)
		}
	}

	// the leave goes out before the connection is closed
	cancelGame()
	<-gameDone
	if err := wsClient.Close(); err != nil {
		log.Error("Failed to close connection: %v", err)
	}
}
