package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/deathcards/tableclient/internal/actions"
	"github.com/deathcards/tableclient/internal/api"
	"github.com/deathcards/tableclient/internal/client"
	"github.com/deathcards/tableclient/internal/config"
	"github.com/deathcards/tableclient/internal/httpapi"
	"github.com/deathcards/tableclient/internal/stack"
	"github.com/deathcards/tableclient/internal/state"
	"github.com/deathcards/tableclient/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuracion invalida: %v", err)
	}

	logger, err := buildLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("no se pudo crear el logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	commands := api.New(cfg.ServerURL, logger.Named("api"))

	gameID, playerID := cfg.GameID, cfg.PlayerID
	if gameID == 0 {
		info, err := commands.CreateGame(ctx, cfg.PlayerName)
		if err != nil {
			logger.Fatal("no se pudo crear la partida", zap.Error(err))
		}
		gameID, playerID = info.GameID, info.PlayerID
		logger.Info("partida creada", zap.Int("partida", gameID), zap.Int("jugador", playerID))
	} else if playerID == 0 {
		info, err := commands.JoinGame(ctx, gameID, cfg.PlayerName)
		if err != nil {
			logger.Fatal("no se pudo unir a la partida", zap.Error(err))
		}
		playerID = info.PlayerID
		logger.Info("unido a la partida", zap.Int("partida", gameID), zap.Int("jugador", playerID))
	}

	store := state.New(playerID, logger.Named("state"))
	notify := func(msg string) {
		logger.Warn("aviso al jugador", zap.String("mensaje", msg))
		store.SetAlert(msg)
	}

	var orch *actions.Orchestrator
	engine := stack.New(stack.Config{
		Log:    logger.Named("stack"),
		API:    commands,
		Notify: notify,
		Execute: func(ctx context.Context, snap stack.PendingAction) error {
			return orch.ExecuteOriginal(ctx, snap)
		},
	})
	engine.Bind(gameID, playerID)

	orch = actions.New(actions.Config{
		Log:      logger.Named("actions"),
		API:      commands,
		Engine:   engine,
		Store:    store,
		Notify:   notify,
		GameID:   gameID,
		PlayerID: playerID,
	})

	bus := transport.New(cfg.SocketURL, logger.Named("transport"))
	cl := client.New(logger.Named("client"), bus, engine, store)
	cl.Subscribe()

	if err := bus.Connect(ctx); err != nil {
		logger.Fatal("no se pudo conectar el transporte", zap.Error(err))
	}

	go func() {
		logger.Info("api de depuracion escuchando", zap.String("addr", cfg.DebugAddr))
		if err := http.ListenAndServe(cfg.DebugAddr, httpapi.Routes(store, engine)); err != nil {
			logger.Warn("api de depuracion finalizada", zap.Error(err))
		}
	}()

	cl.Run(ctx, bus.Done())
	_ = bus.Close()
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
