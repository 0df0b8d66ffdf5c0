package client

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/deathcards/tableclient/internal/stack"
	"github.com/deathcards/tableclient/internal/state"
	"github.com/deathcards/tableclient/internal/transport"
	"github.com/deathcards/tableclient/pkg/types"
)

// Client glues the transport's named events to the engine and the store.
type Client struct {
	log    *zap.Logger
	bus    transport.Bus
	engine *stack.Engine
	store  *state.Store
	offs   []func()
}

func New(log *zap.Logger, bus transport.Bus, engine *stack.Engine, store *state.Store) *Client {
	return &Client{log: log, bus: bus, engine: engine, store: store}
}

// Subscribe wires every server event the client reacts to. Call once,
// before the transport connects.
func (c *Client) Subscribe() {
	c.offs = append(c.offs,
		c.bus.On(types.EventActionInProgress, c.onAction(c.engine.HandleActionInProgress)),
		c.bus.On(types.EventStackUpdated, c.onAction(c.engine.HandleStackUpdated)),
		c.bus.On(types.EventActionResolved, c.onResolved),
		c.bus.On(types.EventTurnChanged, c.onTurn),
		c.bus.On(types.EventHandUpdated, c.onHand),
		c.bus.On(types.EventSecretsUpdated, c.onSecrets),
	)
}

// Unsubscribe detaches every handler registered by Subscribe.
func (c *Client) Unsubscribe() {
	for _, off := range c.offs {
		off()
	}
	c.offs = nil
}

func (c *Client) onAction(handle func(*types.ActionEvent)) transport.Handler {
	return func(raw json.RawMessage) {
		var ev types.ActionEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn("evento de accion ilegible", zap.Error(err))
			return
		}
		handle(&ev)
	}
}

func (c *Client) onResolved(raw json.RawMessage) {
	var ev types.ResolvedEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.log.Warn("evento de resolucion ilegible", zap.Error(err))
		ev = types.ResolvedEvent{}
	}
	c.engine.HandleActionResolved(&ev)
	c.store.SetResultBanner(c.engine.ResultMessage())
}

func (c *Client) onTurn(raw json.RawMessage) {
	var ev types.TurnEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.log.Warn("evento de turno ilegible", zap.Error(err))
		return
	}
	c.store.SetTurn(ev.PlayerID, state.Phase(ev.Phase))
}

func (c *Client) onHand(raw json.RawMessage) {
	var ev types.HandEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.log.Warn("evento de mano ilegible", zap.Error(err))
		return
	}
	c.store.SetHand(ev.Cards)
}

func (c *Client) onSecrets(raw json.RawMessage) {
	var ev types.SecretsEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.log.Warn("evento de secretos ilegible", zap.Error(err))
		return
	}
	for playerID, n := range ev.Counts {
		c.store.SetSecretCount(playerID, n)
	}
}

// Run keeps the client alive until the context ends or the transport drops.
func (c *Client) Run(ctx context.Context, done <-chan struct{}) {
	select {
	case <-ctx.Done():
	case <-done:
		c.log.Info("transporte finalizado")
	}
	c.engine.Close()
	c.Unsubscribe()
}
