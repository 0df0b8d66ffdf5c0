package client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deathcards/tableclient/internal/stack"
	"github.com/deathcards/tableclient/internal/state"
	"github.com/deathcards/tableclient/internal/transport"
	"github.com/deathcards/tableclient/pkg/types"
)

// fakeBus implements transport.Bus with an in-memory registry.
type fakeBus struct {
	handlers map[string][]transport.Handler
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string][]transport.Handler)}
}

func (b *fakeBus) On(event string, fn transport.Handler) func() {
	b.handlers[event] = append(b.handlers[event], fn)
	return func() {}
}

func (b *fakeBus) push(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	for _, fn := range b.handlers[event] {
		fn(raw)
	}
}

func newWired(t *testing.T) (*fakeBus, *stack.Engine, *state.Store) {
	t.Helper()
	bus := newFakeBus()
	store := state.New(1, zap.NewNop())
	engine := stack.New(stack.Config{
		Log: zap.NewNop(),
		// Timers never fire in these tests.
		Schedule: func(time.Duration, func()) func() { return func() {} },
	})
	engine.Bind(42, 1)

	c := New(zap.NewNop(), bus, engine, store)
	c.Subscribe()
	return bus, engine, store
}

func TestActionEventsReachTheEngine(t *testing.T) {
	bus, engine, _ := newWired(t)

	bus.push(t, types.EventActionInProgress, types.ActionEvent{
		Data: &types.ActionData{ActorID: 2, Kind: types.KindEarlyTrain, ActionName: "Tren Matutino"},
	})
	p := engine.Pending()
	require.NotNil(t, p)
	assert.Equal(t, 2, p.ActorID)

	bus.push(t, types.EventStackUpdated, types.ActionEvent{
		Data: &types.ActionData{ActorID: 3, Kind: types.KindEarlyTrain},
	})
	p = engine.Pending()
	require.NotNil(t, p)
	assert.Equal(t, 3, p.ActorID)
}

func TestResolutionClearsEngineAndSetsBanner(t *testing.T) {
	bus, engine, store := newWired(t)

	bus.push(t, types.EventActionInProgress, types.ActionEvent{
		Data: &types.ActionData{ActorID: 2, Kind: types.KindEarlyTrain},
	})
	bus.push(t, types.EventActionResolved, types.ResolvedEvent{Detail: "accion cancelada"})

	assert.Nil(t, engine.Pending())
	assert.Equal(t, "accion cancelada", store.Snapshot().ResultBanner)
}

func TestStateEventsReachTheStore(t *testing.T) {
	bus, _, store := newWired(t)

	bus.push(t, types.EventHandUpdated, types.HandEvent{Cards: []types.Card{{InstanceID: 7, TypeID: 1}}})
	bus.push(t, types.EventTurnChanged, types.TurnEvent{PlayerID: 1, Phase: "accion"})
	bus.push(t, types.EventSecretsUpdated, types.SecretsEvent{Counts: map[int]int{3: 2}})

	snap := store.Snapshot()
	require.Len(t, snap.Hand, 1)
	assert.True(t, snap.IsMyTurn)
	assert.Equal(t, 2, snap.SecretCounts[3])
}

func TestMalformedPayloadsAreIgnored(t *testing.T) {
	bus, engine, _ := newWired(t)
	for _, fn := range bus.handlers[types.EventActionInProgress] {
		fn(json.RawMessage(`no-json`))
	}
	assert.Nil(t, engine.Pending())
}
