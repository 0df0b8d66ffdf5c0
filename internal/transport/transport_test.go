package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deathcards/tableclient/pkg/types"
)

func envelope(t *testing.T, event string, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	data, err := json.Marshal(types.Envelope{Event: event, Payload: raw})
	require.NoError(t, err)
	return data
}

func TestDispatchRoutesByEventName(t *testing.T) {
	s := New("ws://unused", zap.NewNop())

	var gotA, gotB []string
	s.On("accion-en-progreso", func(p json.RawMessage) { gotA = append(gotA, string(p)) })
	s.On("accion-resuelta", func(p json.RawMessage) { gotB = append(gotB, string(p)) })

	s.Dispatch(envelope(t, "accion-en-progreso", map[string]int{"actorId": 1}))

	require.Len(t, gotA, 1)
	assert.JSONEq(t, `{"actorId":1}`, gotA[0])
	assert.Empty(t, gotB)
}

func TestDispatchFansOutToEverySubscriber(t *testing.T) {
	s := New("ws://unused", zap.NewNop())
	count := 0
	s.On("pila-actualizada", func(json.RawMessage) { count++ })
	s.On("pila-actualizada", func(json.RawMessage) { count++ })

	s.Dispatch(envelope(t, "pila-actualizada", map[string]int{}))
	assert.Equal(t, 2, count)
}

func TestOffUnsubscribes(t *testing.T) {
	s := New("ws://unused", zap.NewNop())
	count := 0
	off := s.On("accion-resuelta", func(json.RawMessage) { count++ })

	s.Dispatch(envelope(t, "accion-resuelta", map[string]int{}))
	off()
	s.Dispatch(envelope(t, "accion-resuelta", map[string]int{}))

	assert.Equal(t, 1, count)
}

func TestDispatchToleratesGarbage(t *testing.T) {
	s := New("ws://unused", zap.NewNop())
	s.On("accion-en-progreso", func(json.RawMessage) { t.Fatal("no debe invocarse") })

	s.Dispatch([]byte("esto no es json"))
	s.Dispatch(envelope(t, "evento-sin-suscriptores", map[string]int{}))
	s.Dispatch([]byte(`{"payload":{}}`))
}
