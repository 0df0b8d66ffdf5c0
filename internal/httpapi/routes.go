package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deathcards/tableclient/internal/stack"
	"github.com/deathcards/tableclient/internal/state"
)

// Routes builds the local debug/status surface of the client process.
func Routes(store *state.Store, engine *stack.Engine) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/debug/state", DebugState(store, engine))

	return r
}
