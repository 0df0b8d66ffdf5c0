package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/deathcards/tableclient/internal/stack"
	"github.com/deathcards/tableclient/internal/state"
)

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// DebugState dumps the live view-state plus the pending action, so an
// operator or UI shell can inspect the client without attaching a debugger.
func DebugState(store *state.Store, engine *stack.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			State         state.Snapshot       `json:"state"`
			PendingAction *stack.PendingAction `json:"pendingAction,omitempty"`
			ResultMessage string               `json:"resultMessage,omitempty"`
		}{
			State:         store.Snapshot(),
			PendingAction: engine.Pending(),
			ResultMessage: engine.ResultMessage(),
		})
	}
}
