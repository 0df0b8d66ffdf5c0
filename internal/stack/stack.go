package stack

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deathcards/tableclient/internal/api"
	"github.com/deathcards/tableclient/internal/catalog"
	"github.com/deathcards/tableclient/pkg/types"
)

// Resolution windows. Every client independently arms a timer and asks the
// server to resolve; the actor's window is shorter so their clock fires no
// later than any observer's. Correctness does not depend on the gap: only
// the actor gate decides who may re-trigger the original effect.
const (
	ActorResolveDelay    = 5 * time.Second
	ObserverResolveDelay = 7 * time.Second

	resolveTimeout = 8 * time.Second
)

// PendingAction is the client's view of the single action currently inside
// its cancellation window.
type PendingAction struct {
	ActorID         int
	Kind            types.ActionKind
	Payload         types.ActionPayload
	CardInstanceIDs []int
	CardTypeID      int
	DisplayCard     types.DisplayCard
	ResponseStack   []types.ResponseCard
	Message         string
}

// CommandClient is the slice of the HTTP API the engine drives.
type CommandClient interface {
	IniciarAccion(ctx context.Context, gameID, actorID int, req api.InitiateRequest) error
	ResolverAccion(ctx context.Context, gameID int) (api.ResolveResult, error)
}

// ExecuteFunc re-invokes a pending action's original effect. Provided by
// the orchestrator and called only on the actor's client.
type ExecuteFunc func(ctx context.Context, snap PendingAction) error

// NotifyFunc surfaces a failure message to the player.
type NotifyFunc func(msg string)

// Scheduler arms a one-shot callback and returns its cancel func.
// Cancelling after the callback ran is a no-op.
type Scheduler func(d time.Duration, fn func()) (cancel func())

// AfterFunc is the production Scheduler.
func AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Config wires an Engine.
type Config struct {
	Log      *zap.Logger
	API      CommandClient
	Execute  ExecuteFunc
	Notify   NotifyFunc
	Schedule Scheduler // defaults to AfterFunc
	OnChange func()    // optional, fired after every state change
}

// Engine owns the lifecycle of the at-most-one pending cancelable action:
// it receives it from the transport, arms the resolution timer, asks the
// server for the verdict when the window closes, and re-triggers the
// original effect when this client is the actor.
type Engine struct {
	log      *zap.Logger
	api      CommandClient
	execute  ExecuteFunc
	notify   NotifyFunc
	schedule Scheduler
	onChange func()

	mu            sync.Mutex
	gameID        int
	localPlayerID int
	pending       *PendingAction
	resultMessage string
	cancelTimer   func()
}

// New builds an engine. Bind must be called before events flow.
func New(cfg Config) *Engine {
	e := &Engine{
		log:      cfg.Log,
		api:      cfg.API,
		execute:  cfg.Execute,
		notify:   cfg.Notify,
		schedule: cfg.Schedule,
		onChange: cfg.OnChange,
	}
	if e.schedule == nil {
		e.schedule = AfterFunc
	}
	if e.notify == nil {
		e.notify = func(string) {}
	}
	return e
}

// Bind attaches the engine to a game and the local seat.
func (e *Engine) Bind(gameID, localPlayerID int) {
	e.mu.Lock()
	e.gameID = gameID
	e.localPlayerID = localPlayerID
	e.mu.Unlock()
}

// Pending returns a copy of the current pending action, or nil.
func (e *Engine) Pending() *PendingAction {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return nil
	}
	snap := *e.pending
	return &snap
}

// ResultMessage returns the last resolution message shown to the player.
func (e *Engine) ResultMessage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resultMessage
}

// Close cancels any armed timer. The engine stays usable for reads.
func (e *Engine) Close() {
	e.mu.Lock()
	e.stopTimerLocked()
	e.mu.Unlock()
}

// Normalize rebuilds a PendingAction from whatever the server broadcast.
// A payload that already carries an originalCard projection is taken
// verbatim; otherwise a display projection is synthesized from the partial
// fields. Pure and nil-safe; the reconstruction is lossy and display-only.
func Normalize(ev *types.ActionEvent) *PendingAction {
	if ev == nil || ev.Data == nil {
		return nil
	}
	d := ev.Data
	p := &PendingAction{
		ActorID:         d.ActorID,
		Kind:            d.Kind,
		Payload:         d.OriginalPayload,
		CardInstanceIDs: d.CardInstanceIDs,
		CardTypeID:      d.OriginalCardTypeID,
		ResponseStack:   d.ResponseStack,
		Message:         ev.Message,
	}
	if d.OriginalCard != nil {
		p.DisplayCard = *d.OriginalCard
		return p
	}
	name := d.ActionName
	if name == "" {
		name = catalog.DisplayName(d.OriginalCardTypeID)
	}
	p.DisplayCard = types.DisplayCard{
		ActorID:    d.ActorID,
		Name:       name,
		CardTypeID: d.OriginalCardTypeID,
	}
	return p
}

// HandleActionInProgress records a freshly proposed action. The server is
// authoritative on stack contents, so this always replaces local state.
func (e *Engine) HandleActionInProgress(ev *types.ActionEvent) {
	e.setPending(Normalize(ev))
}

// HandleStackUpdated records a response pushed onto the pending action.
// Deliberately identical to HandleActionInProgress: the client never
// computes the stack itself, it re-derives the whole view from the
// broadcast.
func (e *Engine) HandleStackUpdated(ev *types.ActionEvent) {
	e.setPending(Normalize(ev))
}

// HandleActionResolved clears the pending action. Idempotent: with nothing
// pending it only updates the result message.
func (e *Engine) HandleActionResolved(ev *types.ResolvedEvent) {
	msg := "Acción resuelta."
	if ev != nil && ev.Detail != "" {
		msg = ev.Detail
	}
	e.mu.Lock()
	e.stopTimerLocked()
	e.pending = nil
	e.resultMessage = msg
	e.mu.Unlock()
	e.changed()
}

// Initiate proposes a cancelable action to the server. No local pending
// action is created: the client waits for the transport echo. Without a
// bound game and seat this is a no-op.
func (e *Engine) Initiate(ctx context.Context, kind types.ActionKind, cardTypeID int, payload types.ActionPayload) error {
	e.mu.Lock()
	gameID, actorID := e.gameID, e.localPlayerID
	e.mu.Unlock()
	if gameID == 0 || actorID == 0 {
		e.log.Debug("iniciar accion sin partida activa, ignorado")
		return nil
	}

	err := e.api.IniciarAccion(ctx, gameID, actorID, api.InitiateRequest{
		Kind:            kind,
		CardTypeID:      cardTypeID,
		OriginalPayload: payload,
	})
	if err != nil {
		e.notify(err.Error())
		return err
	}
	return nil
}

func (e *Engine) setPending(p *PendingAction) {
	e.mu.Lock()
	e.stopTimerLocked()
	e.pending = p
	if p != nil {
		// The timer closure captures an immutable snapshot: by the time it
		// fires, e.pending may already be a different action.
		snap := *p
		gameID := e.gameID
		isActor := snap.ActorID == e.localPlayerID
		delay := ObserverResolveDelay
		if isActor {
			delay = ActorResolveDelay
		}
		e.cancelTimer = e.schedule(delay, func() {
			e.resolve(gameID, snap, isActor)
		})
	}
	e.mu.Unlock()
	e.changed()
}

// resolve runs when a resolution window elapses without the server having
// settled the action first.
func (e *Engine) resolve(gameID int, snap PendingAction, isActor bool) {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	res, err := e.api.ResolverAccion(ctx, gameID)
	if err != nil {
		if isAlreadyResolved(err) {
			// Normal outcome of the race: some other client's timer fired
			// first and the server already settled the action.
			e.log.Debug("la accion ya fue resuelta por otro cliente", zap.Error(err))
			return
		}
		// The client has no authority to declare the action over, so the
		// pending state stays put until accion-resuelta arrives.
		e.notify(err.Error())
		return
	}

	if res.Decision != types.DecisionExecute || !isActor {
		return
	}
	if err := e.execute(ctx, snap); err != nil {
		e.log.Error("fallo al reejecutar el efecto original",
			zap.String("actionKind", string(snap.Kind)),
			zap.Error(err))
	}
}

func (e *Engine) stopTimerLocked() {
	if e.cancelTimer != nil {
		e.cancelTimer()
		e.cancelTimer = nil
	}
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

func isAlreadyResolved(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "ya fue resuelta") || strings.Contains(msg, "already resolved")
}
