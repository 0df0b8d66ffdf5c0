package actions

import (
	"context"

	"go.uber.org/zap"

	"github.com/deathcards/tableclient/internal/catalog"
	"github.com/deathcards/tableclient/internal/rules"
	"github.com/deathcards/tableclient/internal/stack"
	"github.com/deathcards/tableclient/internal/state"
	"github.com/deathcards/tableclient/pkg/types"
)

// Modal names surfaced through the store while a gesture needs more input.
const (
	ModalChooseTarget   = "elegir-objetivo"
	ModalChooseQuantity = "elegir-cantidad"
	ModalMoveSecret     = "mover-secreto"
)

// CommandAPI is the slice of the HTTP API the orchestrator drives, both for
// direct (non-cancelable) effects and for re-running original effects.
type CommandAPI interface {
	PlayAnotherVictim(ctx context.Context, gameID, actorID, cardTypeID int, p types.ActionPayload) error
	PlayAriadneOliver(ctx context.Context, gameID, actorID, cardInstanceID int) error
	RequestTargetToRevealSecret(ctx context.Context, gameID, targetID int) error
	PlayOneMore(ctx context.Context, gameID, actorID, cardTypeID int, p types.ActionPayload) error
	PlayEarlyTrainToPaddington(ctx context.Context, gameID, actorID, cardTypeID int) error
	PlayDelayEscape(ctx context.Context, gameID, actorID, cardTypeID, quantity int) error
	PlayDetectiveSet(ctx context.Context, gameID, actorID int, setCards []int) error
	AgregarCartaASet(ctx context.Context, gameID, actorID, setCardID, cardInstanceID int) error
	RevealSecret(ctx context.Context, gameID, targetID, secretID int) error
	PlayNotSoFast(ctx context.Context, gameID, playerID, cardInstanceID int) error
}

// Initiator is the engine surface the orchestrator hands cancelable
// actions to.
type Initiator interface {
	Initiate(ctx context.Context, kind types.ActionKind, cardTypeID int, payload types.ActionPayload) error
}

// wizard is the short-lived state of the three-step Uno Más flow:
// source player -> secret -> destination player. Step 0 means inactive.
type wizard struct {
	step     int
	card     types.Card
	sourceID int
	secretID int
}

// Orchestrator maps play gestures onto either direct command calls or the
// engine's initiation path. It never mutates engine state directly.
type Orchestrator struct {
	log         *zap.Logger
	api         CommandAPI
	engine      Initiator
	store       *state.Store
	notify      func(string)
	onSetEffect func(setCardID int)

	gameID   int
	playerID int

	pendingEvent *types.Card
	wiz          wizard
}

// Config wires an Orchestrator.
type Config struct {
	Log         *zap.Logger
	API         CommandAPI
	Engine      Initiator
	Store       *state.Store
	Notify      func(string)
	OnSetEffect func(setCardID int)
	GameID      int
	PlayerID    int
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		log:         cfg.Log,
		api:         cfg.API,
		engine:      cfg.Engine,
		store:       cfg.Store,
		notify:      cfg.Notify,
		onSetEffect: cfg.OnSetEffect,
		gameID:      cfg.GameID,
		playerID:    cfg.PlayerID,
	}
	if o.notify == nil {
		o.notify = func(string) {}
	}
	return o
}

// ExecuteOriginal re-invokes the original effect of a pending action once
// the server has decided to execute it. Only the actor's client calls this.
// An unknown kind is logged and dropped: a broken dispatch must not crash
// the timer callback chain.
func (o *Orchestrator) ExecuteOriginal(ctx context.Context, snap stack.PendingAction) error {
	switch snap.Kind {
	case types.KindAnotherVictim:
		return o.api.PlayAnotherVictim(ctx, o.gameID, snap.ActorID, snap.CardTypeID, snap.Payload)

	case types.KindAriadneOliver:
		if err := o.api.PlayAriadneOliver(ctx, o.gameID, snap.ActorID, snap.Payload.CardInstanceID); err != nil {
			return err
		}
		return o.api.RequestTargetToRevealSecret(ctx, o.gameID, snap.Payload.TargetID)

	case types.KindOneMore:
		return o.api.PlayOneMore(ctx, o.gameID, snap.ActorID, snap.CardTypeID, snap.Payload)

	case types.KindEarlyTrain:
		return o.api.PlayEarlyTrainToPaddington(ctx, o.gameID, snap.ActorID, snap.CardTypeID)

	case types.KindDelayEscape:
		return o.api.PlayDelayEscape(ctx, o.gameID, snap.ActorID, snap.CardTypeID, snap.Payload.Quantity)

	case types.KindDetectiveSet:
		return o.api.PlayDetectiveSet(ctx, o.gameID, snap.ActorID, snap.Payload.SetCards)

	case types.KindAddToSet:
		instanceID := 0
		if len(snap.CardInstanceIDs) > 0 {
			instanceID = snap.CardInstanceIDs[0]
		}
		if err := o.api.AgregarCartaASet(ctx, o.gameID, snap.ActorID, snap.Payload.SetCardID, instanceID); err != nil {
			return err
		}
		// This effect is purely client-displayed; the server pushes nothing.
		if o.onSetEffect != nil {
			o.onSetEffect(snap.Payload.SetCardID)
		}
		return nil

	default:
		o.log.Error("tipo de accion desconocido", zap.String("actionKind", string(snap.Kind)))
		return nil
	}
}

// PlaySelection is the entry point for the play gesture. It validates the
// current selection and routes it: detective sets initiate the cancelable
// path; event cards either initiate immediately, open a modal for missing
// input, or (non-cancelable ones) run their effect directly.
func (o *Orchestrator) PlaySelection(ctx context.Context) error {
	sel := o.store.SelectedCards()
	mode, err := rules.ClassifySelection(sel)
	if err != nil {
		o.notify(err.Error())
		return err
	}

	switch mode {
	case rules.ModeDetectiveSet:
		ids := make([]int, len(sel))
		for i, c := range sel {
			ids[i] = c.InstanceID
		}
		// Cancelable: the hand is NOT touched until the server resolves.
		return o.engine.Initiate(ctx, types.KindDetectiveSet, sel[0].TypeID, types.ActionPayload{SetCards: ids})

	case rules.ModeEvent:
		return o.playEvent(ctx, sel[0])
	}
	return nil
}

func (o *Orchestrator) playEvent(ctx context.Context, card types.Card) error {
	switch card.TypeID {
	case catalog.CardEarlyTrain:
		return o.engine.Initiate(ctx, types.KindEarlyTrain, card.TypeID, types.ActionPayload{})

	case catalog.CardDelayEscape:
		o.pendingEvent = &card
		o.store.OpenModal(ModalChooseQuantity)
		return nil

	case catalog.CardAnotherVictim, catalog.CardAriadneOliver, catalog.CardAccusation:
		o.pendingEvent = &card
		o.store.OpenModal(ModalChooseTarget)
		return nil

	case catalog.CardOneMore:
		o.wiz = wizard{step: 1, card: card}
		o.store.OpenModal(ModalMoveSecret)
		return nil

	default:
		o.notify(rules.ErrUnplayableCard.Error())
		return rules.ErrUnplayableCard
	}
}

// ConfirmTarget completes an event waiting on a target player.
func (o *Orchestrator) ConfirmTarget(ctx context.Context, targetID int) error {
	card := o.pendingEvent
	o.pendingEvent = nil
	o.store.OpenModal("")
	if card == nil {
		return nil
	}

	switch card.TypeID {
	case catalog.CardAnotherVictim:
		return o.engine.Initiate(ctx, types.KindAnotherVictim, card.TypeID, types.ActionPayload{TargetID: targetID})

	case catalog.CardAriadneOliver:
		return o.engine.Initiate(ctx, types.KindAriadneOliver, card.TypeID, types.ActionPayload{
			CardInstanceID: card.InstanceID,
			TargetID:       targetID,
		})

	default:
		o.notify(rules.ErrUnplayableCard.Error())
		return rules.ErrUnplayableCard
	}
}

// ConfirmAccusation runs the non-cancelable reveal effect directly and
// updates the hand optimistically.
func (o *Orchestrator) ConfirmAccusation(ctx context.Context, targetID, secretID int) error {
	card := o.pendingEvent
	o.pendingEvent = nil
	o.store.OpenModal("")
	if card == nil || card.TypeID != catalog.CardAccusation {
		return nil
	}

	if err := o.api.RevealSecret(ctx, o.gameID, targetID, secretID); err != nil {
		o.notify(err.Error())
		return err
	}
	o.store.RemoveFromHand(card.InstanceID)
	o.store.ClearSelection()
	return nil
}

// ConfirmQuantity completes the Retrasar la Huida event.
func (o *Orchestrator) ConfirmQuantity(ctx context.Context, quantity int) error {
	card := o.pendingEvent
	o.pendingEvent = nil
	o.store.OpenModal("")
	if card == nil || card.TypeID != catalog.CardDelayEscape {
		return nil
	}
	return o.engine.Initiate(ctx, types.KindDelayEscape, card.TypeID, types.ActionPayload{Quantity: quantity})
}

// WizardPickSource records step 1 of the Uno Más flow.
func (o *Orchestrator) WizardPickSource(sourceID int) error {
	if o.wiz.step != 1 {
		o.resetWizard()
		return rules.ErrUnplayableCard
	}
	o.wiz.sourceID = sourceID
	o.wiz.step = 2
	return nil
}

// WizardPickSecret records step 2 of the Uno Más flow.
func (o *Orchestrator) WizardPickSecret(secretID int) error {
	if o.wiz.step != 2 {
		o.resetWizard()
		return rules.ErrUnplayableCard
	}
	o.wiz.secretID = secretID
	o.wiz.step = 3
	return nil
}

// WizardPickDestination is the final step: the fully assembled payload is
// handed to the engine and the wizard state is discarded either way, so no
// partial state leaks into a later, unrelated action.
func (o *Orchestrator) WizardPickDestination(ctx context.Context, destinationID int) error {
	if o.wiz.step != 3 {
		o.resetWizard()
		return rules.ErrUnplayableCard
	}
	card := o.wiz.card
	payload := types.ActionPayload{
		CardInstanceID: card.InstanceID,
		SourceID:       o.wiz.sourceID,
		SecretID:       o.wiz.secretID,
		DestinationID:  destinationID,
	}
	o.resetWizard()
	return o.engine.Initiate(ctx, types.KindOneMore, card.TypeID, payload)
}

// WizardStep exposes the current wizard step (0 = inactive) for the UI.
func (o *Orchestrator) WizardStep() int { return o.wiz.step }

// CancelWizard abandons the flow and clears every intermediate selection.
func (o *Orchestrator) CancelWizard() {
	o.resetWizard()
}

func (o *Orchestrator) resetWizard() {
	o.wiz = wizard{}
	o.store.OpenModal("")
	o.store.ClearSelection()
}

// AddToSet proposes adding one selected card to an existing table set.
func (o *Orchestrator) AddToSet(ctx context.Context, setCardID int, card types.Card) error {
	return o.engine.Initiate(ctx, types.KindAddToSet, card.TypeID, types.ActionPayload{
		SetCardID:      setCardID,
		CardInstanceID: card.InstanceID,
	})
}

// RespondNotSoFast counters the pending action with the selected response
// card. Direct RPC: the stack update comes back over the transport.
func (o *Orchestrator) RespondNotSoFast(ctx context.Context, cardInstanceID int) error {
	if err := o.api.PlayNotSoFast(ctx, o.gameID, o.playerID, cardInstanceID); err != nil {
		o.notify(err.Error())
		return err
	}
	return nil
}
