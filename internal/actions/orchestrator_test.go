package actions

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deathcards/tableclient/internal/catalog"
	"github.com/deathcards/tableclient/internal/stack"
	"github.com/deathcards/tableclient/internal/state"
	"github.com/deathcards/tableclient/pkg/types"
)

// recordedCall is one RPC observed by the fake command API.
type recordedCall struct {
	name string
	args []int
}

type fakeCommandAPI struct {
	calls []recordedCall
	errOn string
}

func (f *fakeCommandAPI) record(name string, args ...int) error {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	if f.errOn == name {
		return errors.New("rpc " + name + " falló")
	}
	return nil
}

func (f *fakeCommandAPI) PlayAnotherVictim(_ context.Context, gameID, actorID, cardTypeID int, p types.ActionPayload) error {
	return f.record("PlayAnotherVictim", gameID, actorID, cardTypeID, p.TargetID)
}
func (f *fakeCommandAPI) PlayAriadneOliver(_ context.Context, gameID, actorID, cardInstanceID int) error {
	return f.record("PlayAriadneOliver", gameID, actorID, cardInstanceID)
}
func (f *fakeCommandAPI) RequestTargetToRevealSecret(_ context.Context, gameID, targetID int) error {
	return f.record("RequestTargetToRevealSecret", gameID, targetID)
}
func (f *fakeCommandAPI) PlayOneMore(_ context.Context, gameID, actorID, cardTypeID int, p types.ActionPayload) error {
	return f.record("PlayOneMore", gameID, actorID, cardTypeID, p.SourceID, p.SecretID, p.DestinationID)
}
func (f *fakeCommandAPI) PlayEarlyTrainToPaddington(_ context.Context, gameID, actorID, cardTypeID int) error {
	return f.record("PlayEarlyTrainToPaddington", gameID, actorID, cardTypeID)
}
func (f *fakeCommandAPI) PlayDelayEscape(_ context.Context, gameID, actorID, cardTypeID, quantity int) error {
	return f.record("PlayDelayEscape", gameID, actorID, cardTypeID, quantity)
}
func (f *fakeCommandAPI) PlayDetectiveSet(_ context.Context, gameID, actorID int, setCards []int) error {
	return f.record("PlayDetectiveSet", append([]int{gameID, actorID}, setCards...)...)
}
func (f *fakeCommandAPI) AgregarCartaASet(_ context.Context, gameID, actorID, setCardID, cardInstanceID int) error {
	return f.record("AgregarCartaASet", gameID, actorID, setCardID, cardInstanceID)
}
func (f *fakeCommandAPI) RevealSecret(_ context.Context, gameID, targetID, secretID int) error {
	return f.record("RevealSecret", gameID, targetID, secretID)
}
func (f *fakeCommandAPI) PlayNotSoFast(_ context.Context, gameID, playerID, cardInstanceID int) error {
	return f.record("PlayNotSoFast", gameID, playerID, cardInstanceID)
}

type initiated struct {
	kind       types.ActionKind
	cardTypeID int
	payload    types.ActionPayload
}

type fakeInitiator struct {
	got []initiated
	err error
}

func (f *fakeInitiator) Initiate(_ context.Context, kind types.ActionKind, cardTypeID int, payload types.ActionPayload) error {
	f.got = append(f.got, initiated{kind, cardTypeID, payload})
	return f.err
}

type fixture struct {
	orch       *Orchestrator
	api        *fakeCommandAPI
	initiator  *fakeInitiator
	store      *state.Store
	setEffects []int
	notices    []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{api: &fakeCommandAPI{}, initiator: &fakeInitiator{}}
	f.store = state.New(1, zap.NewNop())
	f.orch = New(Config{
		Log:    zap.NewNop(),
		API:    f.api,
		Engine: f.initiator,
		Store:  f.store,
		Notify: func(msg string) {
			f.notices = append(f.notices, msg)
		},
		OnSetEffect: func(setCardID int) {
			f.setEffects = append(f.setEffects, setCardID)
		},
		GameID:   42,
		PlayerID: 1,
	})
	return f
}

func (f *fixture) dealAndSelect(cards ...types.Card) {
	f.store.SetHand(cards)
	for _, c := range cards {
		f.store.ToggleSelect(c.InstanceID)
	}
}

func TestExecuteOriginalDispatch(t *testing.T) {
	cases := []struct {
		kind      types.ActionKind
		snap      stack.PendingAction
		wantCalls []recordedCall
	}{
		{
			kind: types.KindAnotherVictim,
			snap: stack.PendingAction{ActorID: 3, CardTypeID: 20, Payload: types.ActionPayload{TargetID: 5}},
			wantCalls: []recordedCall{
				{"PlayAnotherVictim", []int{42, 3, 20, 5}},
			},
		},
		{
			kind: types.KindAriadneOliver,
			snap: stack.PendingAction{ActorID: 3, Payload: types.ActionPayload{CardInstanceID: 77, TargetID: 5}},
			wantCalls: []recordedCall{
				{"PlayAriadneOliver", []int{42, 3, 77}},
				{"RequestTargetToRevealSecret", []int{42, 5}},
			},
		},
		{
			kind: types.KindOneMore,
			snap: stack.PendingAction{ActorID: 3, CardTypeID: 22, Payload: types.ActionPayload{SourceID: 2, SecretID: 41, DestinationID: 4}},
			wantCalls: []recordedCall{
				{"PlayOneMore", []int{42, 3, 22, 2, 41, 4}},
			},
		},
		{
			kind: types.KindEarlyTrain,
			snap: stack.PendingAction{ActorID: 3, CardTypeID: 24},
			wantCalls: []recordedCall{
				{"PlayEarlyTrainToPaddington", []int{42, 3, 24}},
			},
		},
		{
			kind: types.KindDelayEscape,
			snap: stack.PendingAction{ActorID: 3, CardTypeID: 23, Payload: types.ActionPayload{Quantity: 2}},
			wantCalls: []recordedCall{
				{"PlayDelayEscape", []int{42, 3, 23, 2}},
			},
		},
		{
			kind: types.KindDetectiveSet,
			snap: stack.PendingAction{ActorID: 3, Payload: types.ActionPayload{SetCards: []int{101, 102}}},
			wantCalls: []recordedCall{
				{"PlayDetectiveSet", []int{42, 3, 101, 102}},
			},
		},
		{
			kind: types.KindAddToSet,
			snap: stack.PendingAction{ActorID: 3, CardInstanceIDs: []int{88}, Payload: types.ActionPayload{SetCardID: 9}},
			wantCalls: []recordedCall{
				{"AgregarCartaASet", []int{42, 3, 9, 88}},
			},
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			f := newFixture(t)
			snap := tc.snap
			snap.Kind = tc.kind

			err := f.orch.ExecuteOriginal(context.Background(), snap)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCalls, f.api.calls)
		})
	}
}

func TestExecuteOriginalAddToSetFiresLocalEffect(t *testing.T) {
	f := newFixture(t)
	snap := stack.PendingAction{
		Kind:            types.KindAddToSet,
		ActorID:         3,
		CardInstanceIDs: []int{88},
		Payload:         types.ActionPayload{SetCardID: 9},
	}
	require.NoError(t, f.orch.ExecuteOriginal(context.Background(), snap))
	assert.Equal(t, []int{9}, f.setEffects)
}

func TestExecuteOriginalUnknownKindDoesNotFail(t *testing.T) {
	f := newFixture(t)
	err := f.orch.ExecuteOriginal(context.Background(), stack.PendingAction{Kind: "evento_inexistente"})
	require.NoError(t, err)
	assert.Empty(t, f.api.calls)
}

func TestExecuteOriginalAriadneStopsOnFirstFailure(t *testing.T) {
	f := newFixture(t)
	f.api.errOn = "PlayAriadneOliver"
	err := f.orch.ExecuteOriginal(context.Background(), stack.PendingAction{
		Kind:    types.KindAriadneOliver,
		ActorID: 3,
		Payload: types.ActionPayload{CardInstanceID: 77, TargetID: 5},
	})
	require.Error(t, err)
	require.Len(t, f.api.calls, 1)
}

func TestPlaySelectionDetectiveSet(t *testing.T) {
	f := newFixture(t)
	f.dealAndSelect(
		types.Card{InstanceID: 101, TypeID: catalog.CardPoirot},
		types.Card{InstanceID: 102, TypeID: catalog.CardPoirot},
	)

	require.NoError(t, f.orch.PlaySelection(context.Background()))

	require.Len(t, f.initiator.got, 1)
	assert.Equal(t, types.KindDetectiveSet, f.initiator.got[0].kind)
	assert.Equal(t, []int{101, 102}, f.initiator.got[0].payload.SetCards)

	// Cancelable: the hand does not change until the server resolves.
	assert.Len(t, f.store.Snapshot().Hand, 2)
}

func TestPlaySelectionInvalidNotifiesAndSkipsInitiate(t *testing.T) {
	f := newFixture(t)
	err := f.orch.PlaySelection(context.Background())
	require.Error(t, err)
	assert.Empty(t, f.initiator.got)
	assert.NotEmpty(t, f.notices)
}

func TestPlayEarlyTrainInitiatesImmediately(t *testing.T) {
	f := newFixture(t)
	f.dealAndSelect(types.Card{InstanceID: 50, TypeID: catalog.CardEarlyTrain})

	require.NoError(t, f.orch.PlaySelection(context.Background()))
	require.Len(t, f.initiator.got, 1)
	assert.Equal(t, types.KindEarlyTrain, f.initiator.got[0].kind)
	assert.Equal(t, catalog.CardEarlyTrain, f.initiator.got[0].cardTypeID)
}

func TestDelayEscapeAsksForQuantity(t *testing.T) {
	f := newFixture(t)
	f.dealAndSelect(types.Card{InstanceID: 60, TypeID: catalog.CardDelayEscape})

	require.NoError(t, f.orch.PlaySelection(context.Background()))
	assert.Empty(t, f.initiator.got)
	assert.Equal(t, ModalChooseQuantity, f.store.Snapshot().OpenModal)

	require.NoError(t, f.orch.ConfirmQuantity(context.Background(), 2))
	require.Len(t, f.initiator.got, 1)
	assert.Equal(t, types.KindDelayEscape, f.initiator.got[0].kind)
	assert.Equal(t, 2, f.initiator.got[0].payload.Quantity)
	assert.Empty(t, f.store.Snapshot().OpenModal)
}

func TestAnotherVictimAsksForTarget(t *testing.T) {
	f := newFixture(t)
	f.dealAndSelect(types.Card{InstanceID: 61, TypeID: catalog.CardAnotherVictim})

	require.NoError(t, f.orch.PlaySelection(context.Background()))
	assert.Equal(t, ModalChooseTarget, f.store.Snapshot().OpenModal)

	require.NoError(t, f.orch.ConfirmTarget(context.Background(), 4))
	require.Len(t, f.initiator.got, 1)
	assert.Equal(t, types.KindAnotherVictim, f.initiator.got[0].kind)
	assert.Equal(t, 4, f.initiator.got[0].payload.TargetID)
}

func TestAccusationRunsDirectlyWithOptimisticHand(t *testing.T) {
	f := newFixture(t)
	f.dealAndSelect(types.Card{InstanceID: 62, TypeID: catalog.CardAccusation})

	require.NoError(t, f.orch.PlaySelection(context.Background()))
	require.NoError(t, f.orch.ConfirmAccusation(context.Background(), 4, 41))

	// Immediate effect: a direct RPC, never routed through the cancellation window.
	require.Len(t, f.api.calls, 1)
	assert.Equal(t, recordedCall{"RevealSecret", []int{42, 4, 41}}, f.api.calls[0])
	assert.Empty(t, f.initiator.got)
	assert.Empty(t, f.store.Snapshot().Hand)
}

func TestWizardAssemblesOneMorePayload(t *testing.T) {
	f := newFixture(t)
	f.dealAndSelect(types.Card{InstanceID: 70, TypeID: catalog.CardOneMore})

	require.NoError(t, f.orch.PlaySelection(context.Background()))
	assert.Equal(t, 1, f.orch.WizardStep())
	assert.Equal(t, ModalMoveSecret, f.store.Snapshot().OpenModal)

	require.NoError(t, f.orch.WizardPickSource(2))
	assert.Equal(t, 2, f.orch.WizardStep())
	require.NoError(t, f.orch.WizardPickSecret(41))
	assert.Equal(t, 3, f.orch.WizardStep())
	require.NoError(t, f.orch.WizardPickDestination(context.Background(), 4))

	require.Len(t, f.initiator.got, 1)
	got := f.initiator.got[0]
	assert.Equal(t, types.KindOneMore, got.kind)
	assert.Equal(t, types.ActionPayload{CardInstanceID: 70, SourceID: 2, SecretID: 41, DestinationID: 4}, got.payload)
	assert.Equal(t, 0, f.orch.WizardStep())
}

func TestWizardOutOfOrderStepResetsEverything(t *testing.T) {
	f := newFixture(t)
	f.dealAndSelect(types.Card{InstanceID: 70, TypeID: catalog.CardOneMore})
	require.NoError(t, f.orch.PlaySelection(context.Background()))

	err := f.orch.WizardPickSecret(41) // paso 2 sin haber elegido origen
	require.Error(t, err)
	assert.Equal(t, 0, f.orch.WizardStep())
	assert.Empty(t, f.store.Snapshot().Selected)
	assert.Empty(t, f.store.Snapshot().OpenModal)
	assert.Empty(t, f.initiator.got)
}

func TestWizardInitiateFailureStillDiscardsState(t *testing.T) {
	f := newFixture(t)
	f.initiator.err = fmt.Errorf("no es tu turno")
	f.dealAndSelect(types.Card{InstanceID: 70, TypeID: catalog.CardOneMore})

	require.NoError(t, f.orch.PlaySelection(context.Background()))
	require.NoError(t, f.orch.WizardPickSource(2))
	require.NoError(t, f.orch.WizardPickSecret(41))
	err := f.orch.WizardPickDestination(context.Background(), 4)
	require.Error(t, err)

	assert.Equal(t, 0, f.orch.WizardStep())
	// Un intento posterior sin asistente activo no debe filtrar estado previo.
	require.Error(t, f.orch.WizardPickDestination(context.Background(), 9))
	require.Len(t, f.initiator.got, 1)
}

func TestAddToSetInitiatesCancelableAction(t *testing.T) {
	f := newFixture(t)
	card := types.Card{InstanceID: 88, TypeID: catalog.CardMarple}

	require.NoError(t, f.orch.AddToSet(context.Background(), 9, card))
	require.Len(t, f.initiator.got, 1)
	assert.Equal(t, types.KindAddToSet, f.initiator.got[0].kind)
	assert.Equal(t, 9, f.initiator.got[0].payload.SetCardID)
	assert.Equal(t, 88, f.initiator.got[0].payload.CardInstanceID)
}

func TestRespondNotSoFast(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.orch.RespondNotSoFast(context.Background(), 55))
	require.Len(t, f.api.calls, 1)
	assert.Equal(t, recordedCall{"PlayNotSoFast", []int{42, 1, 55}}, f.api.calls[0])

	f.api.errOn = "PlayNotSoFast"
	require.Error(t, f.orch.RespondNotSoFast(context.Background(), 56))
	assert.NotEmpty(t, f.notices)
}
