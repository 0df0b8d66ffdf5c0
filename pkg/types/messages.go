package types

import "encoding/json"

// Event names pushed by the server over the table socket.
const (
	EventActionInProgress = "accion-en-progreso"
	EventStackUpdated     = "pila-actualizada"
	EventActionResolved   = "accion-resuelta"
	EventTurnChanged      = "turno-cambiado"
	EventHandUpdated      = "mano-actualizada"
	EventSecretsUpdated   = "secretos-actualizados"
)

// Envelope wraps every server push: the event name plus its raw payload.
type Envelope struct {
	Event   string          `json:"evento"`
	Payload json.RawMessage `json:"payload"`
}

// ActionKind tags which original effect a pending action re-invokes once
// its cancellation window closes.
type ActionKind string

const (
	KindAnotherVictim ActionKind = "evento_another_victim"
	KindAriadneOliver ActionKind = "evento_ariadne_oliver"
	KindOneMore       ActionKind = "evento_one_more"
	KindEarlyTrain    ActionKind = "evento_early_train"
	KindDelayEscape   ActionKind = "evento_delay_escape"
	KindDetectiveSet  ActionKind = "jugar_set_detective"
	KindAddToSet      ActionKind = "agregar_a_set"
)

// Card is one concrete card instance in a hand or on the table.
type Card struct {
	InstanceID int `json:"id_representacion_carta"`
	TypeID     int `json:"id_carta_tipo"`
}

// ActionPayload carries the parameters of the original action. Which fields
// are set depends on the ActionKind.
type ActionPayload struct {
	CardInstanceID int   `json:"id_representacion_carta,omitempty"`
	TargetID       int   `json:"id_objetivo,omitempty"`
	Quantity       int   `json:"cantidad,omitempty"`
	SetCards       []int `json:"set_cartas,omitempty"`
	SetCardID      int   `json:"representacion_id_carta,omitempty"`
	SourceID       int   `json:"id_jugador_origen,omitempty"`
	SecretID       int   `json:"id_secreto,omitempty"`
	DestinationID  int   `json:"id_jugador_destino,omitempty"`
}

// DisplayCard is the denormalized projection of the card that started an
// action. Display-only; protocol decisions never read it.
type DisplayCard struct {
	ActorID    int    `json:"actorId"`
	Name       string `json:"name"`
	CardTypeID int    `json:"cardTypeId"`
}

// ResponseCard is one "¡No Tan Rápido!" style counter on the response stack.
type ResponseCard struct {
	CardTypeID int `json:"cardTypeId"`
	PlayerID   int `json:"playerId,omitempty"`
}

// ActionData is the server's broadcast view of the pending action. The
// server may send a resolved originalCard projection, or only the partial
// fields needed to rebuild one.
type ActionData struct {
	ActorID            int            `json:"actorId"`
	Kind               ActionKind     `json:"actionKind"`
	ActionName         string         `json:"actionNameForDisplay,omitempty"`
	OriginalCardTypeID int            `json:"originalCardTypeId,omitempty"`
	OriginalCard       *DisplayCard   `json:"originalCard,omitempty"`
	OriginalPayload    ActionPayload  `json:"originalPayload,omitempty"`
	CardInstanceIDs    []int          `json:"originalCardInstanceIds,omitempty"`
	ResponseStack      []ResponseCard `json:"responseStack,omitempty"`
}

// ActionEvent is the payload of accion-en-progreso and pila-actualizada.
type ActionEvent struct {
	Data    *ActionData `json:"data"`
	Message string      `json:"message,omitempty"`
}

// ResolvedEvent is the payload of accion-resuelta.
type ResolvedEvent struct {
	Detail   string `json:"detail,omitempty"`
	Decision string `json:"decision,omitempty"`
}

// Decision values carried by the resolve RPC response and resolution events.
const (
	DecisionExecute = "ejecutar"
	DecisionDiscard = "descartar"
)

// TurnEvent is the payload of turno-cambiado.
type TurnEvent struct {
	PlayerID int    `json:"id_jugador"`
	Phase    string `json:"fase"`
}

// HandEvent is the payload of mano-actualizada.
type HandEvent struct {
	Cards []Card `json:"cartas"`
}

// SecretsEvent is the payload of secretos-actualizados: visible secret
// counts per player.
type SecretsEvent struct {
	Counts map[int]int `json:"conteos"`
}
