package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deathcards/tableclient/pkg/types"
)

// Error is the typed failure returned for any non-2xx response. Message is
// the server's own error string, suitable for surfacing to the player.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// InitiateRequest proposes a cancelable action to the server.
type InitiateRequest struct {
	Kind            types.ActionKind    `json:"actionKind"`
	CardTypeID      int                 `json:"cardTypeId,omitempty"`
	OriginalPayload types.ActionPayload `json:"originalPayload"`
}

// ResolveResult is the server's verdict when a client asks it to close a
// cancellation window.
type ResolveResult struct {
	Decision string `json:"decision"`
	Detail   string `json:"detail,omitempty"`
}

// GameInfo is returned by game creation/join calls.
type GameInfo struct {
	GameID   int `json:"id_partida"`
	PlayerID int `json:"id_jugador"`
}

// Client is a stateless HTTP wrapper around the game server's command API.
type Client struct {
	base     string
	http     *http.Client
	log      *zap.Logger
	clientID string
}

// New builds a command client for the given base URL.
func New(base string, log *zap.Logger) *Client {
	return &Client{
		base:     base,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
		clientID: uuid.NewString(),
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", c.clientID)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		msg := ""
		if json.Unmarshal(data, &payload) == nil {
			msg = payload.Error
			if msg == "" {
				msg = payload.Message
			}
		}
		if msg == "" {
			msg = fmt.Sprintf("el servidor respondió %d", resp.StatusCode)
		}
		c.log.Warn("rpc rechazado", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("mensaje", msg))
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateGame creates a new game and seats the named host.
func (c *Client) CreateGame(ctx context.Context, hostName string) (GameInfo, error) {
	var info GameInfo
	err := c.post(ctx, "/partidas", map[string]string{"nombre": hostName}, &info)
	return info, err
}

// JoinGame seats the named player in an existing game.
func (c *Client) JoinGame(ctx context.Context, gameID int, name string) (GameInfo, error) {
	var info GameInfo
	err := c.post(ctx, fmt.Sprintf("/partidas/%d/unirse", gameID), map[string]string{"nombre": name}, &info)
	return info, err
}

// DrawCard draws from the deck for the given player.
func (c *Client) DrawCard(ctx context.Context, gameID, playerID int) (types.Card, error) {
	var card types.Card
	err := c.post(ctx, fmt.Sprintf("/partidas/%d/robar", gameID), map[string]int{"id_jugador": playerID}, &card)
	return card, err
}

// DiscardCard discards one card instance from the player's hand.
func (c *Client) DiscardCard(ctx context.Context, gameID, playerID, cardInstanceID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/descartar", gameID), map[string]int{
		"id_jugador":              playerID,
		"id_representacion_carta": cardInstanceID,
	}, nil)
}

// RevealSecret forces the target to reveal the given secret.
func (c *Client) RevealSecret(ctx context.Context, gameID, targetID, secretID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/secretos/revelar", gameID), map[string]int{
		"id_objetivo": targetID,
		"id_secreto":  secretID,
	}, nil)
}

// HideSecret flips a revealed secret face down again.
func (c *Client) HideSecret(ctx context.Context, gameID, playerID, secretID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/secretos/ocultar", gameID), map[string]int{
		"id_jugador": playerID,
		"id_secreto": secretID,
	}, nil)
}

// RobSecret steals a revealed secret from the target.
func (c *Client) RobSecret(ctx context.Context, gameID, playerID, targetID, secretID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/secretos/robar", gameID), map[string]int{
		"id_jugador":  playerID,
		"id_objetivo": targetID,
		"id_secreto":  secretID,
	}, nil)
}

// PlayNotSoFast counters the currently pending action.
func (c *Client) PlayNotSoFast(ctx context.Context, gameID, playerID, cardInstanceID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/responder", gameID), map[string]int{
		"id_jugador":              playerID,
		"id_representacion_carta": cardInstanceID,
	}, nil)
}

// IniciarAccion proposes a cancelable action. The server echoes it to every
// client as an accion-en-progreso event; nothing is applied locally here.
func (c *Client) IniciarAccion(ctx context.Context, gameID, actorID int, req InitiateRequest) error {
	body := struct {
		ActorID int `json:"actorId"`
		InitiateRequest
	}{ActorID: actorID, InitiateRequest: req}
	return c.post(ctx, fmt.Sprintf("/partidas/%d/acciones", gameID), body, nil)
}

// ResolverAccion asks the server to close the cancellation window of the
// pending action and reports its decision.
func (c *Client) ResolverAccion(ctx context.Context, gameID int) (ResolveResult, error) {
	var res ResolveResult
	err := c.post(ctx, fmt.Sprintf("/partidas/%d/acciones/resolver", gameID), nil, &res)
	return res, err
}

// PlayAnotherVictim performs the Otra Víctima effect.
func (c *Client) PlayAnotherVictim(ctx context.Context, gameID, actorID, cardTypeID int, p types.ActionPayload) error {
	body := struct {
		ActorID    int                 `json:"actorId"`
		CardTypeID int                 `json:"cardTypeId"`
		Payload    types.ActionPayload `json:"payload"`
	}{actorID, cardTypeID, p}
	return c.post(ctx, fmt.Sprintf("/partidas/%d/eventos/otra-victima", gameID), body, nil)
}

// PlayAriadneOliver performs the first half of the Ariadne effect.
func (c *Client) PlayAriadneOliver(ctx context.Context, gameID, actorID, cardInstanceID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/eventos/ariadne", gameID), map[string]int{
		"actorId":                 actorID,
		"id_representacion_carta": cardInstanceID,
	}, nil)
}

// RequestTargetToRevealSecret performs the second half of the Ariadne
// effect: the target must choose a secret to reveal.
func (c *Client) RequestTargetToRevealSecret(ctx context.Context, gameID, targetID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/secretos/solicitar-revelacion", gameID), map[string]int{
		"id_objetivo": targetID,
	}, nil)
}

// PlayOneMore performs the Uno Más effect.
func (c *Client) PlayOneMore(ctx context.Context, gameID, actorID, cardTypeID int, p types.ActionPayload) error {
	body := struct {
		ActorID    int                 `json:"actorId"`
		CardTypeID int                 `json:"cardTypeId"`
		Payload    types.ActionPayload `json:"payload"`
	}{actorID, cardTypeID, p}
	return c.post(ctx, fmt.Sprintf("/partidas/%d/eventos/uno-mas", gameID), body, nil)
}

// PlayEarlyTrainToPaddington performs the Tren Matutino effect.
func (c *Client) PlayEarlyTrainToPaddington(ctx context.Context, gameID, actorID, cardTypeID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/eventos/tren-matutino", gameID), map[string]int{
		"actorId":    actorID,
		"cardTypeId": cardTypeID,
	}, nil)
}

// PlayDelayEscape performs the Retrasar la Huida effect for the given
// number of cards.
func (c *Client) PlayDelayEscape(ctx context.Context, gameID, actorID, cardTypeID, quantity int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/eventos/retrasar-huida", gameID), map[string]int{
		"actorId":    actorID,
		"cardTypeId": cardTypeID,
		"cantidad":   quantity,
	}, nil)
}

// PlayDetectiveSet lays down a validated detective set.
func (c *Client) PlayDetectiveSet(ctx context.Context, gameID, actorID int, setCards []int) error {
	body := struct {
		ActorID  int   `json:"actorId"`
		SetCards []int `json:"set_cartas"`
	}{actorID, setCards}
	return c.post(ctx, fmt.Sprintf("/partidas/%d/sets", gameID), body, nil)
}

// AgregarCartaASet adds one card instance to an existing set on the table.
func (c *Client) AgregarCartaASet(ctx context.Context, gameID, actorID, setCardID, cardInstanceID int) error {
	return c.post(ctx, fmt.Sprintf("/partidas/%d/sets/agregar", gameID), map[string]int{
		"actorId":                 actorID,
		"representacion_id_carta": setCardID,
		"id_representacion_carta": cardInstanceID,
	}, nil)
}
