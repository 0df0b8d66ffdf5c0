package state

import (
	"sync"

	"go.uber.org/zap"

	"github.com/deathcards/tableclient/pkg/types"
)

// Phase is the current turn phase as reported by the server.
type Phase string

const (
	PhaseIdle    Phase = "espera"
	PhaseDraw    Phase = "robar"
	PhaseAction  Phase = "accion"
	PhaseDiscard Phase = "descartar"
)

// Snapshot is a copy-out view of the store plus its derived flags.
type Snapshot struct {
	LocalPlayerID int           `json:"localPlayerId"`
	Hand          []types.Card  `json:"hand"`
	TurnPlayerID  int           `json:"turnPlayerId"`
	Phase         Phase         `json:"phase"`
	Selected      []int         `json:"selected"`
	SecretCounts  map[int]int   `json:"secretCounts"`
	ResultBanner  string        `json:"resultBanner,omitempty"`
	Alert         string        `json:"alert,omitempty"`
	OpenModal     string        `json:"openModal,omitempty"`
	IsMyTurn      bool          `json:"isMyTurn"`
	CanDiscard    bool          `json:"canDiscard"`
	CanPlay       bool          `json:"canPlay"`
}

// Store is the single source of truth for everything the UI observes about
// the game. Mutations go through methods only; reads go through Snapshot.
type Store struct {
	mu            sync.Mutex
	log           *zap.Logger
	localPlayerID int
	hand          []types.Card
	turnPlayerID  int
	phase         Phase
	selected      map[int]struct{}
	secretCounts  map[int]int
	resultBanner  string
	alert         string
	openModal     string
	listeners     []func()
}

// New builds an empty store bound to the local player id.
func New(localPlayerID int, log *zap.Logger) *Store {
	return &Store{
		log:           log,
		localPlayerID: localPlayerID,
		phase:         PhaseIdle,
		selected:      make(map[int]struct{}),
		secretCounts:  make(map[int]int),
	}
}

// Subscribe registers a change listener, fired after every mutation.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), len(s.listeners))
	copy(fns, s.listeners)
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// SetHand replaces the local hand. Selections pointing at cards no longer
// in the hand are dropped.
func (s *Store) SetHand(cards []types.Card) {
	s.mu.Lock()
	s.hand = append([]types.Card(nil), cards...)
	present := make(map[int]struct{}, len(cards))
	for _, c := range cards {
		present[c.InstanceID] = struct{}{}
	}
	for id := range s.selected {
		if _, ok := present[id]; !ok {
			delete(s.selected, id)
		}
	}
	s.mu.Unlock()
	s.notify()
}

// RemoveFromHand drops the given card instances, used for the optimistic
// update of non-cancelable effects.
func (s *Store) RemoveFromHand(instanceIDs ...int) {
	drop := make(map[int]struct{}, len(instanceIDs))
	for _, id := range instanceIDs {
		drop[id] = struct{}{}
	}
	s.mu.Lock()
	kept := s.hand[:0]
	for _, c := range s.hand {
		if _, gone := drop[c.InstanceID]; !gone {
			kept = append(kept, c)
		}
	}
	s.hand = kept
	for id := range drop {
		delete(s.selected, id)
	}
	s.mu.Unlock()
	s.notify()
}

// SetTurn records whose turn it is and the phase within it.
func (s *Store) SetTurn(playerID int, phase Phase) {
	s.mu.Lock()
	s.turnPlayerID = playerID
	s.phase = phase
	s.mu.Unlock()
	s.notify()
}

// ToggleSelect flips the selection state of one card instance. Unknown
// instances are ignored.
func (s *Store) ToggleSelect(instanceID int) {
	s.mu.Lock()
	inHand := false
	for _, c := range s.hand {
		if c.InstanceID == instanceID {
			inHand = true
			break
		}
	}
	if !inHand {
		s.mu.Unlock()
		s.log.Debug("selección de carta fuera de la mano", zap.Int("id", instanceID))
		return
	}
	if _, ok := s.selected[instanceID]; ok {
		delete(s.selected, instanceID)
	} else {
		s.selected[instanceID] = struct{}{}
	}
	s.mu.Unlock()
	s.notify()
}

// ClearSelection drops every selected card.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[int]struct{})
	s.mu.Unlock()
	s.notify()
}

// SelectedCards returns the selected card instances in hand order.
func (s *Store) SelectedCards() []types.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Card, 0, len(s.selected))
	for _, c := range s.hand {
		if _, ok := s.selected[c.InstanceID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// SetSecretCount records how many face-down secrets a player holds.
func (s *Store) SetSecretCount(playerID, count int) {
	s.mu.Lock()
	s.secretCounts[playerID] = count
	s.mu.Unlock()
	s.notify()
}

// SetResultBanner shows the latest resolution message. Last write wins.
func (s *Store) SetResultBanner(msg string) {
	s.mu.Lock()
	s.resultBanner = msg
	s.mu.Unlock()
	s.notify()
}

// SetAlert records a user-facing failure message.
func (s *Store) SetAlert(msg string) {
	s.mu.Lock()
	s.alert = msg
	s.mu.Unlock()
	s.notify()
}

// OpenModal marks the named modal as visible; empty closes it.
func (s *Store) OpenModal(name string) {
	s.mu.Lock()
	s.openModal = name
	s.mu.Unlock()
	s.notify()
}

// Snapshot copies the store and computes the derived flags.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := make([]int, 0, len(s.selected))
	for _, c := range s.hand {
		if _, ok := s.selected[c.InstanceID]; ok {
			selected = append(selected, c.InstanceID)
		}
	}
	counts := make(map[int]int, len(s.secretCounts))
	for id, n := range s.secretCounts {
		counts[id] = n
	}

	isMyTurn := s.turnPlayerID != 0 && s.turnPlayerID == s.localPlayerID
	return Snapshot{
		LocalPlayerID: s.localPlayerID,
		Hand:          append([]types.Card(nil), s.hand...),
		TurnPlayerID:  s.turnPlayerID,
		Phase:         s.phase,
		Selected:      selected,
		SecretCounts:  counts,
		ResultBanner:  s.resultBanner,
		Alert:         s.alert,
		OpenModal:     s.openModal,
		IsMyTurn:      isMyTurn,
		CanDiscard:    isMyTurn && s.phase == PhaseDiscard && len(selected) == 1,
		CanPlay:       isMyTurn && s.phase == PhaseAction && len(selected) > 0,
	}
}
