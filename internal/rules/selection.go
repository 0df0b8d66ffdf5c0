package rules

import (
	"errors"

	"github.com/deathcards/tableclient/internal/catalog"
	"github.com/deathcards/tableclient/pkg/types"
)

var ErrEmptySelection = errors.New("no hay cartas seleccionadas")
var ErrMixedSelection = errors.New("no se pueden mezclar detectives y eventos")
var ErrMultipleEvents = errors.New("solo se puede jugar un evento a la vez")
var ErrSetSize = errors.New("un set de detectives necesita 2 o 3 cartas")
var ErrInvalidSet = errors.New("los detectives del set no coinciden")
var ErrUnplayableCard = errors.New("la carta seleccionada no se puede jugar")

// PlayMode is the shape of a validated selection.
type PlayMode string

const (
	ModeEvent        PlayMode = "evento"
	ModeDetectiveSet PlayMode = "set_detective"
)

// ClassifySelection validates a selection and reports how it can be played:
// exactly one event card, or 2-3 detectives forming a valid set.
func ClassifySelection(cards []types.Card) (PlayMode, error) {
	if len(cards) == 0 {
		return "", ErrEmptySelection
	}

	detectives := 0
	events := 0
	for _, c := range cards {
		switch {
		case catalog.IsDetective(c.TypeID):
			detectives++
		case catalog.IsEvent(c.TypeID):
			events++
		default:
			return "", ErrUnplayableCard
		}
	}

	if detectives > 0 && events > 0 {
		return "", ErrMixedSelection
	}

	if events > 0 {
		if events > 1 {
			return "", ErrMultipleEvents
		}
		return ModeEvent, nil
	}

	if detectives < 2 || detectives > 3 {
		return "", ErrSetSize
	}
	typeIDs := make([]int, len(cards))
	for i, c := range cards {
		typeIDs[i] = c.TypeID
	}
	if !ValidDetectiveSet(typeIDs) {
		return "", ErrInvalidSet
	}
	return ModeDetectiveSet, nil
}

// ValidDetectiveSet reports whether 2-3 detective type ids form a playable
// set: all the same detective, with wildcards standing in for any. A set of
// only wildcards is not playable.
func ValidDetectiveSet(typeIDs []int) bool {
	if len(typeIDs) < 2 || len(typeIDs) > 3 {
		return false
	}
	base := 0
	for _, id := range typeIDs {
		if !catalog.IsDetective(id) {
			return false
		}
		if catalog.IsWildcard(id) {
			continue
		}
		if base == 0 {
			base = id
			continue
		}
		if id != base {
			return false
		}
	}
	return base != 0
}
