package catalog

// Kind classifies a card type for selection and play rules.
type Kind string

const (
	KindDetective Kind = "detective"
	KindEvent     Kind = "evento"
	KindSecret    Kind = "secreto"
	KindInstant   Kind = "instantanea"
)

// CardInfo is the static display metadata for a card type.
type CardInfo struct {
	Name string
	Kind Kind
}

// Well-known card type ids. Detectives occupy 1-9, events 20-29, the
// response card 30, secrets 40+.
const (
	CardPoirot        = 1
	CardMarple        = 2
	CardBeresford     = 3
	CardQuin          = 4
	CardPyne          = 5
	CardBattle        = 6
	CardOliverComodin = 7 // counts as any detective in a set

	CardAnotherVictim = 20
	CardAriadneOliver = 21
	CardOneMore       = 22
	CardDelayEscape   = 23
	CardEarlyTrain    = 24
	CardAccusation    = 25 // resolves immediately, no cancellation window

	CardNotSoFast = 30
)

var cards = map[int]CardInfo{
	CardPoirot:        {Name: "Hercule Poirot", Kind: KindDetective},
	CardMarple:        {Name: "Miss Marple", Kind: KindDetective},
	CardBeresford:     {Name: "Tommy y Tuppence", Kind: KindDetective},
	CardQuin:          {Name: "Harley Quin", Kind: KindDetective},
	CardPyne:          {Name: "Parker Pyne", Kind: KindDetective},
	CardBattle:        {Name: "Superintendente Battle", Kind: KindDetective},
	CardOliverComodin: {Name: "Ariadne Oliver", Kind: KindDetective},

	CardAnotherVictim: {Name: "Otra Víctima", Kind: KindEvent},
	CardAriadneOliver: {Name: "La Firma de Ariadne", Kind: KindEvent},
	CardOneMore:       {Name: "Uno Más", Kind: KindEvent},
	CardDelayEscape:   {Name: "Retrasar la Huida del Asesino", Kind: KindEvent},
	CardEarlyTrain:    {Name: "Tren Matutino a Paddington", Kind: KindEvent},
	CardAccusation:    {Name: "Acusación Directa", Kind: KindEvent},

	CardNotSoFast: {Name: "¡No Tan Rápido!", Kind: KindInstant},

	40: {Name: "Secreto: El Asesino", Kind: KindSecret},
	41: {Name: "Secreto: El Cómplice", Kind: KindSecret},
	42: {Name: "Secreto: Deuda de Juego", Kind: KindSecret},
	43: {Name: "Secreto: Romance Oculto", Kind: KindSecret},
	44: {Name: "Secreto: Coartada Falsa", Kind: KindSecret},
}

// Lookup returns the metadata for a card type id.
func Lookup(id int) (CardInfo, bool) {
	info, ok := cards[id]
	return info, ok
}

// DisplayName returns the card name, or a fallback for unknown ids.
func DisplayName(id int) string {
	if info, ok := cards[id]; ok {
		return info.Name
	}
	return "Carta desconocida"
}

// IsDetective reports whether the card type is a detective.
func IsDetective(id int) bool {
	info, ok := cards[id]
	return ok && info.Kind == KindDetective
}

// IsEvent reports whether the card type is an event card.
func IsEvent(id int) bool {
	info, ok := cards[id]
	return ok && info.Kind == KindEvent
}

// IsWildcard reports whether the detective card may stand in for any other
// detective when forming a set.
func IsWildcard(id int) bool {
	return id == CardOliverComodin
}
