package oddsapi

// Raw payload shapes as returned by The Odds API. Optional fields are
// pointers so a missing field is a typed absence check during normalization
// rather than an implicit zero value.

// RawEvent is one event from GET /sports/{sport}/odds.
type RawEvent struct {
	ID           string         `json:"id"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	CommenceTime *string        `json:"commence_time,omitempty"`
	Bookmakers   []RawBookmaker `json:"bookmakers,omitempty"`
}

// RawEventOdds is the payload of GET /sports/{sport}/events/{id}/odds.
type RawEventOdds struct {
	ID         string         `json:"id"`
	Bookmakers []RawBookmaker `json:"bookmakers,omitempty"`
}

// RawBookmaker carries one book's markets. Title is the display name; Key is
// the upstream identifier used as a fallback display name.
type RawBookmaker struct {
	Key     *string     `json:"key,omitempty"`
	Title   *string     `json:"title,omitempty"`
	Markets []RawMarket `json:"markets,omitempty"`
}

// RawMarket is one market offered by a bookmaker.
type RawMarket struct {
	Key      *string      `json:"key,omitempty"`
	Outcomes []RawOutcome `json:"outcomes,omitempty"`
}

// RawOutcome is a single priced outcome. For moneyline markets Name is the
// team; for prop markets Name is the side, Description the player and Point
// the line value. Prices arrive as JSON numbers even in American format.
type RawOutcome struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Point       *float64 `json:"point,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// DisplayName returns the bookmaker's title, falling back to its key. Empty
// when neither is usable; such entries are skipped by the normalizer.
func (b *RawBookmaker) DisplayName() string {
	if b.Title != nil && *b.Title != "" {
		return *b.Title
	}
	if b.Key != nil {
		return *b.Key
	}
	return ""
}
