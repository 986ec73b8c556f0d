package config

// SportsConfig holds the sport alias and prop market tables. It is built
// once at startup and read-only afterwards; components receive it explicitly
// instead of reading package-level state.
type SportsConfig struct {
	Aliases     map[string]string   `mapstructure:"aliases"`
	PropMarkets map[string][]string `mapstructure:"prop_markets"`
}

// DefaultSportsConfig returns the built-in alias and prop market tables.
func DefaultSportsConfig() SportsConfig {
	return SportsConfig{
		Aliases: map[string]string{
			"nhl":    "icehockey_nhl",
			"nfl":    "americanfootball_nfl",
			"soccer": "soccer_usa_mls",
			"nba":    "basketball_nba",
			"mlb":    "baseball_mlb",
			"ufc":    "mma_mixed_martial_arts",
		},
		PropMarkets: map[string][]string{
			"americanfootball_nfl": {
				"player_pass_tds",
				"player_rush_yds",
				"player_rec_yds",
			},
			"basketball_nba": {
				"player_points",
				"player_rebounds",
				"player_assists",
			},
		},
	}
}

// ResolveSportKey resolves a user-facing alias to the canonical upstream
// sport key. Unknown keys pass through unchanged.
func (s *SportsConfig) ResolveSportKey(sportKey string) string {
	if canonical, ok := s.Aliases[sportKey]; ok {
		return canonical
	}
	return sportKey
}

// PropMarketsFor returns the configured prop market keys for a sport after
// alias resolution. Sports with no configured markets return nil.
func (s *SportsConfig) PropMarketsFor(sportKey string) []string {
	return s.PropMarkets[s.ResolveSportKey(sportKey)]
}

// withDefaults fills in the built-in tables for any section the loaded
// configuration leaves empty.
func (s SportsConfig) withDefaults() SportsConfig {
	defaults := DefaultSportsConfig()
	if len(s.Aliases) == 0 {
		s.Aliases = defaults.Aliases
	}
	if len(s.PropMarkets) == 0 {
		s.PropMarkets = defaults.PropMarkets
	}
	return s
}
