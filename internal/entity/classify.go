package entity

import (
	"regexp"

	"github.com/nao1215/wikienrich/internal/model"
)

// signal is one piece of evidence that a page describes an entity type.
type signal struct {
	entity  model.EntityType
	pattern *regexp.Regexp
}

// signals is the classification rule table. Each matching pattern adds one
// point to its type. Category tags and infobox template names are the
// evidence a page carries about its subject.
var signals = []signal{
	// artist
	{model.EntityArtist, regexp.MustCompile(`(?i)\[\[Category:[^\]]*\b(musicians|singers|bands|rappers|musical groups|music artists)\b`)},
	{model.EntityArtist, regexp.MustCompile(`(?i)\{\{Infobox\s+(musical artist|band|musician|singer)`)},
	{model.EntityArtist, regexp.MustCompile(`(?i)\[\[Category:[^\]]*\b(rock bands|pop singers|hip hop|jazz|classical music)\b`)},

	// venue
	{model.EntityVenue, regexp.MustCompile(`(?i)\[\[Category:[^\]]*\b(music venues|concert halls|stadiums|arenas|amphitheatres)\b`)},
	{model.EntityVenue, regexp.MustCompile(`(?i)\{\{Infobox\s+(venue|stadium|arena)`)},
	{model.EntityVenue, regexp.MustCompile(`(?i)\[\[Category:[^\]]*\b(buildings and structures|entertainment venues)\b`)},

	// city
	{model.EntityCity, regexp.MustCompile(`(?i)\[\[Category:[^\]]*\b(cities|towns|municipalities|populated places)\b`)},
	{model.EntityCity, regexp.MustCompile(`(?i)\{\{Infobox\s+(settlement|city|town)`)},
	{model.EntityCity, regexp.MustCompile(`(?i)\[\[Category:[^\]]*\b(capitals|county seats)\b`)},

	// country
	{model.EntityCountry, regexp.MustCompile(`(?i)\[\[Category:[^\]]*\b(countries|sovereign states|member states)\b`)},
	{model.EntityCountry, regexp.MustCompile(`(?i)\{\{Infobox\s+country`)},
}

// tieBreakOrder decides between types with equal scores: the earlier type wins.
var tieBreakOrder = []model.EntityType{
	model.EntityCountry,
	model.EntityCity,
	model.EntityVenue,
	model.EntityArtist,
}

// Classify reports which entity type the page markup describes. It returns
// EntityUnknown and false when no signal matches.
// Equal scores are settled by tieBreakOrder.
func Classify(text string) (model.EntityType, bool) {
	scores := Scores(text)

	best, bestScore := model.EntityUnknown, 0
	for _, t := range tieBreakOrder {
		if scores[t] > bestScore {
			best, bestScore = t, scores[t]
		}
	}
	return best, bestScore > 0
}

// Scores returns the number of matching signals per entity type. Types with
// no match are absent from the map.
func Scores(text string) map[model.EntityType]int {
	scores := make(map[model.EntityType]int, len(tieBreakOrder))
	for _, s := range signals {
		if s.pattern.MatchString(text) {
			scores[s.entity]++
		}
	}
	return scores
}
