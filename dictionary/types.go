// Package dictionary loads JMdict/Kanjidic2 source data into the
// compiled, read-only artifact the lookup engine searches: an ordered
// entry vector plus kanji-writing and kana-writing index maps, bundled
// with the deconjugation rule table and the priority bonus table.
package dictionary

import "github.com/rtr46/hoverdict/deconjugate"

// RawKanjiElement is one JMdict k_ele: a kanji writing plus its
// priority flags and irregularity/out-dated info flags.
type RawKanjiElement struct {
	Keb string   `json:"keb"`
	Pri []string `json:"pri,omitempty"`
	Inf []string `json:"inf,omitempty"`
}

// RawReadingElement is one JMdict r_ele: a reading plus its priority
// flags, info flags, and the set of kebs it's restricted to (empty
// means "pairs with any keb").
type RawReadingElement struct {
	Reb   string   `json:"reb"`
	Pri   []string `json:"pri,omitempty"`
	Inf   []string `json:"inf,omitempty"`
	Restr []string `json:"restr,omitempty"`
}

// RawSense is one JMdict sense as it appears on the wire: pos is absent
// on continuation senses and is inherited from the previous sense when
// the entry is compiled; misc is kept as given and not inherited.
type RawSense struct {
	POS   []string `json:"pos,omitempty"`
	Misc  []string `json:"misc,omitempty"`
	Gloss []string `json:"gloss,omitempty"`
	Restr []string `json:"restr,omitempty"`
}

// RawEntry is one JMdict entry exactly as it appears in a source JSON
// shard.
type RawEntry struct {
	Seq   int                 `json:"seq"`
	KEle  []RawKanjiElement   `json:"k_ele,omitempty"`
	REle  []RawReadingElement `json:"r_ele,omitempty"`
	Sense []RawSense          `json:"sense,omitempty"`
}

// Sense is a processed JMdict sense: glosses plus its part-of-speech
// tags normalized (leading '&' and trailing ';' stripped, inherited
// from the previous sense when the source entry omitted them).
type Sense struct {
	Glosses []string `json:"glosses"`
	POS     []string `json:"pos,omitempty"`
}

// Entry is a compiled dictionary entry: the processed writings and
// senses used for display, plus the retained raw element lists the
// priority scorer needs (restriction sets, priority flags, misc tags,
// irregularity info).
type Entry struct {
	ID       int
	Kebs     []string
	Rebs     []string
	Senses   []Sense
	RawKEle  []RawKanjiElement
	RawREle  []RawReadingElement
	RawSense []RawSense
}

// PriorityKey is a (written_form_or_empty, reading) pair used to key
// the priority bonus map. A Written of "" matches any writing paired
// with Reading.
type PriorityKey struct {
	Written string
	Reading string
}

// KanjiEntry is one kanjidic2 character record: optional collaborator
// carried through build/load but not consulted by the core lookup
// path.
type KanjiEntry struct {
	Literal     string
	OnYomi      []string
	KunYomi     []string
	Meanings    []string
	StrokeCount int
	JLPT        int
	Grade       int
	Frequency   int
}

// Artifact is the compiled, read-only dictionary: everything the
// lookup engine needs, loaded once at process start and never mutated.
type Artifact struct {
	Entries    []Entry
	LookupKan  map[string][]int
	LookupKana map[string][]int
	Rules      []deconjugate.Rule
	Priority   map[PriorityKey]int
	Kanji      map[string]KanjiEntry
}
