package dictionary

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rtr46/hoverdict/deconjugate"
	"github.com/rtr46/hoverdict/logger"
)

// BuildReport summarizes one Build call: how much went in and how long
// it took, for the build tool to print and/or persist via logger.LogJSON.
type BuildReport struct {
	EntryCount    int           `json:"entry_count"`
	RuleCount     int           `json:"rule_count"`
	PriorityCount int           `json:"priority_count"`
	KanjiCount    int           `json:"kanji_count"`
	Duration      time.Duration `json:"duration"`
}

// Build reads JMdict JSON shards (sorted lexicographically by
// filename, per the source ordering invariant), a deconjugator rule
// JSON file, a priority JSON file, and optionally a kanjidic2 XML file,
// and compiles them into an Artifact ready to Save. When logDir is
// non-empty, the resulting BuildReport is also persisted to
// "<logDir>/build-report.json" via logger.LogJSON for offline
// inspection; a dump failure is logged but does not fail the build.
func Build(jmdictPaths []string, rulePath, priorityPath, kanjidic2Path, logDir string) (*Artifact, BuildReport, error) {
	start := time.Now()

	shards := append([]string(nil), jmdictPaths...)
	sort.Strings(shards)

	art := &Artifact{
		LookupKan:  map[string][]int{},
		LookupKana: map[string][]int{},
		Priority:   map[PriorityKey]int{},
		Kanji:      map[string]KanjiEntry{},
	}

	for _, path := range shards {
		raw, err := readRawEntries(path)
		if err != nil {
			return nil, BuildReport{}, fmt.Errorf("reading JMdict shard %s: %w", path, err)
		}
		for _, re := range raw {
			entry, ok := convertEntry(re)
			if !ok {
				continue
			}
			idx := len(art.Entries)
			art.Entries = append(art.Entries, entry)
			for _, keb := range entry.Kebs {
				art.LookupKan[keb] = append(art.LookupKan[keb], idx)
			}
			for _, reb := range entry.Rebs {
				art.LookupKana[reb] = append(art.LookupKana[reb], idx)
			}
		}
	}

	rules, err := readRules(rulePath)
	if err != nil {
		return nil, BuildReport{}, fmt.Errorf("reading deconjugator rules %s: %w", rulePath, err)
	}
	art.Rules = rules

	priority, err := readPriority(priorityPath)
	if err != nil {
		return nil, BuildReport{}, fmt.Errorf("reading priority map %s: %w", priorityPath, err)
	}
	art.Priority = priority

	if kanjidic2Path != "" {
		kanji, err := readKanjidic2(kanjidic2Path)
		if err != nil {
			return nil, BuildReport{}, fmt.Errorf("reading kanjidic2 %s: %w", kanjidic2Path, err)
		}
		art.Kanji = kanji
	}

	report := BuildReport{
		EntryCount:    len(art.Entries),
		RuleCount:     len(art.Rules),
		PriorityCount: len(art.Priority),
		KanjiCount:    len(art.Kanji),
		Duration:      time.Since(start),
	}
	logger.Log.Info().
		Int("entries", report.EntryCount).
		Int("rules", report.RuleCount).
		Int("priority_entries", report.PriorityCount).
		Int("kanji", report.KanjiCount).
		Dur("duration", report.Duration).
		Msg("dictionary build complete")

	if logDir != "" {
		if err := logger.LogJSON(logDir, "build-report", report); err != nil {
			logger.Log.Error().Err(err).Msg("failed to persist build report")
		}
	}

	return art, report, nil
}

func readRawEntries(path string) ([]RawEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []RawEntry
	dec := json.NewDecoder(f)
	if err := dec.Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// convertEntry normalizes one raw JMdict entry into a compiled Entry,
// dropping entries with no writings or no non-empty senses. Senses
// missing pos inherit the previous sense's pos (JMdict's
// continuation-sense convention).
func convertEntry(re RawEntry) (Entry, bool) {
	var kebs, rebs []string
	for _, k := range re.KEle {
		kebs = append(kebs, k.Keb)
	}
	for _, r := range re.REle {
		rebs = append(rebs, r.Reb)
	}
	if len(kebs) == 0 && len(rebs) == 0 {
		return Entry{}, false
	}

	var senses []Sense
	var lastPOS []string
	for _, s := range re.Sense {
		if len(s.Gloss) == 0 {
			continue
		}
		pos := s.POS
		if len(pos) == 0 {
			pos = lastPOS
		}
		lastPOS = pos
		senses = append(senses, Sense{
			Glosses: s.Gloss,
			POS:     normalizeTags(pos),
		})
	}
	if len(senses) == 0 {
		return Entry{}, false
	}

	return Entry{
		ID:       re.Seq,
		Kebs:     kebs,
		Rebs:     rebs,
		Senses:   senses,
		RawKEle:  re.KEle,
		RawREle:  re.REle,
		RawSense: re.Sense,
	}, true
}

// normalizeTags strips the leading '&' and trailing ';' JMdict wraps
// entity-reference tags in (e.g. "&v1;" -> "v1").
func normalizeTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.Trim(t, "&;")
	}
	return out
}

// readRules decodes a JSON array of deconjugator rules, silently
// skipping any element that isn't a well-formed rule object — the
// source format permits stray non-object elements in the rule array.
func readRules(path string) ([]deconjugate.Rule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw []json.RawMessage
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, err
	}

	rules := make([]deconjugate.Rule, 0, len(raw))
	for _, r := range raw {
		if t := bytes.TrimSpace(r); len(t) == 0 || t[0] != '{' {
			continue
		}
		var rule deconjugate.Rule
		if err := json.Unmarshal(r, &rule); err != nil {
			continue
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// readPriority decodes a JSON array of [written, reading, bonus] triples.
func readPriority(path string) (map[PriorityKey]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raw [][]json.RawMessage
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return nil, err
	}

	out := make(map[PriorityKey]int, len(raw))
	for _, triple := range raw {
		if len(triple) != 3 {
			continue
		}
		var written, reading string
		var bonus int
		if err := json.Unmarshal(triple[0], &written); err != nil {
			continue
		}
		if err := json.Unmarshal(triple[1], &reading); err != nil {
			continue
		}
		if err := json.Unmarshal(triple[2], &bonus); err != nil {
			continue
		}
		out[PriorityKey{Written: written, Reading: reading}] = bonus
	}
	return out, nil
}

// kanjidic2Character mirrors just the elements of a kanjidic2
// <character> block this package cares about.
type kanjidic2Character struct {
	Literal string `xml:"literal"`
	Misc    struct {
		Grade       int   `xml:"grade"`
		StrokeCount []int `xml:"stroke_count"`
		Freq        int   `xml:"freq"`
		JLPT        int   `xml:"jlpt"`
	} `xml:"misc"`
	ReadingMeaning struct {
		RMGroup []struct {
			Reading []struct {
				Value string `xml:",chardata"`
				Type  string `xml:"r_type,attr"`
			} `xml:"reading"`
			Meaning []struct {
				Value string `xml:",chardata"`
				Lang  string `xml:"m_lang,attr"`
			} `xml:"meaning"`
		} `xml:"rmgroup"`
	} `xml:"reading_meaning"`
}

// readKanjidic2 streams kanjidic2.xml and extracts one KanjiEntry per
// <character> element, keyed by its literal.
func readKanjidic2(path string) (map[string]KanjiEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := map[string]KanjiEntry{}
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "character" {
			continue
		}
		var c kanjidic2Character
		if err := dec.DecodeElement(&c, &se); err != nil {
			continue
		}
		if utf8.RuneCountInString(c.Literal) != 1 {
			continue
		}

		entry := KanjiEntry{
			Literal:     c.Literal,
			StrokeCount: firstOr(c.Misc.StrokeCount, 0),
			JLPT:        c.Misc.JLPT,
			Grade:       c.Misc.Grade,
			Frequency:   c.Misc.Freq,
		}
		for _, group := range c.ReadingMeaning.RMGroup {
			for _, r := range group.Reading {
				switch r.Type {
				case "ja_on":
					entry.OnYomi = append(entry.OnYomi, r.Value)
				case "ja_kun":
					entry.KunYomi = append(entry.KunYomi, r.Value)
				}
			}
			for _, m := range group.Meaning {
				if m.Lang == "" {
					entry.Meanings = append(entry.Meanings, m.Value)
				}
			}
		}
		out[entry.Literal] = entry
	}
	return out, nil
}

func firstOr(vals []int, def int) int {
	if len(vals) == 0 {
		return def
	}
	return vals[0]
}
