package lookup

import (
	"strings"

	"github.com/rtr46/hoverdict/deconjugate"
	"github.com/rtr46/hoverdict/dictionary"
)

// isKanaOnly reports whether s contains no CJK Unified Ideographs
// (U+4E00..U+9FAF) — the source's definition of "kana-only".
func isKanaOnly(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FAF {
			return false
		}
	}
	return true
}

// miscTags returns the union of every raw sense's misc flags, with the
// JMdict entity-reference wrapping ("&uk;" -> "uk") stripped.
func miscTags(e *dictionary.Entry) map[string]bool {
	tags := map[string]bool{}
	for _, s := range e.RawSense {
		for _, m := range s.Misc {
			tags[strings.Trim(m, "&;")] = true
		}
	}
	return tags
}

func prefersKana(tags map[string]bool) bool  { return tags["uk"] || tags["ek"] }
func prefersKanji(tags map[string]bool) bool { return tags["uK"] || tags["eK"] }

// isIrregular reports whether the chosen (writing, reading) pair is
// flagged irregular/outdated/old via inf tags on the matching r_ele or
// k_ele.
func isIrregular(e *dictionary.Entry, reading, writing string) bool {
	for _, r := range e.RawREle {
		if r.Reb != reading {
			continue
		}
		for _, inf := range r.Inf {
			switch strings.Trim(inf, "&;") {
			case "ik", "ok", "io":
				return true
			}
		}
	}
	for _, k := range e.RawKEle {
		if k.Keb != writing {
			continue
		}
		for _, inf := range k.Inf {
			switch strings.Trim(inf, "&;") {
			case "iK", "oK":
				return true
			}
		}
	}
	return false
}

// hasPriorityFlag reports whether any writing or reading carries a
// JMdict "pri" flag (news/ichi/spec/gai frequency markers).
func hasPriorityFlag(e *dictionary.Entry) bool {
	for _, k := range e.RawKEle {
		if len(k.Pri) > 0 {
			return true
		}
	}
	for _, r := range e.RawREle {
		if len(r.Pri) > 0 {
			return true
		}
	}
	return false
}

// allSensesHaveAnyTag reports whether every sense carries at least one
// of the given misc tags (used to detect "every sense is obsolete/rare").
func allSensesHaveAnyTag(e *dictionary.Entry, tags map[string]bool) bool {
	if len(e.RawSense) == 0 {
		return false
	}
	for _, s := range e.RawSense {
		found := false
		for _, m := range s.Misc {
			if tags[strings.Trim(m, "&;")] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var obsoleteTags = map[string]bool{"obs": true, "rare": true, "obsc": true}

// calculatePriority implements spec.md's §4.2 priority formula for one
// candidate (entry, form, matchLen) against the original lookup string
// and the chosen display pair (written, reading).
func calculatePriority(e *dictionary.Entry, form deconjugate.Form, matchLen int, originalLookup, written, reading string, priorityMap map[dictionary.PriorityKey]int) float64 {
	originalIsKana := isKanaOnly(originalLookup)

	priority := float64(e.ID) / -1e7
	priority += float64(matchLen)

	if originalIsKana && len(e.Kebs) == 0 && len(form.Process) == 0 {
		priority += 100
	}

	tags := miscTags(e)
	if originalIsKana {
		if prefersKana(tags) {
			priority += 10
		}
		if prefersKanji(tags) {
			priority -= 12
		}
	} else {
		if prefersKana(tags) {
			priority -= 10
		}
		if prefersKanji(tags) {
			priority += 12
		}
	}

	if isIrregular(e, reading, written) {
		priority -= 50
	}
	if hasPriorityFlag(e) {
		priority += 30
	}
	if allSensesHaveAnyTag(e, obsoleteTags) {
		priority -= 5
	}
	if len(e.Senses) >= 3 {
		priority += 3
	}

	bonusReading := priorityMap[dictionary.PriorityKey{Written: "", Reading: reading}]
	bonusWritten := 0
	if written != "" {
		bonusWritten = priorityMap[dictionary.PriorityKey{Written: written, Reading: reading}]
	}
	bonus := bonusReading
	if bonusWritten > bonus {
		bonus = bonusWritten
	}
	priority += float64(bonus)

	priority -= float64(len(form.Process))
	return priority
}
