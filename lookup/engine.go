// Package lookup implements the dictionary search stage: prefix
// deconjugation, index lookup, part-of-speech and "usually kana"
// filtering, priority ranking, and an LRU result cache.
package lookup

import (
	"sort"
	"strings"

	"github.com/rtr46/hoverdict/deconjugate"
	"github.com/rtr46/hoverdict/dictionary"
	"github.com/rtr46/hoverdict/model"
)

// MaxResults is the hard cap on results returned by Lookup.
const MaxResults = 10

// cacheCapacity is the LRU cache's entry capacity.
const cacheCapacity = 500

// separatorCutset holds the punctuation the preprocessing step
// truncates the input at: ASCII and Japanese brackets, CJK
// punctuation, common math operators, and "!"/"?". Truncating here
// keeps the lookup string to "one word's worth" of text even when the
// hit-scan suffix runs into the next sentence.
const separatorCutset = "()[]{}「」『』【】（）〔〕《》〈〉、。・…!?！？+-*/=×÷"

// candidate is one (entry, form, match_len) triple surviving the
// search phase, not yet merged or ranked.
type candidate struct {
	entry    *dictionary.Entry
	form     deconjugate.Form
	matchLen int
}

// Engine searches a compiled dictionary.Artifact.
type Engine struct {
	artifact    *dictionary.Artifact
	deconjugate *deconjugate.Engine
	cache       *lruCache
}

// NewEngine builds an Engine over a loaded artifact.
func NewEngine(artifact *dictionary.Artifact) *Engine {
	return &Engine{
		artifact:    artifact,
		deconjugate: deconjugate.NewEngine(artifact.Rules),
		cache:       newLRUCache(cacheCapacity),
	}
}

// Lookup searches for s, truncated to maxLookupLength characters (and
// to the first separator in separatorCutset, whichever comes first),
// returning at most MaxResults entries ranked per spec.md §4.2.
func (e *Engine) Lookup(s string, maxLookupLength int) []model.DictionaryEntryResult {
	truncated := preprocess(s, maxLookupLength)
	if truncated == "" {
		return nil
	}

	if cached, ok := e.cache.get(truncated); ok {
		return cached
	}

	results := e.search(truncated)
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	e.cache.put(truncated, results)
	return results
}

// preprocess trims s, truncates at the first separator, then further
// truncates to maxLookupLength runes.
func preprocess(s string, maxLookupLength int) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexAny(s, separatorCutset); idx >= 0 {
		s = s[:idx]
	}
	runes := []rune(s)
	if maxLookupLength > 0 && len(runes) > maxLookupLength {
		runes = runes[:maxLookupLength]
	}
	return string(runes)
}

// search performs the prefix/deconjugation/index scan and returns
// merged, sorted results (not yet capped to MaxResults).
func (e *Engine) search(truncated string) []model.DictionaryEntryResult {
	runes := []rune(truncated)
	originalIsKana := isKanaOnly(truncated)

	found := map[int]candidate{}

	for i := len(runes); i >= 1; i-- {
		prefix := string(runes[:i])
		primaryFound := len(found) > 0

		forms := e.deconjugate.Deconjugate(prefix)
		forms = append(forms, deconjugate.Form{Text: prefix})

		for _, form := range forms {
			var indices []int
			if isKanaOnly(form.Text) {
				indices = e.artifact.LookupKana[form.Text]
			} else {
				indices = e.artifact.LookupKan[form.Text]
			}

			if primaryFound && originalIsKana {
				indices = filterUsuallyKana(e.artifact, indices)
			}

			for _, idx := range dedupInts(indices) {
				entry := &e.artifact.Entries[idx]
				if len(form.Tags) > 0 && len(entry.Senses) > 0 {
					lastTag := form.Tags[len(form.Tags)-1]
					if !anySenseHasPOS(entry, lastTag) {
						continue
					}
				}
				if _, seen := found[entry.ID]; !seen {
					found[entry.ID] = candidate{entry: entry, form: form, matchLen: i}
				}
			}
		}
	}

	return formatAndSort(found, truncated, e.artifact.Priority)
}

// filterUsuallyKana keeps only entries with no kanji writings, or
// flagged "usually/exclusively kana" — the secondary-prefix filter
// spec.md §4.2 applies once a longer prefix has already matched.
func filterUsuallyKana(art *dictionary.Artifact, indices []int) []int {
	var out []int
	for _, idx := range indices {
		entry := &art.Entries[idx]
		tags := miscTags(entry)
		if len(entry.Kebs) == 0 || prefersKana(tags) {
			out = append(out, idx)
		}
	}
	return out
}

func anySenseHasPOS(entry *dictionary.Entry, tag string) bool {
	for _, s := range entry.Senses {
		for _, p := range s.POS {
			if p == tag {
				return true
			}
		}
	}
	return false
}

func dedupInts(in []int) []int {
	if len(in) < 2 {
		return in
	}
	seen := make(map[int]bool, len(in))
	out := in[:0:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// mergeKey identifies a display row by its (written_form, reading) pair.
type mergeKey struct {
	written string
	reading string
}

// formatAndSort chooses (written, reading) for each candidate, scores
// it, merges candidates that land on the same display pair, and sorts
// by (match_len desc, priority desc).
func formatAndSort(found map[int]candidate, original string, priorityMap map[dictionary.PriorityKey]int) []model.DictionaryEntryResult {
	merged := map[mergeKey]*model.DictionaryEntryResult{}
	priorities := map[mergeKey]float64{}

	for _, c := range found {
		written, reading := chooseWrittenAndReading(c.entry, c.form)
		priority := calculatePriority(c.entry, c.form, c.matchLen, original, written, reading, priorityMap)

		key := mergeKey{written: written, reading: reading}
		existing, ok := merged[key]
		if !ok {
			merged[key] = &model.DictionaryEntryResult{
				ID:          c.entry.ID,
				WrittenForm: written,
				Reading:     reading,
				Senses:      toModelSenses(c.entry.Senses),
				Tags:        mergedMiscTagList(c.entry),
				Process:     c.form.Process,
				Priority:    priority,
				MatchLen:    c.matchLen,
			}
			priorities[key] = priority
			continue
		}

		if c.matchLen > existing.MatchLen {
			existing.MatchLen = c.matchLen
		}
		if priority > priorities[key] {
			existing.ID = c.entry.ID
			existing.Process = c.form.Process
			priorities[key] = priority
			existing.Priority = priority
		}
		existing.Senses = append(existing.Senses, toModelSenses(c.entry.Senses)...)
		for _, tag := range mergedMiscTagList(c.entry) {
			if !containsStr(existing.Tags, tag) {
				existing.Tags = append(existing.Tags, tag)
			}
		}
	}

	out := make([]model.DictionaryEntryResult, 0, len(merged))
	for _, r := range merged {
		out = append(out, *r)
	}
	sortResults(out)
	return out
}

// chooseWrittenAndReading implements spec.md §4.2 "Choosing (W, R)".
func chooseWrittenAndReading(e *dictionary.Entry, form deconjugate.Form) (written, reading string) {
	if isKanaOnly(form.Text) {
		reading = form.Text
		if prefersKana(miscTags(e)) {
			return reading, reading
		}
		var restr []string
		for _, r := range e.RawREle {
			if r.Reb == reading {
				restr = r.Restr
				break
			}
		}
		for _, k := range e.RawKEle {
			if len(restr) == 0 || containsStr(restr, k.Keb) {
				written = k.Keb
				break
			}
		}
		if written == "" && len(e.Kebs) > 0 {
			written = e.Kebs[0]
		}
		return written, reading
	}

	written = form.Text
	for _, r := range e.RawREle {
		if len(r.Restr) == 0 || containsStr(r.Restr, written) {
			reading = r.Reb
			break
		}
	}
	if reading == "" && len(e.Rebs) > 0 {
		reading = e.Rebs[0]
	}
	return written, reading
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func toModelSenses(senses []dictionary.Sense) []model.Sense {
	out := make([]model.Sense, len(senses))
	for i, s := range senses {
		out[i] = model.Sense{Glosses: s.Glosses, POS: s.POS}
	}
	return out
}

func mergedMiscTagList(e *dictionary.Entry) []string {
	tags := miscTags(e)
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	return out
}

// sortResults orders results by match_len descending, then priority
// descending, matching spec.md's required non-increasing order.
func sortResults(results []model.DictionaryEntryResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].MatchLen != results[j].MatchLen {
			return results[i].MatchLen > results[j].MatchLen
		}
		return results[i].Priority > results[j].Priority
	})
}
