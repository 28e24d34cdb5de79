// Package deconjugate expands a surface string into the set of forms it
// could be a conjugated/declined variant of, by repeatedly stripping a
// known ending and recording the grammatical tag it implies.
//
// The algorithm is a worklist expansion: start with the input text as
// one untagged Form, apply every rule whose type and tag constraints
// match, collect the forms that weren't already seen, and repeat on
// just the newly produced forms until nothing new appears or an
// iteration cap is hit. The cap exists because a pathological rule
// table (or a rule that strips to a shorter string matching itself)
// could otherwise expand forever; 15 rounds comfortably covers any real
// chain of Japanese auxiliary/conjugation suffixes.
package deconjugate

import "strings"

// Form is one candidate deconjugation: the resulting text, the ordered
// list of rule descriptions ("process") applied to reach it, and the
// tag stack left behind (only the last tag matters for further rule
// matching, but the whole stack is kept for display).
type Form struct {
	Text    string
	Process []string
	Tags    []string
}

// lastTag returns the form's current (innermost) tag, or "" if untagged.
func (f Form) lastTag() string {
	if len(f.Tags) == 0 {
		return ""
	}
	return f.Tags[len(f.Tags)-1]
}

// key returns a string uniquely identifying this Form's (text, process,
// tags) triple, used to dedup forms in a plain map since slices aren't
// comparable and can't be used as map keys directly.
func (f Form) key() string {
	var b strings.Builder
	b.WriteString(f.Text)
	b.WriteByte(0)
	for _, p := range f.Process {
		b.WriteString(p)
		b.WriteByte(0)
	}
	b.WriteByte(0)
	for _, t := range f.Tags {
		b.WriteString(t)
		b.WriteByte(0)
	}
	return b.String()
}

// Engine deconjugates text against a fixed rule table.
type Engine struct {
	rules []Rule
}

// NewEngine builds an Engine from a rule table, silently dropping
// substitution rules since they never participate in deconjugation.
func NewEngine(rules []Rule) *Engine {
	e := &Engine{}
	for _, r := range rules {
		if r.Type == "" || r.Type == RuleSubstitution {
			continue
		}
		e.rules = append(e.rules, r)
	}
	return e
}

const maxIterations = 15

// Deconjugate returns every Form reachable from text by repeatedly
// applying matching rules, plus the identity Form (text itself,
// untagged). Returns nil for blank input.
func (e *Engine) Deconjugate(text string) []Form {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}

	processed := map[string]Form{}
	novel := map[string]Form{(Form{Text: clean}).key(): {Text: clean}}

	for iteration := 0; len(novel) > 0 && iteration < maxIterations; iteration++ {
		newNovel := map[string]Form{}
		for _, form := range novel {
			for _, rule := range e.rules {
				if rule.Type == RuleOnlyFinal && len(form.Tags) > 0 {
					continue
				}
				if rule.Type == RuleNeverFinal && len(form.Tags) == 0 {
					continue
				}
				for _, next := range applyRule(form, rule) {
					k := next.key()
					if _, ok := processed[k]; ok {
						continue
					}
					if _, ok := novel[k]; ok {
						continue
					}
					if _, ok := newNovel[k]; ok {
						continue
					}
					newNovel[k] = next
				}
			}
		}
		for k, f := range novel {
			processed[k] = f
		}
		novel = newNovel
	}
	for k, f := range novel {
		processed[k] = f
	}

	processed[(Form{Text: clean}).key()] = Form{Text: clean}

	out := make([]Form, 0, len(processed))
	for _, f := range processed {
		out = append(out, f)
	}
	return out
}

// applyRule returns the forms produced by stripping one of rule's
// (ConEnd, ConTag) pairs from form and appending the matching
// (DecEnd, DecTag), for every index allowed by the rule's lists. A
// rewrite rule additionally requires the form's whole text to equal
// ConEnd, not just end with it.
func applyRule(form Form, rule Rule) []Form {
	if len(rule.ConEnd) == 0 || len(rule.DecEnd) == 0 {
		return nil
	}

	n := len(rule.DecEnd)
	if len(rule.ConEnd) > n {
		n = len(rule.ConEnd)
	}
	if len(rule.ConTag) > n {
		n = len(rule.ConTag)
	}
	if len(rule.DecTag) > n {
		n = len(rule.DecTag)
	}

	var results []Form
	seen := map[string]bool{}

	for i := 0; i < n; i++ {
		conEnd := rule.ConEnd[i%len(rule.ConEnd)]
		decEnd := rule.DecEnd[i%len(rule.DecEnd)]
		hasConTag := len(rule.ConTag) > 0
		hasDecTag := len(rule.DecTag) > 0
		var conTag string
		if hasConTag {
			conTag = rule.ConTag[i%len(rule.ConTag)]
		}
		var decTag string
		if hasDecTag {
			decTag = rule.DecTag[i%len(rule.DecTag)]
		}

		if !strings.HasSuffix(form.Text, conEnd) {
			continue
		}

		var tagMatch bool
		if len(form.Tags) == 0 && starterTypes[rule.Type] {
			tagMatch = true
		} else if len(form.Tags) > 0 {
			tagMatch = hasConTag && form.lastTag() == conTag
		}
		if !tagMatch {
			continue
		}

		if rule.Type == RuleRewrite && form.Text != conEnd {
			continue
		}

		var newText string
		if conEnd != "" {
			newText = form.Text[:len(form.Text)-len(conEnd)] + decEnd
		} else {
			newText = form.Text + decEnd
		}

		newProcess := append(append([]string{}, form.Process...), rule.Detail)

		var newTags []string
		if len(form.Tags) > 0 {
			newTags = append([]string{}, form.Tags[:len(form.Tags)-1]...)
			if hasDecTag {
				newTags = append(newTags, decTag)
			}
		} else if hasDecTag {
			newTags = []string{decTag}
		}

		next := Form{Text: newText, Process: newProcess, Tags: newTags}
		k := next.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		results = append(results, next)
	}
	return results
}
