package deconjugate

import "encoding/json"

// RuleType classifies how a Rule participates in worklist expansion.
type RuleType string

const (
	// RuleStd is an ordinary conjugation/deconjugation step.
	RuleStd RuleType = "stdrule"
	// RuleRewrite only fires when the form's whole text equals ConEnd
	// (a full-word substitution, not a suffix strip).
	RuleRewrite RuleType = "rewriterule"
	// RuleOnlyFinal only fires on untagged (not-yet-deconjugated) forms.
	RuleOnlyFinal RuleType = "onlyfinalrule"
	// RuleNeverFinal only fires on forms that already carry a tag.
	RuleNeverFinal RuleType = "neverfinalrule"
	// RuleContext behaves like RuleStd; reserved for rules whose
	// dictionary entry enforces additional context elsewhere.
	RuleContext RuleType = "contextrule"
	// RuleSubstitution rules are ignored by the deconjugator; they
	// belong to a different stage of dictionary import.
	RuleSubstitution RuleType = "substitution"
)

// starterTypes are the rule types that may start a deconjugation chain
// on an untagged form without a ConTag match.
var starterTypes = map[RuleType]bool{
	RuleStd:       true,
	RuleRewrite:   true,
	RuleOnlyFinal: true,
	RuleContext:   true,
}

// Rule is one deconjugation rule: strip ConEnd (matched against the
// form's current tag via ConTag) and append DecEnd, pushing DecTag.
//
// ConEnd/DecEnd/ConTag/DecTag are parallel lists. When they don't share
// one length, the longest list drives the iteration count and the
// shorter lists are indexed modulo their own length — the JSON source
// data can and does have lists of unequal length (e.g. one con_end
// paired with three dec_ends), and that mismatch is intentional rather
// than an error.
//
// An empty ConTag list means the rule has no tag to match, so it only
// applies to an untagged form (and only if its type may start a chain);
// an empty DecTag list means "clear the tag" (drop the top of the tag
// stack). Both mirror a JSON null; a rule never needs the empty string
// as an actual tag value.
type Rule struct {
	Type   RuleType `json:"type"`
	ConEnd []string `json:"con_end"`
	DecEnd []string `json:"dec_end"`
	ConTag []string `json:"con_tag,omitempty"`
	DecTag []string `json:"dec_tag,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

// UnmarshalJSON accepts con_end/dec_end/con_tag/dec_tag as either a
// bare string or a list of strings, normalizing both to []string. This
// mirrors the source rule table, which mixes single-value and
// multi-value rules freely.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   RuleType        `json:"type"`
		ConEnd json.RawMessage `json:"con_end"`
		DecEnd json.RawMessage `json:"dec_end"`
		ConTag json.RawMessage `json:"con_tag"`
		DecTag json.RawMessage `json:"dec_tag"`
		Detail string          `json:"detail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Type = raw.Type
	r.Detail = raw.Detail

	var err error
	if r.ConEnd, err = stringOrSlice(raw.ConEnd); err != nil {
		return err
	}
	if r.DecEnd, err = stringOrSlice(raw.DecEnd); err != nil {
		return err
	}
	if r.ConTag, err = stringOrSlice(raw.ConTag); err != nil {
		return err
	}
	if r.DecTag, err = stringOrSlice(raw.DecTag); err != nil {
		return err
	}
	return nil
}

// stringOrSlice decodes a JSON value that is either a string, a list of
// strings, or absent/null into a []string (nil for absent/null).
func stringOrSlice(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
