package classify

import (
	"strings"

	"myfocus/internal/model"
)

// Confidence levels assigned by the parser. An explicit status line
// is trusted more than a bare keyword hit.
const (
	confExplicitSevere = 0.95
	confExplicitOther  = 0.90
	confKeywordSevere  = 0.85
	confKeywordDistr   = 0.75
	confKeywordFocus   = 0.70
	confUnknown        = 0.5
)

// statusPatterns are explicit status-line phrases, checked before any
// bare keyword. Both the spaced and unspaced Chinese forms appear
// because backends are inconsistent about the colon.
var statusPatterns = []struct {
	phrases    []string
	state      model.FocusState
	confidence float64
}{
	{
		phrases:    []string{"状态: 严重分心", "状态:严重分心", "status: severely-distracted", "status:severely-distracted"},
		state:      model.StateSeverelyDistracted,
		confidence: confExplicitSevere,
	},
	{
		phrases:    []string{"状态: 分心", "状态:分心", "status: distracted", "status:distracted"},
		state:      model.StateDistracted,
		confidence: confExplicitOther,
	},
	{
		phrases:    []string{"状态: 专注", "状态:专注", "status: focused", "status:focused"},
		state:      model.StateFocused,
		confidence: confExplicitOther,
	},
}

// keywordPatterns are bare containment checks, scanned strictly in
// severity order. The order is load-bearing: a reply holding both
// "分心" and "严重分心" must resolve to the severe state, because the
// broader keyword is a substring of the severe one.
var keywordPatterns = []struct {
	keywords   []string
	state      model.FocusState
	confidence float64
}{
	{
		keywords:   []string{"严重分心", "severely distracted"},
		state:      model.StateSeverelyDistracted,
		confidence: confKeywordSevere,
	},
	{
		keywords:   []string{"分心", "distracted"},
		state:      model.StateDistracted,
		confidence: confKeywordDistr,
	},
	{
		keywords:   []string{"专注", "focused"},
		state:      model.StateFocused,
		confidence: confKeywordFocus,
	},
}

// ParseResponse turns raw backend text into a focus state and a
// confidence. Matching is case-insensitive and priority ordered:
// explicit status lines first, then keywords by severity, then
// Unknown at 0.5.
func ParseResponse(response string) (model.FocusState, float64) {
	lower := strings.ToLower(response)

	for _, p := range statusPatterns {
		for _, phrase := range p.phrases {
			if strings.Contains(lower, phrase) {
				return p.state, p.confidence
			}
		}
	}

	for _, p := range keywordPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.state, p.confidence
			}
		}
	}

	return model.StateUnknown, confUnknown
}
