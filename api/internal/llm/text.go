package llm

import (
	"errors"
	"strings"
)

var errBlankText = errors.New("response text is blank")

// CandidateText is the SDK-neutral view of a response used by ExtractText.
// Parts holds the text parts of the first candidate; HasContent is false
// when that candidate carried no content at all.
type CandidateText struct {
	Candidates int
	HasContent bool
	Parts      []string
}

// ExtractText applies the response contract shared by all engines:
// no candidates is a content block, a candidate without parts is an empty
// response, otherwise the parts are joined and a wrapping code fence is
// removed.
func ExtractText(c CandidateText) (string, error) {
	if c.Candidates == 0 {
		return "", Blocked(ErrNoCandidates)
	}
	if !c.HasContent || len(c.Parts) == 0 {
		return "", Empty(ErrNoParts)
	}
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(p)
	}
	out := StripFence(b.String())
	if out == "" {
		return "", Empty(errBlankText)
	}
	return out, nil
}

// StripFence removes a ```markdown / ``` wrapper the model sometimes adds.
func StripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```md")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
