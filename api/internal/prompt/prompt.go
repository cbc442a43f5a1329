// Package prompt composes the test-matrix request sent to the model.
package prompt

import (
	"fmt"
	"strings"
)

const template = `You are a Senior QA Lead.

Generate a professional QA test case matrix in MARKDOWN.
Present the test cases as a single markdown table with the columns:
ID | Scenario | Preconditions | Steps | Expected Result | Priority | Type

Framework: %s
Depth: %s
Priority Areas: %s
Include Negative Cases: %s
Include Edge Cases: %s

BRD CONTENT:
%s
`

// Build interpolates the options and the (already truncated) document
// text. An empty document still produces a prompt.
func Build(o Options, docText string) string {
	return fmt.Sprintf(template,
		o.Framework,
		o.Depth,
		strings.Join(o.Focus, ", "),
		yesNo(o.IncludeNegative),
		yesNo(o.IncludeEdge),
		docText,
	)
}

func yesNo(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
