package prompt

import (
	"fmt"
	"sort"
	"strings"
)

type Depth string

const (
	DepthStandard   Depth = "Standard"
	DepthDetailed   Depth = "Detailed"
	DepthExhaustive Depth = "Exhaustive"
)

type Framework string

const (
	FrameworkManual Framework = "Standard Manual"
	FrameworkBDD    Framework = "BDD (Cucumber/Gherkin)"
)

const (
	FocusUIUX        = "UI/UX"
	FocusSecurity    = "Security"
	FocusAPIBackend  = "API/Backend"
	FocusPerformance = "Performance"
)

var (
	Depths     = []Depth{DepthStandard, DepthDetailed, DepthExhaustive}
	Frameworks = []Framework{FrameworkManual, FrameworkBDD}
	FocusAreas = []string{FocusUIUX, FocusSecurity, FocusAPIBackend, FocusPerformance}
)

// Options are the user's generation choices. They are captured once per
// request and not modified afterwards.
type Options struct {
	Depth           Depth     `json:"depth"`
	Framework       Framework `json:"framework"`
	Focus           []string  `json:"focus"`
	IncludeNegative bool      `json:"include_negative"`
	IncludeEdge     bool      `json:"include_edge"`
}

func DefaultOptions() Options {
	return Options{
		Depth:           DepthStandard,
		Framework:       FrameworkManual,
		Focus:           []string{FocusUIUX},
		IncludeNegative: true,
		IncludeEdge:     true,
	}
}

// ParseDepth accepts the display value case-insensitively.
func ParseDepth(s string) (Depth, error) {
	for _, d := range Depths {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("depth must be one of %s", joinDepths())
}

// ParseFramework accepts the display value or the short forms "manual"
// and "bdd".
func ParseFramework(s string) (Framework, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "manual", "standard":
		return FrameworkManual, nil
	case "bdd", "gherkin", "cucumber":
		return FrameworkBDD, nil
	}
	for _, f := range Frameworks {
		if strings.EqualFold(v, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("framework must be %q or %q", FrameworkManual, FrameworkBDD)
}

// ParseFocus canonicalizes focus areas, dropping duplicates. Aliases
// "ui", "api", "backend" and "perf" are accepted.
func ParseFocus(items []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, raw := range items {
		for _, it := range strings.Split(raw, ",") {
			it = strings.TrimSpace(it)
			if it == "" {
				continue
			}
			canon, ok := focusAlias(it)
			if !ok {
				return nil, fmt.Errorf("unknown focus area %q; use %s", it, strings.Join(FocusAreas, ", "))
			}
			if !seen[canon] {
				seen[canon] = true
				out = append(out, canon)
			}
		}
	}
	return out, nil
}

func focusAlias(s string) (string, bool) {
	switch strings.ToLower(s) {
	case "ui/ux", "ui", "ux":
		return FocusUIUX, true
	case "security", "sec":
		return FocusSecurity, true
	case "api/backend", "api", "backend":
		return FocusAPIBackend, true
	case "performance", "perf":
		return FocusPerformance, true
	}
	return "", false
}

func joinDepths() string {
	s := make([]string, len(Depths))
	for i, d := range Depths {
		s[i] = string(d)
	}
	return strings.Join(s, ", ")
}

// Key is a canonical encoding of the options, stable across focus order.
func (o Options) Key() string {
	focus := append([]string(nil), o.Focus...)
	order := map[string]int{}
	for i, f := range FocusAreas {
		order[f] = i
	}
	sort.SliceStable(focus, func(i, j int) bool { return order[focus[i]] < order[focus[j]] })
	return fmt.Sprintf("depth=%s|framework=%s|focus=%s|neg=%t|edge=%t",
		o.Depth, o.Framework, strings.Join(focus, ","), o.IncludeNegative, o.IncludeEdge)
}
