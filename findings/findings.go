// Package findings is the built-in catalog of secret kinds. Each kind turns
// into one or more scan patterns whose filter scores every match with weighted
// indicators and discards the ones that do not look like a secret.
package findings

import (
	"github.com/lexandro/secretscan-mcp/scan"
)

// DefaultMinScore is the score a match needs to survive the catalog filters.
const DefaultMinScore = 1.0

// Indicator is one weighted piece of evidence about a match.
type Indicator struct {
	Description string  `json:"description"`
	Vector      string  `json:"vector"`
	Value       float64 `json:"value"`
}

// Expression is one pattern of a finding with the weight a bare match earns.
type Expression struct {
	Source string
	Weight float64
}

// WeighFunc adds finding-specific indicators on top of the generic ones.
type WeighFunc func(m *Match) []Indicator

// RejectFunc reports whether a match should be dropped regardless of score.
type RejectFunc func(m *Match) bool

// Finding describes a kind of secret.
type Finding struct {
	Name        string
	Description string
	Expressions []Expression
	Extra       WeighFunc
	Reject      RejectFunc
}

// Assessment is the scored verdict on one match.
type Assessment struct {
	Indicators []Indicator `json:"indicators"`
	Score      float64     `json:"score"`
}

// Weigh returns every indicator for rec: the expression weight, the generic
// indicators and the finding's extras.
func (f *Finding) Weigh(rec *scan.MatchRecord) []Indicator {
	m := newMatch(rec)

	indicators := []Indicator{{Description: "Matched", Vector: "Generic", Value: f.weightOf(rec.PatternSource)}}
	indicators = append(indicators, genericIndicators(m)...)
	if f.Extra != nil {
		indicators = append(indicators, f.Extra(m)...)
	}
	return indicators
}

func (f *Finding) weightOf(source string) float64 {
	if expr, ok := f.expression(source); ok {
		return expr.Weight
	}
	return 1
}

func (f *Finding) expression(source string) (Expression, bool) {
	for _, expr := range f.Expressions {
		if expr.Source == source {
			return expr, true
		}
	}
	return Expression{}, false
}

// Score sums indicator values.
func Score(indicators []Indicator) float64 {
	var total float64
	for _, ind := range indicators {
		total += ind.Value
	}
	return total
}

// Catalog is an ordered set of findings, addressed by name.
type Catalog []Finding

// Lookup returns the finding whose name equals tag.
func (c Catalog) Lookup(tag string) (*Finding, bool) {
	for i := range c {
		if c[i].Name == tag {
			return &c[i], true
		}
	}
	return nil, false
}

// Owner returns the finding that produced rec: its name must equal the tag
// and one of its expressions must equal the pattern source.
func (c Catalog) Owner(rec *scan.MatchRecord) (*Finding, bool) {
	f, ok := c.Lookup(rec.PatternTag)
	if !ok {
		return nil, false
	}
	if _, ok := f.expression(rec.PatternSource); !ok {
		return nil, false
	}
	return f, true
}

// Assess scores rec against the finding that produced it. Records from
// patterns outside the catalog get a single neutral indicator.
func (c Catalog) Assess(rec *scan.MatchRecord) Assessment {
	f, ok := c.Owner(rec)
	if !ok {
		indicators := []Indicator{{Description: "Matched custom pattern", Vector: "Custom", Value: 1}}
		return Assessment{Indicators: indicators, Score: 1}
	}
	indicators := f.Weigh(rec)
	return Assessment{Indicators: indicators, Score: Score(indicators)}
}

// Descriptions maps finding names to their descriptions.
func (c Catalog) Descriptions() map[string]string {
	out := make(map[string]string, len(c))
	for _, f := range c {
		out[f.Name] = f.Description
	}
	return out
}

// Specs turns the catalog into scan patterns, one per expression, tagged with
// the finding name. The attached filter discards rejected matches and those
// scoring below minScore.
func Specs(c Catalog, minScore float64) []scan.PatternSpec {
	var specs []scan.PatternSpec
	for i := range c {
		f := &c[i]
		for _, expr := range f.Expressions {
			specs = append(specs, scan.PatternSpec{
				Tag:    f.Name,
				Source: expr.Source,
				Filter: filterFor(f, minScore),
			})
		}
	}
	return specs
}

func filterFor(f *Finding, minScore float64) scan.FilterFunc {
	return func(rec *scan.MatchRecord) (bool, error) {
		if f.Reject != nil && f.Reject(newMatch(rec)) {
			return true, nil
		}
		return Score(f.Weigh(rec)) < minScore, nil
	}
}
