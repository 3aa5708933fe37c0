// Package css finds OKLCH color tokens in stylesheet text.
package css

import (
	"regexp"

	"go.uber.org/zap"

	"okvars/oklch"
)

// tokenPattern is the external token contract: --color-<family>-<shade>: oklch(<params>).
// It is applied to raw text, so matches inside comments are picked up as well.
var tokenPattern = regexp.MustCompile(`--color-([a-z]+)-([0-9]+):\s*oklch\(([^)]+)\)`)

// Candidate is a single token occurrence found in the source text.
// Exactly one of OKLCH and Error is set.
type Candidate struct {
	Source   string       `yaml:"source" json:"source"`     // verbatim match
	Property string       `yaml:"property" json:"property"` // --color-<family>-<shade>
	Variable string       `yaml:"variable" json:"variable"` // color/<family>/<shade>
	Family   string       `yaml:"family" json:"family"`
	Shade    string       `yaml:"shade" json:"shade"`
	Spec     string       `yaml:"spec" json:"spec"` // text between parentheses
	OKLCH    *oklch.Value `yaml:"oklch,omitempty" json:"oklch,omitempty"`
	Error    string       `yaml:"error,omitempty" json:"error,omitempty"`
}

// Valid reports whether parameters were parsed successfully.
func (c *Candidate) Valid() bool {
	return c.OKLCH != nil
}

// OKLCHString returns the color function as written in the source.
func (c *Candidate) OKLCHString() string {
	return "oklch(" + c.Spec + ")"
}

// VariableName derives hierarchical variable name from token parts.
func VariableName(family, shade string) string {
	return "color/" + family + "/" + shade
}

// Candidates returns every token occurrence in order of appearance. It never
// fails: malformed parameters are recorded on the candidate itself.
func Candidates(text string) []Candidate {
	matches := tokenPattern.FindAllStringSubmatch(text, -1)
	out := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		c := Candidate{
			Source:   m[0],
			Property: "--color-" + m[1] + "-" + m[2],
			Variable: VariableName(m[1], m[2]),
			Family:   m[1],
			Shade:    m[2],
			Spec:     m[3],
		}
		if v, err := ParseParams(m[3]); err != nil {
			c.Error = err.Error()
		} else {
			c.OKLCH = &v
		}
		out = append(out, c)
	}
	return out
}

// Extraction is the result of scanning a single stylesheet.
type Extraction struct {
	Candidates []Candidate
	// Ignored lists --color-* custom properties which do not follow the
	// token format and were skipped.
	Ignored []string
}

// Extractor scans stylesheets for color tokens.
type Extractor struct {
	log *zap.Logger
}

// NewExtractor creates a new token extractor.
func NewExtractor(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log.Named("extractor")}
}

// Extract scans data for color tokens. The optional source parameter
// identifies what is being scanned (for debug logging).
func (e *Extractor) Extract(data []byte, source ...string) *Extraction {
	if len(source) > 0 && source[0] != "" {
		e.log.Debug("Scanning stylesheet", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	res := &Extraction{Candidates: Candidates(string(data))}

	matched := make(map[string]bool, len(res.Candidates))
	for i := range res.Candidates {
		c := &res.Candidates[i]
		matched[c.Property] = true
		if c.Valid() {
			e.log.Debug("Token found", zap.String("variable", c.Variable), zap.Stringer("oklch", c.OKLCH))
		} else {
			e.log.Debug("Token has malformed parameters", zap.String("variable", c.Variable), zap.String("spec", c.Spec), zap.String("error", c.Error))
		}
	}

	for _, decl := range colorProperties(data, e.log) {
		if matched[decl.Name] {
			continue
		}
		res.Ignored = append(res.Ignored, decl.String())
		e.log.Debug("Custom property does not follow token format", zap.String("property", decl.Name), zap.String("value", decl.Value))
	}
	return res
}
