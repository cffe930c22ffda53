package catalog

import (
	"fmt"
	"regexp"

	"github.com/ananthcjayan12/pdf-print-brady/constants"
)

// CarrierPrefix starts a structured multi-field barcode payload in which
// the serial is one embedded segment among several.
const CarrierPrefix = "[)>"

// Rule is one extraction rule: a label layout the station knows how to
// read. Rules are compiled once at startup and never mutated. Overlap
// between rules is deliberate; label formats are heterogeneous, and
// downstream deduplication keyed on the extracted text sorts it out.
type Rule struct {
	Type        string         // label type recorded on the mapping
	Pattern     *regexp.Regexp // compiled case-insensitive regex
	Groups      []int          // capture groups forming the identifier; nil means group 1
	Display     string         // optional format combining Groups into the stored text
	Specificity int            // higher wins when two rules yield the same text
	Carrier     bool           // anchored to CarrierPrefix payloads
}

// Extract pulls the identifier out of one regexp match (as returned by
// FindAllStringSubmatch). It reports false when a required capture group
// is missing or the identifier falls under the noise floor; the caller
// skips that match only.
func (r Rule) Extract(m []string) (string, bool) {
	groups := r.Groups
	if len(groups) == 0 {
		groups = []int{1}
	}

	vals := make([]any, 0, len(groups))
	for _, g := range groups {
		if g >= len(m) || m[g] == "" {
			return "", false
		}
		vals = append(vals, m[g])
	}

	// Noise floor applies to the identifier itself, before any display
	// decoration is added.
	if len(m[groups[0]]) < constants.MinIdentifierLen {
		return "", false
	}

	if r.Display == "" {
		return m[groups[0]], true
	}
	return fmt.Sprintf(r.Display, vals...), true
}

// Catalog is the ordered set of extraction rules. Ordering matters only
// for presentation; every rule always runs.
type Catalog struct {
	rules []Rule
}

// Rules returns the catalog's rules in declaration order.
func (c *Catalog) Rules() []Rule {
	return c.rules
}

// CarrierRules returns only the rules anchored to CarrierPrefix. The
// resolver uses these to pull an embedded serial out of a raw scanned
// payload before searching the index.
func (c *Catalog) CarrierRules() []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Carrier {
			out = append(out, r)
		}
	}
	return out
}

// WithRules returns a new catalog with extra rules appended after the
// built-in set.
func (c *Catalog) WithRules(extra []Rule) *Catalog {
	merged := make([]Rule, 0, len(c.rules)+len(extra))
	merged = append(merged, c.rules...)
	merged = append(merged, extra...)
	return &Catalog{rules: merged}
}

type ruleSpec struct {
	typ         string
	pattern     string
	groups      []int
	display     string
	specificity int
	carrier     bool
}

// Label formats observed in production Brady sheets. The two carrier
// forms model the "[)>" concatenated payload where the serial segment is
// a letter+10 digits or digit+letter+9-12 digits run terminated by the
// next field. The digit run in BARCODE_NUM is lazy so the trailing
// [0-9]*[A-Z] soaks up quantity digits glued to the serial and the
// capture stops at the serial proper.
var builtinSpecs = []ruleSpec{
	{typ: "BARCODE_K", pattern: `\[\)>.*?S([A-Z][0-9]{10})[0-9]*[A-Z]`, specificity: 90, carrier: true},
	{typ: "BARCODE_NUM", pattern: `\[\)>.*?S([0-9][A-Z][0-9]{9,12}?)[0-9]*[A-Z]`, specificity: 90, carrier: true},
	{typ: "SN_QTY", pattern: `QTY \(([0-9]+)\).*?S/N[:;\s]*(E[A-Z0-9]{10,12})`, groups: []int{2, 1}, display: "%s (QTY:%s)", specificity: 85},
	{typ: "SN", pattern: `S/N[:\s]*(E[A-Z0-9]{10,12})`, specificity: 80},
	{typ: "GENERIC_SN", pattern: `S/?N[:;\s.\-]+([A-Z0-9]{8,15})`, specificity: 70},
	{typ: "GENERIC_SN", pattern: `SN[:;\s.\-]+([A-Z0-9]{8,15})`, specificity: 70},
	{typ: "GENERIC_SN", pattern: `SERIAL(?:\s+NUMBER)?[:;\s.\-]+([A-Z0-9]{8,15})`, specificity: 65},
	{typ: "EAN", pattern: `EAN[:\s]*([0-9]{10,15})`, specificity: 60},
	{typ: "PN", pattern: `\(P\)\s*PN[:\s]*([0-9A-Z]{5,15})`, specificity: 60},
	{typ: "REV", pattern: `REV[:/]?([A-Z0-9]{2,8})`, specificity: 40},
	{typ: "STANDALONE_SN", pattern: `^([A-Z]{1,3}[0-9]{6,12})$`, specificity: 30},
	{typ: "ALPHANUMERIC_ID", pattern: `\b([A-Z]{1,2}[0-9]{8,12})\b`, specificity: 20},
}

// Builtin compiles the default rule set. Matching is case-insensitive;
// the line-anchored STANDALONE_SN rule additionally runs in multiline
// mode so ^ and $ bind to individual lines of the page text.
func Builtin() *Catalog {
	rules := make([]Rule, 0, len(builtinSpecs))
	for _, s := range builtinSpecs {
		rules = append(rules, compileSpec(s))
	}
	return &Catalog{rules: rules}
}

func compileSpec(s ruleSpec) Rule {
	flags := "(?i)"
	if s.pattern[0] == '^' {
		flags = "(?im)"
	}
	return Rule{
		Type:        s.typ,
		Pattern:     regexp.MustCompile(flags + s.pattern),
		Groups:      s.groups,
		Display:     s.display,
		Specificity: s.specificity,
		Carrier:     s.carrier,
	}
}
