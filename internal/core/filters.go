package core

import (
	"regexp"
	"strings"
	"time"
)

// FilterKind selects how a filter rule formats its parameter values.
type FilterKind string

const (
	FilterText        FilterKind = "text"
	FilterDate        FilterKind = "date"
	FilterDateRange   FilterKind = "date_range"
	FilterRange       FilterKind = "range"
	FilterNumberRange FilterKind = "number_range"
	FilterGushRange   FilterKind = "gush_range"
	FilterEnum        FilterKind = "enum"
	FilterLookup      FilterKind = "lookup"
)

// Valid reports whether k is a known kind.
func (k FilterKind) Valid() bool {
	switch k {
	case FilterText, FilterDate, FilterDateRange, FilterRange,
		FilterNumberRange, FilterGushRange, FilterEnum, FilterLookup:
		return true
	}
	return false
}

// IsRange reports whether the kind reads a second parameter.
func (k FilterKind) IsRange() bool {
	switch k {
	case FilterDateRange, FilterRange, FilterNumberRange, FilterGushRange:
		return true
	}
	return false
}

// FilterRule turns one request parameter (two for ranges) into a
// human-readable clause for the filter line.
//
// Template placeholders:
//
//	{value}       the formatted parameter value (enum text for enums)
//	{from} {to}   the formatted range bounds
//	{col:Name}    column Name of the first row of the Lookup result set
type FilterRule struct {
	Param    string
	To       string
	Kind     FilterKind
	Template string
	Lookup   string
	Values   map[string]string
}

// Date formats for filter clauses.
const (
	ParamDateLayout  = time.DateOnly
	ClauseDateLayout = "02/01/06"
)

var colPlaceholder = regexp.MustCompile(`\{col:([^}]+)\}`)

// Describe builds the filter clauses for params, in rule order. Rules whose
// parameters are absent or empty, enum values without text and lookups
// without a row contribute nothing. lookups may be nil.
func Describe(rules []FilterRule, params Params, lookups LookupSource) []string {
	var clauses []string
	for _, rule := range rules {
		if c, ok := describeRule(rule, params, lookups); ok {
			clauses = append(clauses, c)
		}
	}
	return clauses
}

func describeRule(rule FilterRule, params Params, lookups LookupSource) (string, bool) {
	value := params.String(rule.Param)
	if value == "" {
		return "", false
	}

	var to string
	if rule.Kind.IsRange() {
		to = params.String(rule.To)
		if to == "" {
			return "", false
		}
	}

	var row Record
	if rule.Lookup != "" {
		if lookups == nil {
			return "", false
		}
		r, ok := lookups.Lookup(rule.Lookup)
		if !ok {
			return "", false
		}
		row = r
	}

	var replacements []string
	switch rule.Kind {
	case FilterDate:
		replacements = []string{"{value}", formatClauseDate(value)}
	case FilterDateRange:
		replacements = []string{"{from}", formatClauseDate(value), "{to}", formatClauseDate(to)}
	case FilterNumberRange:
		replacements = []string{"{from}", formatClauseNumber(value), "{to}", formatClauseNumber(to)}
	case FilterGushRange:
		replacements = []string{"{from}", FormatGush(value), "{to}", FormatGush(to)}
	case FilterRange:
		replacements = []string{"{from}", value, "{to}", to}
	case FilterEnum:
		text := enumText(rule.Values, value)
		if text == "" {
			return "", false
		}
		if rule.Template == "" {
			return text, true
		}
		replacements = []string{"{value}", text}
	default:
		replacements = []string{"{value}", value}
	}

	clause := strings.NewReplacer(replacements...).Replace(rule.Template)
	clause = colPlaceholder.ReplaceAllStringFunc(clause, func(m string) string {
		col := colPlaceholder.FindStringSubmatch(m)[1]
		return row.String(col)
	})
	return clause, true
}

// enumText matches case-insensitively; catalog keys arrive lower-cased.
func enumText(values map[string]string, v string) string {
	if text, ok := values[v]; ok {
		return text
	}
	lv := strings.ToLower(v)
	for k, text := range values {
		if strings.ToLower(k) == lv {
			return text
		}
	}
	return ""
}

func formatClauseDate(s string) string {
	t, err := time.Parse(ParamDateLayout, s)
	if err != nil {
		var ok bool
		if t, ok = ParseDate(s); !ok {
			return s
		}
	}
	return t.Format(ClauseDateLayout)
}

func formatClauseNumber(s string) string {
	d, ok := parseNumber(s)
	if !ok {
		return s
	}
	return FormatThousands(d)
}
