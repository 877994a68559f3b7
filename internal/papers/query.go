package papers

import (
	"regexp"
	"strings"
)

// categoryPattern matches arXiv category names such as cs.AI, math.CO,
// astro-ph or astro-ph.GA.
var categoryPattern = regexp.MustCompile(`^[a-z][a-z-]*(\.[A-Za-z][A-Za-z-]*)?$`)

// knownArchives lists the archive names that are valid categories on their own.
var knownArchives = map[string]bool{
	"astro-ph": true, "cond-mat": true, "gr-qc": true, "hep-ex": true,
	"hep-lat": true, "hep-ph": true, "hep-th": true, "math-ph": true,
	"nlin": true, "nucl-ex": true, "nucl-th": true, "physics": true,
	"quant-ph": true,
}

// IsCategory reports whether term looks like an arXiv category.
func IsCategory(term string) bool {
	term = strings.TrimSpace(term)
	if !categoryPattern.MatchString(term) {
		return false
	}
	if strings.Contains(term, ".") {
		return true
	}
	return knownArchives[term]
}

// SplitTerms splits a comma-separated list, dropping blanks.
func SplitTerms(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BuildQuery turns free user input into an arXiv search_query. Input made
// only of categories becomes a cat: disjunction; anything else is treated
// as comma-separated keywords that must all match.
func BuildQuery(input string) string {
	terms := SplitTerms(input)
	if len(terms) == 0 {
		return ""
	}
	allCategories := true
	for _, t := range terms {
		if !IsCategory(t) {
			allCategories = false
			break
		}
	}
	if allCategories {
		return categoryQuery(terms)
	}
	return keywordQuery(terms, nil)
}

func categoryQuery(categories []string) string {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = "cat:" + strings.TrimSpace(c)
	}
	return strings.Join(parts, " OR ")
}

func keywordQuery(keywords, categories []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ReplaceAll(strings.TrimSpace(kw), `"`, "")
		if kw == "" {
			continue
		}
		parts = append(parts, `all:"`+kw+`"`)
	}
	query := strings.Join(parts, " AND ")
	if query == "" {
		return categoryQuery(categories)
	}

	switch len(categories) {
	case 0:
	case 1:
		query += " AND cat:" + strings.TrimSpace(categories[0])
	default:
		query += " AND (" + categoryQuery(categories) + ")"
	}
	return query
}
