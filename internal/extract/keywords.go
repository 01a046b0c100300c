package extract

import (
	"fmt"
	"regexp"
	"sort"
)

// DefaultKeywords is the built-in tech keyword table. Weights are on a 0-1
// scale; aliases match at the canonical keyword's weight but are reported
// under their own token.
func DefaultKeywords() map[string]KeywordInfo {
	return map[string]KeywordInfo{
		"python":     {Weight: 1.0},
		"java":       {Weight: 0.7},
		"go":         {Weight: 0.8, Aliases: []string{"golang"}},
		"rust":       {Weight: 0.6},
		"typescript": {Weight: 0.7},
		"sql":        {Weight: 1.0},
		"spark":      {Weight: 1.0, Aliases: []string{"pyspark"}},
		"airflow":    {Weight: 1.0},
		"kafka":      {Weight: 0.9},
		"kubernetes": {Weight: 0.8, Aliases: []string{"k8s"}},
		"docker":     {Weight: 0.7},
		"terraform":  {Weight: 0.7},
		"aws":        {Weight: 0.9},
		"gcp":        {Weight: 0.9},
		"azure":      {Weight: 0.7},
		"pytorch":    {Weight: 1.0},
		"tensorflow": {Weight: 0.9},
		"mlflow":     {Weight: 0.9},
		"databricks": {Weight: 1.0},
		"snowflake":  {Weight: 0.9},
		"dbt":        {Weight: 0.9},
		"postgres":   {Weight: 0.8, Aliases: []string{"postgresql"}},
		"redis":      {Weight: 0.6},
	}
}

// compileKeywords flattens the table (aliases inherit the canonical
// weight) and compiles one whole-token pattern per entry.
func (p *Pipeline) compileKeywords(table map[string]KeywordInfo) error {
	flat := make(map[string]float64, len(table))
	for keyword, info := range table {
		flat[keyword] = info.Weight
		for _, alias := range info.Aliases {
			flat[alias] = info.Weight
		}
	}

	p.keywords = make([]keywordEntry, 0, len(flat))
	for token, weight := range flat {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`)
		if err != nil {
			return fmt.Errorf("compile keyword %q: %w", token, err)
		}
		p.keywords = append(p.keywords, keywordEntry{token: token, weight: weight, re: re})
	}
	// Weight-descending, then alphabetical so output order is stable.
	sort.Slice(p.keywords, func(i, j int) bool {
		if p.keywords[i].weight != p.keywords[j].weight {
			return p.keywords[i].weight > p.keywords[j].weight
		}
		return p.keywords[i].token < p.keywords[j].token
	})
	return nil
}

// TechKeywords returns the keywords present in the text as whole tokens,
// ordered by descending weight.
func (p *Pipeline) TechKeywords(text string) []string {
	var found []string
	for _, entry := range p.keywords {
		if entry.re.MatchString(text) {
			found = append(found, entry.token)
		}
	}
	return found
}
