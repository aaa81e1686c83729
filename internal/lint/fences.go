package lint

import (
	"encoding/json"
	"fmt"
	"go/format"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	gqlparse "github.com/vektah/gqlparser/v2/parser"
	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/parser"
)

// knownLanguages are the info strings the corpus may tag fences with.
var knownLanguages = map[string]bool{
	"go": true, "graphql": true, "gql": true, "sql": true,
	"yaml": true, "yml": true, "json": true, "bash": true,
	"sh": true, "shell": true, "console": true, "text": true,
	"http": true, "diff": true, "toml": true, "dockerfile": true,
	"env": true, "makefile": true, "markdown": true,
}

func fenceFindings(docPath string, res *parser.Result) []Finding {
	var out []Finding
	for _, fc := range res.Fences {
		if !fc.Closed {
			out = append(out, Finding{
				Path: docPath, Line: fc.Line, Rule: "fence/unclosed", Severity: SeverityError,
				Message: "code fence is never closed",
			})
			continue
		}

		lang := strings.ToLower(fc.Lang)
		if lang == "" {
			out = append(out, Finding{
				Path: docPath, Line: fc.Line, Rule: "fence/language", Severity: SeverityWarning,
				Message: "code fence has no language tag",
			})
			continue
		}
		if !knownLanguages[lang] {
			out = append(out, Finding{
				Path: docPath, Line: fc.Line, Rule: "fence/language", Severity: SeverityWarning,
				Message: fmt.Sprintf("unrecognized fence language %q", fc.Lang),
			})
			continue
		}

		if err := checkFence(lang, fc.Code); err != nil {
			out = append(out, Finding{
				Path: docPath, Line: fc.Line, Rule: ruleForLang(lang), Severity: SeverityError,
				Message: err.Error(),
			})
		}
	}
	return out
}

// checkFence validates a fence body for the languages the engine can parse.
// Languages without a parser in the dependency set (sql, bash, ...) get only
// the fence-level checks.
func checkFence(lang, code string) error {
	switch lang {
	case "go":
		return checkGoFence(code)
	case "graphql", "gql":
		return checkGraphQLFence(code)
	case "json":
		if !json.Valid([]byte(code)) {
			return fmt.Errorf("invalid JSON")
		}
	case "yaml", "yml":
		var v interface{}
		if err := yaml.Unmarshal([]byte(code), &v); err != nil {
			return fmt.Errorf("invalid YAML: %v", err)
		}
	}
	return nil
}

// checkGoFence accepts whole files, declaration lists, and statement lists,
// the same fragment forms gofmt accepts.
func checkGoFence(code string) error {
	if _, err := format.Source([]byte(code)); err != nil {
		return fmt.Errorf("not parseable as Go: %v", err)
	}
	return nil
}

// checkGraphQLFence accepts either an executable operation or SDL, since
// workshop fences carry both query examples and schema definitions.
func checkGraphQLFence(code string) error {
	src := &ast.Source{Name: "fence.graphql", Input: code}
	_, qErr := gqlparse.ParseQuery(src)
	if qErr == nil {
		return nil
	}
	if _, sErr := gqlparse.ParseSchema(src); sErr == nil {
		return nil
	}
	return fmt.Errorf("neither a GraphQL operation nor SDL: %v", qErr)
}

func ruleForLang(lang string) string {
	switch lang {
	case "gql":
		lang = "graphql"
	case "yml":
		lang = "yaml"
	}
	return "fence/" + lang
}
