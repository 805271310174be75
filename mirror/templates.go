package mirror

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Names of the page templates replicating the DOM structure of the online
// guide. Every template is a text blob with {{NAME}} placeholder tokens.
const (
	TemplateIndex            = "index"
	TemplateTopicWithChildren = "topic_w_children"
	TemplateTopicLeaf        = "topic_wo_children"
	TemplateTOCWithChildren  = "toc_w_children"
	TemplateTOCLeaf          = "toc_wo_children"
)

var templateNames = []string{
	TemplateIndex,
	TemplateTopicWithChildren,
	TemplateTopicLeaf,
	TemplateTOCWithChildren,
	TemplateTOCLeaf,
}

// placeholderPattern matches a complete {{NAME}} token. Replacement is done
// token-wise, so a key never matches inside a longer key (TOPIC_ID does not
// touch {{TOPIC_ID_OLD}}).
var placeholderPattern = regexp.MustCompile(`\{\{([A-Z][A-Z0-9_]*)\}\}`)

// TemplateSet holds named page templates.
type TemplateSet map[string]string

// LoadTemplates returns the embedded template set, with individual templates
// overridden by files from dir when it is not empty.
func LoadTemplates(dir string) (TemplateSet, error) {
	set := make(TemplateSet, len(templateNames))
	for _, name := range templateNames {
		data, err := templateFiles.ReadFile("templates/" + name + ".html")
		if err != nil {
			// embedded set is complete by construction
			panic("embedded template missing: " + name + ": " + err.Error())
		}
		set[name] = string(data)
	}
	if len(dir) == 0 {
		return set, nil
	}
	for _, name := range templateNames {
		path := filepath.Join(dir, name+".html")
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read template override %q: %w", path, err)
		}
		set[name] = string(data)
	}
	return set, nil
}

// Expand substitutes placeholder tokens in the named template. Substitution
// is literal: values are inserted as-is, tokens inside substituted values
// are never expanded again, unknown tokens are left untouched.
func (t TemplateSet) Expand(name string, repl map[string]string) (string, error) {
	tmpl, ok := t[name]
	if !ok {
		return "", fmt.Errorf("unknown template %q", name)
	}
	return expandPlaceholders(tmpl, repl), nil
}

// expandPlaceholders does a single pass over the template replacing every
// {{NAME}} token that has a value in repl. A single pass guarantees that
// values containing placeholder syntax survive verbatim.
func expandPlaceholders(tmpl string, repl map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		key := token[2 : len(token)-2]
		if v, ok := repl[key]; ok {
			return v
		}
		return token
	})
}
