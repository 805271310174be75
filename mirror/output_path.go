package mirror

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"ugm/config"
	"ugm/state"
)

// NameValues holds variables we make available for output name template
// expansion.
type NameValues struct {
	Context  string
	VIN      string
	Title    string
	Model    string
	Variant  string
	Language string
	Date     string
}

// buildOutputDir returns the mirror directory path. It uses either the
// default "<VIN>_<title>" scheme or a user-defined template, cleaning every
// path segment of characters the filesystem would reject.
func buildOutputDir(dst string, values NameValues, env *state.LocalEnv) string {
	defaultDir := cleanPathSegment(values.VIN + "_" + slug.Make(values.Title))

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(dst, defaultDir)
	}

	expandedName := expandOutputNameTemplate(values, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(dst, defaultDir)
	}

	return assemblePathWithSubdirs(dst, expandedName)
}

func expandOutputNameTemplate(values NameValues, env *state.LocalEnv) string {
	values.Context = string(config.OutputNameTemplateFieldName)

	expandedName, err := expandNameTemplate(config.OutputNameTemplateFieldName, env.Cfg.Document.OutputNameTemplate, values)
	if err != nil {
		env.Log.Warn("Unable to prepare output directory name", zap.Error(err))
		return ""
	}
	return filepath.FromSlash(expandedName)
}

func expandNameTemplate(name config.TemplateFieldName, field string, values NameValues) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output
// path, cleaning segments as needed.
func assemblePathWithSubdirs(dst, expandedName string) string {
	pathSegments := splitAndCleanPath(expandedName)
	if len(pathSegments) == 0 {
		return dst
	}

	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, dst)
	for _, segment := range pathSegments {
		dirParts = append(dirParts, cleanPathSegment(segment))
	}
	return filepath.Join(dirParts...)
}

func splitAndCleanPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
		path = head
	}

	return segments
}

func cleanPathSegment(segment string) string {
	return config.CleanFileName(segment)
}

func buildDate(t time.Time) string {
	return t.Format("2006-01-02")
}
