package mirror

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Resource is one external asset scheduled for retrieval: where it lives on
// the server and where it belongs under the mirror directory.
type Resource struct {
	LocalPath string // slash separated, relative to the mirror directory
	RemoteURL string
}

// Stylesheet is one stylesheet discovered on the online page.
type Stylesheet struct {
	Href  string // reference as found in the page markup
	Media string // media attribute, empty means screen
	Text  string
}

// Print reports whether this stylesheet belongs into the print buffer.
func (s *Stylesheet) Print() bool {
	return s.Media == "print"
}

// SplitStylesheets concatenates stylesheet text into the two output buffers:
// anything not explicitly marked "print" counts as screen.
func SplitStylesheets(sheets []Stylesheet) (screen, print string) {
	var sb, pb strings.Builder
	for i := range sheets {
		if sheets[i].Print() {
			pb.WriteString(sheets[i].Text)
			pb.WriteString("\n\n")
			continue
		}
		sb.WriteString(sheets[i].Text)
		sb.WriteString("\n\n")
	}
	return sb.String(), pb.String()
}

// ManifestBuilder discovers every external asset referenced by the rendered
// document and the collected stylesheets and produces a deduplicated
// retrieval manifest. Destinations already materialized under outDir are
// skipped, which makes repeated runs against a partially populated mirror
// cheap.
type ManifestBuilder struct {
	resolve func(string) string // server-relative reference -> absolute URL
	outDir  string
	log     *zap.Logger
}

func NewManifestBuilder(resolve func(string) string, outDir string, log *zap.Logger) *ManifestBuilder {
	return &ManifestBuilder{resolve: resolve, outDir: outDir, log: log.Named("resources")}
}

// Build scans the document and stylesheets and returns the retrieval
// manifest. Image elements are rewritten in place to point at their local
// copies.
func (b *ManifestBuilder) Build(doc *goquery.Document, sheets []Stylesheet) []Resource {
	seen := make(map[string]struct{})
	var manifest []Resource

	add := func(local, remote string) {
		if _, dup := seen[local]; dup {
			return
		}
		seen[local] = struct{}{}
		if _, err := os.Stat(filepath.Join(b.outDir, filepath.FromSlash(local))); err == nil {
			b.log.Debug("Asset already materialized, skipping", zap.String("path", local))
			return
		}
		manifest = append(manifest, Resource{LocalPath: local, RemoteURL: remote})
	}

	b.collectImages(doc, add)
	for i := range sheets {
		b.collectStylesheetRefs(&sheets[i], add)
	}
	return manifest
}

// collectImages handles images with a deferred source attribute. Their
// stable name is the key embedded in the retrieval URL - that is the
// identifier space the API uses for binary assets.
func (b *ManifestBuilder) collectImages(doc *goquery.Document, add func(local, remote string)) {
	doc.Find("img[data-src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("data-src")
		if len(src) == 0 {
			return
		}
		url := src
		if !strings.HasPrefix(src, "https:") && !strings.HasPrefix(src, "http:") {
			url = b.resolve(src)
		}

		_, name, found := strings.Cut(url, "key=")
		if !found || len(name) == 0 {
			b.log.Warn("Image source carries no asset key, skipping", zap.String("src", src))
			return
		}

		img.SetAttr("src", "img/"+name)
		add(path.Join("img", name), url)
	})
}

// collectStylesheetRefs scans stylesheet text for url(...) references.
// Relative references keep their directory structure locally and resolve
// against the stylesheet's own remote directory.
func (b *ManifestBuilder) collectStylesheetRefs(sheet *Stylesheet, add func(local, remote string)) {
	remoteDir := b.resolve(sheet.Href)
	if idx := strings.LastIndex(remoteDir, "/"); idx >= 0 {
		remoteDir = remoteDir[:idx]
	}

	for _, ref := range stylesheetURLs(sheet.Text) {
		if strings.HasPrefix(ref, "data:") {
			// inline payload, nothing to retrieve
			continue
		}
		if strings.HasPrefix(ref, "https:") || strings.HasPrefix(ref, "http:") || strings.HasPrefix(ref, "//") {
			b.log.Warn("Stylesheet references an external URL, leaving it online-only", zap.String("url", ref))
			continue
		}

		// fragment and query suffixes vary without changing the resource
		if i := strings.LastIndex(ref, "#"); i >= 0 {
			ref = ref[:i]
		}
		if i := strings.LastIndex(ref, "?"); i >= 0 {
			ref = ref[:i]
		}
		if len(ref) == 0 {
			continue
		}

		// parent references stay meaningful remotely but must not escape
		// the mirror directory locally
		local := path.Clean(ref)
		for strings.HasPrefix(local, "../") {
			local = local[3:]
		}
		add(local, remoteDir+"/"+ref)
	}
}

// stylesheetURLs extracts url(...) references from CSS text in document
// order. Both quoted and unquoted forms are handled.
func stylesheetURLs(text string) []string {
	var refs []string

	lexer := css.NewLexer(parse.NewInput(strings.NewReader(text)))
	inURLFunc := false
	for {
		tt, data := lexer.Next()
		switch tt {
		case css.ErrorToken:
			return refs
		case css.URLToken:
			raw := string(data)
			raw = strings.TrimSuffix(strings.TrimPrefix(raw, "url("), ")")
			raw = strings.Trim(strings.TrimSpace(raw), `"'`)
			if len(raw) > 0 {
				refs = append(refs, raw)
			}
		case css.FunctionToken:
			inURLFunc = strings.EqualFold(string(data), "url(")
		case css.StringToken:
			if inURLFunc {
				refs = append(refs, strings.Trim(string(data), `"'`))
				inURLFunc = false
			}
		default:
			if tt != css.WhitespaceToken {
				inURLFunc = false
			}
		}
	}
}
