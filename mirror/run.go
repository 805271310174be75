// Package mirror assembles a self-contained offline copy of a vehicle user
// guide: topic tree assembly, link graph resolution, asset manifest
// construction and retrieval.
package mirror

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"ugm/config"
	"ugm/guide"
	"ugm/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("mirror")

	if vin := cmd.String("vin"); len(vin) > 0 {
		env.Cfg.Vehicle.ID = config.SecretString(vin)
	}
	env.Overwrite = cmd.Bool("overwrite")
	env.ManualPick = int(cmd.Int("manual"))

	dst := cmd.Args().Get(0)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	client, err := guide.NewClient(&env.Cfg.Network, env.Cfg.Vehicle.Language, log)
	if err != nil {
		return err
	}

	log.Info("Mirroring starting", zap.String("destination", dst), zap.String("language", env.Cfg.Vehicle.Language))
	defer func(start time.Time) {
		log.Info("Mirroring completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, client, dst, log)
}

// process handles the core mirroring logic independently of CLI framework:
// session, manual selection, assembly, link resolution, asset retrieval.
func process(ctx context.Context, client *guide.Client, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	vin, err := client.ResolveVehicleID(ctx, string(env.Cfg.Vehicle.ID))
	if err != nil {
		return err
	}
	if err := client.Login(ctx, vin); err != nil {
		return err
	}

	manual, err := selectManual(ctx, client, env, log)
	if err != nil {
		return err
	}
	log.Info("Manual selected", zap.String("title", manual.Title), zap.String("topic", manual.TopicID))

	tmpl, err := LoadTemplates(env.Cfg.Document.TemplatesPath)
	if err != nil {
		return err
	}

	g, err := client.FetchGuide(ctx, manual.TopicID)
	if err != nil {
		return err
	}

	strs, err := client.FetchStrings(ctx)
	if err != nil {
		// page chrome falls back to built-in captions
		log.Warn("UI strings could not be fetched", zap.Error(err))
		strs = nil
	}

	assembler := NewAssembler(tmpl, client, env.Cfg.Document.TOCPlacement, env.Cfg.Document.OnFetchError,
		env.Cfg.Network.FetchWorkers, log)
	unit, err := assembler.Assemble(ctx, g.Topics)
	if err != nil {
		return err
	}

	model, variant := vehicleDescription(g.AbstractText)
	outDir := buildOutputDir(dst, NameValues{
		VIN:      vin,
		Title:    manual.Title,
		Model:    model,
		Variant:  variant,
		Language: client.Language(),
		Date:     buildDate(time.Now()),
	}, env)
	if err := prepareOutputDir(outDir, env, log); err != nil {
		return err
	}

	page, err := renderPage(tmpl, manual, unit, vin, model, variant, strs, env)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return fmt.Errorf("unable to parse assembled document: %w", err)
	}

	NewResolver(env.Cfg.Document.ExtendMode, env.Cfg.Document.TOCPlacement, log).Apply(doc, unit.Refs)

	sheets, err := collectStylesheets(ctx, client, log)
	if err != nil {
		return err
	}

	manifest := NewManifestBuilder(client.AbsoluteURL, outDir, log).Build(doc, sheets)
	log.Info("Retrieval manifest built", zap.Int("assets", len(manifest)))

	if err := writeStylesheets(outDir, sheets); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outDir, "img", "repo_logo.svg"), repoLogoImage); err != nil {
		return err
	}

	if err := FetchResources(ctx, client, outDir, manifest, env.Cfg.Network.DownloadWorkers, env.Cfg.Document.Images, log); err != nil {
		if env.Cfg.Document.OnFetchError == config.OnFetchErrorCrash {
			return fmt.Errorf("unable to retrieve assets: %w", err)
		}
		log.Warn("Some assets could not be retrieved", zap.Error(err))
	}

	indexPath := filepath.Join(outDir, "index.html")
	if err := writeDocument(indexPath, doc); err != nil {
		return err
	}

	if env.Rpt != nil {
		env.Rpt.Store("index.html", indexPath)
		env.Rpt.StoreData("manifest.txt", manifestText(manifest))
	}

	log.Info("Guide mirrored", zap.String("output", outDir))
	return nil
}

// selectManual lists manuals available for the session vehicle and picks one,
// either from configuration or by asking the operator.
func selectManual(ctx context.Context, client *guide.Client, env *state.LocalEnv, log *zap.Logger) (*guide.Manual, error) {
	manuals, err := client.SearchManuals(ctx)
	if err != nil {
		return nil, err
	}
	if len(manuals) == 0 {
		return nil, errors.New("no manuals are available for this vehicle")
	}

	sort.Slice(manuals, func(i, j int) bool {
		return natural.Less(manuals[i].Title, manuals[j].Title)
	})

	if len(manuals) == 1 {
		return &manuals[0], nil
	}

	if env.ManualPick > 0 {
		if env.ManualPick > len(manuals) {
			return nil, fmt.Errorf("manual selection %d is out of range, only %d manuals are available", env.ManualPick, len(manuals))
		}
		return &manuals[env.ManualPick-1], nil
	}

	fmt.Println("Several manuals are available for this vehicle:")
	for i, m := range manuals {
		fmt.Printf("  %d: %s\n", i+1, m.Title)
	}
	fmt.Print("Select manual: ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("unable to read selection: %w", err)
	}
	pick, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || pick < 1 || pick > len(manuals) {
		return nil, fmt.Errorf("invalid manual selection %q", strings.TrimSpace(line))
	}
	log.Debug("Manual picked interactively", zap.Int("pick", pick))
	return &manuals[pick-1], nil
}

// vehicleDescription pulls model and variant captions out of the guide
// abstract markup. Both are optional.
func vehicleDescription(abstract string) (model, variant string) {
	if len(abstract) == 0 {
		return "", ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(abstract))
	if err != nil {
		return "", ""
	}
	model = strings.TrimSpace(doc.Find(`span[data-class="vw-modell-bez"]`).First().Text())
	variant = strings.TrimSpace(doc.Find(`span[data-class="vw-modell-variante"]`).First().Text())
	return model, variant
}

// uiString looks a caption up in the scraped UI strings falling back to a
// built-in English default.
func uiString(strs map[string]string, key, fallback string) string {
	if v, ok := strs[key]; ok && len(v) > 0 {
		return v
	}
	return fallback
}

// renderPage expands the index template into the full page markup.
func renderPage(tmpl TemplateSet, manual *guide.Manual, unit *RenderedUnit, vin, model, variant string, strs map[string]string, env *state.LocalEnv) (string, error) {
	langCode, _, _ := strings.Cut(env.Cfg.Vehicle.Language, "_")
	vehicle := strings.TrimSpace(model + " " + variant)

	return tmpl.Expand(TemplateIndex, map[string]string{
		"LANG_CODE":         langCode,
		"USERGUIDE_TITLE":   manual.Title,
		"USERGUIDE_ID":      manual.TopicID,
		"USERGUIDE_DATE":    buildDate(time.Now()),
		"USERGUIDE_CONTENT": unit.Body,
		"TOC_TITLE":         uiString(strs, "tab.directory", "Contents"),
		"TOC_CONTENT":       unit.TOC,
		"VEHICLE_MODEL":     vehicle,
		"VEHICLE_VIN":       vin,
		"OPEN_ONLINE":       uiString(strs, "label.open.web", "Open online version"),
		"EXTEND_MODE":       env.Cfg.Document.ExtendMode.String(),
	})
}

// prepareOutputDir creates the mirror directory. An already existing
// directory is an error unless overwriting was requested, in which case the
// run resumes into it and already materialized assets are skipped.
func prepareOutputDir(outDir string, env *state.LocalEnv, log *zap.Logger) error {
	if fi, err := os.Stat(outDir); err == nil {
		if !fi.IsDir() {
			return fmt.Errorf("output path exists and is not a directory: %s", outDir)
		}
		if !env.Overwrite {
			return fmt.Errorf("output directory already exists: %s", outDir)
		}
		log.Warn("Resuming into existing directory", zap.String("dir", outDir))
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}
	return nil
}

// collectStylesheets discovers stylesheets linked by the online landing page
// and downloads their text. The page carries everything the guide markup
// relies on, so any failure here is fatal.
func collectStylesheets(ctx context.Context, client *guide.Client, log *zap.Logger) ([]Stylesheet, error) {
	page, err := client.FetchPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch online page: %w", err)
	}
	online, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("unable to parse online page: %w", err)
	}

	var sheets []Stylesheet
	var ferr error
	online.Find(`link[rel="stylesheet"]`).EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, ok := link.Attr("href")
		if !ok || len(href) == 0 {
			return true
		}
		media, _ := link.Attr("media")

		text, err := client.FetchStylesheet(ctx, href)
		if err != nil {
			ferr = fmt.Errorf("unable to fetch stylesheet %q: %w", href, err)
			return false
		}
		log.Debug("Stylesheet fetched", zap.String("href", href), zap.String("media", media))
		sheets = append(sheets, Stylesheet{Href: href, Media: media, Text: text})
		return true
	})
	if ferr != nil {
		return nil, ferr
	}
	if len(sheets) == 0 {
		return nil, errors.New("online page references no stylesheets")
	}
	return sheets, nil
}

// writeStylesheets materializes the two stylesheet buffers the index page
// links to.
func writeStylesheets(outDir string, sheets []Stylesheet) error {
	screen, print := SplitStylesheets(sheets)
	if err := writeFile(filepath.Join(outDir, "main.css"), []byte(screen)); err != nil {
		return err
	}
	return writeFile(filepath.Join(outDir, "print.css"), []byte(print))
}

// writeDocument serializes the resolved document preserving its doctype.
func writeDocument(path string, doc *goquery.Document) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %q: %w", path, err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	if err := html.Render(w, doc.Get(0)); err != nil {
		return fmt.Errorf("unable to render document: %w", err)
	}
	return w.Flush()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create directory for %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write %q: %w", path, err)
	}
	return nil
}

func manifestText(manifest []Resource) []byte {
	var sb strings.Builder
	for _, res := range manifest {
		sb.WriteString(res.LocalPath)
		sb.WriteByte('\t')
		sb.WriteString(res.RemoteURL)
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}
