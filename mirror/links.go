package mirror

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"ugm/config"
	"ugm/guide"
)

// Resolver rewrites the link graph of the assembled document so that it
// works without a live backend, and applies the presentation mode and table
// of contents placement tweaks to the page chrome. All passes mutate the
// parsed document in place.
type Resolver struct {
	mode      config.PresentationMode
	placement config.TOCPlacement
	log       *zap.Logger
}

func NewResolver(mode config.PresentationMode, placement config.TOCPlacement, log *zap.Logger) *Resolver {
	return &Resolver{mode: mode, placement: placement, log: log.Named("links")}
}

var (
	colClassPattern  = regexp.MustCompile(`col-md-[0-9]+`)
	stickyTopPattern = regexp.MustCompile(`top:\s*[0-9]+px\s*;?`)
	overflowPattern  = regexp.MustCompile(`overflow-y:\s*scroll\s*;?`)
	maxHeightPattern = regexp.MustCompile(`max-height:\s*[0-9]+px\s*;?`)
)

// Apply runs all document passes. refs is the merged reference map produced
// during assembly.
func (r *Resolver) Apply(doc *goquery.Document, refs guide.RefMap) {
	r.placeTOC(doc)
	r.expandEverything(doc)
	r.rewriteFragmentLinks(doc)
	r.rewriteDynamicLinks(doc, refs)
	r.flattenTooltips(doc)
}

// placeTOC moves the table of contents treeview according to the configured
// placement. Sidebar is what the templates produce, so nothing to do there.
func (r *Resolver) placeTOC(doc *goquery.Document) {
	if r.placement == config.TOCPlacementSidebar {
		return
	}

	// the body part takes the full width once the sidebar is gone
	rewriteAttr(doc.Find("#resultList"), "class", func(v string) string {
		return colClassPattern.ReplaceAllString(v, "col-md-12")
	})

	switch r.placement {
	case config.TOCPlacementNone:
		doc.Find("#sideBar").AddClass("mobileSidebar")

	case config.TOCPlacementHeader:
		sidebar := doc.Find("#sideBar")
		rewriteAttr(sidebar, "class", func(v string) string {
			v = colClassPattern.ReplaceAllString(v, "col-md-6")
			v = strings.ReplaceAll(v, "cssSticky", "")
			return strings.TrimSpace(v) + " col-md-offset-3"
		})
		rewriteAttr(sidebar, "style", func(v string) string {
			return stickyTopPattern.ReplaceAllString(v, "")
		})
		// no scrollbar and no height cap - the treeview gets all the
		// vertical space it needs at the top of the page
		rewriteAttr(doc.Find("#contentTable"), "style", func(v string) string {
			return maxHeightPattern.ReplaceAllString(overflowPattern.ReplaceAllString(v, ""), "")
		})
		rewriteAttr(doc.Find("#tabs_sidebar"), "style", func(v string) string {
			return maxHeightPattern.ReplaceAllString(v, "")
		})
		// only the first level of treeview nodes starts expanded
		doc.Find("ul.tree > li.toc_entry > .contentTable__panel.w_children").AddClass("selected")
	}
}

// expandEverything marks all chapters visible when the whole guide is
// presented expanded. In the other modes chapters start collapsed and are
// driven by the client side handlers.
func (r *Resolver) expandEverything(doc *goquery.Document) {
	if r.mode != config.PresentationModeAll {
		return
	}
	doc.Find(`div[id^="title"].tttitle, div.ttchildren`).AddClass("selected")
}

// rewriteFragmentLinks turns same-document fragment anchors into inert
// placeholders handled by the client side handlers. With everything
// expanded plain browser navigation works and links stay as they are.
func (r *Resolver) rewriteFragmentLinks(doc *goquery.Document) {
	if r.mode == config.PresentationModeAll {
		return
	}
	doc.Find(`a[href^="#"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		a.SetAttr("data-goto", strings.TrimPrefix(href, "#"))
		a.SetAttr("href", "#")
	})
}

// rewriteDynamicLinks resolves cross-topic links through the merged
// reference map. An anchor id missing from the map means its topic failed to
// fetch - the link is left inert rather than failing the run.
func (r *Resolver) rewriteDynamicLinks(doc *goquery.Document, refs guide.RefMap) {
	doc.Find("a.dynamic-link").Each(func(_ int, a *goquery.Selection) {
		id, _ := a.Attr("id")
		ref, known := refs[id]
		if !known {
			r.log.Warn("Cross-topic link has no reference entry, leaving it inert", zap.String("anchor", id))
		}

		if r.mode == config.PresentationModeAll {
			href := "#"
			if known && ref.Target != nil {
				href += *ref.Target
			}
			a.SetAttr("href", href)
		} else {
			a.SetAttr("href", "#")
			if known {
				target := ""
				if ref.Target != nil {
					target = *ref.Target
				}
				a.SetAttr("data-goto", target)
			} else {
				a.RemoveAttr("data-goto")
			}
		}

		// these only mean something to the live API
		a.RemoveAttr("checked-link")
		a.RemoveAttr("data-facets")
	})
}

// flattenTooltips strips markup from popover contents - the offline page
// renders them as plain browser tooltips.
func (r *Resolver) flattenTooltips(doc *goquery.Document) {
	doc.Find(`span[data-toggle="popover"]`).Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("data-content")
		if !ok || len(content) == 0 {
			return
		}
		inner, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			return
		}
		s.SetAttr("data-content", inner.Text())
	})
}

func rewriteAttr(sel *goquery.Selection, name string, fn func(string) string) {
	if v, ok := sel.Attr(name); ok {
		sel.SetAttr(name, fn(v))
	}
}
