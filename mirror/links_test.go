package mirror

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap/zaptest"

	"ugm/config"
	"ugm/guide"
)

func parseDoc(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func applyResolver(t *testing.T, mode config.PresentationMode, placement config.TOCPlacement, markup string, refs guide.RefMap) *goquery.Document {
	t.Helper()
	doc := parseDoc(t, markup)
	NewResolver(mode, placement, zaptest.NewLogger(t)).Apply(doc, refs)
	return doc
}

func TestResolver_FragmentLinks(t *testing.T) {
	markup := `<body><a href="#section1">jump</a><a href="other.html">out</a></body>`

	t.Run("collapsed modes rewrite to handler", func(t *testing.T) {
		doc := applyResolver(t, config.PresentationModeSingle, config.TOCPlacementSidebar, markup, nil)
		a := doc.Find(`a[data-goto]`)
		if a.Length() != 1 {
			t.Fatalf("rewritten links = %d, want 1", a.Length())
		}
		if v, _ := a.Attr("data-goto"); v != "section1" {
			t.Errorf("data-goto = %q, want section1", v)
		}
		if v, _ := a.Attr("href"); v != "#" {
			t.Errorf("href = %q, want #", v)
		}
	})

	t.Run("expanded mode keeps plain anchors", func(t *testing.T) {
		doc := applyResolver(t, config.PresentationModeAll, config.TOCPlacementSidebar, markup, nil)
		if doc.Find(`a[data-goto]`).Length() != 0 {
			t.Error("expanded mode must not rewrite fragment links")
		}
		if v, _ := doc.Find(`a[href="#section1"]`).Attr("href"); v != "#section1" {
			t.Error("fragment href was changed in expanded mode")
		}
	})
}

func TestResolver_DynamicLinks(t *testing.T) {
	markup := `<body>` +
		`<a class="dynamic-link" id="l1" href="x" checked-link="y" data-facets="z">one</a>` +
		`<a class="dynamic-link" id="l2" href="x">two</a>` +
		`<a class="dynamic-link" id="l3" href="x" data-goto="stale">three</a>` +
		`</body>`
	refs := guide.RefMap{
		"l1": {Target: strptr("topic42")},
		"l2": {Target: nil},
	}

	t.Run("expanded mode", func(t *testing.T) {
		doc := applyResolver(t, config.PresentationModeAll, config.TOCPlacementSidebar, markup, refs)

		if v, _ := doc.Find("#l1").Attr("href"); v != "#topic42" {
			t.Errorf("resolved link href = %q, want #topic42", v)
		}
		// null target serves as a no-op, not an error
		if v, _ := doc.Find("#l2").Attr("href"); v != "#" {
			t.Errorf("null target href = %q, want #", v)
		}
		if _, ok := doc.Find("#l1").Attr("checked-link"); ok {
			t.Error("checked-link attribute survived")
		}
		if _, ok := doc.Find("#l1").Attr("data-facets"); ok {
			t.Error("data-facets attribute survived")
		}
	})

	t.Run("collapsed mode", func(t *testing.T) {
		doc := applyResolver(t, config.PresentationModeToggle, config.TOCPlacementSidebar, markup, refs)

		if v, _ := doc.Find("#l1").Attr("data-goto"); v != "topic42" {
			t.Errorf("resolved link data-goto = %q, want topic42", v)
		}
		if v, _ := doc.Find("#l1").Attr("href"); v != "#" {
			t.Errorf("resolved link href = %q, want #", v)
		}
		if v, ok := doc.Find("#l2").Attr("data-goto"); !ok || v != "" {
			t.Errorf("null target data-goto = %q/%v, want empty attribute", v, ok)
		}
		// no reference entry at all - link stays inert
		if _, ok := doc.Find("#l3").Attr("data-goto"); ok {
			t.Error("unresolvable link kept a stale data-goto")
		}
	})
}

func TestResolver_ExpandEverything(t *testing.T) {
	markup := `<body>` +
		`<div class="topic"><div id="title1" class="tttitle">t</div><div class="ttchildren">c</div></div>` +
		`</body>`

	doc := applyResolver(t, config.PresentationModeAll, config.TOCPlacementSidebar, markup, nil)
	if !doc.Find("#title1").HasClass("selected") {
		t.Error("chapter title not marked visible in expanded mode")
	}
	if !doc.Find(".ttchildren").HasClass("selected") {
		t.Error("chapter content not marked visible in expanded mode")
	}

	doc = applyResolver(t, config.PresentationModeSingle, config.TOCPlacementSidebar, markup, nil)
	if doc.Find(".selected").Length() != 0 {
		t.Error("collapsed mode must start with everything hidden")
	}
}

const chromeMarkup = `<body><div class="row">` +
	`<nav id="sideBar" class="col-md-3 cssSticky" style="top: 60px;">` +
	`<div id="tabs_sidebar" style="max-height: 800px;">` +
	`<div id="contentTable" style="overflow-y: scroll; max-height: 800px;">` +
	`<ul class="tree"><li class="toc_entry"><div class="contentTable__panel w_children">top</div></li></ul>` +
	`</div></div></nav>` +
	`<main id="resultList" class="col-md-9"></main>` +
	`</div></body>`

func TestResolver_PlaceTOC(t *testing.T) {
	t.Run("sidebar leaves chrome alone", func(t *testing.T) {
		doc := applyResolver(t, config.PresentationModeSingle, config.TOCPlacementSidebar, chromeMarkup, nil)
		if !doc.Find("#resultList").HasClass("col-md-9") {
			t.Error("sidebar placement must not touch the layout")
		}
	})

	t.Run("none hides sidebar", func(t *testing.T) {
		doc := applyResolver(t, config.PresentationModeSingle, config.TOCPlacementNone, chromeMarkup, nil)
		if !doc.Find("#sideBar").HasClass("mobileSidebar") {
			t.Error("sidebar was not hidden")
		}
		if !doc.Find("#resultList").HasClass("col-md-12") {
			t.Error("content did not take the full width")
		}
	})

	t.Run("header moves treeview up", func(t *testing.T) {
		doc := applyResolver(t, config.PresentationModeSingle, config.TOCPlacementHeader, chromeMarkup, nil)

		sidebar := doc.Find("#sideBar")
		if !sidebar.HasClass("col-md-6") || !sidebar.HasClass("col-md-offset-3") {
			c, _ := sidebar.Attr("class")
			t.Errorf("sidebar class = %q", c)
		}
		if sidebar.HasClass("cssSticky") {
			t.Error("header placement must not stay sticky")
		}
		if style, _ := sidebar.Attr("style"); strings.Contains(style, "top:") {
			t.Errorf("sticky offset survived: %q", style)
		}
		if style, _ := doc.Find("#contentTable").Attr("style"); strings.Contains(style, "scroll") || strings.Contains(style, "max-height") {
			t.Errorf("treeview kept its scroll cage: %q", style)
		}
		if !doc.Find(".contentTable__panel").HasClass("selected") {
			t.Error("first treeview level must start expanded")
		}
	})
}

func TestResolver_FlattenTooltips(t *testing.T) {
	markup := `<body><span data-toggle="popover" data-content="&lt;b&gt;bold&lt;/b&gt; note">i</span></body>`
	doc := applyResolver(t, config.PresentationModeSingle, config.TOCPlacementSidebar, markup, nil)

	if v, _ := doc.Find(`span[data-toggle="popover"]`).Attr("data-content"); v != "bold note" {
		t.Errorf("data-content = %q, want plain text", v)
	}
}
