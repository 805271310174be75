package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"ugm/config"
	"ugm/guide"
)

// fakeFetcher serves canned fragments with a configurable delay so that
// completion order differs from request order.
type fakeFetcher struct {
	mu       sync.Mutex
	frags    map[string]*guide.ContentFragment
	fail     map[string]error
	delay    map[string]time.Duration
	requests []string
}

func (f *fakeFetcher) FetchTopic(ctx context.Context, key string) (*guide.ContentFragment, error) {
	f.mu.Lock()
	f.requests = append(f.requests, key)
	f.mu.Unlock()

	if d, ok := f.delay[key]; ok {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err, ok := f.fail[key]; ok {
		return nil, err
	}
	frag, ok := f.frags[key]
	if !ok {
		return nil, guide.ErrNotFound
	}
	return frag, nil
}

func fragment(body string, refs guide.RefMap) *guide.ContentFragment {
	if refs == nil {
		refs = make(guide.RefMap)
	}
	return &guide.ContentFragment{BodyHTML: body, Refs: refs}
}

func leaf(id, label, target string) guide.TopicNode {
	return guide.TopicNode{NodeID: id, Label: label, LinkTarget: target}
}

func strptr(s string) *string { return &s }

func newTestAssembler(t *testing.T, f Fetcher, placement config.TOCPlacement, onError config.OnFetchError, workers int) *Assembler {
	t.Helper()
	tmpl, err := LoadTemplates("")
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller()))
	return NewAssembler(tmpl, f, placement, onError, workers, log)
}

func TestAssemble_OrderIsTreeOrder(t *testing.T) {
	// first topic is slow, output order must not change
	f := &fakeFetcher{
		frags: map[string]*guide.ContentFragment{
			"k1": fragment("<p>first</p>", nil),
			"k2": fragment("<p>second</p>", nil),
			"k3": fragment("<p>third</p>", nil),
		},
		delay: map[string]time.Duration{"k1": 50 * time.Millisecond},
	}
	topics := []guide.TopicNode{
		leaf("1", "One", "k1"),
		{NodeID: "2", Label: "Two", Children: []guide.TopicNode{
			leaf("21", "TwoOne", "k2"),
		}},
		leaf("3", "Three", "k3"),
	}

	a := newTestAssembler(t, f, config.TOCPlacementSidebar, config.OnFetchErrorTolerate, 4)
	unit, err := a.Assemble(context.Background(), topics)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	iFirst := strings.Index(unit.Body, "first")
	iSecond := strings.Index(unit.Body, "second")
	iThird := strings.Index(unit.Body, "third")
	if iFirst < 0 || iSecond < 0 || iThird < 0 {
		t.Fatalf("Assemble() lost content: %q", unit.Body)
	}
	if !(iFirst < iSecond && iSecond < iThird) {
		t.Errorf("content out of order: %d %d %d", iFirst, iSecond, iThird)
	}

	iOne := strings.Index(unit.TOC, "One")
	iTwo := strings.Index(unit.TOC, "Two")
	if iOne < 0 || iTwo < 0 || iOne > iTwo {
		t.Errorf("TOC out of order: %q", unit.TOC)
	}
}

func TestAssemble_RefMapsMerge(t *testing.T) {
	f := &fakeFetcher{
		frags: map[string]*guide.ContentFragment{
			"k1": fragment("<p>a</p>", guide.RefMap{"anchor1": {Target: strptr("t1")}}),
			"k2": fragment("<p>b</p>", guide.RefMap{"anchor2": {Target: nil}}),
		},
	}
	topics := []guide.TopicNode{leaf("1", "One", "k1"), leaf("2", "Two", "k2")}

	a := newTestAssembler(t, f, config.TOCPlacementSidebar, config.OnFetchErrorTolerate, 2)
	unit, err := a.Assemble(context.Background(), topics)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	if len(unit.Refs) != 2 {
		t.Fatalf("merged refs = %d entries, want 2", len(unit.Refs))
	}
	if ref := unit.Refs["anchor1"]; ref.Target == nil || *ref.Target != "t1" {
		t.Error("anchor1 target was lost during merge")
	}
	if ref := unit.Refs["anchor2"]; ref.Target != nil {
		t.Error("anchor2 null target must survive the merge")
	}
}

func TestAssemble_ToleratePolicy(t *testing.T) {
	f := &fakeFetcher{
		frags: map[string]*guide.ContentFragment{"k2": fragment("<p>ok</p>", nil)},
		fail:  map[string]error{"k1": guide.ErrNotFound},
	}
	topics := []guide.TopicNode{leaf("1", "One", "k1"), leaf("2", "Two", "k2")}

	a := newTestAssembler(t, f, config.TOCPlacementSidebar, config.OnFetchErrorTolerate, 2)
	unit, err := a.Assemble(context.Background(), topics)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if !strings.Contains(unit.Body, "<div></div>") {
		t.Error("failed topic was not substituted with an empty placeholder")
	}
	if !strings.Contains(unit.Body, "ok") {
		t.Error("healthy topic content was lost")
	}
	// failed or not, every topic keeps its TOC entry
	if !strings.Contains(unit.TOC, "One") || !strings.Contains(unit.TOC, "Two") {
		t.Errorf("TOC lost entries: %q", unit.TOC)
	}
}

func TestAssemble_CrashPolicy(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFetcher{
		frags: map[string]*guide.ContentFragment{"k2": fragment("<p>ok</p>", nil)},
		fail:  map[string]error{"k1": boom},
	}
	topics := []guide.TopicNode{leaf("1", "One", "k1"), leaf("2", "Two", "k2")}

	a := newTestAssembler(t, f, config.TOCPlacementSidebar, config.OnFetchErrorCrash, 2)
	if _, err := a.Assemble(context.Background(), topics); !errors.Is(err, boom) {
		t.Errorf("Assemble() error = %v, want wrapped fetch failure", err)
	}
}

func TestAssemble_HeaderPlacementFlattensTOC(t *testing.T) {
	f := &fakeFetcher{
		frags: map[string]*guide.ContentFragment{"k": fragment("<p>x</p>", nil)},
	}
	topics := []guide.TopicNode{
		{NodeID: "1", Label: "Top", Children: []guide.TopicNode{
			{NodeID: "11", Label: "Mid", Children: []guide.TopicNode{
				leaf("111", "Leaf", "k"),
			}},
		}},
	}

	a := newTestAssembler(t, f, config.TOCPlacementHeader, config.OnFetchErrorTolerate, 1)
	unit, err := a.Assemble(context.Background(), topics)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	// nested branch entries become plain jumps to their chapter title
	if !strings.Contains(unit.TOC, `href="#title11"`) {
		t.Errorf("nested branch entry is not a title jump: %q", unit.TOC)
	}
	// the top level keeps its expandable panel
	if !strings.Contains(unit.TOC, "w_children") {
		t.Errorf("top level entry lost its panel: %q", unit.TOC)
	}
}

func TestAssemble_SharedTargetRendersEverywhere(t *testing.T) {
	f := &fakeFetcher{
		frags: map[string]*guide.ContentFragment{"k": fragment("<p>shared</p>", nil)},
	}
	topics := []guide.TopicNode{leaf("1", "One", "k"), leaf("2", "Two", "k")}

	a := newTestAssembler(t, f, config.TOCPlacementSidebar, config.OnFetchErrorTolerate, 1)
	unit, err := a.Assemble(context.Background(), topics)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if got := strings.Count(unit.Body, "shared"); got != 2 {
		t.Errorf("shared content rendered %d times, want 2", got)
	}
}

func TestUnwrapShell(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain fragment", "<p>text</p>", "<p>text</p>"},
		{"wrapped", "<html lang=\"en\"><p>text</p></html>", "<p>text</p>"},
		{"wrapped multiline", "<html>\n<p>a</p>\n<p>b</p>\n</html>", "\n<p>a</p>\n<p>b</p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unwrapShell(tt.in); got != tt.want {
				t.Errorf("unwrapShell() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollectLeaves(t *testing.T) {
	topics := []guide.TopicNode{
		{NodeID: "1", Children: []guide.TopicNode{
			leaf("11", "", "a"),
			leaf("12", "", ""),
			{NodeID: "13", Children: []guide.TopicNode{leaf("131", "", "b")}},
		}},
		leaf("2", "", "c"),
	}
	got := collectLeaves(topics, nil)
	want := []string{"a", "b", "c"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("collectLeaves() = %v, want %v", got, want)
	}
}
