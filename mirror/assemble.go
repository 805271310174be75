package mirror

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"ugm/config"
	"ugm/guide"
)

// RenderedUnit is the assembly output for one subtree: the document body
// markup, the table of contents markup and the merged link reference map.
// The three values always travel together so sibling results cannot drift
// apart.
type RenderedUnit struct {
	Body string
	TOC  string
	Refs guide.RefMap
}

// Fetcher is the content retrieval boundary of the assembler. It must be
// safe for concurrent use.
type Fetcher interface {
	FetchTopic(ctx context.Context, key string) (*guide.ContentFragment, error)
}

// Assembler turns a topic tree into a RenderedUnit. Content of leaf topics
// is fetched up front by a bounded worker pool, the merge itself is a pure
// synchronous walk over already resolved fragments - completion order of
// fetches never influences document order.
type Assembler struct {
	tmpl      TemplateSet
	fetcher   Fetcher
	placement config.TOCPlacement
	onError   config.OnFetchError
	workers   int
	log       *zap.Logger
}

func NewAssembler(tmpl TemplateSet, fetcher Fetcher, placement config.TOCPlacement, onError config.OnFetchError, workers int, log *zap.Logger) *Assembler {
	if workers < 1 {
		workers = 1
	}
	return &Assembler{
		tmpl:      tmpl,
		fetcher:   fetcher,
		placement: placement,
		onError:   onError,
		workers:   workers,
		log:       log.Named("assemble"),
	}
}

// Assemble produces the RenderedUnit covering all top level topics in the
// order they were supplied.
func (a *Assembler) Assemble(ctx context.Context, topics []guide.TopicNode) (*RenderedUnit, error) {
	fragments, err := a.fetchAll(ctx, topics)
	if err != nil {
		return nil, err
	}

	unit := &RenderedUnit{Refs: make(guide.RefMap)}
	var body, toc strings.Builder
	for i := range topics {
		child, err := a.merge(&topics[i], fragments, 0)
		if err != nil {
			return nil, err
		}
		body.WriteString(child.Body)
		toc.WriteString(child.TOC)
		unit.Refs.Merge(child.Refs)
	}
	unit.Body = body.String()
	unit.TOC = toc.String()
	return unit, nil
}

// collectLeaves walks the tree depth-first gathering content keys of all
// leaves that have something to fetch.
func collectLeaves(topics []guide.TopicNode, keys []string) []string {
	for i := range topics {
		if topics[i].Leaf() {
			if len(topics[i].LinkTarget) > 0 {
				keys = append(keys, topics[i].LinkTarget)
			}
			continue
		}
		keys = collectLeaves(topics[i].Children, keys)
	}
	return keys
}

type fetchResult struct {
	key  string
	frag *guide.ContentFragment
	err  error
}

// fetchAll executes the fetch plan with bounded parallelism. Under the crash
// policy the first failure cancels outstanding work and aborts, under the
// tolerant policy failed topics become empty placeholders.
func (a *Assembler) fetchAll(ctx context.Context, topics []guide.TopicNode) (map[string]*guide.ContentFragment, error) {
	keys := collectLeaves(topics, nil)
	fragments := make(map[string]*guide.ContentFragment, len(keys))
	if len(keys) == 0 {
		return fragments, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan fetchResult, len(keys))

	var wg sync.WaitGroup
	for w := 0; w < a.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				frag, err := a.fetcher.FetchTopic(ctx, key)
				select {
				case results <- fetchResult{key: key, frag: frag, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, key := range keys {
			select {
			case jobs <- key:
			case <-ctx.Done():
				return
			}
		}
	}()

	var failed error
	for range keys {
		var res fetchResult
		select {
		case res = <-results:
		case <-ctx.Done():
			failed = ctx.Err()
		}
		if failed != nil {
			break
		}
		if res.err != nil {
			if a.onError == config.OnFetchErrorCrash {
				failed = fmt.Errorf("unable to fetch topic %q: %w", res.key, res.err)
				break
			}
			if !errors.Is(res.err, guide.ErrNotFound) && ctx.Err() != nil {
				failed = ctx.Err()
				break
			}
			a.log.Warn("Topic could not be fetched, leaving it blank", zap.String("key", res.key), zap.Error(res.err))
			fragments[res.key] = &guide.ContentFragment{BodyHTML: "<div></div>", Refs: make(guide.RefMap)}
			continue
		}
		fragments[res.key] = res.frag
	}

	// stop handing out work and drain workers before returning
	cancel()
	wg.Wait()

	if failed != nil {
		return nil, failed
	}
	return fragments, nil
}

// merge is the pure recursive part of the assembly: no I/O, deterministic,
// children strictly in supplied order.
func (a *Assembler) merge(node *guide.TopicNode, fragments map[string]*guide.ContentFragment, depth int) (*RenderedUnit, error) {
	a.log.Debug("Processing chapter", zap.String("label", node.Label), zap.Int("depth", depth))

	if !node.Leaf() {
		var body, toc strings.Builder
		refs := make(guide.RefMap)
		for i := range node.Children {
			child, err := a.merge(&node.Children[i], fragments, depth+1)
			if err != nil {
				return nil, err
			}
			body.WriteString(child.Body)
			toc.WriteString(child.TOC)
			refs.Merge(child.Refs)
		}

		repl := map[string]string{
			"TOPIC_ID":       node.NodeID,
			"TOPIC_TITLE":    node.Label,
			"TOPIC_CHILDREN": body.String(),
			"TOC_CHILDREN":   toc.String(),
		}
		unitBody, err := a.tmpl.Expand(TemplateTopicWithChildren, repl)
		if err != nil {
			return nil, err
		}
		var unitTOC string
		if a.placement.Expandable(depth) {
			unitTOC, err = a.tmpl.Expand(TemplateTOCWithChildren, repl)
		} else {
			// flattened placement: this entry only jumps to its title
			repl["TOPIC_LINK"] = "title" + node.NodeID
			unitTOC, err = a.tmpl.Expand(TemplateTOCLeaf, repl)
		}
		if err != nil {
			return nil, err
		}
		return &RenderedUnit{Body: unitBody, TOC: unitTOC, Refs: refs}, nil
	}

	content := ""
	refs := make(guide.RefMap)
	if len(node.LinkTarget) > 0 {
		frag, ok := fragments[node.LinkTarget]
		if !ok {
			// fetch was cancelled or lost, tolerated the same way as a
			// missing topic
			a.log.Warn("No content fetched for topic, leaving it blank", zap.String("key", node.LinkTarget))
			frag = &guide.ContentFragment{BodyHTML: "<div></div>", Refs: make(guide.RefMap)}
		}
		content = unwrapShell(frag.BodyHTML)
		refs.Merge(frag.Refs)
	}

	repl := map[string]string{
		"TOPIC_ID":      node.NodeID,
		"TOPIC_LINK":    node.LinkTarget,
		"TOPIC_TITLE":   node.Label,
		"TOPIC_CONTENT": content,
	}
	unitBody, err := a.tmpl.Expand(TemplateTopicLeaf, repl)
	if err != nil {
		return nil, err
	}
	unitTOC, err := a.tmpl.Expand(TemplateTOCLeaf, repl)
	if err != nil {
		return nil, err
	}
	return &RenderedUnit{Body: unitBody, TOC: unitTOC, Refs: refs}, nil
}

// shellPattern captures the inner content of a full document wrapper some
// topics arrive in.
var shellPattern = regexp.MustCompile(`(?s)<html[^>]*>(.*)</html>`)

// unwrapShell keeps only the inner content when a fragment carries an outer
// document shell.
func unwrapShell(body string) string {
	if !strings.Contains(body, "</html>") {
		return body
	}
	if m := shellPattern.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return body
}
