package config

//go:generate go tool go-enum --marshal --names --file $GOFILE

// PresentationMode controls how mirrored guide chapters expand without a
// live backend: "all" keeps everything visible, "single" shows one chapter
// at a time, "toggle" lets chapters be expanded independently.
// ENUM(all, single, toggle)
type PresentationMode int

// TOCPlacement is where the table of contents goes on the page.
// ENUM(sidebar, header, none)
type TOCPlacement int

// OnFetchError is what to do when a topic download fails.
// ENUM(tolerate, crash)
type OnFetchError int

func (p TOCPlacement) Expandable(depth int) bool {
	// header placement keeps only the top level of the tree expandable
	return p != TOCPlacementHeader || depth == 0
}
