// Package guide talks to the vendor user-guide web API: session login,
// manual lookup, topic tree and content retrieval, asset downloads.
package guide

// TopicNode is one node of the guide topic tree as returned by the API.
// Children order is the table of contents order. A node with children never
// carries fetchable content of its own, a node without children is a leaf
// and the only kind that triggers a content fetch.
type TopicNode struct {
	NodeID     string      `json:"nodeId"`
	Label      string      `json:"label"`
	LinkTarget string      `json:"linkTarget"`
	Children   []TopicNode `json:"children"`
}

// Leaf reports whether this node has its own fetchable content.
func (n *TopicNode) Leaf() bool {
	return len(n.Children) == 0
}

// RefTarget is the resolution target of a single cross-topic link anchor.
// Target stays nil for dangling links - upstream serves those as no-ops
// rather than treating them as errors.
type RefTarget struct {
	Target *string `json:"target"`
}

// RefMap maps link anchor ids to their cross-topic targets. Anchor ids are
// unique across the whole guide, so maps from different topics merge without
// renaming.
type RefMap map[string]RefTarget

// Merge copies all entries of other into m.
func (m RefMap) Merge(other RefMap) {
	for k, v := range other {
		m[k] = v
	}
}

// ContentFragment is the fetched content of a single leaf topic.
type ContentFragment struct {
	BodyHTML string
	Refs     RefMap
}

// Manual describes one user guide available for the vehicle.
type Manual struct {
	Title   string `json:"title"`
	TopicID string `json:"topicId"`
}

// Guide is the root topic payload: the topic tree plus the abstract markup
// carrying vehicle model and variant spans.
type Guide struct {
	Topics       []TopicNode
	AbstractText string
}

type topicResponse struct {
	Trees []struct {
		Children []TopicNode `json:"children"`
	} `json:"trees"`
	BodyHTML     string `json:"bodyHtml"`
	LinkState    RefMap `json:"linkState"`
	AbstractText string `json:"abstractText"`
}

type searchResponse struct {
	Results            []Manual `json:"results"`
	AvailableLanguages []string `json:"availableLanguages"`
}

type vrmLookupResponse struct {
	Error          *string `json:"error"`
	VehicleDetails struct {
		VIN string `json:"vin"`
	} `json:"vehicleDetails"`
}
