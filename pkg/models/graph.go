package models

// GraphNode is one vertex in a derived graph view. For entry nodes the id is the
// entry identifier; technique nodes in the coverage graph carry a "mitre-" prefix
// so they can never collide with entry ids.
type GraphNode struct {
	ID              string   `json:"id"`
	Label           string   `json:"label"`
	KnowledgeType   string   `json:"knowledge_type"`
	SkillLevel      int      `json:"skill_level"`
	Tags            []string `json:"tags,omitempty"`
	MitreTechniques []string `json:"mitre_techniques,omitempty"`
}

// GraphEdge is one directed edge. The id is a deterministic string combining the
// relationship kind and both endpoints, so a given kind appears at most once per
// ordered pair. The target may name a node absent from the node list when the
// referenced entry does not exist.
type GraphEdge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"` // dependency, related, mitre_chain
}

// GraphData is the wire shape of every graph view. Edges are never persisted;
// each view is recomputed from the entry collection on request.
type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
