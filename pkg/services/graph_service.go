package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/apperrors"
	"github.com/abyssal-labs/archive-engine/pkg/models"
	"github.com/abyssal-labs/archive-engine/pkg/repositories"
)

// GraphService builds graph views over the archive: the full dependency
// graph, bounded subgraphs around an entry, and MITRE coverage.
type GraphService struct {
	entries repositories.EntryRepository
	logger  *zap.Logger
}

// NewGraphService creates the graph service.
func NewGraphService(entries repositories.EntryRepository, logger *zap.Logger) *GraphService {
	return &GraphService{
		entries: entries,
		logger:  logger.Named("graph"),
	}
}

func graphNodeFor(e *models.KnowledgeEntry) models.GraphNode {
	return models.GraphNode{
		ID:              e.ID.String(),
		Label:           e.Title,
		KnowledgeType:   e.KnowledgeType,
		SkillLevel:      e.SkillLevel,
		Tags:            e.Tags,
		MitreTechniques: e.MitreTechniques,
	}
}

// FullGraph returns every entry as a node plus all dependency and related
// edges. Edge targets are emitted as-is: an edge may point at an entry that no
// longer exists, and the client renders what it can.
func (s *GraphService) FullGraph(ctx context.Context, knowledgeType string) (*models.GraphData, error) {
	if knowledgeType != "" && !models.IsValidKnowledgeType(knowledgeType) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidType, knowledgeType)
	}

	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make([]models.GraphNode, 0, len(entries))
	edges := make([]models.GraphEdge, 0)

	for _, e := range entries {
		if knowledgeType != "" && e.KnowledgeType != knowledgeType {
			continue
		}

		nodes = append(nodes, graphNodeFor(e))

		for _, depID := range e.Dependencies {
			edges = append(edges, models.GraphEdge{
				ID:           fmt.Sprintf("dep-%s-%s", e.ID, depID),
				Source:       e.ID.String(),
				Target:       depID,
				Relationship: "dependency",
			})
		}
		for _, relID := range e.RelatedTechniques {
			edges = append(edges, models.GraphEdge{
				ID:           fmt.Sprintf("rel-%s-%s", e.ID, relID),
				Source:       e.ID.String(),
				Target:       relID,
				Relationship: "related",
			})
		}
	}

	return &models.GraphData{Nodes: nodes, Edges: edges}, nil
}

// EntrySubgraph walks outward from the root entry up to depth hops. Depth 0
// expands nothing, not even the root. Edges at the horizon are included even
// though their target nodes are not expanded; links to missing entries or
// malformed IDs keep the edge but truncate the branch. A cycle terminates
// because each node expands at most once.
func (s *GraphService) EntrySubgraph(ctx context.Context, rootID uuid.UUID, depth int) (*models.GraphData, error) {
	if depth < 0 {
		depth = 0
	}

	type frame struct {
		id        string
		remaining int
	}

	visited := make(map[string]bool)
	nodes := make([]models.GraphNode, 0)
	edges := make([]models.GraphEdge, 0)

	// Explicit worklist: depth is bounded by the hop budget on each frame, never
	// by call-stack depth.
	stack := []frame{{id: rootID.String(), remaining: depth}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[top.id] || top.remaining == 0 {
			continue
		}
		visited[top.id] = true

		id, err := uuid.Parse(top.id)
		if err != nil {
			// Malformed link target: the edge pointing here was already
			// emitted, the branch ends.
			continue
		}

		entry, err := s.entries.Get(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return nil, err
		}

		nodes = append(nodes, graphNodeFor(entry))

		depSet := make(map[string]bool, len(entry.Dependencies))
		for _, d := range entry.Dependencies {
			depSet[d] = true
		}

		linked := append(append([]string{}, entry.Dependencies...), entry.RelatedTechniques...)
		for _, linkedID := range linked {
			rel := "related"
			if depSet[linkedID] {
				rel = "dependency"
			}
			edges = append(edges, models.GraphEdge{
				ID:           fmt.Sprintf("%s-%s-%s", rel, entry.ID, linkedID),
				Source:       entry.ID.String(),
				Target:       linkedID,
				Relationship: rel,
			})
		}
		// Push in reverse so siblings expand in declaration order.
		for i := len(linked) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: linked[i], remaining: top.remaining - 1})
		}
	}

	return &models.GraphData{Nodes: nodes, Edges: edges}, nil
}

// CoverageGraph maps MITRE techniques to the entries that cover them. Entry
// nodes appear only when they participate in at least one coverage edge, so
// the graph shows coverage, not the whole archive.
func (s *GraphService) CoverageGraph(ctx context.Context) (*models.GraphData, error) {
	entries, err := s.entries.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// Preserve first-seen technique order for deterministic output.
	techniqueOrder := make([]string, 0)
	techniqueEntries := make(map[string][]string)
	for _, e := range entries {
		for _, technique := range e.MitreTechniques {
			if _, seen := techniqueEntries[technique]; !seen {
				techniqueOrder = append(techniqueOrder, technique)
			}
			techniqueEntries[technique] = append(techniqueEntries[technique], e.ID.String())
		}
	}

	nodes := make([]models.GraphNode, 0)
	edges := make([]models.GraphEdge, 0)

	for _, technique := range techniqueOrder {
		nodes = append(nodes, models.GraphNode{
			ID:            fmt.Sprintf("mitre-%s", technique),
			Label:         technique,
			KnowledgeType: "mitre-technique",
			SkillLevel:    1,
		})
		for _, eid := range techniqueEntries[technique] {
			edges = append(edges, models.GraphEdge{
				ID:           fmt.Sprintf("mitre-edge-%s-%s", technique, eid),
				Source:       eid,
				Target:       fmt.Sprintf("mitre-%s", technique),
				Relationship: "mitre_chain",
			})
		}
	}

	inEdges := make(map[string]bool)
	for _, edge := range edges {
		inEdges[edge.Source] = true
		inEdges[edge.Target] = true
	}
	for _, e := range entries {
		if inEdges[e.ID.String()] {
			nodes = append(nodes, graphNodeFor(e))
		}
	}

	return &models.GraphData{Nodes: nodes, Edges: edges}, nil
}
