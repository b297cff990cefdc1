package application

import (
	"context"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/atvirokodosprendimai/tokip/internal/hierarchy"
)

type TreeNode struct {
	Record   domain.Record `json:"record"`
	Children []TreeNode    `json:"children,omitempty"`
}

// Tree loads the whole forest, one query per kind, and nests it under the
// themes. Children appear grouped by kind in hierarchy order.
func (s *GoalService) Tree(ctx context.Context) ([]TreeNode, error) {
	byParent := make(map[hierarchy.Key][]domain.Record)
	var roots []domain.Record

	for _, kind := range domain.Kinds() {
		recs, err := s.store.SelectMany(ctx, kind, domain.Filter{})
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			parentKind, parentID, ok := rec.ParentRef()
			if !ok {
				roots = append(roots, rec)
				continue
			}
			key := hierarchy.Key{Kind: parentKind, ID: parentID}
			byParent[key] = append(byParent[key], rec)
		}
	}

	var build func(rec domain.Record) TreeNode
	build = func(rec domain.Record) TreeNode {
		node := TreeNode{Record: rec}
		for _, kid := range byParent[hierarchy.Key{Kind: rec.Kind, ID: rec.ID}] {
			node.Children = append(node.Children, build(kid))
		}
		return node
	}

	out := make([]TreeNode, 0, len(roots))
	for _, root := range roots {
		out = append(out, build(root))
	}
	return out, nil
}
