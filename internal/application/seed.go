package application

import (
	"context"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
)

type seedNode struct {
	kind     domain.Kind
	title    string
	status   domain.Status
	children []seedNode
}

var physique = seedNode{
	kind: domain.KindTheme, title: "Physique",
	children: []seedNode{{
		kind: domain.KindObjective, title: "Build a killer physique",
		children: []seedNode{
			{kind: domain.KindInitiative, title: "Go to the gym once per week", status: domain.StatusInProgress},
			{kind: domain.KindInitiative, title: "Meal prep twice per week"},
			{kind: domain.KindKeyResult, title: "Body fat percentage of 12%", children: []seedNode{
				{kind: domain.KindMeasurement, title: "20% body fat"},
				{kind: domain.KindMeasurement, title: "18% body fat"},
			}},
			{kind: domain.KindKeyResult, title: "Muscle mass of 40 kilograms"},
			{kind: domain.KindProject, title: "Determine gym routine", children: []seedNode{
				{kind: domain.KindTask, title: "Read Body By Science"},
				{kind: domain.KindTask, title: "Schedule in gym time"},
			}},
			{kind: domain.KindProject, title: "Create diet plan", children: []seedNode{
				{kind: domain.KindTask, title: "Read the PE diet", status: domain.StatusInProgress},
				{kind: domain.KindTask, title: "Calculate protein/energy ratio by cost for groceries", status: domain.StatusCompleted},
			}},
		},
	}},
}

// SeedExample loads the "Physique" sample hierarchy and returns the new
// theme.
func (s *GoalService) SeedExample(ctx context.Context) (domain.Record, error) {
	return s.seed(ctx, physique, 0)
}

func (s *GoalService) seed(ctx context.Context, node seedNode, parentID uint) (domain.Record, error) {
	in := CreateInput{Title: node.title, ParentID: parentID}
	if node.status != "" {
		status := node.status
		in.Status = &status
	}
	rec, err := s.Create(ctx, node.kind, in)
	if err != nil {
		return domain.Record{}, err
	}
	for _, child := range node.children {
		if _, err := s.seed(ctx, child, rec.ID); err != nil {
			return domain.Record{}, err
		}
	}
	// Re-read: children may have moved the derived status.
	return s.store.SelectOne(ctx, rec.Kind, rec.ID)
}
