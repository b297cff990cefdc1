package main

import (
	"bytes"
	"testing"

	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPrintTree(t *testing.T) {
	forest := []application.TreeNode{{
		Record: domain.Record{Kind: domain.KindTheme, ID: 1, Title: "Physique", Status: domain.StatusInProgress},
		Children: []application.TreeNode{
			{
				Record: domain.Record{Kind: domain.KindObjective, ID: 1, ParentID: 1, Title: "Build a killer physique", Status: domain.StatusInProgress},
				Children: []application.TreeNode{
					{Record: domain.Record{Kind: domain.KindKeyResult, ID: 1, ParentID: 1, Title: "20% body fat"}},
					{Record: domain.Record{Kind: domain.KindProject, ID: 1, ParentID: 1, Title: "Determine gym routine", Status: domain.StatusCompleted}},
				},
			},
		},
	}}

	var buf bytes.Buffer
	printTree(&buf, forest)

	want := "Theme #1 Physique [In Progress]\n" +
		"└── Objective #1 Build a killer physique [In Progress]\n" +
		"    ├── Key Result #1 20% body fat\n" +
		"    └── Project #1 Determine gym routine [Completed]\n"
	assert.Equal(t, want, buf.String())
}

func TestPrintTreeEmpty(t *testing.T) {
	var buf bytes.Buffer
	printTree(&buf, nil)
	assert.Equal(t, "no themes\n", buf.String())
}
