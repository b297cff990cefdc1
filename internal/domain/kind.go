package domain

import (
	"fmt"
	"strings"
)

type Kind string

const (
	KindTheme       Kind = "theme"
	KindObjective   Kind = "objective"
	KindKeyResult   Kind = "keyresult"
	KindInitiative  Kind = "initiative"
	KindProject     Kind = "project"
	KindTask        Kind = "task"
	KindMeasurement Kind = "measurement"
)

type StatusMode int

const (
	// StatusNone marks kinds that carry no status at all.
	StatusNone StatusMode = iota
	// StatusSettable marks leaf kinds whose status is human input.
	StatusSettable
	// StatusDerived marks composite kinds whose status is the rollup of their children.
	StatusDerived
)

// KindSpec describes a resource kind: where it is stored, who its parent is,
// which children hang off it and how its status behaves.
type KindSpec struct {
	Kind        Kind
	Label       string
	Plural      string
	Table       string
	Parent      Kind
	ParentField string
	Children    []Kind
	Status      StatusMode
	TitleLabel  string
}

func (s KindSpec) IsRoot() bool { return s.Parent == "" }

func (s KindSpec) HasStatus() bool { return s.Status != StatusNone }

// StatusSources returns the child kinds whose statuses feed this kind's rollup.
func (s KindSpec) StatusSources() []Kind {
	if s.Status != StatusDerived {
		return nil
	}
	out := make([]Kind, 0, len(s.Children))
	for _, child := range s.Children {
		if kindSpecs[child].HasStatus() {
			out = append(out, child)
		}
	}
	return out
}

var kindOrder = []Kind{
	KindTheme, KindObjective, KindKeyResult, KindInitiative, KindProject, KindTask, KindMeasurement,
}

var kindSpecs = map[Kind]KindSpec{
	KindTheme: {
		Kind: KindTheme, Label: "Theme", Plural: "themes", Table: "themes",
		Children: []Kind{KindObjective},
		Status:   StatusDerived, TitleLabel: "Title",
	},
	KindObjective: {
		Kind: KindObjective, Label: "Objective", Plural: "objectives", Table: "objectives",
		Parent: KindTheme, ParentField: "theme_id",
		Children: []Kind{KindKeyResult, KindInitiative, KindProject},
		Status:   StatusDerived, TitleLabel: "Title",
	},
	KindKeyResult: {
		Kind: KindKeyResult, Label: "Key Result", Plural: "keyresults", Table: "keyresults",
		Parent: KindObjective, ParentField: "objective_id",
		Children: []Kind{KindMeasurement},
		Status:   StatusNone, TitleLabel: "Title",
	},
	KindInitiative: {
		Kind: KindInitiative, Label: "Initiative", Plural: "initiatives", Table: "initiatives",
		Parent: KindObjective, ParentField: "objective_id",
		Status: StatusSettable, TitleLabel: "Title",
	},
	KindProject: {
		Kind: KindProject, Label: "Project", Plural: "projects", Table: "projects",
		Parent: KindObjective, ParentField: "objective_id",
		Children: []Kind{KindTask},
		Status:   StatusDerived, TitleLabel: "Title",
	},
	KindTask: {
		Kind: KindTask, Label: "Task", Plural: "tasks", Table: "tasks",
		Parent: KindProject, ParentField: "project_id",
		Status: StatusSettable, TitleLabel: "Title",
	},
	KindMeasurement: {
		Kind: KindMeasurement, Label: "Measurement", Plural: "measurements", Table: "measurements",
		Parent: KindKeyResult, ParentField: "keyresult_id",
		Status: StatusNone, TitleLabel: "Measurement",
	},
}

// Kinds returns every kind, root first.
func Kinds() []Kind {
	out := make([]Kind, len(kindOrder))
	copy(out, kindOrder)
	return out
}

// Spec returns the descriptor for k. Unknown kinds yield a zero spec.
func (k Kind) Spec() KindSpec { return kindSpecs[k] }

func (k Kind) Valid() bool {
	_, ok := kindSpecs[k]
	return ok
}

func (k Kind) Label() string { return kindSpecs[k].Label }

// ParseKind resolves a path segment to a kind. Plurals and the legacy
// "measure" spelling are accepted.
func ParseKind(raw string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "measure" || key == "measures" {
		return KindMeasurement, nil
	}
	for _, k := range kindOrder {
		spec := kindSpecs[k]
		if key == string(k) || key == spec.Plural {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown resource %q", ErrBadRequest, raw)
}
