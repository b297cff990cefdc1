package application

import "github.com/atvirokodosprendimai/tokip/internal/domain"

// Aggregate derives a composite status from its direct children. No
// children means NotStarted; otherwise all Completed is Completed, all
// NotStarted is NotStarted and any mix is InProgress.
func Aggregate(children []domain.Status) domain.Status {
	if len(children) == 0 {
		return domain.StatusNotStarted
	}
	allCompleted, allNotStarted := true, true
	for _, s := range children {
		if s != domain.StatusCompleted {
			allCompleted = false
		}
		if s != domain.StatusNotStarted {
			allNotStarted = false
		}
	}
	switch {
	case allCompleted:
		return domain.StatusCompleted
	case allNotStarted:
		return domain.StatusNotStarted
	}
	return domain.StatusInProgress
}
