package application

import (
	"testing"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAggregate(t *testing.T) {
	const (
		ns = domain.StatusNotStarted
		ip = domain.StatusInProgress
		c  = domain.StatusCompleted
	)
	cases := []struct {
		name string
		in   []domain.Status
		want domain.Status
	}{
		{name: "no children", in: nil, want: ns},
		{name: "all completed", in: []domain.Status{c, c}, want: c},
		{name: "all not started", in: []domain.Status{ns, ns, ns}, want: ns},
		{name: "one in progress", in: []domain.Status{ip}, want: ip},
		{name: "started and done", in: []domain.Status{ip, c}, want: ip},
		{name: "untouched and done", in: []domain.Status{ns, c}, want: ip},
		{name: "single completed", in: []domain.Status{c}, want: c},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Aggregate(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, got, Aggregate(tc.in), "aggregation is idempotent")
		})
	}
}
