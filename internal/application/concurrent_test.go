package application

import (
	"context"
	"sync"
	"testing"

	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentStatusWritesKeepRollupConsistent(t *testing.T) {
	forEachStore(t, func(t *testing.T, svc *GoalService) {
		ctx := context.Background()
		theme := mustCreate(t, svc, domain.KindTheme, "Physique", 0)
		obj := mustCreate(t, svc, domain.KindObjective, "Build a killer physique", theme.ID)

		var projects []domain.Record
		var tasks []domain.Record
		for p := 0; p < 3; p++ {
			project := mustCreate(t, svc, domain.KindProject, "project", obj.ID)
			projects = append(projects, project)
			for i := 0; i < 4; i++ {
				tasks = append(tasks, mustCreate(t, svc, domain.KindTask, "task", project.ID))
			}
		}

		var wg sync.WaitGroup
		errs := make(chan error, len(tasks)*len(domain.Statuses)+64)

		for i, task := range tasks {
			wg.Add(1)
			go func(i int, task domain.Record) {
				defer wg.Done()
				for round := 0; round < len(domain.Statuses); round++ {
					status := domain.Statuses[(i+round)%len(domain.Statuses)]
					if _, err := svc.Update(ctx, domain.KindTask, task.ID, domain.Patch{Status: &status}); err != nil {
						errs <- err
					}
				}
			}(i, task)
		}

		for r := 0; r < 4; r++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for _, project := range projects {
					id := project.ID
					if _, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindTask, Fragment: FragmentTable, ParentID: &id}); err != nil {
						errs <- err
					}
					if _, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindProject, ID: id, Fragment: FragmentPage}); err != nil {
						errs <- err
					}
				}
			}()
		}

		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		changed, err := svc.Recompute(ctx)
		require.NoError(t, err)
		assert.Zero(t, changed, "rollup left a derived status stale")

		kids, err := svc.ListChildren(ctx, domain.KindObjective, obj.ID, domain.KindProject)
		require.NoError(t, err)
		require.Len(t, kids, len(projects))

		for _, project := range projects {
			taskRecs, err := svc.ListChildren(ctx, domain.KindProject, project.ID, domain.KindTask)
			require.NoError(t, err)
			statuses := make([]domain.Status, 0, len(taskRecs))
			for _, task := range taskRecs {
				statuses = append(statuses, task.Status)
			}
			got, err := svc.Get(ctx, domain.KindProject, project.ID)
			require.NoError(t, err)
			assert.Equal(t, Aggregate(statuses), got.Status)
		}
	})
}
