package application

import (
	"context"
	"errors"
	"testing"

	"github.com/atvirokodosprendimai/tokip/internal/adapters/db/memory"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRowAndForm(t *testing.T) {
	forEachStore(t, func(t *testing.T, svc *GoalService) {
		ctx := context.Background()
		theme := mustCreate(t, svc, domain.KindTheme, "Physique", 0)
		obj := mustCreate(t, svc, domain.KindObjective, "o", theme.ID)
		project := mustCreate(t, svc, domain.KindProject, "p", obj.ID)
		task := mustCreate(t, svc, domain.KindTask, "task", project.ID)

		row, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindTheme, ID: theme.ID, Fragment: FragmentRow})
		require.NoError(t, err)
		assert.Equal(t, "theme/row", row.Template)
		require.NotNil(t, row.Row)
		assert.Equal(t, "Physique", row.Row.Title)

		form, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindTask, ID: task.ID, Fragment: FragmentForm})
		require.NoError(t, err)
		require.NotNil(t, form.Form)
		assert.Equal(t, domain.Statuses, form.Form.StatusOptions)

		form, err = svc.Resolve(ctx, FragmentRequest{Kind: domain.KindProject, ID: project.ID, Fragment: FragmentForm})
		require.NoError(t, err)
		assert.Empty(t, form.Form.StatusOptions, "derived status is not editable")
	})
}

func TestResolveMissingRecord(t *testing.T) {
	forEachStore(t, func(t *testing.T, svc *GoalService) {
		_, err := svc.Resolve(context.Background(), FragmentRequest{Kind: domain.KindTheme, ID: 999, Fragment: FragmentRow})
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, "Theme Not Found", domain.PublicMessage(err))
	})
}

func TestResolvePageCarriesBreadcrumbAndCollections(t *testing.T) {
	forEachStore(t, func(t *testing.T, svc *GoalService) {
		ctx := context.Background()
		theme := mustCreate(t, svc, domain.KindTheme, "Physique", 0)
		obj := mustCreate(t, svc, domain.KindObjective, "Build a killer physique", theme.ID)
		mustCreate(t, svc, domain.KindInitiative, "Go to the gym once per week", obj.ID)

		frag, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindObjective, ID: obj.ID, Fragment: FragmentPage})
		require.NoError(t, err)
		require.NotNil(t, frag.Page)
		require.NotNil(t, frag.Page.Parent)
		assert.Equal(t, domain.Ref{Kind: domain.KindTheme, ID: theme.ID, Title: "Physique"}, *frag.Page.Parent)

		require.Len(t, frag.Page.Collections, 3)
		byKind := map[domain.Kind]TablePayload{}
		for _, c := range frag.Page.Collections {
			byKind[c.Kind] = c
		}
		assert.Empty(t, byKind[domain.KindKeyResult].Items)
		assert.Len(t, byKind[domain.KindInitiative].Items, 1)
		assert.Empty(t, byKind[domain.KindProject].Items)

		themePage, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindTheme, ID: theme.ID, Fragment: FragmentPage})
		require.NoError(t, err)
		assert.Nil(t, themePage.Page.Parent)
	})
}

func TestResolveTable(t *testing.T) {
	forEachStore(t, func(t *testing.T, svc *GoalService) {
		ctx := context.Background()
		theme := mustCreate(t, svc, domain.KindTheme, "t", 0)

		frag, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindObjective, Fragment: FragmentTable, ParentID: &theme.ID})
		require.NoError(t, err)
		require.NotNil(t, frag.Table)
		assert.NotNil(t, frag.Table.Items)
		assert.Empty(t, frag.Table.Items)
		assert.True(t, frag.Table.Scoped())

		all, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindTheme, Fragment: FragmentTable})
		require.NoError(t, err)
		assert.Len(t, all.Table.Items, 1)

		missing := uint(999)
		orphan, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindObjective, Fragment: FragmentTable, ParentID: &missing})
		require.NoError(t, err)
		require.NotNil(t, orphan.Table)
		assert.NotNil(t, orphan.Table.Items)
		assert.Empty(t, orphan.Table.Items)
		assert.Equal(t, domain.KindTheme, orphan.Table.ParentKind)
		assert.Equal(t, missing, orphan.Table.ParentID)
	})
}

// brokenReads fails every read the way a lost database would.
type brokenReads struct {
	domain.Store
}

func (brokenReads) SelectOne(context.Context, domain.Kind, uint) (domain.Record, error) {
	return domain.Record{}, domain.Internal("select", errors.New("disk I/O"))
}

func (brokenReads) SelectMany(context.Context, domain.Kind, domain.Filter) ([]domain.Record, error) {
	return nil, domain.Internal("select", errors.New("disk I/O"))
}

func TestResolveTableDegradesOnStoreFailure(t *testing.T) {
	svc := NewGoalService(brokenReads{Store: memory.NewStore()})
	ctx := context.Background()

	all, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindTheme, Fragment: FragmentTable})
	require.NoError(t, err)
	require.NotNil(t, all.Table)
	assert.Empty(t, all.Table.Items)

	parentID := uint(1)
	scoped, err := svc.Resolve(ctx, FragmentRequest{Kind: domain.KindObjective, Fragment: FragmentTable, ParentID: &parentID})
	require.NoError(t, err)
	require.NotNil(t, scoped.Table)
	assert.NotNil(t, scoped.Table.Items)
	assert.Empty(t, scoped.Table.Items)
	assert.True(t, scoped.Table.Scoped())

	_, err = svc.Resolve(ctx, FragmentRequest{Kind: domain.KindTheme, ID: 1, Fragment: FragmentRow})
	assert.ErrorIs(t, err, domain.ErrInternal)
}
