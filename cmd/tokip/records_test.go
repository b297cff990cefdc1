package main

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/atvirokodosprendimai/tokip/internal/adapters/db/memory"
	httpadapter "github.com/atvirokodosprendimai/tokip/internal/adapters/http"
	rpcadapter "github.com/atvirokodosprendimai/tokip/internal/adapters/rpcjson"
	"github.com/atvirokodosprendimai/tokip/internal/application"
	"github.com/atvirokodosprendimai/tokip/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func socketClient(t *testing.T) records {
	t.Helper()
	// Unix socket paths are length limited; keep the directory short.
	dir, err := os.MkdirTemp("", "tokip")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	svc := application.NewGoalService(memory.NewStore())
	srv, err := rpcadapter.Start(filepath.Join(dir, "rpc.sock"), svc, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	client, err := newRecords(settings{Transport: transportSocket, Socket: srv.Path()})
	require.NoError(t, err)
	return client
}

func httpClient(t *testing.T) records {
	t.Helper()
	svc := application.NewGoalService(memory.NewStore())
	srv := httptest.NewServer(httpadapter.NewRouter(svc, quietLogger()))
	t.Cleanup(srv.Close)

	client, err := newRecords(settings{Transport: transportHTTP, Server: srv.URL + "/"})
	require.NoError(t, err)
	return client
}

func forEachTransport(t *testing.T, fn func(t *testing.T, client records)) {
	t.Run("uds", func(t *testing.T) { fn(t, socketClient(t)) })
	t.Run("http", func(t *testing.T) { fn(t, httpClient(t)) })
}

func TestRecordsLifecycle(t *testing.T) {
	forEachTransport(t, func(t *testing.T, client records) {
		ctx := context.Background()

		theme, err := client.Create(ctx, domain.KindTheme, createRequest{Title: "Physique"})
		require.NoError(t, err)
		obj, err := client.Create(ctx, domain.KindObjective, createRequest{Title: "Build a killer physique", ParentID: theme.ID})
		require.NoError(t, err)
		project, err := client.Create(ctx, domain.KindProject, createRequest{Title: "Create diet plan", ParentID: obj.ID})
		require.NoError(t, err)
		task, err := client.Create(ctx, domain.KindTask, createRequest{Title: "Read the PE diet", ParentID: project.ID, Status: "InProgress"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, task.Status)

		completed := "Completed"
		task, err = client.Update(ctx, domain.KindTask, task.ID, patchRequest{Status: &completed})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, task.Status)

		got, err := client.Get(ctx, domain.KindTheme, theme.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, got.Status)

		kids, err := client.List(ctx, domain.KindTask, &project.ID)
		require.NoError(t, err)
		require.Len(t, kids, 1)

		forest, err := client.Tree(ctx)
		require.NoError(t, err)
		require.Len(t, forest, 1)
		assert.Equal(t, "Physique", forest[0].Record.Title)

		require.NoError(t, client.Delete(ctx, domain.KindTheme, theme.ID))
		_, err = client.Get(ctx, domain.KindTheme, theme.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRecordsErrorsKeepTaxonomy(t *testing.T) {
	forEachTransport(t, func(t *testing.T, client records) {
		ctx := context.Background()

		_, err := client.Create(ctx, domain.KindObjective, createRequest{Title: "x", ParentID: 9})
		assert.ErrorIs(t, err, domain.ErrParentNotFound)
		assert.Equal(t, 422, domain.HTTPStatus(err))

		_, err = client.Get(ctx, domain.KindTheme, 9)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "Theme Not Found")

		theme, err := client.Create(ctx, domain.KindTheme, createRequest{Title: "Physique"})
		require.NoError(t, err)
		done := "Completed"
		_, err = client.Update(ctx, domain.KindTheme, theme.ID, patchRequest{Status: &done})
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

func TestSeedAndRecomputeNeedSocket(t *testing.T) {
	ctx := context.Background()

	_, err := httpClient(t).Seed(ctx)
	assert.ErrorIs(t, err, errNeedsSocket)

	client := socketClient(t)
	theme, err := client.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Physique", theme.Title)
	changed, err := client.Recompute(ctx)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestNewRecordsRejectsUnknownTransport(t *testing.T) {
	_, err := newRecords(settings{Transport: "smoke"})
	assert.Error(t, err)
}
