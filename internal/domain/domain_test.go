package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"NotStarted":  StatusNotStarted,
		"Not Started": StatusNotStarted,
		"in_progress": StatusInProgress,
		"InProgress":  StatusInProgress,
		" completed ": StatusCompleted,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseStatus("done")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Not Started", StatusNotStarted.Label())
	assert.Equal(t, "In Progress", StatusInProgress.Label())
	assert.Equal(t, "Completed", StatusCompleted.Label())
	assert.False(t, Status("").Valid())
}

func TestKindHierarchyIsConsistent(t *testing.T) {
	for _, k := range Kinds() {
		spec := k.Spec()
		require.Equal(t, k, spec.Kind)
		if spec.IsRoot() {
			assert.Empty(t, spec.ParentField, "root %s must not carry a parent field", k)
			continue
		}
		parent := spec.Parent.Spec()
		assert.Contains(t, parent.Children, k, "%s must be listed under %s", k, spec.Parent)
		assert.NotEmpty(t, spec.ParentField)
	}
}

func TestStatusSources(t *testing.T) {
	assert.Equal(t, []Kind{KindTask}, KindProject.Spec().StatusSources())
	assert.Equal(t, []Kind{KindInitiative, KindProject}, KindObjective.Spec().StatusSources())
	assert.Equal(t, []Kind{KindObjective}, KindTheme.Spec().StatusSources())
	assert.Nil(t, KindTask.Spec().StatusSources())
	assert.Nil(t, KindKeyResult.Spec().StatusSources())
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"theme":        KindTheme,
		"themes":       KindTheme,
		"KeyResult":    KindKeyResult,
		"measure":      KindMeasurement,
		"measurements": KindMeasurement,
	}
	for raw, want := range cases {
		got, err := ParseKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("widget")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("loading: %w", NotFound(KindKeyResult, 7))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Key Result Not Found", PublicMessage(err))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestHTTPStatusTaxonomy(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(BadRequest("title is required")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(fmt.Errorf("%w: theme 9", ErrParentNotFound)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrHasChildren))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Internal("select", errors.New("disk I/O"))))
	assert.Equal(t, "Internal Server Error", PublicMessage(Internal("select", errors.New("disk I/O"))))
	assert.Equal(t, "Parent Not Found", PublicMessage(ErrParentNotFound))
}

func TestRecordParentRef(t *testing.T) {
	_, _, ok := Record{Kind: KindTheme, ID: 1}.ParentRef()
	assert.False(t, ok)

	kind, id, ok := Record{Kind: KindTask, ID: 4, ParentID: 2}.ParentRef()
	require.True(t, ok)
	assert.Equal(t, KindProject, kind)
	assert.Equal(t, uint(2), id)
}

func TestRemoteErrorRoundTripsTaxonomy(t *testing.T) {
	for _, local := range []error{
		BadRequest("title is required"),
		NotFound(KindTheme, 3),
		fmt.Errorf("%w: objective 9", ErrParentNotFound),
		fmt.Errorf("%w: theme 1", ErrHasChildren),
		Internal("select", errors.New("disk I/O")),
	} {
		remote := &RemoteError{Status: HTTPStatus(local), Message: PublicMessage(local)}
		assert.Equal(t, HTTPStatus(local), HTTPStatus(remote), local.Error())
	}

	err := error(&RemoteError{Status: http.StatusNotFound, Message: "Theme Not Found"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Theme Not Found (404)", err.Error())
	assert.ErrorIs(t, &RemoteError{Status: http.StatusTeapot, Message: "?"}, ErrInternal)
}
