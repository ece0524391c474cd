package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/QVIZ/errors"
	"github.com/teranos/QVIZ/graph"
	qviztest "github.com/teranos/QVIZ/internal/testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(qviztest.CreateTestDB(t))
}

func testSpec() *graph.Spec {
	return &graph.Spec{
		Title: "billing schema",
		Nodes: []graph.Node{
			{ID: "orders", Name: "orders", Type: "table"},
			{ID: "customers", Name: "customers", Type: "table"},
		},
		Links: []graph.Link{
			{Source: "orders", Target: "customers", Type: "references"},
		},
	}
}

func TestSaveAndGetBySlug(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Save(ctx, testSpec())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.NotEmpty(t, rec.Slug)
	assert.Equal(t, "billing schema", rec.Title)
	assert.Equal(t, 2, rec.NodeCount)
	assert.Equal(t, 1, rec.LinkCount)

	spec, got, err := s.GetBySlug(ctx, rec.Slug)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "billing schema", spec.Title)
	require.Len(t, spec.Nodes, 2)
	require.Len(t, spec.Links, 1)
	assert.Equal(t, "orders", spec.Links[0].Source)
}

func TestSaveNilSpec(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Save(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestGetBySlugNotFound(t *testing.T) {
	s := openTestStore(t)

	_, _, err := s.GetBySlug(context.Background(), "no-such-slug")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSlugsAreUnique(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		rec, err := s.Save(ctx, testSpec())
		require.NoError(t, err)
		assert.False(t, seen[rec.Slug], "duplicate slug %q", rec.Slug)
		seen[rec.Slug] = true
	}
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, testSpec())
	require.NoError(t, err)
	second, err := s.Save(ctx, &graph.Spec{
		Title: "jobs",
		Nodes: []graph.Node{{ID: "invoice_job", Name: "invoice_job", Type: "job"}},
	})
	require.NoError(t, err)

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	slugs := []string{records[0].Slug, records[1].Slug}
	assert.Contains(t, slugs, first.Slug)
	assert.Contains(t, slugs, second.Slug)
	for _, rec := range records {
		assert.Empty(t, rec.Payload, "List should not load payloads")
	}

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec, err := s.Save(ctx, testSpec())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rec.Slug))

	_, _, err = s.GetBySlug(ctx, rec.Slug)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	err = s.Delete(ctx, rec.Slug)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSaveInsertFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT INTO specs").WillReturnError(assert.AnError)

	s := NewStore(mockDB)
	_, err = s.Save(context.Background(), testSpec())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save spec")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQueryFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT id, slug").WillReturnError(assert.AnError)

	s := NewStore(mockDB)
	_, err = s.List(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list specs")
}

func TestGetBySlugCorruptPayload(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "slug", "title", "payload", "node_count", "link_count", "created_at", "updated_at",
	}).AddRow("id-1", "abc", "broken", []byte("{not json"), 1, 0, now, now)
	mock.ExpectQuery("SELECT id, slug").WillReturnRows(rows)

	s := NewStore(mockDB)
	_, _, err = s.GetBySlug(context.Background(), "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreadable")
}
