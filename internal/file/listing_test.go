package file

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idsOf(records []Record) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids
}

func TestListAppliesVisibility(t *testing.T) {
	repo := newFakeRepo()
	shared := repo.seed(Record{Name: "plan.pdf", Type: TypeDocument, Owner: alice.ID, Users: []string{bob.Email}, BucketFileID: "obj-1"})
	private := repo.seed(Record{Name: "secret.txt", Type: TypeDocument, Owner: alice.ID, BucketFileID: "obj-2"})
	service := NewQueryService(repo, newFakeBucket(), nil)

	got, err := service.List(context.Background(), bob, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{shared.ID}, idsOf(got))

	got, err = service.List(context.Background(), carol, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = service.List(context.Background(), alice, ListOptions{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{shared.ID, private.ID}, idsOf(got))
}

func TestListFiltersSortsAndLimits(t *testing.T) {
	repo := newFakeRepo()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	photo := repo.seed(Record{Name: "holiday.jpg", Type: TypeImage, Size: 300, Owner: alice.ID, BucketFileID: "a", UpdatedAt: base})
	clip := repo.seed(Record{Name: "holiday.mp4", Type: TypeVideo, Size: 100, Owner: alice.ID, BucketFileID: "b", UpdatedAt: base.Add(time.Hour)})
	doc := repo.seed(Record{Name: "budget.xlsx", Type: TypeDocument, Size: 200, Owner: alice.ID, BucketFileID: "c", UpdatedAt: base.Add(2 * time.Hour)})
	service := NewQueryService(repo, newFakeBucket(), nil)
	ctx := context.Background()

	got, err := service.List(ctx, alice, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{doc.ID, clip.ID, photo.ID}, idsOf(got), "default order is most recently updated first")

	got, err = service.List(ctx, alice, ListOptions{Types: []Type{TypeImage, TypeVideo}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{clip.ID, photo.ID}, idsOf(got))

	got, err = service.List(ctx, alice, ListOptions{SearchText: "holiday", Sort: OrderBy{Field: FieldSize}})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{clip.ID, photo.ID}, idsOf(got))

	got, err = service.List(ctx, alice, ListOptions{Sort: OrderBy{Field: FieldName}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{doc.ID, photo.ID}, idsOf(got))
}

func TestListDropsRecordsWithoutStorageRef(t *testing.T) {
	repo := newFakeRepo()
	legacy := repo.seed(Record{Name: "old.txt", Owner: alice.ID, BucketField: "legacy-obj"})
	repo.seed(Record{Name: "broken.txt", Owner: alice.ID})
	service := NewQueryService(repo, newFakeBucket(), nil)

	got, err := service.List(context.Background(), alice, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{legacy.ID}, idsOf(got))
}

func TestListRequiresRequester(t *testing.T) {
	service := NewQueryService(newFakeRepo(), newFakeBucket(), nil)

	_, err := service.List(context.Background(), auth.Requester{}, ListOptions{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestListSurfacesStoreFailures(t *testing.T) {
	repo := newFakeRepo()
	repo.listErr = errBoom
	service := NewQueryService(repo, newFakeBucket(), nil)

	_, err := service.List(context.Background(), alice, ListOptions{})
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, errBoom)
}

func TestGetHonoursVisibility(t *testing.T) {
	repo := newFakeRepo()
	rec := repo.seed(Record{Name: "a.txt", Owner: alice.ID, Users: []string{bob.Email}, BucketFileID: "obj"})
	service := NewQueryService(repo, newFakeBucket(), nil)

	got, err := service.Get(context.Background(), bob, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = service.Get(context.Background(), carol, rec.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = service.Get(context.Background(), alice, uuid.New())
	assert.ErrorIs(t, err, ErrFileNotFound)

	_, err = service.Get(context.Background(), alice, uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOpenStreamsBytesUsingLegacyRef(t *testing.T) {
	repo := newFakeRepo()
	objects := newFakeBucket()
	obj, err := objects.CreateFile(context.Background(), bytes.NewReader([]byte("contents")), "a.txt", 8, "")
	require.NoError(t, err)
	rec := repo.seed(Record{Name: "a.txt", Owner: alice.ID, BucketField: obj.ID, Size: 8})
	service := NewQueryService(repo, objects, nil)

	got, reader, err := service.Open(context.Background(), alice, rec.ID)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))
	assert.Equal(t, rec.ID, got.ID)

	missing := repo.seed(Record{Name: "gone.txt", Owner: alice.ID, BucketFileID: "missing"})
	_, _, err = service.Open(context.Background(), alice, missing.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
