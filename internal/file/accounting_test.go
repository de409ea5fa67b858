package file

import (
	"context"
	"testing"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCapacity = 2 * 1024 * 1024 * 1024

func TestComputeUsageAggregatesOwnedRecords(t *testing.T) {
	repo := newFakeRepo()
	t1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(-time.Hour)
	repo.seed(Record{Type: TypeImage, Size: 10, UpdatedAt: t1, Owner: alice.ID, BucketFileID: "1"})
	repo.seed(Record{Type: TypeImage, Size: 20, UpdatedAt: t2, Owner: alice.ID, BucketFileID: "2"})
	repo.seed(Record{Type: TypeVideo, Size: 5, UpdatedAt: t3, Owner: alice.ID, BucketFileID: "3"})
	// Shared with alice but owned by bob: not counted.
	repo.seed(Record{Type: TypeAudio, Size: 1000, Owner: bob.ID, Users: []string{alice.Email}, BucketFileID: "4"})
	service := NewAccountingService(repo, nil, testCapacity)

	usage, err := service.ComputeUsage(context.Background(), alice)
	require.NoError(t, err)

	assert.Equal(t, int64(30), usage.Image.Size)
	require.NotNil(t, usage.Image.LatestDate)
	assert.True(t, usage.Image.LatestDate.Equal(t2))
	assert.Equal(t, int64(5), usage.Video.Size)
	assert.True(t, usage.Video.LatestDate.Equal(t3))
	assert.Zero(t, usage.Audio.Size)
	assert.Nil(t, usage.Audio.LatestDate)
	assert.Nil(t, usage.Document.LatestDate)
	assert.Equal(t, int64(35), usage.Used)
	assert.Equal(t, int64(testCapacity), usage.All)
}

func TestComputeUsageComparesInstantsAcrossZones(t *testing.T) {
	repo := newFakeRepo()
	utc := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	// 12:30 in +05:00 is 07:30 UTC, earlier than utc despite sorting later lexically.
	earlier := time.Date(2024, 5, 1, 12, 30, 0, 0, time.FixedZone("UZT", 5*3600))
	repo.seed(Record{Type: TypeDocument, Size: 1, UpdatedAt: utc, Owner: alice.ID, BucketFileID: "1"})
	repo.seed(Record{Type: TypeDocument, Size: 1, UpdatedAt: earlier, Owner: alice.ID, BucketFileID: "2"})
	service := NewAccountingService(repo, nil, testCapacity)

	usage, err := service.ComputeUsage(context.Background(), alice)
	require.NoError(t, err)
	assert.True(t, usage.Document.LatestDate.Equal(utc))
}

func TestComputeUsageFoldsUnknownTypesIntoOther(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Record{Type: "archive", Size: 7, Owner: alice.ID, BucketFileID: "1"})
	repo.seed(Record{Type: TypeOther, Size: 3, Owner: alice.ID, BucketFileID: "2"})
	repo.seed(Record{Type: TypeImage, Size: 100, Owner: alice.ID})
	service := NewAccountingService(repo, nil, testCapacity)

	usage, err := service.ComputeUsage(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, int64(10), usage.Other.Size)
	assert.Zero(t, usage.Image.Size, "records without a storage ref are excluded")
	assert.Equal(t, int64(10), usage.Used)
}

func TestComputeUsageErrors(t *testing.T) {
	repo := newFakeRepo()
	service := NewAccountingService(repo, nil, testCapacity)

	_, err := service.ComputeUsage(context.Background(), auth.Requester{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	repo.listErr = errBoom
	_, err = service.ComputeUsage(context.Background(), alice)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, errBoom)
}

func TestComputeUsageEmpty(t *testing.T) {
	usage, err := NewAccountingService(newFakeRepo(), nil, 99).ComputeUsage(context.Background(), carol)
	require.NoError(t, err)
	assert.Equal(t, Usage{All: 99}, usage)
}
