package diff

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHashLookup struct {
	hashes map[string]string
}

func (f *fakeHashLookup) FileHashes(ctx context.Context, repoPath string) (map[string]string, error) {
	return f.hashes, nil
}

func TestClassifyBucketsCorrectly(t *testing.T) {
	store := &fakeHashLookup{hashes: map[string]string{
		"a.go": "hash-a",
		"b.go": "hash-b-old",
		"c.go": "hash-c",
	}}
	d := New(store)

	discovered := []Discovered{
		{FilePath: "a.go", FileHash: "hash-a"},       // unchanged
		{FilePath: "b.go", FileHash: "hash-b-new"},    // modified
		{FilePath: "d.go", FileHash: "hash-d"},        // new
	}

	plan, stats, err := d.Classify(context.Background(), "repo", discovered)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 1, stats.Modified)
	assert.Equal(t, 1, stats.Deleted) // c.go was never discovered
	assert.ElementsMatch(t, []string{"d.go", "b.go"}, plan.ToProcess)
	assert.ElementsMatch(t, []string{"c.go"}, plan.ToDelete)
}

func TestSkipRate(t *testing.T) {
	stats := Stats{New: 1, Unchanged: 3, Modified: 1, Deleted: 0}
	assert.InDelta(t, 0.6, stats.SkipRate(), 0.0001)

	assert.Zero(t, Stats{}.SkipRate())
}

type fakeDeleter struct {
	deleted []string
}

func (f *fakeDeleter) DeleteFile(ctx context.Context, repoPath, filePath string) error {
	f.deleted = append(f.deleted, filePath)
	return nil
}

func TestApplyDeletesBothDeletedAndModified(t *testing.T) {
	del := &fakeDeleter{}
	d := New(&fakeHashLookup{})
	plan := Plan{ToDelete: []string{"x.go"}}

	err := d.Apply(context.Background(), del, "repo", plan, []string{"y.go"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"x.go", "y.go"}, del.deleted)
}
