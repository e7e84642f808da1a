package processor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/angelospk/posterbed/pkg/processor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRehoster succeeds only for responses carrying a poster field.
type fakeRehoster struct {
	calls int
}

func (f *fakeRehoster) FromMetadata(ctx context.Context, data map[string]any) (string, error) {
	f.calls++
	if s, ok := data["poster"].(string); ok && s != "" {
		return "https://cdn.example/" + filepath.Base(s), nil
	}
	return "", errors.New("no poster URL found in metadata response")
}

func writeDump(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRehostDirectory_MixedResults(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "good.json", `{"poster": "https://img.example/a.jpg"}`)
	writeDump(t, dir, "empty.json", `{"title": "No Art"}`)
	writeDump(t, dir, "broken.json", `{not json`)
	writeDump(t, dir, "notes.txt", "ignored")

	rehoster := &fakeRehoster{}
	proc := processor.NewProcessor(rehoster, nil)

	results, err := proc.RehostDirectory(context.Background(), dir, false)

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 2, rehoster.calls, "broken JSON must not reach the rehoster")

	byFile := map[string]processor.Result{}
	for _, res := range results {
		byFile[filepath.Base(res.File)] = res
	}

	require.Contains(t, byFile, "good.json")
	assert.NoError(t, byFile["good.json"].Err)
	assert.Equal(t, "https://cdn.example/a.jpg", byFile["good.json"].HostedURL)

	require.Contains(t, byFile, "empty.json")
	assert.Error(t, byFile["empty.json"].Err)

	require.Contains(t, byFile, "broken.json")
	assert.Error(t, byFile["broken.json"].Err)
}

func TestRehostDirectory_RecursiveFlag(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeDump(t, dir, "top.json", `{"poster": "https://img.example/top.jpg"}`)
	writeDump(t, nested, "deep.json", `{"poster": "https://img.example/deep.jpg"}`)

	proc := processor.NewProcessor(&fakeRehoster{}, nil)

	flat, err := proc.RehostDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Len(t, flat, 1)

	deep, err := proc.RehostDirectory(context.Background(), dir, true)
	require.NoError(t, err)
	assert.Len(t, deep, 2)
}

func TestRehostDirectory_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeDump(t, dir, "a.json", `{"poster": "https://img.example/a.jpg"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := processor.NewProcessor(&fakeRehoster{}, nil)
	_, err := proc.RehostDirectory(ctx, dir, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
