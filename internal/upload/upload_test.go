package upload

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls map[string]int
	data  map[string]string
	fail  map[string]error
}

func newFake() *fakeUploader {
	return &fakeUploader{
		calls: make(map[string]int),
		data:  make(map[string]string),
		fail:  make(map[string]error),
	}
}

func (f *fakeUploader) Upload(_ context.Context, a model.LocalAsset) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[a.Filename]++
	f.data[a.Filename] = string(a.Data)
	if err, ok := f.fail[a.Filename]; ok {
		return "", err
	}
	return "https://cdn/x/" + a.Filename, nil
}

func (f *fakeUploader) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func asset(name, data string) model.LocalAsset {
	return model.LocalAsset{Filename: name, Data: []byte(data), MimeType: "image/png"}
}

func TestResolveAll(t *testing.T) {
	f := newFake()
	o := New(f)
	draft := &model.Draft{Assets: []model.LocalAsset{asset("cat.png", "c"), asset("dog.png", "d")}}

	got, err := o.ResolveAll(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"cat.png": "https://cdn/x/cat.png",
		"dog.png": "https://cdn/x/dog.png",
	}, got)
}

func TestResolveAllIsIdempotent(t *testing.T) {
	f := newFake()
	o := New(f)
	draft := &model.Draft{Assets: []model.LocalAsset{asset("cat.png", "c")}}

	first, err := o.ResolveAll(context.Background(), draft)
	require.NoError(t, err)
	second, err := o.ResolveAll(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.total())
}

func TestResolveAllReturnsCopy(t *testing.T) {
	o := New(newFake())
	got, err := o.ResolveAll(context.Background(), &model.Draft{Assets: []model.LocalAsset{asset("a.png", "a")}})
	require.NoError(t, err)

	got["a.png"] = "tampered"
	assert.Equal(t, "https://cdn/x/a.png", o.Resolved()["a.png"])
}

func TestResolveAllEmptyDraft(t *testing.T) {
	f := newFake()
	got, err := New(f).ResolveAll(context.Background(), &model.Draft{Body: "text only"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, f.total())
}

func TestResolveAllDuplicateFilename(t *testing.T) {
	f := newFake()
	draft := &model.Draft{Assets: []model.LocalAsset{asset("a.png", "first"), asset("b.png", "b"), asset("a.png", "second")}}

	_, err := New(f).ResolveAll(context.Background(), draft)
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls["a.png"])
	assert.Equal(t, "second", f.data["a.png"])
}

func TestResolveAllPartialFailure(t *testing.T) {
	f := newFake()
	cause := &errs.StorageError{Op: "upload b.png", Status: 500}
	f.fail["b.png"] = cause
	o := New(f)
	draft := &model.Draft{Assets: []model.LocalAsset{asset("a.png", "a"), asset("b.png", "b"), asset("c.png", "c")}}

	got, err := o.ResolveAll(context.Background(), draft)
	assert.Nil(t, got)

	var agg *errs.AggregateUploadError
	require.True(t, errors.As(err, &agg), "got %v", err)
	assert.Equal(t, []string{"b.png"}, agg.Failed)
	assert.ErrorIs(t, err, cause)

	// The others were not cancelled and are kept for the next attempt.
	assert.Equal(t, 1, f.calls["a.png"])
	assert.Equal(t, 1, f.calls["c.png"])
	assert.Contains(t, o.Resolved(), "a.png")
	assert.Contains(t, o.Resolved(), "c.png")

	delete(f.fail, "b.png")
	got, err = o.ResolveAll(context.Background(), draft)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, f.calls["a.png"])
	assert.Equal(t, 2, f.calls["b.png"])
}

func TestResolveAllFailuresInDraftOrder(t *testing.T) {
	f := newFake()
	f.fail["z.png"] = errors.New("z")
	f.fail["a.png"] = errors.New("a")
	draft := &model.Draft{Assets: []model.LocalAsset{asset("z.png", "z"), asset("m.png", "m"), asset("a.png", "a")}}

	_, err := New(f).ResolveAll(context.Background(), draft)

	var agg *errs.AggregateUploadError
	require.True(t, errors.As(err, &agg))
	assert.Equal(t, []string{"z.png", "a.png"}, agg.Failed)
}

type barrierUploader struct {
	wg sync.WaitGroup
}

func (b *barrierUploader) Upload(ctx context.Context, a model.LocalAsset) (string, error) {
	b.wg.Done()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return "https://cdn/" + a.Filename, nil
	case <-time.After(2 * time.Second):
		return "", errors.New("uploads did not run concurrently")
	}
}

func TestResolveAllUploadsConcurrently(t *testing.T) {
	b := &barrierUploader{}
	b.wg.Add(3)
	draft := &model.Draft{Assets: []model.LocalAsset{asset("a.png", "a"), asset("b.png", "b"), asset("c.png", "c")}}

	got, err := New(b).ResolveAll(context.Background(), draft)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
