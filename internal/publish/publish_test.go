package publish

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/debemdeboas/quill/internal/asset"
	"github.com/debemdeboas/quill/internal/codec"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cdn = "https://cdn.example.com/uploads/"

type fakeStore struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (s *fakeStore) Put(_ context.Context, file model.LocalAsset) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, file.Filename)
	if s.fail[file.Filename] {
		return "", &errs.StorageError{Op: "upload " + file.Filename, Status: 500}
	}
	return cdn + file.Filename, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeGateway struct {
	created []model.Envelope
	updated map[model.PostID]model.Envelope
	err     error
}

func (g *fakeGateway) Create(_ context.Context, env model.Envelope) (model.PostID, error) {
	if g.err != nil {
		return "", g.err
	}
	g.created = append(g.created, env)
	return "post-1", nil
}

func (g *fakeGateway) Update(_ context.Context, id model.PostID, env model.Envelope) error {
	if g.err != nil {
		return g.err
	}
	if g.updated == nil {
		g.updated = map[model.PostID]model.Envelope{}
	}
	g.updated[id] = env
	return nil
}

func (g *fakeGateway) Get(context.Context, model.PostID) (*model.Post, error) {
	return nil, errs.ErrNotFound
}

func (g *fakeGateway) List(context.Context) ([]model.Post, error) {
	return nil, nil
}

func newPublisher(store *fakeStore, gw *fakeGateway) *Publisher {
	cfg := config.Default()
	resolver := asset.NewResolver(store, cfg.Assets)
	return New(cfg.Content, resolver, gw, func() bool { return true })
}

func png(name string) model.LocalAsset {
	return model.LocalAsset{Filename: name, Data: []byte("\x89PNG"), MimeType: "image/png"}
}

func TestSubmitEndToEnd(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{}
	p := newPublisher(store, gw)

	draft := &model.Draft{
		Title:  "Cats",
		Body:   `Look: <img src="cat.png" alt="cat.png" width="300">`,
		Assets: []model.LocalAsset{png("cat.png")},
	}

	id, err := p.Submit(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, model.PostID("post-1"), id)

	require.Len(t, gw.created, 1)
	env := gw.created[0]
	assert.Equal(t, "Cats", env.Title)
	assert.Equal(t, `Look: <img src="`+cdn+`cat.png" alt="cat.png" width="300">`, env.Body)
	assert.Equal(t, model.EncodingNone, env.Encoding)
	require.NotNil(t, env.PrimaryImageURL)
	assert.Equal(t, cdn+"cat.png", *env.PrimaryImageURL)
	assert.Equal(t, []string{"cat.png"}, store.calls)
}

func TestSubmitUploadFailureCreatesNothing(t *testing.T) {
	store := &fakeStore{fail: map[string]bool{"b.png": true}}
	gw := &fakeGateway{}
	p := newPublisher(store, gw)

	draft := &model.Draft{
		Title:  "Two",
		Body:   `<img src="a.png"><img src="b.png">`,
		Assets: []model.LocalAsset{png("a.png"), png("b.png")},
	}

	_, err := p.Submit(context.Background(), draft)

	var agg *errs.AggregateUploadError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, []string{"b.png"}, agg.Failed)
	assert.Empty(t, gw.created)

	// The retry only uploads the file that failed
	store.fail = nil
	_, err = p.Submit(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, 3, store.count())
	require.Len(t, gw.created, 1)
	assert.Equal(t, `<img src="`+cdn+`a.png"><img src="`+cdn+`b.png">`, gw.created[0].Body)
}

func TestSubmitRejectsBeforeAnyNetworkCall(t *testing.T) {
	tests := []struct {
		name  string
		draft *model.Draft
		field string
	}{
		{
			name:  "too long",
			draft: &model.Draft{Title: "T", Body: strings.Repeat("ü", 50001), Assets: []model.LocalAsset{png("a.png")}},
			field: "content",
		},
		{
			name:  "no title",
			draft: &model.Draft{Body: "text"},
			field: "title",
		},
		{
			name:  "empty body",
			draft: &model.Draft{Title: "T", Body: "  "},
			field: "content",
		},
		{
			name:  "bad mime type",
			draft: &model.Draft{Title: "T", Body: "x", Assets: []model.LocalAsset{{Filename: "a.svg", Data: []byte("<svg/>"), MimeType: "image/svg+xml"}}},
			field: "mime_type",
		},
		{
			name:  "oversized asset",
			draft: &model.Draft{Title: "T", Body: "x", Assets: []model.LocalAsset{{Filename: "a.png", Data: make([]byte, 5<<20+1), MimeType: "image/png"}}},
			field: "size",
		},
		{
			name:  "unattached image",
			draft: &model.Draft{Title: "T", Body: `<img src="ghost.png">`},
			field: "content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			gw := &fakeGateway{}
			p := newPublisher(store, gw)

			_, err := p.Submit(context.Background(), tt.draft)

			var verr *errs.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, store.count())
			assert.Empty(t, gw.created)
		})
	}
}

func TestSubmitAtLimit(t *testing.T) {
	gw := &fakeGateway{}
	p := newPublisher(&fakeStore{}, gw)

	_, err := p.Submit(context.Background(), &model.Draft{Title: "T", Body: strings.Repeat("ü", 50000)})
	require.NoError(t, err)
	assert.Len(t, gw.created, 1)
}

func TestSubmitRequiresSession(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{}
	p := newPublisher(store, gw)
	p.Session = func() bool { return false }

	_, err := p.Submit(context.Background(), &model.Draft{Title: "T", Body: "b", Assets: []model.LocalAsset{png("a.png")}})
	assert.ErrorIs(t, err, errs.ErrUnauthorized)
	assert.Zero(t, store.count())
	assert.Empty(t, gw.created)
}

func TestSubmitFrontMatterTitle(t *testing.T) {
	gw := &fakeGateway{}
	p := newPublisher(&fakeStore{}, gw)

	body := "%%%\ntitle = \"From front matter\"\n%%%\n\nHello"
	_, err := p.Submit(context.Background(), &model.Draft{Body: body})
	require.NoError(t, err)
	assert.Equal(t, "From front matter", gw.created[0].Title)
}

func TestSubmitPrimaryImage(t *testing.T) {
	t.Run("first absolute image in body", func(t *testing.T) {
		gw := &fakeGateway{}
		p := newPublisher(&fakeStore{}, gw)

		_, err := p.Submit(context.Background(), &model.Draft{
			Title: "T",
			Body:  `<img src="https://elsewhere/x.png"><img src="https://elsewhere/y.png">`,
		})
		require.NoError(t, err)
		require.NotNil(t, gw.created[0].PrimaryImageURL)
		assert.Equal(t, "https://elsewhere/x.png", *gw.created[0].PrimaryImageURL)
	})

	t.Run("none", func(t *testing.T) {
		gw := &fakeGateway{}
		p := newPublisher(&fakeStore{}, gw)

		_, err := p.Submit(context.Background(), &model.Draft{Title: "T", Body: "just text"})
		require.NoError(t, err)
		assert.Nil(t, gw.created[0].PrimaryImageURL)
	})

	t.Run("attached asset wins", func(t *testing.T) {
		gw := &fakeGateway{}
		p := newPublisher(&fakeStore{}, gw)

		_, err := p.Submit(context.Background(), &model.Draft{
			Title:  "T",
			Body:   `<img src="https://elsewhere/x.png"><img src="b.png">`,
			Assets: []model.LocalAsset{png("b.png")},
		})
		require.NoError(t, err)
		assert.Equal(t, cdn+"b.png", *gw.created[0].PrimaryImageURL)
	})
}

func TestSubmitCompressed(t *testing.T) {
	gw := &fakeGateway{}
	p := newPublisher(&fakeStore{}, gw)
	p.Codec = codec.New(16)

	body := strings.Repeat("long body ", 100)
	_, err := p.Submit(context.Background(), &model.Draft{Title: "T", Body: body})
	require.NoError(t, err)

	env := gw.created[0]
	assert.Equal(t, model.EncodingGzipBase64, env.Encoding)
	decoded, err := p.Codec.DecodeEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, body, decoded)
}

func TestSubmitCreateFailure(t *testing.T) {
	gw := &fakeGateway{err: &errs.StorageError{Op: "create post", Status: 503}}
	p := newPublisher(&fakeStore{}, gw)

	_, err := p.Submit(context.Background(), &model.Draft{Title: "T", Body: "b"})

	var serr *errs.StorageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 503, serr.Status)
}

func TestSubmitEdit(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{}
	p := newPublisher(store, gw)

	draft := &model.Draft{
		Title:  "Cats, revised",
		Body:   `Now with a dog: <img src='dog.png'>`,
		Assets: []model.LocalAsset{png("dog.png")},
	}

	require.NoError(t, p.SubmitEdit(context.Background(), "post-9", draft))
	assert.Empty(t, gw.created)

	env, ok := gw.updated["post-9"]
	require.True(t, ok)
	assert.Equal(t, "Cats, revised", env.Title)
	assert.Equal(t, `Now with a dog: <img src='`+cdn+`dog.png'>`, env.Body)
	require.NotNil(t, env.PrimaryImageURL)
	assert.Equal(t, cdn+"dog.png", *env.PrimaryImageURL)
}

func TestSubmitEditRejectsInvalidDraft(t *testing.T) {
	store := &fakeStore{}
	gw := &fakeGateway{}
	p := newPublisher(store, gw)

	err := p.SubmitEdit(context.Background(), "post-9", &model.Draft{Title: "T", Body: `<img src="ghost.png">`})

	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
	assert.Empty(t, gw.updated)
}

func TestSubmitEditNotFound(t *testing.T) {
	gw := &fakeGateway{err: errs.ErrNotFound}
	p := newPublisher(&fakeStore{}, gw)

	err := p.SubmitEdit(context.Background(), "missing", &model.Draft{Title: "T", Body: "b"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
