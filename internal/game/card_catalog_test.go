package game_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/tabletop/internal/catalog"
	"github.com/jason-s-yu/tabletop/internal/game"
	"github.com/jason-s-yu/tabletop/internal/images"
	"github.com/jason-s-yu/tabletop/internal/store"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cardServer serves card info with image links and counts card-info requests.
func cardServer(t *testing.T, infoHits, imageHits *atomic.Int32) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/public/card/{code}.json", func(w http.ResponseWriter, r *http.Request) {
		infoHits.Add(1)
		code := chi.URLParam(r, "code")
		w.Write([]byte(`{"code":"` + code + `","name":"Card ` + code + `","imagesrc":"/bundles/cards/` + code + `.jpg"}`))
	})
	r.Get("/bundles/cards/{file}", func(w http.ResponseWriter, r *http.Request) {
		imageHits.Add(1)
		w.Write([]byte("jpeg-bytes"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestImportCardsBulkFetchesEachMissingCardOnce(t *testing.T) {
	var infoHits, imageHits atomic.Int32
	srv := cardServer(t, &infoHits, &imageHits)
	logger, _ := logtest.NewNullLogger()

	client := catalog.NewClient(srv.URL, time.Second, 0, logger)
	imgs, err := images.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mem := store.NewMemory()
	cards := game.NewCardInteractor(mem.Cards, client, imgs, logger)
	ctx := context.Background()

	_, err = cards.ImportCard(ctx, "01001a")
	require.NoError(t, err)
	assert.Equal(t, int32(1), infoHits.Load())
	infoHits.Store(0)
	imageHits.Store(0)

	got, err := cards.ImportCardsBulk(ctx, []string{"01001a", "01002", "01003"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, int32(2), infoHits.Load())
	assert.Equal(t, int32(2), imageHits.Load())

	for _, c := range got {
		assert.NotEmpty(t, c.ImageRef, c.Code)
	}

	path, err := cards.CardImagePath(ctx, "01002")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, int32(2), infoHits.Load(), "cached image needs no lookup")
}
