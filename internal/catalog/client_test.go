package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jason-s-yu/tabletop/internal/models"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeMarvelCDB(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/public/card/{code}.json", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch chi.URLParam(r, "code") {
		case "01001a":
			w.Write([]byte(`{"code":"01001a","name":"Spider-Man","text":"Hero","imagesrc":"/bundles/cards/01001a.jpg"}`))
		case "01002":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{"code":"01002","name":"Black Cat"}`))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	})
	r.Get("/api/public/decklist/{id}.json", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "42" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"id":42,"name":"Spidey Aggro","slots":{"01003":3,"01001a":1,"zero":0}}`))
	})
	r.Get("/api/oauth2/decks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id":7,"name":"Mine"}]`))
	})
	r.Get("/api/public/cards/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("encounter") != "1" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`[
			{"code":"01094","type_code":"villain","card_set_code":"rhino","card_set_name":"Rhino","quantity":1},
			{"code":"01097","type_code":"main_scheme","card_set_code":"rhino","card_set_name":"Rhino","quantity":1},
			{"code":"01100","type_code":"minion","card_set_code":"rhino","card_set_name":"Rhino","quantity":2},
			{"code":"01101","type_code":"treachery","card_set_code":"rhino","card_set_name":"Rhino"},
			{"code":"01108","type_code":"side_scheme","card_set_code":"bomb_scare","card_set_name":"Bomb Scare","quantity":1}
		]`))
	})
	r.Get("/bundles/cards/{file}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, hits *atomic.Int32, delay time.Duration) *Client {
	logger, _ := logtest.NewNullLogger()
	srv := fakeMarvelCDB(t, hits)
	return NewClient(srv.URL, time.Second, delay, logger)
}

func TestGetCardInfo(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 0)
	ctx := context.Background()

	info, err := c.GetCardInfo(ctx, "01001a")
	require.NoError(t, err)
	assert.Equal(t, "Spider-Man", info.Name)
	assert.Equal(t, c.baseURL+"/bundles/cards/01001a.jpg", info.ImageURL)

	_, err = c.GetCardInfo(ctx, "99999")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = c.GetCardInfo(ctx, "broken")
	assert.ErrorIs(t, err, models.ErrExternalFetch)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestGetCardInfoSharesInFlightRequests(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 0)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetCardInfo(context.Background(), "01001a")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, hits.Load(), int32(8))
	assert.GreaterOrEqual(t, hits.Load(), int32(1))
}

func TestGetDeckCards(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 0)

	listing, err := c.GetDeckCards(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Spidey Aggro", listing.Name)
	assert.Equal(t, []models.DeckEntry{{Code: "01001a", Quantity: 1}, {Code: "01003", Quantity: 3}}, listing.Entries)
	assert.Equal(t, c.baseURL+"/decklist/view/42", listing.URL)

	_, err = c.GetDeckCards(context.Background(), "0")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetUserDecks(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 0)

	refs, err := c.GetUserDecks(context.Background(), "secret")
	require.NoError(t, err)
	assert.Equal(t, []models.DeckRef{{ID: "7", Name: "Mine"}}, refs)

	_, err = c.GetUserDecks(context.Background(), "wrong")
	assert.ErrorIs(t, err, models.ErrExternalFetch)
}

func TestGetCardInfoSurvivesCancelledFirstCaller(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 0)

	firstCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetCardInfo(firstCtx, "01002")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	var info models.CardInfo
	go func() {
		var err error
		info, err = c.GetCardInfo(context.Background(), "01002")
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	err := <-firstErr
	assert.ErrorIs(t, err, models.ErrExternalFetch)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, <-second)
	assert.Equal(t, "Black Cat", info.Name)
	assert.Equal(t, int32(1), hits.Load())
}

func TestDownloadImage(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 0)
	ctx := context.Background()

	info, err := c.GetCardInfo(ctx, "01001a")
	require.NoError(t, err)
	data, err := c.DownloadImage(ctx, info.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, int32(1), hits.Load())

	_, err = c.DownloadImage(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestDownloadImageRejectsOversizedBody(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 0)
	ctx := context.Background()
	imageURL := c.baseURL + "/bundles/cards/01001a.jpg"

	c.maxImageBytes = int64(len("jpeg-bytes"))
	data, err := c.DownloadImage(ctx, imageURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	c.maxImageBytes = 4
	_, err = c.DownloadImage(ctx, imageURL)
	assert.ErrorIs(t, err, models.ErrExternalFetch)
	assert.ErrorContains(t, err, "exceeds 4 bytes")
}

func TestGetEncounterModule(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 0)
	ctx := context.Background()

	m, err := c.GetEncounterModule(ctx, "rhino")
	require.NoError(t, err)
	assert.Equal(t, "Rhino", m.Name)
	assert.Equal(t, []models.DeckEntry{{Code: "01094", Quantity: 1}}, m.Villains)
	assert.Equal(t, []models.DeckEntry{{Code: "01097", Quantity: 1}}, m.MainSchemes)
	assert.Equal(t, []models.DeckEntry{{Code: "01100", Quantity: 2}, {Code: "01101", Quantity: 1}}, m.Cards)

	_, err = c.GetEncounterModule(ctx, "doom")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = c.GetEncounterModule(ctx, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestRequestPacing(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, &hits, 30*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		_, err := c.GetCardInfo(ctx, "01001a")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}
