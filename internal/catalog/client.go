// Package catalog talks to the MarvelCDB public JSON API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the public MarvelCDB instance.
const DefaultBaseURL = "https://marvelcdb.com"

// DefaultMaxImageBytes caps the size of a downloaded card image.
const DefaultMaxImageBytes = 10 << 20

// Client fetches cards, published decks and images. Concurrent requests for the same
// resource share one round trip, and consecutive requests are spaced by at least delay.
type Client struct {
	baseURL string
	http    *http.Client
	delay   time.Duration
	logger  logrus.FieldLogger

	maxImageBytes int64

	group singleflight.Group

	paceMu sync.Mutex
	last   time.Time
}

// NewClient builds a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, timeout, delay time.Duration, logger logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		delay:   delay,
		logger:  logger,

		maxImageBytes: DefaultMaxImageBytes,
	}
}

type cardResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	ImageSrc string `json:"imagesrc"`
}

type decklistResponse struct {
	ID    json.Number    `json:"id"`
	Name  string         `json:"name"`
	Slots map[string]int `json:"slots"`
}

type encounterCardResponse struct {
	Code     string `json:"code"`
	TypeCode string `json:"type_code"`
	SetCode  string `json:"card_set_code"`
	SetName  string `json:"card_set_name"`
	Quantity int    `json:"quantity"`
}

type userDeckResponse struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// GetCardInfo fetches /api/public/card/{code}.json.
func (c *Client) GetCardInfo(ctx context.Context, code string) (models.CardInfo, error) {
	v, err := c.shared(ctx, "card:"+code, func(ctx context.Context) (any, error) {
		var res cardResponse
		if err := c.getJSON(ctx, "/api/public/card/"+url.PathEscape(code)+".json", "", &res); err != nil {
			return nil, err
		}
		if res.Code == "" {
			res.Code = code
		}
		return models.CardInfo{Code: res.Code, Name: res.Name, Text: res.Text, ImageURL: c.absolute(res.ImageSrc)}, nil
	})
	if err != nil {
		return models.CardInfo{}, fmt.Errorf("card %s: %w", code, err)
	}
	return v.(models.CardInfo), nil
}

// GetDeckCards fetches a published decklist and flattens its slots into entries sorted by code.
func (c *Client) GetDeckCards(ctx context.Context, deckID string) (models.DeckListing, error) {
	var res decklistResponse
	if err := c.getJSON(ctx, "/api/public/decklist/"+url.PathEscape(deckID)+".json", "", &res); err != nil {
		return models.DeckListing{}, fmt.Errorf("decklist %s: %w", deckID, err)
	}

	codes := make([]string, 0, len(res.Slots))
	for code, qty := range res.Slots {
		if qty > 0 {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	entries := make([]models.DeckEntry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, models.DeckEntry{Code: code, Quantity: res.Slots[code]})
	}

	return models.DeckListing{
		ID:      deckID,
		Name:    res.Name,
		URL:     c.baseURL + "/decklist/view/" + url.PathEscape(deckID),
		Entries: entries,
	}, nil
}

// GetUserDecks lists the decks of the account that owns accessToken.
func (c *Client) GetUserDecks(ctx context.Context, accessToken string) ([]models.DeckRef, error) {
	var res []userDeckResponse
	if err := c.getJSON(ctx, "/api/oauth2/decks", accessToken, &res); err != nil {
		return nil, fmt.Errorf("user decks: %w", err)
	}
	out := make([]models.DeckRef, 0, len(res))
	for _, d := range res {
		out = append(out, models.DeckRef{ID: d.ID.String(), Name: d.Name})
	}
	return out, nil
}

// GetEncounterModule collects the cards of one encounter set from /api/public/cards/?encounter=1.
// The full listing is large, so concurrent module lookups share one download.
func (c *Client) GetEncounterModule(ctx context.Context, setCode string) (models.EncounterModule, error) {
	if setCode == "" {
		return models.EncounterModule{}, fmt.Errorf("%w: empty encounter set code", models.ErrValidation)
	}
	v, err := c.shared(ctx, "encounter-cards", func(ctx context.Context) (any, error) {
		var res []encounterCardResponse
		if err := c.getJSON(ctx, "/api/public/cards/?encounter=1", "", &res); err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return models.EncounterModule{}, fmt.Errorf("encounter set %s: %w", setCode, err)
	}

	m := models.EncounterModule{Code: setCode}
	for _, card := range v.([]encounterCardResponse) {
		if card.SetCode != setCode || card.Code == "" {
			continue
		}
		m.Name = card.SetName
		entry := models.DeckEntry{Code: card.Code, Quantity: max(card.Quantity, 1)}
		switch card.TypeCode {
		case "villain":
			m.Villains = append(m.Villains, entry)
		case "main_scheme":
			m.MainSchemes = append(m.MainSchemes, entry)
		default:
			m.Cards = append(m.Cards, entry)
		}
	}
	if len(m.Villains)+len(m.MainSchemes)+len(m.Cards) == 0 {
		return models.EncounterModule{}, fmt.Errorf("encounter set %s: %w", setCode, models.ErrNotFound)
	}
	return m, nil
}

// DownloadImage downloads the image at imageURL, as found in CardInfo.ImageURL.
// Images larger than DefaultMaxImageBytes are rejected rather than truncated.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: empty image url", models.ErrValidation)
	}
	v, err := c.shared(ctx, "image:"+imageURL, func(ctx context.Context) (any, error) {
		resp, err := c.do(ctx, imageURL, "")
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxImageBytes+1))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", models.ErrExternalFetch, imageURL, err)
		}
		if int64(len(data)) > c.maxImageBytes {
			return nil, fmt.Errorf("%w: image %s exceeds %d bytes", models.ErrExternalFetch, imageURL, c.maxImageBytes)
		}
		return data, nil
	})
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", imageURL, err)
	}
	return v.([]byte), nil
}

// shared runs fn once for all concurrent callers of key. The shared call is detached from
// the cancellation of whichever caller started it and bounded by the client timeout instead;
// each caller still stops waiting when its own ctx ends.
func (c *Client) shared(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.http.Timeout)
		defer cancel()
		return fn(fctx)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", models.ErrExternalFetch, ctx.Err())
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (c *Client) absolute(src string) string {
	if src == "" || strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	return c.baseURL + "/" + strings.TrimLeft(src, "/")
}

func (c *Client) getJSON(ctx context.Context, path, token string, into any) error {
	resp, err := c.do(ctx, c.baseURL+path, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("%w: decode %s: %w", models.ErrExternalFetch, path, err)
	}
	return nil
}

// do performs a paced GET and classifies failures. The caller closes the body on success.
func (c *Client) do(ctx context.Context, target, token string) (*http.Response, error) {
	if err := c.pace(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrExternalFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %w", models.ErrExternalFetch, target, err)
	}
	c.logger.WithFields(logrus.Fields{
		"url":      target,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("catalog request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w", target, models.ErrNotFound)
	case resp.StatusCode >= 300:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: GET %s: status %d", models.ErrExternalFetch, target, resp.StatusCode)
	}
	return resp, nil
}

// pace blocks until delay has passed since the previous request.
func (c *Client) pace(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}
	c.paceMu.Lock()
	wait := c.delay - time.Since(c.last)
	if wait < 0 {
		wait = 0
	}
	c.last = time.Now().Add(wait)
	c.paceMu.Unlock()

	if wait == 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return errors.Join(models.ErrExternalFetch, ctx.Err())
	case <-t.C:
		return nil
	}
}
