package game

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/jason-s-yu/tabletop/internal/models"
	"github.com/jason-s-yu/tabletop/internal/store"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// spyCatalog serves canned cards and decks and counts lookups.
type spyCatalog struct {
	mu        sync.Mutex
	cards     map[string]models.CardInfo
	decks     map[string]models.DeckListing
	images    map[string][]byte
	imageErr  error
	cardCalls map[string]int
	modules   map[string]models.EncounterModule
}

func newSpyCatalog() *spyCatalog {
	return &spyCatalog{
		cards:     make(map[string]models.CardInfo),
		decks:     make(map[string]models.DeckListing),
		images:    make(map[string][]byte),
		cardCalls: make(map[string]int),
		modules:   make(map[string]models.EncounterModule),
	}
}

func (s *spyCatalog) addCard(code, name string) {
	s.cards[code] = models.CardInfo{Code: code, Name: name, Text: name + " text", ImageURL: "https://cdn.test/cards/" + code + ".jpg"}
}

func (s *spyCatalog) GetCardInfo(_ context.Context, code string) (models.CardInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cardCalls[code]++
	info, ok := s.cards[code]
	if !ok {
		return models.CardInfo{}, fmt.Errorf("card %s: %w", code, models.ErrNotFound)
	}
	return info, nil
}

func (s *spyCatalog) GetDeckCards(_ context.Context, deckID string) (models.DeckListing, error) {
	l, ok := s.decks[deckID]
	if !ok {
		return models.DeckListing{}, fmt.Errorf("deck %s: %w", deckID, models.ErrNotFound)
	}
	return l, nil
}

func (s *spyCatalog) GetUserDecks(_ context.Context, accessToken string) ([]models.DeckRef, error) {
	if accessToken != "good" {
		return nil, errors.New("401 unauthorized")
	}
	return []models.DeckRef{{ID: "1", Name: "Mine"}}, nil
}

func (s *spyCatalog) DownloadImage(_ context.Context, imageURL string) ([]byte, error) {
	code := strings.TrimSuffix(path.Base(imageURL), ".jpg")
	if s.imageErr != nil {
		return nil, s.imageErr
	}
	data, ok := s.images[code]
	if !ok {
		return nil, fmt.Errorf("image %s: %w", code, models.ErrNotFound)
	}
	return data, nil
}

func (s *spyCatalog) GetEncounterModule(_ context.Context, setCode string) (models.EncounterModule, error) {
	m, ok := s.modules[setCode]
	if !ok {
		return models.EncounterModule{}, fmt.Errorf("encounter set %s: %w", setCode, models.ErrNotFound)
	}
	return m, nil
}

func (s *spyCatalog) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.cardCalls {
		n += c
	}
	return n
}

// memImages is an ImageStorage backed by a map.
type memImages struct {
	mu     sync.Mutex
	stored map[string][]byte
}

func newMemImages() *memImages {
	return &memImages{stored: make(map[string][]byte)}
}

func (m *memImages) ImageExists(code string) bool {
	_, ok := m.ImagePath(code)
	return ok
}

func (m *memImages) ImagePath(code string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stored[code]; !ok {
		return "", false
	}
	return "/img/" + code + ".jpg", true
}

func (m *memImages) StoreImage(code string, data []byte) (string, error) {
	m.mu.Lock()
	m.stored[code] = data
	m.mu.Unlock()
	return "/img/" + code + ".jpg", nil
}

// recordingSink keeps every published event.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingSink) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Action.ActionType
	}
	return out
}

// identityShuffler leaves every sequence in its original order.
type identityShuffler struct{}

func (identityShuffler) Shuffle(int, func(i, j int)) {}

// reverseShuffler reverses every sequence it is given.
type reverseShuffler struct{}

func (reverseShuffler) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

type fixture struct {
	mem     store.Memory
	catalog *spyCatalog
	images  *memImages
	sink    *recordingSink
	cards   *CardInteractor
	decks   *DeckInteractor
	games   *GameInteractor

	encounters *EncounterInteractor
}

func newFixture(opts ...GameOption) *fixture {
	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		mem:     store.NewMemory(),
		catalog: newSpyCatalog(),
		images:  newMemImages(),
		sink:    &recordingSink{},
	}
	f.catalog.addCard("01001a", "Spider-Man")
	f.catalog.addCard("01002b", "Web-Shooter")
	f.catalog.addCard("01003", "Swinging Web Kick")

	f.cards = NewCardInteractor(f.mem.Cards, f.catalog, f.images, logger)
	f.decks = NewDeckInteractor(f.mem.Decks, f.cards, f.catalog, logger)
	opts = append([]GameOption{WithEventSink(f.sink), WithShuffler(identityShuffler{})}, opts...)
	f.games = NewGameInteractor(f.mem.Games, f.mem.Decks, logger, opts...)
	f.encounters = NewEncounterInteractor(f.mem.Decks, f.catalog, logger)
	return f
}
