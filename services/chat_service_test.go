package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"babelroom/delivery"
	"babelroom/domain"
	"babelroom/errors"
	"babelroom/observability"
	"babelroom/repositories"
	"babelroom/runtime"
	"babelroom/runtime/workers"
	"babelroom/search"
)

// dictionaryTranslator resolves translations from a fixed table and records
// every provider call.
type dictionaryTranslator struct {
	mu      sync.Mutex
	entries map[domain.LocaleCode]map[string]string
	calls   int
}

func (d *dictionaryTranslator) Translate(_ context.Context, text string, target domain.LocaleCode) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if translated, ok := d.entries[target][text]; ok {
		return translated, nil
	}
	return string(target) + ":" + text, nil
}

func (d *dictionaryTranslator) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type noopSearcher struct{}

func (noopSearcher) Add(domain.Message) error { return nil }
func (noopSearcher) Search(context.Context, domain.RoomCode, string, int) ([]search.Hit, error) {
	return nil, nil
}

type chatFixture struct {
	service      *ChatService
	translator   *dictionaryTranslator
	log          *slog.Logger
	orchestrator *runtime.Orchestrator
	rooms        *repositories.RoomRepository
	metrics      *observability.Metrics
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	req := require.New(t)
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	metrics := observability.NewMetrics()
	sup := workers.NewSupervisor(log)
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log, nil)
	orchestrator := runtime.NewOrchestrator(log, sup, registry, messageRepository,
		metrics, 16, time.Second, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	req.NoError(orchestrator.Start(ctx))
	t.Cleanup(func() {
		cancel()
		orchestrator.Stop()
	})

	translator := &dictionaryTranslator{
		entries: map[domain.LocaleCode]map[string]string{
			domain.Spanish: {
				"Hello there, how is everything going today?": "Hola, ¿cómo va todo hoy?",
			},
		},
	}

	roomRepository := repositories.NewRoomRepository(db, 5)
	service := NewChatService(log, orchestrator, roomRepository, noopSearcher{},
		translator, metrics, 16)
	return &chatFixture{
		service:      service,
		translator:   translator,
		log:          log,
		orchestrator: orchestrator,
		rooms:        roomRepository,
		metrics:      metrics,
	}
}

func runSession(t *testing.T, session *delivery.Session) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = session.Run(ctx) }()
}

func receiveBatch(t *testing.T, session *delivery.Session) delivery.Batch {
	t.Helper()
	select {
	case batch := <-session.Events():
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("no batch received in time")
		return nil
	}
}

func TestChatService_Each_Viewer_Reads_In_Their_Own_Language(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t)

	alice := domain.User{ID: "u-alice", Email: "alice@mail.com", PreferredLanguage: domain.English}
	bob := domain.User{ID: "u-bob", Email: "bob@mail.com", PreferredLanguage: domain.Spanish}

	// Given Alice creates a room and both viewers join it
	room, err := fixture.service.CreateRoom(alice.ID)
	req.NoError(err)

	aliceSession, err := fixture.service.OpenSession(alice, room.Code)
	req.NoError(err)
	defer fixture.service.CloseSession(aliceSession)
	runSession(t, aliceSession)

	bobSession, err := fixture.service.OpenSession(bob, room.Code)
	req.NoError(err)
	defer fixture.service.CloseSession(bobSession)
	runSession(t, bobSession)

	// When Alice sends a message in English
	content := "Hello there, how is everything going today?"
	_, err = fixture.service.PostMessage(context.Background(), domain.PostMessageCommand{
		Room:    room.Code,
		Sender:  alice.Email,
		Content: content,
	})
	req.NoError(err)

	// Then Bob reads it in Spanish
	bobBatch := receiveBatch(t, bobSession)
	req.Len(bobBatch, 1)
	req.Equal(content, bobBatch[0].Text)
	req.Equal("Hola, ¿cómo va todo hoy?", bobBatch[0].TranslatedText)

	// And Alice reads her own words untouched, without a provider call for her
	aliceBatch := receiveBatch(t, aliceSession)
	req.Len(aliceBatch, 1)
	req.Equal(content, aliceBatch[0].TranslatedText)
	req.Equal(1, fixture.translator.callCount())
}

func TestChatService_New_Joiner_Receives_The_History_Translated(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t)

	alice := domain.User{ID: "u-alice", Email: "alice@mail.com", PreferredLanguage: domain.English}
	bob := domain.User{ID: "u-bob", Email: "bob@mail.com", PreferredLanguage: domain.Spanish}

	room, err := fixture.service.CreateRoom(alice.ID)
	req.NoError(err)

	// Given a message was posted before Bob joined
	content := "Hello there, how is everything going today?"
	_, err = fixture.service.PostMessage(context.Background(), domain.PostMessageCommand{
		Room:    room.Code,
		Sender:  alice.Email,
		Content: content,
	})
	req.NoError(err)

	// When Bob joins afterwards
	bobSession, err := fixture.service.OpenSession(bob, room.Code)
	req.NoError(err)
	defer fixture.service.CloseSession(bobSession)
	runSession(t, bobSession)

	// Then the history snapshot arrives translated
	batch := receiveBatch(t, bobSession)
	req.Len(batch, 1)
	req.Equal("Hola, ¿cómo va todo hoy?", batch[0].TranslatedText)
}

// racingOrchestrator delays the history snapshot: after the real read
// completes, it stores one more message and lets the fan-out run before
// returning. That reproduces a message landing between the snapshot and the
// subscription during a join.
type racingOrchestrator struct {
	*runtime.Orchestrator
	once sync.Once
	post func()
}

func (r *racingOrchestrator) GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error) {
	messages, cursor, err := r.Orchestrator.GetMessages(cmd)
	r.once.Do(r.post)
	return messages, cursor, err
}

func TestChatService_Message_Posted_While_Joining_Arrives_Exactly_Once(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t)

	alice := domain.User{ID: "u-alice", Email: "alice@mail.com", PreferredLanguage: domain.English}
	bob := domain.User{ID: "u-bob", Email: "bob@mail.com", PreferredLanguage: domain.Spanish}

	room, err := fixture.service.CreateRoom(alice.ID)
	req.NoError(err)

	content := "Hello there, how is everything going today?"
	racing := &racingOrchestrator{Orchestrator: fixture.orchestrator}
	racing.post = func() {
		_, err := fixture.orchestrator.PostMessage(context.Background(), domain.PostMessageCommand{
			Room:    room.Code,
			Sender:  alice.Email,
			Content: content,
		})
		req.NoError(err)
		// Give the fan-out time to reach the subscribed session so the
		// message arrives on the live path only, never in the snapshot.
		time.Sleep(200 * time.Millisecond)
	}
	service := NewChatService(fixture.log, racing, fixture.rooms, noopSearcher{},
		fixture.translator, fixture.metrics, 16)

	// When Bob joins during that window
	bobSession, err := service.OpenSession(bob, room.Code)
	req.NoError(err)
	defer service.CloseSession(bobSession)
	runSession(t, bobSession)

	// Then the message still reaches him, translated, exactly once
	batch := receiveBatch(t, bobSession)
	req.Len(batch, 1)
	req.Equal(content, batch[0].Text)
	req.Equal("Hola, ¿cómo va todo hoy?", batch[0].TranslatedText)

	select {
	case extra := <-bobSession.Events():
		req.Failf("duplicate delivery", "unexpected extra batch: %v", extra)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestChatService_Join_Unknown_Room_Fails(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t)

	bob := domain.User{ID: "u-bob", Email: "bob@mail.com", PreferredLanguage: domain.Spanish}

	_, err := fixture.service.OpenSession(bob, "NOROOM")
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestChatService_Room_Code_Lookup_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t)

	room, err := fixture.service.CreateRoom("u-alice")
	req.NoError(err)

	lower := domain.RoomCode(" " + string(room.Code) + " ")
	fetched, err := fixture.service.GetRoom(lower)
	req.NoError(err)
	req.Equal(room.Code, fetched.Code)
}

func TestChatService_Empty_Message_Is_Rejected(t *testing.T) {
	req := require.New(t)
	fixture := newChatFixture(t)

	room, err := fixture.service.CreateRoom("u-alice")
	req.NoError(err)

	_, err = fixture.service.PostMessage(context.Background(), domain.PostMessageCommand{
		Room:    room.Code,
		Sender:  "alice@mail.com",
		Content: "   ",
	})
	req.ErrorIs(err, errors.ErrEmptyMessage)
}
