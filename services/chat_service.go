package services

import (
	"context"
	"log/slog"

	"babelroom/delivery"
	"babelroom/domain"
	"babelroom/observability"
	"babelroom/runtime"
	"babelroom/search"
	"babelroom/translation"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateRoom(ownerID string) (domain.Room, error)
	GetRoom(code domain.RoomCode) (domain.Room, error)
	PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (uuid.UUID, error)
	GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error)
	Search(ctx context.Context, room domain.RoomCode, terms string, limit int) ([]search.Hit, error)
	OpenSession(viewer domain.User, code domain.RoomCode) (*delivery.Session, error)
	CloseSession(session *delivery.Session)
}

type ChatService struct {
	log            *slog.Logger
	orchestrator   runtime.IOrchestrator
	roomRepository domainRoomRepository
	searcher       search.ISearcher
	translator     translation.Translator
	metrics        *observability.Metrics
	bufferSize     int
}

// domainRoomRepository is the slice of the room repository the service needs.
type domainRoomRepository interface {
	CreateRoom(ownerID string) (domain.Room, error)
	GetRoom(code domain.RoomCode) (domain.Room, error)
}

func NewChatService(log *slog.Logger, orchestrator runtime.IOrchestrator,
	rooms domainRoomRepository, searcher search.ISearcher,
	translator translation.Translator, metrics *observability.Metrics,
	bufferSize int) *ChatService {
	return &ChatService{
		log:            log,
		orchestrator:   orchestrator,
		roomRepository: rooms,
		searcher:       searcher,
		translator:     translator,
		metrics:        metrics,
		bufferSize:     bufferSize,
	}
}

func (s *ChatService) CreateRoom(ownerID string) (domain.Room, error) {
	return s.roomRepository.CreateRoom(ownerID)
}

func (s *ChatService) GetRoom(code domain.RoomCode) (domain.Room, error) {
	return s.roomRepository.GetRoom(domain.NormalizeRoomCode(string(code)))
}

func (s *ChatService) PostMessage(ctx context.Context, cmd domain.PostMessageCommand) (uuid.UUID, error) {
	return s.orchestrator.PostMessage(ctx, cmd)
}

func (s *ChatService) GetMessages(cmd domain.GetMessagesCommand) ([]domain.Message, *string, error) {
	return s.orchestrator.GetMessages(cmd)
}

func (s *ChatService) Search(ctx context.Context, room domain.RoomCode, terms string, limit int) ([]search.Hit, error) {
	return s.searcher.Search(ctx, domain.NormalizeRoomCode(string(room)), terms, limit)
}

// OpenSession verifies the room exists, subscribes a fresh delivery session
// to the live fan-out and then seeds it with the room's history. The order
// matters: subscribing first means a message stored while the history read
// runs arrives on both paths instead of neither, and the session's seen-ID
// filter collapses the overlap to a single delivery. Each websocket
// connection gets its own session; the caller owns its lifecycle and must
// end it with CloseSession.
func (s *ChatService) OpenSession(viewer domain.User, code domain.RoomCode) (*delivery.Session, error) {
	room, err := s.GetRoom(code)
	if err != nil {
		return nil, err
	}

	session := delivery.NewSession(s.log, viewer, room.Code, s.translator, s.metrics, s.bufferSize)
	s.orchestrator.RegisterParticipant(session.ID, room.Code, session)

	history, _, err := s.orchestrator.GetMessages(domain.GetMessagesCommand{Room: room.Code})
	if err != nil {
		s.orchestrator.UnregisterParticipant(session.ID, room.Code)
		return nil, err
	}
	session.Bootstrap(chronological(history))

	s.log.Info("Session opened", "session_id", session.ID,
		"room", room.Code, "viewer", viewer.Email)
	return session, nil
}

// CloseSession detaches the session from the fan-out. Safe to call once per
// session on every exit path of the transport.
func (s *ChatService) CloseSession(session *delivery.Session) {
	s.orchestrator.UnregisterParticipant(session.ID, session.Room())
	s.log.Info("Session closed", "session_id", session.ID, "room", session.Room())
}

// chronological reverses a newest-first page into display order.
func chronological(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	for i, msg := range messages {
		out[len(messages)-1-i] = msg
	}
	return out
}
