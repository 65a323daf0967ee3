package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"smart_cycle_market/internal/chat/app"
	"smart_cycle_market/internal/chat/domain"
	"smart_cycle_market/internal/chat/repository"
	errprocess "smart_cycle_market/pkg/err"
	"smart_cycle_market/pkg/logger"
	"smart_cycle_market/pkg/middlewares"
	"smart_cycle_market/pkg/token"

	"github.com/gofiber/fiber/v2"
	gws "github.com/gorilla/websocket"
)

func TestMain(m *testing.M) {
	logger.SetNewNop()
	os.Exit(m.Run())
}

// staticDirectory every member exists and is named after its id
type staticDirectory struct{}

func (staticDirectory) Profiles(_ context.Context, ids []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(ids))
	for _, id := range ids {
		out[id] = domain.Profile{ID: id, Name: id}
	}
	return out, nil
}

// chatServer fiber app with the chat routes on a loopback listener
type chatServer struct {
	addr     string
	app      *fiber.App
	tokens   *token.Manager
	store    repository.ConversationRepository
	registry *app.ChannelRegistry
}

func startChatServer() (*chatServer, error) {
	tokens := token.NewManager("test-secret", "market", 15*time.Minute, time.Hour)
	store := repository.NewMemoryConversationRepository()
	registry := app.NewChannelRegistry()

	gateway := app.NewMessageGateway(store, registry, nil)
	wsHandler := app.NewChatWebsocketHandler(gateway, registry)
	convHandler := app.NewConversationHandler(app.NewConversationUseCase(store, staticDirectory{}))

	// stands in for the member IsAuth middleware
	isAuth := func(c *fiber.Ctx) error {
		memberID := c.Get("X-Member")
		if memberID == "" {
			return errprocess.Unauthorized("Unauthorized request!")
		}
		c.Locals(middlewares.TokenMemberID, memberID)
		return c.Next()
	}

	f := fiber.New(fiber.Config{ErrorHandler: errprocess.ErrorHandler, DisableStartupMessage: true})
	RegisterRoutes(f, isAuth, app.NewAuthenticator(tokens), wsHandler, convHandler)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	go func() { _ = f.Listener(ln) }()

	return &chatServer{
		addr:     ln.Addr().String(),
		app:      f,
		tokens:   tokens,
		store:    store,
		registry: registry,
	}, nil
}

func (s *chatServer) close() {
	s.registry.Close()
	_ = s.app.Shutdown()
}

func (s *chatServer) dialWithToken(tokenStr string) (*gws.Conn, int, error) {
	conn, resp, err := gws.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws?auth=%s", s.addr, tokenStr), nil)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return conn, status, err
}

// dial connects memberID and waits until the connection is registered
func (s *chatServer) dial(memberID string) (*gws.Conn, error) {
	before := s.registry.Count(memberID)

	tokenStr, err := s.tokens.GenerateAccess(memberID)
	if err != nil {
		return nil, err
	}
	conn, _, err := s.dialWithToken(tokenStr)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.registry.Count(memberID) <= before {
		if time.Now().After(deadline) {
			_ = conn.Close()
			return nil, fmt.Errorf("%s never registered", memberID)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn, nil
}

type wireEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func sendChat(conn *gws.Conn, convID, to string, message json.RawMessage) error {
	data, err := json.Marshal(domain.IncomingChat{ConversationID: convID, To: to, Message: message})
	if err != nil {
		return err
	}
	return conn.WriteJSON(wireEvent{Event: domain.EventChatNew, Data: data})
}

func readEvent(conn *gws.Conn, timeout time.Duration) (wireEvent, error) {
	var ev wireEvent
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return ev, err
	}
	err := conn.ReadJSON(&ev)
	return ev, err
}

func messageBody(memberID, text string) json.RawMessage {
	body, _ := json.Marshal(domain.ChatMessage{
		ID:   "client-1",
		Time: "2026-01-01T00:00:00Z",
		Text: text,
		User: domain.ChatUser{ID: memberID, Name: memberID, Avatar: "https://img/" + memberID + ".png"},
	})
	return body
}
