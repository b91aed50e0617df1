package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/sports-sessions/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: сверять Origin со списком доверенных доменов фронтенда.
		return true
	},
}

type LiveHandler struct {
	hub *live.Hub
}

func NewLiveHandler(hub *live.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// ServeSessionsFeed подключает клиента к общей комнате событий сессий.
// Клиент получает SESSION_CREATED / SESSION_UPDATED / SESSION_CANCELLED
// по мере того, как сервис их публикует.
func (h *LiveHandler) ServeSessionsFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP-ошибку клиенту.
		slog.Error("failed to upgrade websocket connection", slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.FeedRoom,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
