package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"studysync-service/internal/middleware"
)

// RouterConfig holds what the HTTP surface needs.
type RouterConfig struct {
	Logger        *slog.Logger
	Dispatcher    Dispatcher
	Rooms         RoomDirectory
	AllowedOrigin string
}

// NewRouter wires the websocket endpoint and the discovery queries.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	wsHandler := NewWSHandler(cfg.Dispatcher, cfg.Logger)
	discovery := NewDiscoveryHandler(cfg.Rooms, cfg.Logger)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", wsHandler.ServeWS)

	lobby := r.NewRoute().Subrouter()
	lobby.Use(middleware.CORS(cfg.AllowedOrigin))
	lobby.HandleFunc("/check-room/{roomId}", discovery.CheckRoom).Methods(http.MethodGet, http.MethodOptions)
	lobby.HandleFunc("/open-rooms", discovery.OpenRooms).Methods(http.MethodGet, http.MethodOptions)
	lobby.HandleFunc("/rooms/new-id", discovery.NewRoomID).Methods(http.MethodGet, http.MethodOptions)

	return r
}
