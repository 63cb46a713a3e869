package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"studysync-service/internal/domain"
	"studysync-service/internal/roomcode"
)

// RoomDirectory is the read-only view of the registry used by the discovery endpoints.
type RoomDirectory interface {
	GetRoom(id string) (*domain.Room, bool)
	ListRoomIDs() []string
}

// DiscoveryHandler answers the lobby queries made before a socket is opened.
type DiscoveryHandler struct {
	rooms  RoomDirectory
	logger *slog.Logger
}

func NewDiscoveryHandler(rooms RoomDirectory, logger *slog.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{rooms: rooms, logger: logger}
}

func (h *DiscoveryHandler) exists(id string) bool {
	_, ok := h.rooms.GetRoom(id)
	return ok
}

type checkRoomResponse struct {
	Exists bool `json:"exists"`
}

type openRoomsResponse struct {
	Rooms []string `json:"rooms"`
}

type newRoomIDResponse struct {
	RoomID string `json:"roomId"`
}

// CheckRoom handles GET /check-room/{roomId}.
func (h *DiscoveryHandler) CheckRoom(w http.ResponseWriter, r *http.Request) {
	id := roomcode.Normalize(mux.Vars(r)["roomId"])
	h.writeJSON(w, http.StatusOK, checkRoomResponse{Exists: id != "" && h.exists(id)})
}

// OpenRooms handles GET /open-rooms.
func (h *DiscoveryHandler) OpenRooms(w http.ResponseWriter, r *http.Request) {
	ids := h.rooms.ListRoomIDs()
	if ids == nil {
		ids = []string{}
	}
	sort.Strings(ids)
	h.writeJSON(w, http.StatusOK, openRoomsResponse{Rooms: ids})
}

// NewRoomID handles GET /rooms/new-id and suggests a code not currently in use.
func (h *DiscoveryHandler) NewRoomID(w http.ResponseWriter, r *http.Request) {
	const attempts = 8
	for i := 0; i < attempts; i++ {
		id := roomcode.Generate()
		if !h.exists(id) {
			h.writeJSON(w, http.StatusOK, newRoomIDResponse{RoomID: id})
			return
		}
	}
	http.Error(w, "could not allocate room id", http.StatusServiceUnavailable)
}

func (h *DiscoveryHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}
