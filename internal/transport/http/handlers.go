package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"sketchparty/internal/domain"
)

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomRequest is the body for room creation
type CreateRoomRequest struct {
	HostName string              `json:"hostName"`
	RoomName string              `json:"roomName"`
	Settings domain.GameSettings `json:"settings"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomID   string `json:"roomId"`
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

// GetRoomResponse is the response for getting room info
type GetRoomResponse struct {
	RoomCode    string `json:"roomCode"`
	RoomName    string `json:"roomName"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	Status      string `json:"status"`
	CanJoin     bool   `json:"canJoin"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse is the response for stats endpoint
type StatsResponse struct {
	ActiveRooms  int `json:"activeRooms"`
	TotalPlayers int `json:"totalPlayers"`
}

// handleCreateRoom handles POST /api/rooms. Creation always succeeds;
// missing settings fall back to the configured defaults.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}

	req.HostName = strings.TrimSpace(req.HostName)
	if req.HostName == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_HOST_NAME", "Host name is required")
		return
	}
	if strings.TrimSpace(req.RoomName) == "" {
		req.RoomName = req.HostName + "'s room"
	}

	session, host := s.hub.CreateRoom(req.HostName, req.RoomName, req.Settings)

	s.sendSuccess(w, &CreateRoomResponse{
		RoomID:   session.RoomID(),
		RoomCode: session.RoomCode(),
		PlayerID: host.ID,
	})
}

// handleGetRoom handles GET /api/rooms/{roomCode}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomCode := r.PathValue("roomCode")
	if roomCode == "" {
		s.sendError(w, http.StatusBadRequest, "MISSING_ROOM_CODE", "Room code is required")
		return
	}

	session, err := s.hub.FindByCode(strings.ToUpper(roomCode))
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.sendError(w, http.StatusNotFound, "ROOM_NOT_FOUND", "Room not found")
		} else {
			s.sendError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		return
	}

	snapshot := session.Snapshot()
	s.sendSuccess(w, &GetRoomResponse{
		RoomCode:    snapshot.Code,
		RoomName:    snapshot.Name,
		PlayerCount: len(snapshot.Players),
		MaxPlayers:  snapshot.MaxPlayers,
		Status:      snapshot.Status.String(),
		CanJoin:     session.CanJoin(),
	})
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &StatsResponse{
		ActiveRooms:  s.hub.RoomCount(),
		TotalPlayers: s.hub.TotalPlayerCount(),
	})
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}
