package game

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxUsernameLength = 24
const joinReplyTimeout = 5 * time.Second

type GameHandler struct {
	lobby     Lobby
	broker    *ListingBroker
	questions QuestionSource
	configs   RoomConfigs
	upgrader  websocket.Upgrader
}

func NewGameHandler(lobby Lobby, broker *ListingBroker, questions QuestionSource, configs RoomConfigs) *GameHandler {
	return &GameHandler{
		lobby:     lobby,
		broker:    broker,
		questions: questions,
		configs:   configs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *GameHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/rooms", h.ListRoomsHandler)
	r.GET("/rooms/events", h.LobbyEventsHandler)
	r.GET("/rooms/create/ws", h.CreateRoomHandler)
	r.GET("/rooms/:id/join/ws", h.JoinRoomHandler)
}

func (h *GameHandler) ListRoomsHandler(ctx *gin.Context) {
	rooms := h.lobby.GetPublicGames(ctx.Request.Context())
	if rooms == nil {
		rooms = []RoomSummary{}
	}
	ctx.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// LobbyEventsHandler streams roomListUpdated events to lobby viewers
// over SSE, starting with the current listing.
func (h *GameHandler) LobbyEventsHandler(ctx *gin.Context) {
	flusher, ok := ctx.Writer.(http.Flusher)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "streaming-unsupported"})
		return
	}

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")

	ch := h.broker.Subscribe()
	defer h.broker.Unsubscribe(ch)

	initial := MakeEventRoomListUpdated(h.lobby.GetPublicGames(ctx.Request.Context()))
	fmt.Fprintf(ctx.Writer, "event: roomListUpdated\ndata: %s\n\n", initial)
	flusher.Flush()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Request.Context().Done():
			return
		case data := <-ch:
			fmt.Fprintf(ctx.Writer, "event: roomListUpdated\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(ctx.Writer, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	username := ctx.Query("name")
	if err := validateUsername(username); err != "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}
	mode, err := ParseGameMode(ctx.Query("mode"))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown-game-mode"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}

	player := NewPlayer(uuid.NewString(), username, NewWebsocketConnection(conn))
	room := NewRoom(player, mode, h.configs, h.questions)
	go player.ReadPump()
	go player.WritePump()
	h.lobby.RequestAddAndRunRoom(ctx.Request.Context(), room)
}

func (h *GameHandler) JoinRoomHandler(ctx *gin.Context) {
	username := ctx.Query("name")
	if err := validateUsername(username); err != "" {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}
	roomId := ctx.Param("id")

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}

	socket := NewWebsocketConnection(conn)
	player := NewPlayer(uuid.NewString(), username, socket)
	go player.ReadPump()
	go player.WritePump()

	jreq := NewRoomJoinRequest(roomId, player)
	h.lobby.ForwardPlayerJoinRequestToRoom(ctx.Request.Context(), jreq)

	select {
	case joinErr := <-jreq.errChan:
		if joinErr != nil {
			player.Send(MakeEventJoinRejected(joinErr.Error()))
			time.AfterFunc(time.Second, player.CancelAndRelease)
		}
	case <-time.After(joinReplyTimeout):
		player.Send(MakeEventJoinRejected(ErrRoomNotFound.Error()))
		time.AfterFunc(time.Second, player.CancelAndRelease)
	}
}

func validateUsername(name string) string {
	if name == "" {
		return "name is required"
	}
	if len(name) > maxUsernameLength {
		return fmt.Sprintf("name cannot exceed %d characters", maxUsernameLength)
	}
	return ""
}
