package game

import (
	"context"
	"time"
)

type GameMode string

const (
	ModeNumberLine     GameMode = "number-line"
	ModeCartesianPlane GameMode = "cartesian-plane"
	ModeMultipleChoice GameMode = "multiple-choice"
)

func ParseGameMode(s string) (GameMode, error) {
	switch GameMode(s) {
	case ModeNumberLine, ModeCartesianPlane, ModeMultipleChoice:
		return GameMode(s), nil
	}
	return "", ErrGameModeUnknown
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Target is the correct answer for a question. Which fields are meaningful
// depends on the room's game mode: Value for number-line, Point for
// cartesian-plane, Options+CorrectIndex for multiple-choice.
type Target struct {
	Value        float64
	Point        Point
	Options      []string
	CorrectIndex int
}

// Question is immutable once generated and owned by the room that
// requested it for the duration of one round.
type Question struct {
	DisplayText string
	Target      Target
}

// Guess is the validated, mode-tagged form of a client submission.
// Value carries a number-line guess; Point carries a plane guess or the
// normalized click position for multiple-choice.
type Guess struct {
	Value float64
	Point Point
}

// ClientPacket is the raw inbound message shape. Fields are pointers so
// the guess validator can tell "absent" from "zero".
type ClientPacket struct {
	Type  string   `json:"type"`
	Value *float64 `json:"value,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
}

type ClientPacketEnvelope struct {
	packet ClientPacket
	from   Player
}

type roomJoinRequest struct {
	roomId  string
	player  Player
	errChan chan error
}

func NewRoomJoinRequest(roomId string, player Player) roomJoinRequest {
	return roomJoinRequest{roomId: roomId, player: player, errChan: make(chan error, 1)}
}

type roomDescription struct {
	id           string
	mode         GameMode
	playersCount int
	maxPlayers   int
	draining     bool
}

// RoomSummary is the sanitized listing entry shown to lobby viewers.
type RoomSummary struct {
	RoomID      string   `json:"roomId"`
	GameMode    GameMode `json:"gameMode"`
	PlayerCount int      `json:"playerCount"`
	MaxPlayers  int      `json:"maxPlayers"`
}

type RoomConfigs struct {
	MaxPlayers    int
	RoundInterval time.Duration
	EmptyGrace    time.Duration
}

type Player interface {
	ID() string
	Username() string
	Send(data []byte) error
	Ping() error
	SetRoom(r Room)
	CancelAndRelease()
}

type Room interface {
	Send(ctx context.Context, e ClientPacketEnvelope)
	RemoveMe(ctx context.Context, p Player)
	RequestJoin(jreq roomJoinRequest)
	Tick(now time.Time)
	PingPlayers()
	GameLoop()
	CloseAndRelease()
	Description() roomDescription
	SetParentLobby(l Lobby)
	SetId(id string)
}

type Lobby interface {
	RequestAddAndRunRoom(ctx context.Context, r Room)
	ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest)
	RequestUpdateDescription(desc roomDescription)
	RemoveRoom(roomId string)
	GetPublicGames(ctx context.Context) []RoomSummary
}

// QuestionSource produces the next question for a mode. Implementations
// may block on external calls; callers bound them with the context.
type QuestionSource interface {
	Next(ctx context.Context, mode GameMode) (Question, error)
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// RoomListPublisher receives the public listing whenever it changes.
type RoomListPublisher interface {
	Publish(listing []RoomSummary)
}

type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}
