package game

import "encoding/json"

// Outbound events are JSON envelopes with a named event and a payload,
// mirroring the client protocol. Constructors below are the only place
// payload shapes live; the correct target is never part of roundStarted.

type serverEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func marshalEvent(name string, data any) []byte {
	b, _ := json.Marshal(serverEvent{Event: name, Data: data})
	return b
}

type LeaderboardEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type roomJoinedPayload struct {
	RoomID   string             `json:"roomId"`
	GameMode GameMode           `json:"gameMode"`
	Round    int                `json:"round"`
	Question string             `json:"question,omitempty"`
	Options  []string           `json:"options,omitempty"`
	Players  []LeaderboardEntry `json:"players"`
}

type roundStartedPayload struct {
	Round    int      `json:"round"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
}

type guessResultPayload struct {
	Score        float64  `json:"score"`
	CorrectValue *float64 `json:"correctValue,omitempty"`
	CorrectPoint *Point   `json:"correctPoint,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

func MakeEventRoomJoined(roomId string, mode GameMode, round int, question string, options []string, players []LeaderboardEntry) []byte {
	return marshalEvent("roomJoined", roomJoinedPayload{
		RoomID:   roomId,
		GameMode: mode,
		Round:    round,
		Question: question,
		Options:  options,
		Players:  players,
	})
}

func MakeEventJoinRejected(reason string) []byte {
	return marshalEvent("joinRejected", map[string]string{"reason": reason})
}

func MakeEventRoundStarted(round int, question string, options []string) []byte {
	return marshalEvent("roundStarted", roundStartedPayload{Round: round, Question: question, Options: options})
}

// MakeEventGuessResult reveals the target; it is only ever unicast to the
// player whose guess was just scored.
func MakeEventGuessResult(score float64, mode GameMode, target Target) []byte {
	payload := guessResultPayload{Score: score}
	switch mode {
	case ModeNumberLine:
		v := target.Value
		payload.CorrectValue = &v
	case ModeCartesianPlane:
		p := target.Point
		payload.CorrectPoint = &p
	case ModeMultipleChoice:
		i := target.CorrectIndex
		payload.CorrectIndex = &i
	}
	return marshalEvent("guessResult", payload)
}

func MakeEventLeaderboardUpdated(entries []LeaderboardEntry) []byte {
	return marshalEvent("leaderboardUpdated", entries)
}

func MakeEventPlayerJoined(username string) []byte {
	return marshalEvent("playerJoined", map[string]string{"name": username})
}

func MakeEventPlayerLeft(username string) []byte {
	return marshalEvent("playerLeft", map[string]string{"name": username})
}

func MakeEventRoomListUpdated(listing []RoomSummary) []byte {
	return marshalEvent("roomListUpdated", listing)
}
