package game

import (
	"context"
	"time"
)

type roomState int

const (
	stateActive roomState = iota
	stateDraining
)

type dataSendTask struct {
	to   Player
	data []byte
}

type pingSendTask struct {
	to Player
}

type fetchedQuestion struct {
	question Question
	at       time.Time
}

type room struct {
	// Identity / metadata
	id   string
	mode GameMode

	// Configuration (static after construction)
	maxPlayers    int
	roundInterval time.Duration
	graceDuration time.Duration

	// Runtime state, touched only by the GameLoop goroutine
	state            roomState
	players          []Player
	scores           map[Player]float64
	submitted        map[string]struct{}
	currentQuestion  *Question
	round            int
	roundStartedAt   time.Time
	nextRoundAt      time.Time
	deleteAt         time.Time
	fetchPending     bool
	removalRequested bool

	// Collaborators
	questions QuestionSource
	scorer    Scorer
	lobby     Lobby

	// Communication
	inbox           chan ClientPacketEnvelope
	ticks           chan time.Time
	pingPlayers     chan struct{}
	joinRequests    chan roomJoinRequest
	removalRequests chan Player
	questionReady   chan fetchedQuestion
	done            chan struct{}

	// Deferred sends, flushed after each handled event
	dataSendTasks []dataSendTask
	pingSendTasks []pingSendTask
}

func NewRoom(creator Player, mode GameMode, configs RoomConfigs, questions QuestionSource) *room {
	scorer, _ := ScorerFor(mode)
	r := &room{
		mode:            mode,
		maxPlayers:      configs.MaxPlayers,
		roundInterval:   configs.RoundInterval,
		graceDuration:   configs.EmptyGrace,
		state:           stateActive,
		players:         make([]Player, 0, configs.MaxPlayers),
		scores:          make(map[Player]float64),
		submitted:       make(map[string]struct{}),
		nextRoundAt:     time.Now(),
		questions:       questions,
		scorer:          scorer,
		inbox:           make(chan ClientPacketEnvelope, 1024),
		ticks:           make(chan time.Time, 24),
		pingPlayers:     make(chan struct{}, 4),
		joinRequests:    make(chan roomJoinRequest),
		removalRequests: make(chan Player, 64),
		questionReady:   make(chan fetchedQuestion, 1),
		done:            make(chan struct{}),
	}
	r.players = append(r.players, creator)
	r.scores[creator] = 0
	creator.SetRoom(r)
	return r
}

func (r *room) Send(ctx context.Context, e ClientPacketEnvelope) {
	select {
	case r.inbox <- e:
	case <-ctx.Done():
	}
}

func (r *room) RemoveMe(ctx context.Context, p Player) {
	select {
	case r.removalRequests <- p:
	case <-ctx.Done():
	}
}

func (r *room) RequestJoin(jreq roomJoinRequest) {
	select {
	case r.joinRequests <- jreq:
	case <-r.done:
		jreq.errChan <- ErrRoomNotFound
	}
}

func (r *room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pingPlayers <- struct{}{}:
	default:
	}
}

func (r *room) SetParentLobby(l Lobby) { r.lobby = l }

func (r *room) SetId(id string) { r.id = id }

func (r *room) Description() roomDescription {
	return roomDescription{
		id:           r.id,
		mode:         r.mode,
		playersCount: len(r.players),
		maxPlayers:   r.maxPlayers,
		draining:     r.state == stateDraining,
	}
}

// CloseAndRelease is called by the lobby once the room has been removed
// from the registry. Closing ticks ends the GameLoop.
func (r *room) CloseAndRelease() {
	close(r.done)
	close(r.ticks)
	close(r.pingPlayers)
	for _, p := range r.players {
		p.CancelAndRelease()
	}
}
