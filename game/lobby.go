package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

// lobby is the room registry. A single actor goroutine owns the room map
// and the public listing, so registry lookups, inserts and deletes never
// race; rooms themselves run on their own goroutines and are only ever
// reached through their channels.
type lobby struct {
	rooms                map[string]Room
	pubRoomsDescriptions map[string]roomDescription

	addAndRunRoomChan chan Room
	removeRoomChan    chan string
	pubGamesReq       chan chan []RoomSummary
	roomDescUpdate    chan roomDescription
	roomJoinReqs      chan roomJoinRequest

	idGenerator   UniqueIdGenerator
	tickerCreator PeriodicTickerChannelCreator
	publisher     RoomListPublisher
}

func NewLobby(idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator, publisher RoomListPublisher) *lobby {
	return &lobby{
		rooms:                map[string]Room{},
		pubRoomsDescriptions: map[string]roomDescription{},
		addAndRunRoomChan:    make(chan Room, 32),
		removeRoomChan:       make(chan string, 32),
		pubGamesReq:          make(chan chan []RoomSummary, 256),
		roomDescUpdate:       make(chan roomDescription, 256),
		roomJoinReqs:         make(chan roomJoinRequest, 256),
		idGenerator:          idgen,
		tickerCreator:        tickerCreator,
		publisher:            publisher,
	}
}

func (l *lobby) RequestAddAndRunRoom(ctx context.Context, r Room) {
	select {
	case l.addAndRunRoomChan <- r:
	case <-ctx.Done():
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq roomJoinRequest) {
	select {
	case l.roomJoinReqs <- jreq:
	case <-ctx.Done():
	}
}

func (l *lobby) RequestUpdateDescription(desc roomDescription) {
	select {
	case l.roomDescUpdate <- desc:
	default:
	}
}

// RemoveRoom never blocks the calling room goroutine. A request dropped
// on a full channel is resent by the room's next tick.
func (l *lobby) RemoveRoom(roomId string) {
	select {
	case l.removeRoomChan <- roomId:
	default:
	}
}

func (l *lobby) GetPublicGames(ctx context.Context) []RoomSummary {
	respChan := make(chan []RoomSummary, 1)
	select {
	case l.pubGamesReq <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(time.Second)
	pingTicker := l.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case room := <-l.addAndRunRoomChan:
			l.handleAddAndRunRoom(room)

		case roomId := <-l.removeRoomChan:
			l.handleRemoveRoom(roomId)

		case desc := <-l.roomDescUpdate:
			l.handleDescriptionUpdate(desc)

		case pubGamesReq := <-l.pubGamesReq:
			l.handleGetPublicRoomsDescription(pubGamesReq)

		case joinReq := <-l.roomJoinReqs:
			l.handleJoinReq(joinReq)
		}
	}
}

func (l *lobby) handleAddAndRunRoom(r Room) {
	id := l.idGenerator.Generate()
	r.SetParentLobby(l)

	l.rooms[id] = r
	r.SetId(id)
	rDesc := r.Description()
	go r.GameLoop()
	slog.Info("room created", "room", id, "mode", rDesc.mode)
	if rDesc.draining {
		return
	}
	l.pubRoomsDescriptions[id] = rDesc
	l.publishListing()
}

// handleRemoveRoom is idempotent; the deletion-timer callback is the
// only caller and a second fire for the same id is a no-op.
func (l *lobby) handleRemoveRoom(toRemoveId string) {
	room, ok := l.rooms[toRemoveId]
	if !ok {
		return
	}
	delete(l.rooms, toRemoveId)
	delete(l.pubRoomsDescriptions, toRemoveId)
	room.CloseAndRelease()
	l.idGenerator.Dispose(toRemoveId)
	slog.Info("room removed", "room", toRemoveId)
	l.publishListing()
}

// Draining rooms are dropped from the public listing so an empty room
// mid-grace never shows up as joinable, even momentarily.
func (l *lobby) handleDescriptionUpdate(desc roomDescription) {
	if desc.draining {
		delete(l.pubRoomsDescriptions, desc.id)
	} else {
		l.pubRoomsDescriptions[desc.id] = desc
	}
	l.publishListing()
}

func (l *lobby) handleGetPublicRoomsDescription(req chan []RoomSummary) {
	req <- l.listing()
}

func (l *lobby) handleJoinReq(joinReq roomJoinRequest) {
	room, ok := l.rooms[joinReq.roomId]
	if !ok {
		joinReq.errChan <- ErrRoomNotFound
		return
	}
	room.RequestJoin(joinReq)
}

func (l *lobby) listing() []RoomSummary {
	return lo.Map(lo.Values(l.pubRoomsDescriptions), func(desc roomDescription, _ int) RoomSummary {
		return RoomSummary{
			RoomID:      desc.id,
			GameMode:    desc.mode,
			PlayerCount: desc.playersCount,
			MaxPlayers:  desc.maxPlayers,
		}
	})
}

func (l *lobby) publishListing() {
	if l.publisher == nil {
		return
	}
	l.publisher.Publish(l.listing())
}
