package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type lobbyFixture struct {
	lobby     *lobby
	idgen     *MockUniqueIdGenerator
	publisher *MockRoomListPublisher
	tick      chan time.Time
	ping      chan time.Time
}

func startTestLobby(t *testing.T) *lobbyFixture {
	t.Helper()

	tick := make(chan time.Time)
	ping := make(chan time.Time)
	tickerCreator := &MockPeriodicTickerChannelCreator{}
	tickerCreator.On("Create", time.Second).Return(tick).Once()
	tickerCreator.On("Create", 30*time.Second).Return(ping).Once()

	idgen := &MockUniqueIdGenerator{}
	publisher := &MockRoomListPublisher{}
	publisher.On("Publish", mock.Anything).Return()

	l := NewLobby(idgen, tickerCreator, publisher)
	started := make(chan struct{})
	go l.LobbyActor(started)
	<-started

	return &lobbyFixture{lobby: l, idgen: idgen, publisher: publisher, tick: tick, ping: ping}
}

func newListedMockRoom(id string) *MockRoom {
	r := &MockRoom{}
	r.On("SetParentLobby", mock.Anything).Return().Once()
	r.On("SetId", id).Return().Once()
	r.On("GameLoop").Return()
	r.On("Description").Return(roomDescription{
		id: id, mode: ModeNumberLine, playersCount: 1, maxPlayers: 8, draining: false,
	})
	return r
}

func listedIds(l *lobby) []string {
	ids := []string{}
	for _, summary := range l.GetPublicGames(context.Background()) {
		ids = append(ids, summary.RoomID)
	}
	return ids
}

func TestLobby_AddRoomAppearsInListing(t *testing.T) {
	t.Parallel()
	f := startTestLobby(t)

	room := newListedMockRoom("room1")
	f.idgen.On("Generate").Return("room1").Once()

	f.lobby.RequestAddAndRunRoom(context.Background(), room)

	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"room1"}, listedIds(f.lobby))
	}, 2*time.Second, 5*time.Millisecond)
	room.AssertCalled(t, "SetId", "room1")
	require.Eventually(t, func() bool {
		return room.AssertCalled(&testing.T{}, "GameLoop")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLobby_DrainingRoomLeavesListing(t *testing.T) {
	t.Parallel()
	f := startTestLobby(t)

	room := newListedMockRoom("room1")
	f.idgen.On("Generate").Return("room1").Once()
	f.lobby.RequestAddAndRunRoom(context.Background(), room)
	require.Eventually(t, func() bool {
		return len(listedIds(f.lobby)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	f.lobby.RequestUpdateDescription(roomDescription{
		id: "room1", mode: ModeNumberLine, playersCount: 0, maxPlayers: 8, draining: true,
	})

	require.Eventually(t, func() bool {
		return len(listedIds(f.lobby)) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLobby_TicksFanOutToRooms(t *testing.T) {
	t.Parallel()
	f := startTestLobby(t)

	room := newListedMockRoom("room1")
	room.On("Tick", mock.Anything).Return()
	room.On("PingPlayers").Return()
	f.idgen.On("Generate").Return("room1").Once()
	f.lobby.RequestAddAndRunRoom(context.Background(), room)
	require.Eventually(t, func() bool {
		return len(listedIds(f.lobby)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	now := time.Now()
	f.tick <- now
	f.ping <- now

	require.Eventually(t, func() bool {
		f.lobby.GetPublicGames(context.Background())
		silent := &testing.T{}
		return room.AssertCalled(silent, "Tick", now) && room.AssertCalled(silent, "PingPlayers")
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLobby_ForwardJoinRequest(t *testing.T) {
	t.Parallel()
	f := startTestLobby(t)

	room := newListedMockRoom("room1")
	f.idgen.On("Generate").Return("room1").Once()
	f.lobby.RequestAddAndRunRoom(context.Background(), room)
	require.Eventually(t, func() bool {
		return len(listedIds(f.lobby)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	player := &MockPlayer{}
	jreq := NewRoomJoinRequest("room1", player)
	room.On("RequestJoin", jreq).Return().Once()

	f.lobby.ForwardPlayerJoinRequestToRoom(context.Background(), jreq)
	require.Eventually(t, func() bool {
		f.lobby.GetPublicGames(context.Background())
		return room.AssertCalled(&testing.T{}, "RequestJoin", jreq)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestLobby_ForwardJoinRequestUnknownRoom(t *testing.T) {
	t.Parallel()
	f := startTestLobby(t)

	player := &MockPlayer{}
	jreq := NewRoomJoinRequest("missing", player)
	f.lobby.ForwardPlayerJoinRequestToRoom(context.Background(), jreq)

	select {
	case err := <-jreq.errChan:
		assert.Equal(t, ErrRoomNotFound, err)
	case <-time.After(2 * time.Second):
		t.Fatal("no join reply")
	}
}

func TestLobby_RemoveRoomIsIdempotent(t *testing.T) {
	t.Parallel()
	f := startTestLobby(t)

	room := newListedMockRoom("room1")
	room.On("CloseAndRelease").Return().Once()
	f.idgen.On("Generate").Return("room1").Once()
	f.idgen.On("Dispose", "room1").Return().Once()

	f.lobby.RequestAddAndRunRoom(context.Background(), room)
	require.Eventually(t, func() bool {
		return len(listedIds(f.lobby)) == 1
	}, 2*time.Second, 5*time.Millisecond)

	f.lobby.RemoveRoom("room1")
	f.lobby.RemoveRoom("room1")

	require.Eventually(t, func() bool {
		return len(listedIds(f.lobby)) == 0
	}, 2*time.Second, 5*time.Millisecond)
	f.lobby.GetPublicGames(context.Background())
	room.AssertNumberOfCalls(t, "CloseAndRelease", 1)
	f.idgen.AssertNumberOfCalls(t, "Dispose", 1)
}

func TestIdgen_GeneratesUniqueDisposableIds(t *testing.T) {
	t.Parallel()
	g := NewIdGen()

	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		id := g.Generate()
		assert.Len(t, id, 8)
		_, taken := seen[id]
		assert.False(t, taken)
		seen[id] = struct{}{}
	}
	for id := range seen {
		g.Dispose(id)
	}
}
