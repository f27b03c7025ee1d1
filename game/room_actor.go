package game

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
)

const questionFetchTimeout = 5 * time.Second

// GameLoop owns all room state. Every mutation, whether tick-driven or
// client-driven, happens on this goroutine, so a round advance and a
// guess arriving "at the same instant" are strictly ordered.
func (r *room) GameLoop() {
	// The creator learns the room id (assigned by the lobby just before
	// the loop starts) from the initial snapshot.
	for _, p := range r.players {
		r.send(p, r.snapshotEvent())
	}
	r.flushSendTasks()

	for {
		select {
		case now, ok := <-r.ticks:
			if !ok {
				return
			}
			r.handleTick(now)
		case _, ok := <-r.pingPlayers:
			if !ok {
				return
			}
			r.handlePingPlayers()
		case e := <-r.inbox:
			r.handleClientEnvelope(e)
		case jreq := <-r.joinRequests:
			r.handleJoinRequest(jreq)
		case p := <-r.removalRequests:
			r.handleRemovePlayer(p)
		case fq := <-r.questionReady:
			r.handleQuestionReady(fq)
		}
		r.flushSendTasks()
	}
}

// handleTick drives the two deadlines a room owns: the round clock and,
// while draining, the deletion grace timer.
func (r *room) handleTick(now time.Time) {
	if r.state == stateDraining {
		if !r.deleteAt.IsZero() && !now.Before(r.deleteAt) {
			if !r.removalRequested {
				slog.Info("empty room grace period expired", "room", r.id)
			}
			// Once removal is requested the room is dead to joiners,
			// even though the lobby has not processed the removal yet.
			// The request is resent on every tick because the lobby may
			// drop it under backlog; removal itself is idempotent.
			r.removalRequested = true
			r.lobby.RemoveRoom(r.id)
		}
		return
	}
	if r.fetchPending || r.nextRoundAt.IsZero() || now.Before(r.nextRoundAt) {
		return
	}
	r.beginQuestionFetch()
}

// beginQuestionFetch asks the question source for the next question off
// the loop goroutine. A slow or failing source delays only this room's
// next round; guesses against the still-current question keep flowing
// through the loop meanwhile.
func (r *room) beginQuestionFetch() {
	r.fetchPending = true
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), questionFetchTimeout)
		defer cancel()
		q, err := r.questions.Next(ctx, r.mode)
		if err != nil {
			slog.Warn("question source failed, serving placeholder", "room", r.id, "mode", r.mode, "error", err)
			q = PlaceholderQuestion(r.mode)
		}
		select {
		case r.questionReady <- fetchedQuestion{question: q, at: time.Now()}:
		case <-r.done:
		}
	}()
}

func (r *room) handleQuestionReady(fq fetchedQuestion) {
	r.fetchPending = false
	if r.state == stateDraining {
		// Room emptied while the fetch was outstanding; the clock is
		// stopped and the question is discarded.
		return
	}
	q := fq.question
	r.currentQuestion = &q
	r.round++
	r.submitted = make(map[string]struct{})
	r.roundStartedAt = fq.at
	r.nextRoundAt = fq.at.Add(r.roundInterval)
	r.broadcast(MakeEventRoundStarted(r.round, q.DisplayText, q.Target.Options))
}

func (r *room) handleClientEnvelope(e ClientPacketEnvelope) {
	switch e.packet.Type {
	case "guess":
		r.handleGuessEnvelope(e.packet, e.from)
	default:
		slog.Debug("unknown client packet dropped", "room", r.id, "type", e.packet.Type)
	}
}

// handleGuessEnvelope enforces the at-most-once submission protocol.
// Non-members, duplicates, pre-round and malformed guesses are all
// silent no-ops: a late client cannot distinguish them anyway.
func (r *room) handleGuessEnvelope(packet ClientPacket, from Player) {
	if !r.isMember(from) {
		return
	}
	if r.currentQuestion == nil {
		return
	}
	if _, dup := r.submitted[from.ID()]; dup {
		return
	}
	guess, err := decodeGuess(r.mode, packet)
	if err != nil {
		slog.Debug("guess dropped", "room", r.id, "player", from.Username(), "error", err)
		return
	}
	r.submitted[from.ID()] = struct{}{}
	score := r.scorer.Score(r.currentQuestion.Target, guess)
	r.scores[from] += score
	slog.Debug("guess scored",
		"room", r.id,
		"player", from.Username(),
		"round", r.round,
		"score", score,
		"elapsed_ms", time.Since(r.roundStartedAt).Milliseconds(),
	)
	r.send(from, MakeEventGuessResult(score, r.mode, r.currentQuestion.Target))
	r.broadcast(MakeEventLeaderboardUpdated(r.leaderboard()))
}

func (r *room) handleJoinRequest(jreq roomJoinRequest) {
	if r.removalRequested {
		// The lobby may still route joins here between the grace expiry
		// and the queued removal; accepting one would hand the player a
		// room that is about to be destroyed.
		jreq.errChan <- ErrRoomNotFound
		return
	}
	if len(r.players) >= r.maxPlayers {
		jreq.errChan <- ErrRoomFull
		return
	}
	p := jreq.player
	if r.state == stateDraining {
		r.state = stateActive
		r.deleteAt = time.Time{}
		if r.nextRoundAt.IsZero() {
			r.nextRoundAt = time.Now()
		}
		slog.Info("deletion cancelled by join", "room", r.id, "player", p.Username())
	}
	for _, other := range r.players {
		r.send(other, MakeEventPlayerJoined(p.Username()))
	}
	r.players = append(r.players, p)
	r.scores[p] = 0
	p.SetRoom(r)
	r.send(p, r.snapshotEvent())
	r.broadcast(MakeEventLeaderboardUpdated(r.leaderboard()))
	r.lobby.RequestUpdateDescription(r.Description())
	jreq.errChan <- nil
}

func (r *room) handleRemovePlayer(p Player) {
	idx := -1
	for i, other := range r.players {
		if other == p {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Disconnects for connections no longer in the roster are dropped.
		return
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	delete(r.scores, p)
	delete(r.submitted, p.ID())
	p.CancelAndRelease()
	for _, other := range r.players {
		r.send(other, MakeEventPlayerLeft(p.Username()))
	}
	if len(r.players) == 0 {
		r.state = stateDraining
		r.nextRoundAt = time.Time{}
		r.deleteAt = time.Now().Add(r.graceDuration)
		slog.Info("room empty, draining", "room", r.id, "grace", r.graceDuration)
	} else {
		r.broadcast(MakeEventLeaderboardUpdated(r.leaderboard()))
	}
	r.lobby.RequestUpdateDescription(r.Description())
}

func (r *room) handlePingPlayers() {
	for _, p := range r.players {
		r.pingSendTasks = append(r.pingSendTasks, pingSendTask{to: p})
	}
}

func (r *room) isMember(p Player) bool {
	for _, other := range r.players {
		if other == p {
			return true
		}
	}
	return false
}

// leaderboard sorts by score descending; the stable sort keeps join
// order for ties.
func (r *room) leaderboard() []LeaderboardEntry {
	entries := lo.Map(r.players, func(p Player, _ int) LeaderboardEntry {
		return LeaderboardEntry{Name: p.Username(), Score: r.scores[p]}
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

func (r *room) snapshotEvent() []byte {
	question := ""
	var options []string
	if r.currentQuestion != nil {
		question = r.currentQuestion.DisplayText
		options = r.currentQuestion.Target.Options
	}
	return MakeEventRoomJoined(r.id, r.mode, r.round, question, options, r.leaderboard())
}

func (r *room) send(to Player, data []byte) {
	r.dataSendTasks = append(r.dataSendTasks, dataSendTask{to: to, data: data})
}

func (r *room) broadcast(data []byte) {
	for _, p := range r.players {
		r.send(p, data)
	}
}

func (r *room) flushSendTasks() {
	for _, task := range r.dataSendTasks {
		if err := task.to.Send(task.data); err != nil {
			slog.Debug("send failed", "room", r.id, "player", task.to.Username(), "error", err)
		}
	}
	r.dataSendTasks = r.dataSendTasks[:0]
	for _, task := range r.pingSendTasks {
		if err := task.to.Ping(); err != nil {
			slog.Debug("ping failed", "room", r.id, "player", task.to.Username(), "error", err)
		}
	}
	r.pingSendTasks = r.pingSendTasks[:0]
}
