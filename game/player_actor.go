package game

import (
	"context"
	"encoding/json"
)

// ReadPump decodes inbound packets and forwards them to the player's
// room. It exits on the first read error; the deferred removal doubles
// as the disconnect notification for the room.
func (p *wsPlayer) ReadPump() {
	defer func() {
		if room := p.currentRoom(); room != nil {
			room.RemoveMe(context.Background(), p)
		}
		p.CancelAndRelease()
	}()

	for {
		data, err := p.socket.Read()
		if err != nil {
			return
		}
		if !p.rateLimiter.Allow() {
			continue
		}

		var packet ClientPacket
		if err := json.Unmarshal(data, &packet); err != nil {
			continue
		}

		room := p.currentRoom()
		if room == nil {
			continue
		}
		room.Send(context.Background(), ClientPacketEnvelope{packet: packet, from: p})
	}
}

func (p *wsPlayer) WritePump() {
	for {
		select {
		case data := <-p.outbox:
			if err := p.socket.Write(data); err != nil {
				return
			}
		case <-p.pingChan:
			if err := p.socket.Ping(); err != nil {
				return
			}
		case <-p.done:
			return
		}
	}
}
