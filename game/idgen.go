package game

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const roomIdLength = 8

// Idgen mints short room codes, collision-checked against the ids still
// in use. Exhausting the code space only makes Generate loop onto fresh
// uuids, so callers can treat it as infallible.
type Idgen struct {
	ids    map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() *Idgen {
	return &Idgen{ids: make(map[string]struct{})}
}

func (g *Idgen) Generate() string {
	g.locker.Lock()
	defer g.locker.Unlock()
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:roomIdLength]
		if _, taken := g.ids[id]; taken {
			continue
		}
		g.ids[id] = struct{}{}
		return id
	}
}

func (g *Idgen) Dispose(id string) {
	g.locker.Lock()
	defer g.locker.Unlock()
	delete(g.ids, id)
}
