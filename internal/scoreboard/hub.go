package scoreboard

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/sirupsen/logrus"
)

// SubscriberBuffer is the number of updates queued per subscriber before new
// updates are dropped for it.
const SubscriberBuffer = 16

// Subscriber receives the updates of one game on Out until it unsubscribes.
type Subscriber struct {
	GameID uuid.UUID
	Out    chan models.Scoreboard
}

// Hub fans scoreboard updates out to the websocket connections of this
// instance.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[*Subscriber]struct{}
	n    int

	log *logrus.Logger

	// OnSubscribersChange, when set, is called with the new total after every
	// subscribe and unsubscribe.
	OnSubscribersChange func(total int)
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		subs: make(map[uuid.UUID]map[*Subscriber]struct{}),
		log:  log,
	}
}

// Subscribe registers a new subscriber for gameID.
func (h *Hub) Subscribe(gameID uuid.UUID) *Subscriber {
	sub := &Subscriber{GameID: gameID, Out: make(chan models.Scoreboard, SubscriberBuffer)}

	h.mu.Lock()
	set, ok := h.subs[gameID]
	if !ok {
		set = make(map[*Subscriber]struct{})
		h.subs[gameID] = set
	}
	set[sub] = struct{}{}
	h.n++
	total := h.n
	h.mu.Unlock()

	h.notify(total)
	return sub
}

// Unsubscribe removes sub and closes its channel. Calling it twice is a no-op.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	set, ok := h.subs[sub.GameID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[sub]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.GameID)
	}
	close(sub.Out)
	h.n--
	total := h.n
	h.mu.Unlock()

	h.notify(total)
}

// Broadcast delivers board to every subscriber of its game. Subscribers whose
// buffer is full miss the update.
func (h *Hub) Broadcast(board models.Scoreboard) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[board.GameID] {
		select {
		case sub.Out <- board:
		default:
			if h.log != nil {
				h.log.WithField("game_id", board.GameID).Warn("scoreboard subscriber is full, dropped update")
			}
		}
	}
}

// Count returns the number of subscribers across all games.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.n
}

func (h *Hub) notify(total int) {
	if h.OnSubscribersChange != nil {
		h.OnSubscribersChange(total)
	}
}
