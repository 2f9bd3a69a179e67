package draw

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/models"
)

// PoolInput is everything the admin screen contributes to a draw pool.
type PoolInput struct {
	// Confirmed are the players who confirmed attendance, in confirmation order.
	Confirmed []models.Player
	// Extra are players added by hand even though they did not confirm.
	Extra []models.Player
	// Visitors is the number of zero-rated placeholders to add.
	Visitors int
	// Absent holds IDs of players marked as not present.
	Absent map[uuid.UUID]bool
}

// BuildPool returns the players eligible for a draw: confirmed players, then
// extra players, then visitors, skipping absentees and repeated IDs.
func BuildPool(in PoolInput) []models.Player {
	pool := make([]models.Player, 0, len(in.Confirmed)+len(in.Extra)+max(in.Visitors, 0))
	seen := make(map[uuid.UUID]bool, cap(pool))

	add := func(p models.Player) {
		if in.Absent[p.ID] || seen[p.ID] {
			return
		}
		seen[p.ID] = true
		pool = append(pool, p)
	}
	for _, p := range in.Confirmed {
		add(p)
	}
	for _, p := range in.Extra {
		add(p)
	}
	for i := 1; i <= in.Visitors; i++ {
		add(Visitor(i))
	}
	return pool
}

// Visitor builds the n-th placeholder player.
func Visitor(n int) models.Player {
	return models.Player{
		ID:        uuid.New(),
		Name:      fmt.Sprintf("Visitor %d", n),
		IsVisitor: true,
		IsActive:  true,
	}
}
