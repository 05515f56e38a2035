// Package auth decides which Telegram users may drive the posting dialogue.
package auth

// Gate is a read-only allow-list of Telegram user IDs, loaded once at
// startup. An empty allow-list rejects everyone.
type Gate struct {
	allowed map[int64]struct{}
}

// NewGate builds a gate from the configured user IDs.
func NewGate(userIDs []int64) *Gate {
	allowed := make(map[int64]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}
	return &Gate{allowed: allowed}
}

// IsAuthorized reports whether userID is on the allow-list.
func (g *Gate) IsAuthorized(userID int64) bool {
	_, ok := g.allowed[userID]
	return ok
}
