package models

// Review is a user's review of a game. UserID is the author's email.
// Likes holds the user IDs that liked the review, each at most once.
// Date is the localized dd/mm/yyyy form; Timestamp is epoch milliseconds.
// Records written before timestamps existed may carry Date only.
type Review struct {
	ID         int      `json:"id"`
	GameID     string   `json:"gameId"`
	UserID     string   `json:"userId"`
	Username   string   `json:"username"`
	UserAvatar string   `json:"userAvatar"`
	Rating     int      `json:"rating"`
	ReviewText string   `json:"reviewText"`
	Date       string   `json:"date"`
	Timestamp  int64    `json:"timestamp,omitempty"`
	Likes      []string `json:"likes"`
}

// HasLike reports whether userID is in the review's likes list.
func (r *Review) HasLike(userID string) bool {
	for _, id := range r.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// LikeCount returns the number of likes on the review.
func (r *Review) LikeCount() int { return len(r.Likes) }
