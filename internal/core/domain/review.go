package domain

import "time"

// Review carries a verified flag that only the review service sets, after
// confirming a paid order by the same user containing the product.
type Review struct {
	ID         string
	ProductID  string
	UserID     string
	Rating     int
	Comment    string
	IsVerified bool
	CreatedAt  time.Time
}
