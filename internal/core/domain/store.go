package domain

import "time"

// Store is a vendor-owned storefront. All mutations are scoped to the owner.
type Store struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	LogoPath    string
	CreatedAt   time.Time
}
