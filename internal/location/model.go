package location

import "time"

const (
	KindCheckout = "checkout"
	KindCheckin  = "checkin"
)

// Location is a physical point where containers are issued (checkout) or
// returned (checkin).
type Location struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Kind      string    `db:"kind" json:"kind"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LocationStock is a location with its current estimated stock, derived
// from the most recent stock count (zero when none exists).
type LocationStock struct {
	Location
	CurrentStock int `db:"current_stock" json:"current_stock"`
}

// StockCount is one append-only count submission for a location. Each new
// submission replaces the effective current count.
type StockCount struct {
	ID         int       `db:"id" json:"id"`
	LocationID int       `db:"location_id" json:"location_id"`
	Count      int       `db:"count" json:"count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Series is one chart group of the stock report payload.
type Series struct {
	Names []string `json:"names"`
	Count []int    `json:"count"`
}

// ActivityBucket is one day of the activity report window.
type ActivityBucket struct {
	Date      string `db:"bucket" json:"date"`
	Checkouts int    `db:"checkouts" json:"checkouts"`
	Checkins  int    `db:"checkins" json:"checkins"`
}
