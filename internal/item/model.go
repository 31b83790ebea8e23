package item

import "time"

// Type distinguishes offered things from requests for one
type Type string

const (
	TypeThing   Type = "thing"
	TypeRequest Type = "request"
)

// Valid reports whether t is a known item type
func (t Type) Valid() bool {
	return t == TypeThing || t == TypeRequest
}

// Item is a listing owned by exactly one user
type Item struct {
	ID          int64
	Name        string
	Description *string
	UserID      string
	Type        Type
	IsPublic    bool
	Latitude    *float64
	Longitude   *float64
	CreatedAt   time.Time
}

// Order selects the sort order of item listings
type Order string

const (
	OrderNewest Order = "newest"
	OrderName   Order = "name"
)

// Filter narrows an item listing
type Filter struct {
	Type    Type
	UserIDs []string
	IDs     []int64
	Order   Order
}
