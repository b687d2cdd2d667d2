package ticketsearch

import (
	"context"
	"time"
)

// Query carries the completed journey slots handed to the external ticket
// search.
type Query struct {
	Departure   string     `json:"departure"`
	Destination string     `json:"destination"`
	Date        time.Time  `json:"date"`
	Time        string     `json:"time,omitempty"`
	TripType    string     `json:"trip_type"`
	ReturnDate  *time.Time `json:"return_date,omitempty"`
	ReturnTime  string     `json:"return_time,omitempty"`
}

// Ticket is the cheapest option found: a fare (may be empty when only a
// booking link could be produced) and the booking URL.
type Ticket struct {
	Price string `json:"price"`
	URL   string `json:"url"`
}

// ITicketSearch is the external ticket-search collaborator contract.
type ITicketSearch interface {
	Search(ctx context.Context, q Query) (*Ticket, error)
}
