package domain

import "time"

// TicketStatus is a lookup row for ticket status display.
type TicketStatus struct {
	ID        string
	Name      string
	Color     string
	CreatedAt time.Time
}

// TicketPriority is a lookup row for ticket priority display. Value defines
// the numeric ordering used when translating external priority scales.
type TicketPriority struct {
	ID        string
	Name      string
	Color     string
	Value     int
	CreatedAt time.Time
}
