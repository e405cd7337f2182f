package domain

import "time"

// Comment is a single entry in a ticket's conversation thread. CreatedAt is
// nullable because externally sourced comments do not always carry a
// timestamp; such comments sort as oldest.
type Comment struct {
	ID         string
	TicketID   string
	AuthorName string
	Body       string
	CreatedAt  *time.Time
}
