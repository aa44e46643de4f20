package domain

import "time"

// ItemID identifies an item. Values are assigned by the storage backend.
type ItemID string

func (id ItemID) String() string { return string(id) }

// Item is a single entry in a list. Ownership is inherited from the list.
type Item struct {
	ID        ItemID
	ListID    ListID
	Title     string
	Detail    string
	DateAdded time.Time
	Completed bool
}

// ItemInput carries the caller supplied fields of an item.
type ItemInput struct {
	Title  string `json:"title" validate:"required"`
	Detail string `json:"detail"`
}

// DateLayout is the ISO-8601 layout used to persist DateAdded. It is fixed
// width so that stored values sort lexically in chronological order.
const DateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatDate renders t in the persisted DateAdded layout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a persisted DateAdded value.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
