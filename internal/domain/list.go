package domain

// ListID identifies a list. Values are assigned by the storage backend.
type ListID string

func (id ListID) String() string { return string(id) }

// List is a named collection of items owned by exactly one user.
type List struct {
	ID    ListID
	Name  string
	Owner UserID
	// ItemCount is computed on read and never stored.
	ItemCount int
}

// ListInput carries the caller supplied fields of a list.
type ListInput struct {
	Name string `json:"name" validate:"required"`
}
