package shop

import "errors"

var (
	// ErrNotFound indicates the item key is absent from the catalogue.
	ErrNotFound = errors.New("item not found")
	// ErrAlreadyExists indicates an add collided with an existing key.
	ErrAlreadyExists = errors.New("item already exists")
	// ErrInvalidPrice indicates a negative buy or sell price.
	ErrInvalidPrice = errors.New("price must not be negative")
	// ErrEmptyCatalogue indicates an operation that needs at least one item.
	ErrEmptyCatalogue = errors.New("catalogue is empty")
	// ErrEmptyQuery indicates a search with a blank query.
	ErrEmptyQuery = errors.New("search query is empty")
)
