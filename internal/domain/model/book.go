package model

import (
	"time"
)

type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Author          string    `json:"author"`
	Description     string    `json:"description"`
	Genre           string    `json:"genre"`
	PublicationYear *int      `json:"publication_year,omitempty"`
	Price           *float64  `json:"price,omitempty"`
	Available       bool      `json:"available"`
	OwnerID         string    `json:"owner_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookUpdate lists mutable columns; nil means unchanged. The owner is not
// part of it.
type BookUpdate struct {
	Title           *string
	Slug            *string
	Author          *string
	Description     *string
	Genre           *string
	PublicationYear *int
	Price           *float64
	Available       *bool
}

func (u BookUpdate) Empty() bool {
	return u.Title == nil && u.Slug == nil && u.Author == nil && u.Description == nil &&
		u.Genre == nil && u.PublicationYear == nil && u.Price == nil && u.Available == nil
}

// BookFilter narrows a listing. Search matches title, author or description
// case-insensitively.
type BookFilter struct {
	Search    string
	Genre     string
	Available *bool
	OwnerID   string
}

// BookSortField names a sortable column.
type BookSortField string

const (
	SortByTitle           BookSortField = "title"
	SortByAuthor          BookSortField = "author"
	SortByPrice           BookSortField = "price"
	SortByPublicationYear BookSortField = "publication_year"
	SortByCreatedAt       BookSortField = "created_at"
)

type BookSort struct {
	Field      BookSortField
	Descending bool
}

// DefaultBookSort lists newest first.
var DefaultBookSort = BookSort{Field: SortByCreatedAt, Descending: true}

// ParseBookSort accepts "field" or "-field". An empty string yields the default.
func ParseBookSort(s string) (BookSort, bool) {
	if s == "" {
		return DefaultBookSort, true
	}
	sort := BookSort{}
	if s[0] == '-' {
		sort.Descending = true
		s = s[1:]
	}
	switch f := BookSortField(s); f {
	case SortByTitle, SortByAuthor, SortByPrice, SortByPublicationYear, SortByCreatedAt:
		sort.Field = f
		return sort, true
	}
	return BookSort{}, false
}

// BookDistinctField names a column DistinctValues can enumerate.
type BookDistinctField string

const (
	DistinctGenre  BookDistinctField = "genre"
	DistinctAuthor BookDistinctField = "author"
)
