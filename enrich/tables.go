package enrich

import (
	"slices"

	"github.com/s0up4200/overseerr-mcp/overseerr"
)

// Library is a library backend a request can be routed to.
type Library struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// User is a user a request can be submitted as.
type User struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
}

// Tables holds the name lookups built at startup. A Tables value is never modified after
// Build returns; accessors hand out copies.
type Tables struct {
	movieLibraries []Library
	tvLibraries    []Library
	users          []User

	movieIndex map[string]int
	tvIndex    map[string]int
	userIndex  map[string]int
}

func newTables(movie, tv []Library, users []User) *Tables {
	t := &Tables{
		movieLibraries: movie,
		tvLibraries:    tv,
		users:          users,
		movieIndex:     make(map[string]int, len(movie)),
		tvIndex:        make(map[string]int, len(tv)),
		userIndex:      make(map[string]int, len(users)),
	}
	for _, l := range movie {
		t.movieIndex[l.Name] = l.ID
	}
	for _, l := range tv {
		t.tvIndex[l.Name] = l.ID
	}
	for _, u := range users {
		t.userIndex[u.DisplayName] = u.ID
	}
	return t
}

// Empty returns tables with no entries.
func Empty() *Tables {
	return newTables(nil, nil, nil)
}

// Libraries returns the libraries of the given kind in fetch order.
func (t *Tables) Libraries(kind overseerr.MediaType) []Library {
	if kind.IsMovie() {
		return slices.Clone(t.movieLibraries)
	}
	return slices.Clone(t.tvLibraries)
}

// LibraryNames returns the usable library names of the given kind.
func (t *Tables) LibraryNames(kind overseerr.MediaType) []string {
	libs := t.movieLibraries
	if !kind.IsMovie() {
		libs = t.tvLibraries
	}
	names := make([]string, 0, len(libs))
	for _, l := range libs {
		names = append(names, l.Name)
	}
	return names
}

// LibraryID resolves a library name by exact match.
func (t *Tables) LibraryID(kind overseerr.MediaType, name string) (int, bool) {
	index := t.movieIndex
	if !kind.IsMovie() {
		index = t.tvIndex
	}
	id, ok := index[name]
	return id, ok
}

// Users returns the usable users in fetch order.
func (t *Tables) Users() []User {
	return slices.Clone(t.users)
}

// UserNames returns the usable display names.
func (t *Tables) UserNames() []string {
	names := make([]string, 0, len(t.users))
	for _, u := range t.users {
		names = append(names, u.DisplayName)
	}
	return names
}

// UserID resolves a display name by exact match.
func (t *Tables) UserID(displayName string) (int, bool) {
	id, ok := t.userIndex[displayName]
	return id, ok
}
