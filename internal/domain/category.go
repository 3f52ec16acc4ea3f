package domain

import "strings"

// CatchAllCategory is the fallback category used when no classification rule
// matches or a supplied category name is unrecognized.
const CatchAllCategory = "Miscellaneous"

// DefaultCategories is the built-in category set. Callers may extend it with
// custom entries; the catch-all is always present.
var DefaultCategories = []string{
	"Living Expenses",
	"Groceries",
	"Restaurants",
	"Car",
	"Entertainment",
	CatchAllCategory,
}

// CategorySet is an ordered, fixed set of category names supplied by the
// caller. The catch-all category is guaranteed to be a member. Membership
// checks are case-insensitive; Canonical returns the name as configured.
type CategorySet struct {
	names  []string
	lookup map[string]string // normalized -> configured name
}

// NewCategorySet builds a category set from the given names, preserving
// order and appending the catch-all if missing. Empty and duplicate names
// are dropped.
func NewCategorySet(names ...string) CategorySet {
	s := CategorySet{lookup: make(map[string]string, len(names)+1)}
	for _, name := range names {
		s.add(name)
	}
	s.add(CatchAllCategory)
	return s
}

func (s *CategorySet) add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	key := strings.ToUpper(name)
	if _, exists := s.lookup[key]; exists {
		return
	}
	s.lookup[key] = name
	s.names = append(s.names, name)
}

// Names returns the configured category names in declaration order.
func (s CategorySet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Contains reports whether name is a member of the set, ignoring case and
// surrounding whitespace.
func (s CategorySet) Contains(name string) bool {
	_, ok := s.lookup[strings.ToUpper(strings.TrimSpace(name))]
	return ok
}

// Canonical maps name onto the configured spelling of its category, or the
// catch-all when the name is not a member.
func (s CategorySet) Canonical(name string) string {
	if configured, ok := s.lookup[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return configured
	}
	return CatchAllCategory
}

// Len returns the number of categories in the set.
func (s CategorySet) Len() int {
	return len(s.names)
}
