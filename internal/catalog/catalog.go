// Package catalog holds the immutable category to item mapping served by
// the recommendations service.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Category is a closed enumeration of catalog groupings.
// Values match the BookCategory enum numbers on the wire.
type Category int32

const (
	// CategoryMystery groups mystery titles.
	CategoryMystery Category = 0
	// CategoryScienceFiction groups science fiction titles.
	CategoryScienceFiction Category = 1
	// CategorySelfHelp groups self-help titles.
	CategorySelfHelp Category = 2
)

var categoryNames = map[Category]string{
	CategoryMystery:        "MYSTERY",
	CategoryScienceFiction: "SCIENCE_FICTION",
	CategorySelfHelp:       "SELF_HELP",
}

// String returns the enum name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CATEGORY(%d)", int32(c))
}

// Known reports whether c is a member of the closed category set.
func (c Category) Known() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory parses an enum name, case-insensitively.
func ParseCategory(s string) (Category, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// UnmarshalText implements encoding.TextUnmarshaler so categories can be
// used as YAML map keys.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Item is a single recommendable entry.
type Item struct {
	ID    int32  `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Catalog errors.
var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyCategory   = errors.New("category has no items")
	ErrDuplicateItemID = errors.New("duplicate item id")
	ErrEmptyTitle      = errors.New("item title is empty")
	ErrEmptyCatalog    = errors.New("catalog has no categories")
)

// Catalog is an immutable mapping from category to an ordered item list.
// It is safe for concurrent reads without synchronization.
type Catalog struct {
	items map[Category][]Item
	total int
}

// New validates and copies the given mapping into a Catalog.
func New(items map[Category][]Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{items: make(map[Category][]Item, len(items))}
	seen := make(map[int32]Category)

	for _, category := range sortedCategories(items) {
		list := items[category]
		if !category.Known() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int32(category))
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyCategory, category)
		}

		for i, item := range list {
			if strings.TrimSpace(item.Title) == "" {
				return nil, fmt.Errorf("%w: %s[%d]", ErrEmptyTitle, category, i)
			}
			if prev, dup := seen[item.ID]; dup {
				return nil, fmt.Errorf("%w: %d in %s and %s", ErrDuplicateItemID, item.ID, prev, category)
			}
			seen[item.ID] = category
		}

		c.items[category] = append([]Item(nil), list...)
		c.total += len(list)
	}

	return c, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(items map[Category][]Item) *Catalog {
	c, err := New(items)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns a copy of the items of a category.
func (c *Catalog) Lookup(category Category) ([]Item, bool) {
	items, ok := c.items[category]
	if !ok {
		return nil, false
	}
	return slices.Clone(items), true
}

// Categories returns the categories present in the catalog in enum order.
func (c *Catalog) Categories() []Category {
	return sortedCategories(c.items)
}

// Len returns the total number of items across all categories.
func (c *Catalog) Len() int {
	return c.total
}

func sortedCategories(m map[Category][]Item) []Category {
	out := make([]Category, 0, len(m))
	for category := range m {
		out = append(out, category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
