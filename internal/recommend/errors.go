package recommend

import (
	"errors"
	"fmt"

	"github.com/vyrodovalexey/recommendations/internal/catalog"
)

// ErrCategoryNotFound is the sentinel matched by CategoryNotFoundError.
var ErrCategoryNotFound = errors.New("category not found")

// CategoryNotFoundError is returned when a request names a category the
// catalog does not carry.
type CategoryNotFoundError struct {
	Category catalog.Category
}

// Error implements the error interface.
func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("category not found: %s", e.Category)
}

// Is reports whether target is ErrCategoryNotFound or another
// CategoryNotFoundError.
func (e *CategoryNotFoundError) Is(target error) bool {
	if target == ErrCategoryNotFound {
		return true
	}
	_, ok := target.(*CategoryNotFoundError)
	return ok
}
