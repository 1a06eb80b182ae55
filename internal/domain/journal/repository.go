// internal/domain/journal/repository.go
package journal

import "context"

// Repository stores poll cycle history. It is write-only: nothing is read
// back to restore loop state.
type Repository interface {
	Record(ctx context.Context, e *Entry) error
}
