package domain

import "context"

// UserRepository is the persistence gateway for user documents. Documents
// are handled as raw JSON so that lax payloads accepted by validation are
// stored and served back without re-interpretation.
type UserRepository interface {
	// Upsert replaces or inserts the document stored under id. Idempotent;
	// never fails on an existing id.
	Upsert(ctx context.Context, id int64, doc []byte) error

	// Create inserts the document under id and returns the stored document.
	// Fails with a conflict error when the id already exists. The existence
	// check and the insert are separate statements, so concurrent creates
	// with the same id can race; acceptable at this system's scale.
	Create(ctx context.Context, id int64, doc []byte) ([]byte, error)

	// GetByID returns the stored document, or a not-found error.
	GetByID(ctx context.Context, id int64) ([]byte, error)

	// DeleteByID removes the document, or fails with a not-found error if
	// it did not exist immediately before the call.
	DeleteByID(ctx context.Context, id int64) error

	// DeleteAll removes every document. Succeeds on an empty collection.
	DeleteAll(ctx context.Context) error
}
