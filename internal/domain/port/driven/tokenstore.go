package driven

import "context"

// TokenStore defines the driven port for the single bearer credential slot.
// It is the only component allowed to retain the token; everything else reads
// it through this interface at the moment of use.
type TokenStore interface {
	// Set stores the credential, overwriting any previous value.
	Set(ctx context.Context, token string) error

	// Get returns the current credential, or ("", nil) when none is stored.
	Get(ctx context.Context) (string, error)

	// Clear removes the credential. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
