package oauth

import (
	"context"
	"net/http"

	"Tether/internal/core/users"
)

// StateStore persists authorization state records.
// Implementations own expiry: records past their TTL must stop being returned
// and are eventually purged. The core never deletes on expiry itself.
type StateStore interface {
	Create(ctx context.Context, rec *StateRecord) error

	// ListByUserID returns the user's live records whose state equals state exactly
	ListByUserID(ctx context.Context, userID, state string) ([]*StateRecord, error)

	// Delete removes a record; used only when state consumption is enabled
	Delete(ctx context.Context, userID, state string) error
}

// UserStore is the slice of the user repository the token flows need
type UserStore interface {
	GetByID(ctx context.Context, id string) (*users.User, error)
	UpdateProviders(ctx context.Context, id string, providers users.Providers) error
}

// HTTPClient performs outbound calls to provider endpoints.
// *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder receives outcome counts for the token lifecycle.
// Labels are the provider name and a short outcome word.
type Recorder interface {
	Callback(provider, outcome string)
	Refresh(provider, outcome string)
	Disconnect(provider, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) Callback(string, string)   {}
func (nopRecorder) Refresh(string, string)    {}
func (nopRecorder) Disconnect(string, string) {}
