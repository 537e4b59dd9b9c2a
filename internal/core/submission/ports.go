package submission

import (
	"context"
	"errors"
	"time"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/document"
)

// Gateway submits assembled documents to the tax-authority gateway.
type Gateway interface {
	// Submit performs one call without retrying. Failures are *TransportError.
	Submit(ctx context.Context, doc document.Document, bearerToken string) (RawResponse, error)
}

// ArtifactFetcher downloads the rendered PDF of an accepted document.
type ArtifactFetcher interface {
	FetchArtifact(ctx context.Context, ref document.Reference, bearerToken string) ([]byte, error)
}

// ArtifactArchive keeps a copy of rendered PDFs and returns their location.
type ArtifactArchive interface {
	Store(ctx context.Context, ref document.Reference, pdf []byte) (string, error)
}

// ErrDocumentLocked is returned by a Locker when another instance holds the document.
var ErrDocumentLocked = errors.New("document is being submitted by another process")

// Locker serializes submissions of the same document across instances.
type Locker interface {
	// Lock returns a release function, or ErrDocumentLocked.
	Lock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// LockKey is the lock name of a document.
func LockKey(ref document.Reference) string {
	return "lock:document:" + ref.TaxpayerID + ":" + ref.Prefix + ref.Number
}
