package archive

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"

	"github.com/oksasatya/user-service/internal/domain/event"
)

// Object is one archived payload.
type Object struct {
	Path        string
	ContentType string
	Metadata    map[string]string
	Body        []byte
}

// ObjectStore persists archive objects; GCSStore is the production implementation.
type ObjectStore interface {
	Put(ctx context.Context, obj Object) error
}

// EventArchiver keeps a copy of every consumed UserCreated payload in object storage.
type EventArchiver struct {
	Store  ObjectStore
	Prefix string
}

// NewGCSArchiver archives into a Google Cloud Storage bucket under "events/".
func NewGCSArchiver(client *storage.Client, bucket string) *EventArchiver {
	return &EventArchiver{Store: NewGCSStore(client, bucket), Prefix: "events"}
}

// ObjectPath is <prefix>/user.created/YYYY/MM/DD/<userId>.json, so a redelivered event
// overwrites its own archive entry.
func (a *EventArchiver) ObjectPath(e event.UserCreated) string {
	day := e.OccurredAt.UTC().Format("2006/01/02")
	return path.Join(a.Prefix, event.RoutingKeyUserCreated, day, e.UserID.String()+".json")
}

// ArchiveUserCreated stores the raw message body as received, tagged with the user id.
func (a *EventArchiver) ArchiveUserCreated(ctx context.Context, e event.UserCreated, raw []byte) error {
	obj := Object{
		Path:        a.ObjectPath(e),
		ContentType: "application/json",
		Metadata: map[string]string{
			"user-id":     e.UserID.String(),
			"routing-key": event.RoutingKeyUserCreated,
			"occurred-at": e.OccurredAt.UTC().Format(time.RFC3339),
		},
		Body: raw,
	}
	if err := a.Store.Put(ctx, obj); err != nil {
		return fmt.Errorf("archive %s: %w", obj.Path, err)
	}
	return nil
}
