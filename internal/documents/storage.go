package documents

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"workhub/office-portal/office-portal-backend/pkg/storage"
)

// StorageProvider stores document attachments. Bytes go to the object store;
// only the key and metadata are kept in the database.
type StorageProvider struct {
	store storage.ObjectStore
}

func NewStorageProvider(store storage.ObjectStore) *StorageProvider {
	return &StorageProvider{store: store}
}

func (p *StorageProvider) StoreAttachment(ctx context.Context, documentID uuid.UUID, name string, body io.Reader) (string, error) {
	key := p.GenerateKey(documentID, name)
	if err := p.store.Upload(ctx, key, body); err != nil {
		return "", err
	}
	return key, nil
}

func (p *StorageProvider) OpenAttachment(ctx context.Context, key string) (io.ReadCloser, error) {
	return p.store.Download(ctx, key)
}

func (p *StorageProvider) RemoveAttachment(ctx context.Context, key string) error {
	return p.store.Delete(ctx, key)
}

// GenerateKey namespaces attachments per document. A random segment keeps
// same-named uploads from colliding.
func (p *StorageProvider) GenerateKey(documentID uuid.UUID, name string) string {
	return fmt.Sprintf("documents/%s/%s/%s", documentID, uuid.NewString(), name)
}
