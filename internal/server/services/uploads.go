package services

import (
	"context"
	"io"

	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/storage"
)

// Upload is a file that arrived with a request.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// uploadBatch remembers what one operation stored so it can be undone
// when the operation fails, and what it replaced so that can be released
// once the operation succeeds.
type uploadBatch struct {
	fs       storage.FileStorage
	logger   logging.Logger
	stored   []string
	replaced []string
}

func newUploadBatch(fs storage.FileStorage, logger logging.Logger) *uploadBatch {
	return &uploadBatch{fs: fs, logger: logger}
}

// save stores u and returns its reference. A nil upload returns "".
func (b *uploadBatch) save(ctx context.Context, u *Upload) (string, error) {
	if u == nil {
		return "", nil
	}
	ref, err := b.fs.Save(ctx, u.Name, u.ContentType, u.Body)
	if err != nil {
		return "", err
	}
	b.stored = append(b.stored, ref)
	return ref, nil
}

// replace marks old for release after commit.
func (b *uploadBatch) replace(old string) {
	if old != "" {
		b.replaced = append(b.replaced, old)
	}
}

// rollback deletes everything stored by this batch.
func (b *uploadBatch) rollback(ctx context.Context) {
	b.release(ctx, b.stored)
	b.stored = nil
}

// commit releases the replaced files.
func (b *uploadBatch) commit(ctx context.Context) {
	b.release(ctx, b.replaced)
	b.replaced = nil
}

func (b *uploadBatch) release(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := b.fs.Delete(ctx, ref); err != nil {
			b.logger.Warn(ctx, "failed to release upload", "ref", ref, "error", err)
		}
	}
}
