package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// Staging uploads outbound attachment blobs before the send goes on the wire,
// so the wire message carries just a media URL. Images are downscaled and
// re-encoded first; other files upload as-is.
type Staging struct {
	store *S3Storage
	cfg   S3Config
	opts  ImageProcessOptions
}

func NewStaging(store *S3Storage, cfg S3Config) *Staging {
	return &Staging{store: store, cfg: cfg, opts: DefaultAttachmentOptions()}
}

// Stage uploads the attachment and fills in its URL, MimeType and Size. A nil
// receiver passes the attachment through untouched so a storage-less
// deployment still sends inline media URLs set by the caller.
func (s *Staging) Stage(ctx context.Context, att *models.Attachment) error {
	if s == nil || s.store == nil {
		return nil
	}
	if len(att.Data) == 0 {
		return fmt.Errorf("attachment %q has no data", att.Filename)
	}

	data := att.Data
	contentType := att.MimeType
	filename := att.Filename

	if att.IsImage() {
		processed, ct, size, err := ProcessImageAttachment(bytes.NewReader(att.Data), s.opts)
		if err != nil {
			return fmt.Errorf("process image %q: %w", att.Filename, err)
		}
		data = processed
		contentType = ct
		att.MimeType = ct
		att.Size = size
		// Re-encoding always yields JPEG.
		filename = strings.TrimSuffix(filename, path.Ext(filename)) + ".jpg"
	} else {
		att.Size = int64(len(data))
	}

	key, err := SafeJoinMediaPath("media", uuid.NewString()+"-"+path.Base(filename))
	if err != nil {
		return err
	}

	if _, err := s.store.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return fmt.Errorf("upload %q: %w", att.Filename, err)
	}

	att.URL = s.store.ObjectURL(s.cfg, key)
	return nil
}

// StageAll uploads every queued attachment in order, stopping at the first
// failure so the caller can surface which item broke the send.
func (s *Staging) StageAll(ctx context.Context, atts []models.Attachment) error {
	for i := range atts {
		if err := s.Stage(ctx, &atts[i]); err != nil {
			return err
		}
	}
	return nil
}
