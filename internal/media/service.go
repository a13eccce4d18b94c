package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Agnijit02/OnTwoWheelz/internal/db"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrObjectNotFound = errors.New("media object not found")

type Object struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Bucket      string    `json:"bucket"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

type Service struct {
	db      db.Querier
	dir     string
	baseURL string
}

// writeFileFn is swapped in tests to avoid touching the filesystem.
var writeFileFn = writeFile

func NewService(querier db.Querier, dir, baseURL string) *Service {
	return &Service{db: querier, dir: dir, baseURL: baseURL}
}

// Upload validates against the bucket policy, stores the bytes under a fresh
// name and records the object. Nothing is written for a rejected file.
func (s *Service) Upload(ctx context.Context, userID, bucket, filename, contentType string, size int64, r io.Reader) (Object, error) {
	if err := CheckUpload(bucket, contentType, size); err != nil {
		return Object{}, err
	}

	obj := Object{
		ID:          uuid.NewString(),
		UserID:      userID,
		Bucket:      bucket,
		ContentType: contentType,
		SizeBytes:   size,
	}
	name := obj.ID + filepath.Ext(filename)
	path := filepath.Join(s.dir, bucket, name)
	if err := writeFileFn(path, r); err != nil {
		return Object{}, err
	}
	obj.URL = s.baseURL + "/" + bucket + "/" + name

	row := s.db.QueryRow(ctx, `
		INSERT INTO media_objects (id, user_id, bucket, url, content_type, size_bytes)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, obj.ID, obj.UserID, obj.Bucket, obj.URL, obj.ContentType, obj.SizeBytes)
	if err := row.Scan(&obj.CreatedAt); err != nil {
		// the object row is the source of truth, do not leave a file that no
		// row points at
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn().Err(rmErr).Str("path", path).Msg("orphaned upload removal failed")
		}
		return Object{}, err
	}
	return obj, nil
}

func (s *Service) Get(ctx context.Context, id string) (Object, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, bucket, url, content_type, size_bytes, created_at
		FROM media_objects WHERE id=$1
	`, id)
	var obj Object
	err := row.Scan(&obj.ID, &obj.UserID, &obj.Bucket, &obj.URL, &obj.ContentType, &obj.SizeBytes, &obj.CreatedAt)
	if db.IsNotFound(err) {
		return Object{}, ErrObjectNotFound
	}
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}

// Delete removes the caller's object. The database row is the source of
// truth; a failed disk removal is logged and the row still goes away.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	obj, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if obj.UserID != userID {
		return ErrObjectNotFound
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM media_objects WHERE id=$1 AND user_id=$2
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrObjectNotFound
	}

	name := filepath.Base(obj.URL)
	if err := os.Remove(filepath.Join(s.dir, obj.Bucket, name)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("object_id", id).Msg("media file removal failed")
	}
	return nil
}

func writeFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}
