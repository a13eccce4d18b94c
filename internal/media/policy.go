package media

import (
	"errors"
	"fmt"
	"strings"
)

const mb = 1 << 20

// Policy is the per bucket upload contract. A file is accepted only when its
// size fits and its content type matches one of the allowed prefixes.
type Policy struct {
	MaxBytes     int64
	ContentTypes []string
}

var bucketPolicies = map[string]Policy{
	"avatars": {MaxBytes: 10 * mb, ContentTypes: []string{"image/"}},
	"posts":   {MaxBytes: 20 * mb, ContentTypes: []string{"image/"}},
	"stories": {MaxBytes: 50 * mb, ContentTypes: []string{"image/", "video/"}},
	"chat":    {MaxBytes: 25 * mb, ContentTypes: []string{"image/", "video/"}},
	"trips":   {MaxBytes: 20 * mb, ContentTypes: []string{"image/"}},
	"bikes":   {MaxBytes: 20 * mb, ContentTypes: []string{"image/"}},
}

var ErrUnknownBucket = errors.New("unknown media bucket")

// SizeLimitError reports the configured ceiling so the client can tell the
// user what the actual limit is, not just that the file was too big.
type SizeLimitError struct {
	Bucket   string
	MaxBytes int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("file exceeds the %dMB limit for bucket %q", e.MaxBytes/mb, e.Bucket)
}

type ContentTypeError struct {
	Bucket      string
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("content type %q is not allowed in bucket %q", e.ContentType, e.Bucket)
}

// CheckUpload validates size and content type against the bucket's policy
// before any bytes are written.
func CheckUpload(bucket, contentType string, size int64) error {
	policy, ok := bucketPolicies[bucket]
	if !ok {
		return ErrUnknownBucket
	}
	if size > policy.MaxBytes {
		return &SizeLimitError{Bucket: bucket, MaxBytes: policy.MaxBytes}
	}
	for _, prefix := range policy.ContentTypes {
		if strings.HasPrefix(contentType, prefix) {
			return nil
		}
	}
	return &ContentTypeError{Bucket: bucket, ContentType: contentType}
}
