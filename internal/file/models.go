package file

import (
	"io"
	"strings"
	"time"

	"github.com/abduss/storeit/internal/auth"
	"github.com/google/uuid"
)

// Type is the coarse category a file is filed under.
type Type string

const (
	TypeImage    Type = "image"
	TypeDocument Type = "document"
	TypeVideo    Type = "video"
	TypeAudio    Type = "audio"
	TypeOther    Type = "other"
)

// ParseType validates a category name supplied by a client.
func ParseType(raw string) (Type, bool) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeImage, TypeDocument, TypeVideo, TypeAudio, TypeOther:
		return t, true
	default:
		return "", false
	}
}

// Record is the metadata row kept for every uploaded file.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Type      Type      `json:"type"`
	Extension string    `json:"extension"`
	Size      int64     `json:"size"`
	Owner     string    `json:"owner"`
	AccountID string    `json:"accountId"`
	Users     []string  `json:"users"`
	// BucketFileID is the current name of the storage reference.
	BucketFileID string `json:"bucketFileId,omitempty"`
	// BucketField is the legacy name of the same reference, still present on old rows.
	BucketField string    `json:"bucketField,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// StorageRef resolves the bucket object id, preferring the current field over the legacy one.
// ok is false when neither is set, which marks the record as corrupt.
func (r Record) StorageRef() (ref string, ok bool) {
	if ref = strings.TrimSpace(r.BucketFileID); ref != "" {
		return ref, true
	}
	if ref = strings.TrimSpace(r.BucketField); ref != "" {
		return ref, true
	}
	return "", false
}

// VisibleTo reports whether the requester owns the record or is on its share list.
func (r Record) VisibleTo(requester auth.Requester) bool {
	if requester.IsZero() {
		return false
	}
	if r.Owner == requester.ID {
		return true
	}
	if requester.Email == "" {
		return false
	}
	for _, email := range r.Users {
		if email == requester.Email {
			return true
		}
	}
	return false
}

// Upload describes the bytes handed to the registration service.
type Upload struct {
	Reader      io.Reader
	Name        string
	Size        int64
	ContentType string
}

// DeleteResult is returned by a successful delete.
type DeleteResult struct {
	Status string `json:"status"`
}

// StatusSuccess is the only status a delete reports.
const StatusSuccess = "success"
