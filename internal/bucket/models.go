package bucket

import (
	"fmt"
	"net/url"
	"strings"
)

// StoredObject is what the bucket reports back after accepting bytes.
type StoredObject struct {
	ID   string
	Name string
	Size int64
}

// DownloadURL derives the public URL of an object. It is a pure function of its inputs.
func DownloadURL(baseURL, bucketName, objectID string) string {
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(bucketName),
		url.PathEscape(objectID),
	)
}
