package archive

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/imamik/cosmoclear/internal/resource"
)

// Putter stores one object.
type Putter interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
}

// Archiver writes documents to a bucket.
type Archiver struct {
	putter Putter
	bucket string
	prefix string
}

// New creates an archiver writing below prefix in bucket.
func New(p Putter, bucket, prefix string) *Archiver {
	return &Archiver{putter: p, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Archive stores the raw document of item.
func (a *Archiver) Archive(ctx context.Context, c resource.Container, item resource.Item) error {
	return a.putter.PutObject(ctx, a.bucket, a.Key(c, item), item.Document)
}

// Key returns the object key for item. Ids are only unique within a logical
// partition, so the partition key is a segment of its own.
func (a *Archiver) Key(c resource.Container, item resource.Item) string {
	parts := []string{
		lastSegment(c.AccountID),
		lastSegment(c.DatabaseID),
		c.DisplayName,
		partitionSegment(item.PartitionKey),
		item.ID + ".json",
	}
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	if a.prefix != "" {
		parts = append([]string{a.prefix}, parts...)
	}
	return path.Join(parts...)
}

// noPartition stands in for items stored without a partition key.
const noPartition = "_"

func partitionSegment(pk string) string {
	if pk == "" || pk == "[]" {
		return noPartition
	}
	return pk
}

func lastSegment(id string) string {
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}
