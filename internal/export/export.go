// Package export publishes a snapshot of the record log to a blob store for
// downstream tools.
package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/gridcrawl/internal/crawler"
	"github.com/JakeFAU/gridcrawl/internal/recordlog/file"
)

// ContentType of exported record logs.
const ContentType = "text/plain; charset=utf-8"

// Result describes one published snapshot.
type Result struct {
	URI     string
	SHA256  string
	Bytes   int
	Records int
}

// Exporter copies the acknowledged prefix of a record log to a BlobStore.
type Exporter struct {
	store  crawler.BlobStore
	logger *zap.Logger
	now    func() time.Time
}

// New constructs an Exporter.
func New(store crawler.BlobStore, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Export publishes every complete line of the log at logPath as object.
// The snapshot is decoded first; a corrupt log is not exported.
func (e *Exporter) Export(ctx context.Context, logPath, object string) (Result, error) {
	data, err := file.ReadPrefix(ctx, logPath)
	if err != nil {
		return Result{}, err
	}
	records, err := crawler.ReadRecords(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", logPath, err)
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	uri, err := e.store.Put(ctx, crawler.Object{
		Path:        object,
		ContentType: ContentType,
		Metadata: map[string]string{
			"sha256":      digest,
			"records":     strconv.Itoa(len(records)),
			"exported_at": e.now().Format(time.RFC3339),
		},
		Body: bytes.NewReader(data),
	})
	if err != nil {
		return Result{}, fmt.Errorf("put export: %w", err)
	}
	e.logger.Info("record log exported",
		zap.String("uri", uri),
		zap.String("sha256", digest),
		zap.Int("bytes", len(data)),
		zap.Int("records", len(records)),
	)
	return Result{URI: uri, SHA256: digest, Bytes: len(data), Records: len(records)}, nil
}
