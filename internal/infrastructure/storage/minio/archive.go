package minio

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/molgraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgraph/internal/infrastructure/storage/snapshot"
	"github.com/turtacn/molgraph/pkg/errors"
	stypes "github.com/turtacn/molgraph/pkg/types/structure"
)

// User metadata keys. MinIO canonicalises them to X-Amz-Meta-*.
const (
	metaRawSize = "Raw-Size"
	metaModelID = "Model-Id"
)

// SnapshotArchive stores compressed model documents addressed by digest.
type SnapshotArchive struct {
	client *Client
	logger logging.Logger
}

func NewSnapshotArchive(client *Client, log logging.Logger) *SnapshotArchive {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &SnapshotArchive{client: client, logger: log}
}

// Put archives dto and returns its digest. An object already stored under the
// digest is left in place.
func (a *SnapshotArchive) Put(ctx context.Context, modelID string, dto *stypes.ModelDTO) (string, error) {
	enc, err := snapshot.Encode(dto)
	if err != nil {
		return "", err
	}
	key := snapshot.ObjectKey(enc.Digest)

	exists, err := a.exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		a.logger.Debug("snapshot already archived",
			logging.String(logging.FieldModelID, modelID), logging.String("digest", enc.Digest))
		return enc.Digest, nil
	}

	_, err = a.client.api.PutObject(ctx, a.client.bucket, key, bytes.NewReader(enc.Data), int64(len(enc.Data)),
		minio.PutObjectOptions{
			ContentType: snapshot.ContentType,
			UserMetadata: map[string]string{
				metaRawSize: strconv.Itoa(enc.RawSize),
				metaModelID: modelID,
			},
		})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeStorageError, "failed to archive snapshot").WithDetail(key)
	}
	a.logger.Info("archived snapshot",
		logging.String(logging.FieldModelID, modelID),
		logging.String("digest", enc.Digest),
		logging.Int("raw_bytes", enc.RawSize),
		logging.Int("stored_bytes", len(enc.Data)))
	return enc.Digest, nil
}

// Get loads and verifies the snapshot stored under digest.
func (a *SnapshotArchive) Get(ctx context.Context, digest string) (*stypes.ModelDTO, error) {
	if digest == "" {
		return nil, errors.InvalidParam("snapshot digest is required")
	}
	key := snapshot.ObjectKey(digest)
	obj, err := a.client.api.GetObject(ctx, a.client.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, a.readError(err, digest)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, a.readError(err, digest)
	}
	return snapshot.Decode(data, digest)
}

// Exists reports whether a snapshot with digest is archived.
func (a *SnapshotArchive) Exists(ctx context.Context, digest string) (bool, error) {
	return a.exists(ctx, snapshot.ObjectKey(digest))
}

// Delete removes the snapshot. Removing a missing snapshot is not an error.
func (a *SnapshotArchive) Delete(ctx context.Context, digest string) error {
	err := a.client.api.RemoveObject(ctx, a.client.bucket, snapshot.ObjectKey(digest), minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return errors.Wrap(err, errors.CodeStorageError, "failed to delete snapshot").WithDetail(digest)
	}
	return nil
}

func (a *SnapshotArchive) exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.api.StatObject(ctx, a.client.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, errors.Wrap(err, errors.CodeStorageError, "failed to stat snapshot").WithDetail(key)
}

func (a *SnapshotArchive) readError(err error, digest string) error {
	if isNoSuchKey(err) {
		return errors.NotFound("snapshot not archived").WithDetail("digest=" + digest)
	}
	return errors.Wrap(err, errors.CodeStorageError, "failed to read snapshot").WithDetail(digest)
}

//Personal.AI order the ending
