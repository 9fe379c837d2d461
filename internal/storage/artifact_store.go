package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/anime-shed/visual-pipeline-go/internal/errors"
	"github.com/anime-shed/visual-pipeline-go/pkg/models"
)

// ArtifactStore persists encoded artifacts and returns a location
// usable in the report.
type ArtifactStore interface {
	SaveArtifact(ctx context.Context, submissionID string, artifact models.Artifact) (string, error)
}

// LocalArtifactStore writes artifacts under a base directory, one
// subdirectory per submission.
type LocalArtifactStore struct {
	baseDir string
}

// NewLocalArtifactStore creates a local store rooted at baseDir.
func NewLocalArtifactStore(baseDir string) *LocalArtifactStore {
	return &LocalArtifactStore{baseDir: baseDir}
}

func (s *LocalArtifactStore) SaveArtifact(ctx context.Context, submissionID string, artifact models.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewTimeoutError("artifact save cancelled", err)
	}

	dir := filepath.Join(s.baseDir, submissionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperrors.NewInternalError("failed to create artifact directory", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.%s", artifact.Name, artifact.Format))
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return "", apperrors.NewInternalError("failed to write artifact", err)
	}
	return path, nil
}

type azureArtifactStore struct {
	client    *azblob.Client
	container string
}

// NewAzureArtifactStore creates a store that uploads artifacts to an
// Azure blob container, one virtual directory per submission.
func NewAzureArtifactStore(accountName, accountKey, container string) (ArtifactStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureArtifactStore{client: client, container: container}, nil
}

func (s *azureArtifactStore) SaveArtifact(ctx context.Context, submissionID string, artifact models.Artifact) (string, error) {
	blobName := fmt.Sprintf("%s/%s.%s", submissionID, artifact.Name, artifact.Format)

	_, err := s.client.UploadBuffer(ctx, s.container, blobName, artifact.Data, nil)
	if err != nil {
		return "", apperrors.NewNetworkError("artifact upload failed", err)
	}
	return fmt.Sprintf("%s/%s", s.container, blobName), nil
}
