package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/sirupsen/logrus"
)

// AzureArchive keeps JSON snapshots of alert events in Azure Blob Storage
type AzureArchive struct {
	client        *azblob.Client
	containerName string
}

// Ensure AzureArchive implements ArchiveInterface
var _ ArchiveInterface = (*AzureArchive)(nil)

// NewAzureArchive creates a new Azure Storage client using managed identity
func NewAzureArchive(ctx context.Context, accountName, containerName string) (*AzureArchive, error) {
	if accountName == "" {
		return nil, fmt.Errorf("storage account name is required")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)
	client, err := azblob.NewClient(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	archive := &AzureArchive{
		client:        client,
		containerName: containerName,
	}

	if err := archive.ensureContainer(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure container exists: %w", err)
	}

	return archive, nil
}

func (a *AzureArchive) ensureContainer(ctx context.Context) error {
	_, err := a.client.CreateContainer(ctx, a.containerName, nil)
	if err != nil {
		if !strings.Contains(err.Error(), "ContainerAlreadyExists") {
			return fmt.Errorf("failed to create container: %w", err)
		}
		logrus.Debugf("Container %s already exists", a.containerName)
	} else {
		logrus.Infof("Created container %s", a.containerName)
	}

	return nil
}

// Store uploads data under filename
func (a *AzureArchive) Store(ctx context.Context, filename string, data []byte) error {
	_, err := a.client.UploadBuffer(ctx, a.containerName, filename, data, &azblob.UploadBufferOptions{
		BlockSize:   int64(1024 * 1024),
		Concurrency: 3,
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", filename, err)
	}

	logrus.Debugf("Archived %s in Azure Blob Storage", filename)
	return nil
}

// List returns blob names under prefix
func (a *AzureArchive) List(ctx context.Context, prefix string) ([]string, error) {
	var blobNames []string
	pager := a.client.NewListBlobsFlatPager(a.containerName, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}

		for _, blob := range page.Segment.BlobItems {
			if blob.Name != nil {
				blobNames = append(blobNames, *blob.Name)
			}
		}
	}

	return blobNames, nil
}
