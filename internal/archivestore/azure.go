package archivestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// AzureBlob stores objects in one Azure Storage container.
type AzureBlob struct {
	client    *azblob.Client
	container string
}

// NewAzureBlob connects to accountURL. A URL carrying a SAS query is used
// as-is; otherwise the default Azure credential chain authenticates.
func NewAzureBlob(accountURL, container string) (*AzureBlob, error) {
	var (
		client *azblob.Client
		err    error
	)
	if strings.Contains(accountURL, "?") {
		client, err = azblob.NewClientWithNoCredential(accountURL, nil)
	} else {
		var cred azcore.TokenCredential
		cred, err = azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("azure credential: %w", err)
		}
		client, err = azblob.NewClient(accountURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("azure blob client: %w", err)
	}
	return &AzureBlob{client: client, container: container}, nil
}

func (a *AzureBlob) Name() string { return "azblob" }

func (a *AzureBlob) Put(ctx context.Context, key string, data []byte) error {
	contentType := contentTypeFor(key)
	_, err := a.client.UploadBuffer(ctx, a.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	return err
}

func (a *AzureBlob) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := a.client.DownloadStream(ctx, a.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *AzureBlob) Exists(ctx context.Context, key string) (bool, error) {
	blob := a.client.ServiceClient().NewContainerClient(a.container).NewBlobClient(key)
	if _, err := blob.GetProperties(ctx, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *AzureBlob) Delete(ctx context.Context, key string) error {
	if _, err := a.client.DeleteBlob(ctx, a.container, key, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func contentTypeFor(key string) string {
	if strings.HasSuffix(key, ".gz") {
		return "application/gzip"
	}
	return "application/json"
}
