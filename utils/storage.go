package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	StorageProviderGCS  = "gcs"
	StorageProviderNone = "none"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderNone
	}
	return provider
}

// getGoogleClient initializes a Google Cloud Storage client
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC; GCS_CREDENTIALS_JSON is for local runs.
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// ArchiveObjectKey builds <userId>/price-lists/<uuid><ext>.
func ArchiveObjectKey(userId string, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return path.Join(userId, "price-lists", uuid.NewString()+ext)
}

// spreadsheet exports sniff as zip or octet-stream; name them properly
func archiveContentType(objectName string, data []byte) string {
	switch strings.ToLower(path.Ext(objectName)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".htm", ".html":
		return "text/html; charset=utf-8"
	}
	return http.DetectContentType(data)
}

func UploadBytesToGCS(ctx context.Context, objectName string, data []byte) error {
	bucketName := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucketName == "" {
		return errors.New("GCS_BUCKET is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = archiveContentType(objectName, data)

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to upload bytes to Google Cloud Storage: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// ArchiveUpload stores the raw file under the owner's prefix and returns the object key.
func ArchiveUpload(ctx context.Context, userId string, fileName string, data []byte) (string, error) {
	if GetStorageProvider() != StorageProviderGCS {
		return "", fmt.Errorf("storage provider %q is not supported for archiving", GetStorageProvider())
	}
	key := ArchiveObjectKey(userId, fileName)
	if err := UploadBytesToGCS(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}
