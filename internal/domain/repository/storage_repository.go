package repository

import "context"

// StorageRepository uploads finished report files to remote storage.
type StorageRepository interface {
	Upload(ctx context.Context, reportDate string, files []string) ([]string, error)
}
