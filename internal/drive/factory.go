package drive

import (
	"context"

	appconfig "github.com/lavrova/rfpdesk/internal/config"
)

func NewStore(ctx context.Context, cfg appconfig.Config) (Store, error) {
	switch cfg.StorageMode {
	case "s3", "aws":
		return NewS3Store(ctx, cfg)
	default:
		return NewLocalStore(cfg.LocalStorageDir, cfg.LocalStorageURL)
	}
}
