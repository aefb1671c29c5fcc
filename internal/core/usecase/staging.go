package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/medwise/medwise-backend/internal/core/domain"
	"github.com/medwise/medwise-backend/internal/core/ports"
)

// stageImage copies the stored blob into a temp file. The returned cleanup
// must run on every exit path; it is safe to call when staging failed.
func stageImage(
	ctx context.Context,
	storage ports.ObjectStorage,
	image *domain.ImageUpload,
	dir string,
) (domain.StagedImage, func(), error) {
	noop := func() {}

	src, err := storage.Open(ctx, image.StoragePath)
	if err != nil {
		return domain.StagedImage{}, noop, domain.WrapError(domain.ErrStorage, "open stored image", err)
	}
	defer src.Close()

	f, err := os.CreateTemp(dir, "staged-*"+filepath.Ext(image.StoragePath))
	if err != nil {
		return domain.StagedImage{}, noop, domain.WrapError(domain.ErrStorage, "create staged image", err)
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("staged_image_cleanup_failed", "image_id", image.ID, "path", path, "error", err)
		}
	}

	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		cleanup()
		return domain.StagedImage{}, noop, domain.WrapError(domain.ErrStorage, "write staged image", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return domain.StagedImage{}, noop, domain.WrapError(domain.ErrStorage, "close staged image", fmt.Errorf("%s: %w", path, err))
	}

	return domain.StagedImage{
		Path:     path,
		Filename: image.OriginalFilename,
		MIMEType: image.ContentType,
	}, cleanup, nil
}
