package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"ugm/config"
	"ugm/utils/images"
)

// AssetDownloader retrieves a single remote file. guide.Client satisfies it.
type AssetDownloader interface {
	Download(ctx context.Context, url, dest string) error
}

// FetchResources executes the retrieval manifest with bounded parallelism.
// Every entry is independent: a failed download is logged, replaced with a
// placeholder where that makes sense and never stops the remaining work.
// The aggregated error is returned for operator visibility only.
func FetchResources(ctx context.Context, dl AssetDownloader, outDir string, manifest []Resource, workers int, imgCfg config.ImagesConfig, log *zap.Logger) error {
	if len(manifest) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	log = log.Named("download")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures error
	)

	jobs := make(chan Resource)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for res := range jobs {
				if ctx.Err() != nil {
					// drain remaining work on shutdown
					continue
				}
				dest := filepath.Join(outDir, filepath.FromSlash(res.LocalPath))

				log.Info("Downloading", zap.String("url", res.RemoteURL))
				if err := dl.Download(ctx, res.RemoteURL, dest); err != nil {
					log.Warn("Asset could not be downloaded", zap.String("path", res.LocalPath), zap.Error(err))
					mu.Lock()
					failures = multierr.Append(failures, fmt.Errorf("%s: %w", res.LocalPath, err))
					mu.Unlock()
					substitutePlaceholder(res.LocalPath, dest, imgCfg, log)
					continue
				}
				postProcess(dest, imgCfg, log)
			}
		}()
	}

	for _, res := range manifest {
		jobs <- res
	}
	close(jobs)
	wg.Wait()

	return failures
}

// substitutePlaceholder puts a "not found" image in place of a guide image
// that could not be retrieved, so the offline page does not show broken
// image boxes.
func substitutePlaceholder(local, dest string, imgCfg config.ImagesConfig, log *zap.Logger) {
	if !strings.HasPrefix(local, "img/") {
		return
	}
	data := notFoundImage
	if imgCfg.RasterizePlaceholder {
		if png, err := images.RasterizeSVGToPNG(notFoundImage, 0, 0); err == nil {
			data = png
		} else {
			log.Debug("Placeholder rasterization failed, keeping SVG", zap.Error(err))
		}
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return
	}
	if err := os.WriteFile(dest, data, 0644); err != nil {
		log.Warn("Unable to write placeholder", zap.String("path", local), zap.Error(err))
	}
}

// postProcess optionally re-encodes downloaded JPEG images. Type is sniffed
// from content - asset keys carry no usable extension.
func postProcess(dest string, imgCfg config.ImagesConfig, log *zap.Logger) {
	if !imgCfg.Optimize {
		return
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		return
	}
	kind, err := filetype.Match(data)
	if err != nil || kind != matchers.TypeJpeg {
		return
	}

	optimized, err := images.OptimizeJPEG(data, imgCfg.ScaleFactor, imgCfg.Grayscale, imgCfg.JPEGQuality)
	if err != nil {
		log.Debug("Image optimization failed, keeping original", zap.String("path", dest), zap.Error(err))
		return
	}
	if len(optimized) >= len(data) && imgCfg.ScaleFactor == 0 && !imgCfg.Grayscale {
		// nothing gained
		return
	}
	if err := os.WriteFile(dest, optimized, 0644); err == nil {
		log.Debug("Image re-encoded", zap.String("path", dest), zap.Int("was", len(data)), zap.Int("now", len(optimized)))
	}
}
