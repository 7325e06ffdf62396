// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patentapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/patent-report/pkg/types"
)

const maxDownloads = 4

// Gallery lists a patent's drawings and downloads up to limit of them
// concurrently. A failed download leaves that image without a DataURL but
// does not fail the gallery; only a failed listing is an error. Nothing is
// retried.
func (c *Client) Gallery(ctx context.Context, publicationNumber string, limit int) ([]types.PatentImage, error) {
	list, err := c.PatentImages(ctx, publicationNumber)
	if err != nil {
		return nil, fmt.Errorf("listing images for %s: %w", publicationNumber, err)
	}

	images := list.Images
	if limit > 0 && len(images) > limit {
		images = images[:limit]
	}
	out := make([]types.PatentImage, len(images))
	copy(out, images)

	var g errgroup.Group
	g.SetLimit(maxDownloads)
	for i := range out {
		if out[i].ImagePath == "" {
			continue
		}
		i := i
		g.Go(func() error {
			data, err := c.ImageBinary(ctx, out[i].ImagePath)
			if err != nil {
				c.logger.Warn("image download failed",
					zap.String("publication_number", publicationNumber),
					zap.String("image_path", out[i].ImagePath),
					zap.Error(err))
				return nil
			}
			out[i].DataURL = data
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// DataURL encodes raw bytes as a base64 data URL.
func DataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func multipartImage(filename string, data []byte) ([]byte, string, error) {
	if filename == "" {
		filename = "image"
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating multipart form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, "", fmt.Errorf("writing image to form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart form: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
