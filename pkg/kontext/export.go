package kontext

import (
	"archive/zip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/types"
)

// ErrNoResults is returned when there is nothing to export
var ErrNoResults = errors.New("no results to export")

// ArchiveName returns the export file name for t, e.g. kontext_results_2024-01-02T15-04-05.zip
func ArchiveName(t time.Time) string {
	return utils.TimestampedName("kontext_results_", "zip", t)
}

// CaptionName is the caption file written for a pair
func CaptionName(baseName string) string {
	return baseName + "_T.txt"
}

// ExportZip writes "<base>_T.txt" with the description plus both images of every result.
// Failed pairs contribute their images only.
func ExportZip(w io.Writer, results []types.LabelResult) error {
	if len(results) == 0 {
		return ErrNoResults
	}

	zw := zip.NewWriter(w)
	written := make(map[string]bool)
	add := func(name string, data []byte) error {
		if written[name] {
			return nil
		}
		written[name] = true
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("zip %s: %w", name, err)
		}
		_, err = fw.Write(data)
		return err
	}

	for _, r := range results {
		if r.Description != "" {
			if err := add(CaptionName(r.BaseName), []byte(r.Description)); err != nil {
				return err
			}
		}
		for _, img := range []*types.ImagePreview{r.RImage, r.TImage} {
			if img == nil || img.Preview == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(img.Preview)
			if err != nil {
				return fmt.Errorf("decode %s: %w", img.Name, err)
			}
			if err := add(img.Name, data); err != nil {
				return err
			}
		}
	}
	return zw.Close()
}
