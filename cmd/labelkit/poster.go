package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/imgio"
	"github.com/menta2k/labelkit/pkg/raster"
)

var posterCmd = &cobra.Command{
	Use:   "poster",
	Short: "Render a 640x854 grid poster",
	Long: `Render a grid poster to JPEG. Images are local files, http(s) URLs or data URLs.
--options reads a JSON file in the /api/poster/render format; the text flags override it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer tk.Close()

		opts := raster.DefaultOptions()
		if path, _ := cmd.Flags().GetString("options"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(data, &opts); err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}

		flags := cmd.Flags()
		for flag, field := range map[string]*string{
			"title":        &opts.Text.Title,
			"subtitle":     &opts.Text.Subtitle,
			"second-title": &opts.Text.SecondTitle,
			"footer":       &opts.Text.FooterText,
		} {
			if flags.Changed(flag) {
				*field, _ = flags.GetString(flag)
			}
		}

		images, _ := flags.GetStringArray("image")
		for _, ref := range images {
			resolved, err := imageRef(ref)
			if err != nil {
				return err
			}
			opts.Images = append(opts.Images, resolved)
		}

		style, _ := flags.GetString("style")
		if style != "" {
			if _, ok := raster.StyleByID(style); !ok {
				return fmt.Errorf("unknown style %q", style)
			}
		}

		data, err := tk.Renderer.RenderJPEG(ctx, opts)
		if err != nil {
			return err
		}

		out, _ := flags.GetString("out")
		if out == "" {
			out = raster.FileName(style, time.Now())
		}
		if err := utils.EnsureDir(filepath.Dir(out)); err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, utils.FormatFileSize(int64(len(data))))
		return nil
	},
}

// imageRef keeps URLs and data URLs and turns local files into data URLs
func imageRef(ref string) (string, error) {
	for _, prefix := range []string{"http://", "https://", "data:"} {
		if strings.HasPrefix(ref, prefix) {
			return ref, nil
		}
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", err
	}
	return imgio.DataURL(http.DetectContentType(data), data), nil
}

func init() {
	posterCmd.Flags().StringArrayP("image", "i", nil, "grid image, repeat for up to nine")
	posterCmd.Flags().String("options", "", "JSON render options file")
	posterCmd.Flags().String("title", "", "title text")
	posterCmd.Flags().String("subtitle", "", "subtitle text")
	posterCmd.Flags().String("second-title", "", "second title text")
	posterCmd.Flags().String("footer", "", "footer text")
	posterCmd.Flags().String("style", "", "style preset, changes the output name")
	posterCmd.Flags().StringP("out", "o", "", "output file (default grid-poster-<ms>.jpg)")
	rootCmd.AddCommand(posterCmd)
}
