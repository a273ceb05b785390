package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/labelkit/internal/utils"
	"github.com/menta2k/labelkit/pkg/crop"
	"github.com/menta2k/labelkit/pkg/types"
)

var cropCmd = &cobra.Command{
	Use:   "crop <image>...",
	Short: "Crop, rotate and convert images",
	Long: `Crop and rotate each image and write it to --out, or write all of them into
one zip archive with --zip. --aspect picks a centred crop, --smart moves it to the busiest area.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, tk, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer tk.Close()

		flags := cmd.Flags()
		opts := tk.ExportOptions()
		if flags.Changed("format") {
			opts.Format, _ = flags.GetString("format")
		}
		if flags.Changed("quality") {
			opts.Quality, _ = flags.GetFloat64("quality")
		}
		if opts.Quality == 0 {
			opts.Quality = crop.DefaultQuality
		}
		if err := opts.Validate(); err != nil {
			return err
		}

		rotation, _ := flags.GetInt("rotate")
		smart, _ := flags.GetBool("smart")
		aspectName, _ := flags.GetString("aspect")
		aspect, err := crop.ParseAspect(aspectName)
		if err != nil {
			return err
		}

		batch := crop.NewBatch(tk.Processor)
		for _, name := range args {
			data, err := os.ReadFile(name)
			if err != nil {
				return err
			}
			if batch.Add(types.Upload{Name: filepath.Base(name), Data: data}) == 0 {
				return fmt.Errorf("%s: not an image", name)
			}
		}

		for i, it := range batch.Items() {
			params := crop.Params{Rotation: rotation}
			if aspectName != "" || smart {
				img, err := tk.Processor.Decode(it.Data)
				if err != nil {
					return fmt.Errorf("%s: %w", it.Name, err)
				}
				rect := crop.InitialCrop(img, aspect, smart)
				params.Crop = &rect
			}
			if err := batch.SetEdit(i, params); err != nil {
				return fmt.Errorf("%s: %w", it.Name, err)
			}
		}

		dir, _ := flags.GetString("out")
		if err := utils.EnsureDir(dir); err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if zipped, _ := flags.GetBool("zip"); zipped {
			path := filepath.Join(dir, crop.ArchiveName(time.Now()))
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := batch.Export(f, opts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s (%d images)\n", path, batch.Len())
			return nil
		}

		for _, it := range batch.Items() {
			name, data, err := crop.Encode(tk.Processor, it, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", it.Name, err)
			}
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s (%s)\n", path, utils.FormatFileSize(int64(len(data))))
		}
		return nil
	},
}

func init() {
	cropCmd.Flags().String("aspect", "", "aspect ratio: free, square, 4:3, 16:9 ...")
	cropCmd.Flags().Bool("smart", false, "move the crop to the busiest area")
	cropCmd.Flags().Int("rotate", 0, "rotation in degrees, a multiple of 90")
	cropCmd.Flags().String("format", "", "output format: original, jpeg, png or webp (default from config)")
	cropCmd.Flags().Float64("quality", 0, "jpeg/webp quality between 0.7 and 1")
	cropCmd.Flags().StringP("out", "o", ".", "output directory")
	cropCmd.Flags().Bool("zip", false, "write one zip archive")
	rootCmd.AddCommand(cropCmd)
}
