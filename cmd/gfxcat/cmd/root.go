/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/blacktop/go-termgfx"
	"github.com/blacktop/go-termgfx/internal/config"
	"github.com/blacktop/go-termgfx/pkg/csi"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	verbose        bool
	clear          bool
	fit            bool
	noPlaceholders bool
	forceTmux      bool
	backendName    string
	configPath     string
	col            int
	row            int
	widthCells     int
	heightCells    int
)

func init() {
	log.SetHandler(clihander.Default)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose logging")
	rootCmd.Flags().BoolVarP(&clear, "clear", "c", false, "Clear the image after displaying it")
	rootCmd.Flags().BoolVarP(&fit, "fit", "f", false, "Scale the image to fit the requested cells")
	rootCmd.Flags().BoolVar(&noPlaceholders, "no-placeholders", false, "Use positioned passthrough instead of Unicode placeholders in tmux")
	rootCmd.Flags().BoolVar(&forceTmux, "tmux", false, "Wrap output for tmux passthrough even when TMUX is not set")
	rootCmd.Flags().StringVarP(&backendName, "backend", "b", "", "Graphics backend (auto, kitty, sixel, blocks, framebuffer)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Config file (TOML)")
	rootCmd.Flags().IntVarP(&col, "col", "x", 0, "Column to draw at (0-indexed)")
	rootCmd.Flags().IntVarP(&row, "row", "y", 0, "Row to draw at (0-indexed)")
	rootCmd.Flags().IntVarP(&widthCells, "width", "W", 0, "Width in cells (0 = estimate)")
	rootCmd.Flags().IntVarP(&heightCells, "height", "H", 0, "Height in cells (0 = estimate)")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gfxcat <image>",
	Short: "Draw an image at a cell position with the best terminal graphics backend",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		if verbose {
			log.SetLevel(log.DebugLevel)
		}

		if forceTmux {
			termgfx.ForceTmux(true)
		}

		if err := display(args[0]); err != nil {
			log.Fatal(err.Error())
		}
	},
}

// display renders the image at path. The renderer is always closed before
// returning so the cursor is restored even on failure.
func display(path string) error {
	if err := validatePlacement(col, row, widthCells, heightCells); err != nil {
		return fmt.Errorf("invalid placement: %w", err)
	}

	opts, err := rendererOptions(configPath, backendName, noPlaceholders)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	img, err := loadImage(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	if fit {
		cellW, cellH, ok := csi.CellSize(termgfx.InTmux())
		if !ok {
			cellW, cellH = termgfx.DefaultCharWidth, termgfx.DefaultCharHeight
		}
		img = fitToCells(img, widthCells, heightCells, cellW, cellH)
	}

	log.WithFields(log.Fields{
		"path":   path,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Debug("Image Info")

	r, err := termgfx.NewStdoutRenderer(opts)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.WithError(err).Warn("failed to restore terminal")
		}
	}()

	log.Debugf("Backend: %s", r.GraphicsBackend().Name())

	placement := termgfx.Placement{Col: col, Row: row, WidthCells: widthCells, HeightCells: heightCells}
	if err := r.BeginFrameWithOptions(false); err != nil {
		return fmt.Errorf("failed to begin frame: %w", err)
	}
	if err := r.RenderGoImage(img, placement); err != nil {
		return fmt.Errorf("failed to display image: %w", err)
	}
	if err := r.EndFrame(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	if clear { // Clear the image after displaying it
		time.Sleep(1 * time.Second)

		if err := r.ClearImages(); err != nil {
			return fmt.Errorf("failed to clear image: %w", err)
		}
		if err := r.Flush(); err != nil {
			return fmt.Errorf("failed to clear image: %w", err)
		}
	}
	return nil
}

func validatePlacement(col, row, width, height int) error {
	if col < 0 || row < 0 {
		return fmt.Errorf("col and row must be >= 0, got %d,%d", col, row)
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("width and height must be >= 0, got %d,%d", width, height)
	}
	return nil
}

// rendererOptions layers command line flags over the config file.
// A backend of "auto" leaves selection to detection and TERMGFX_BACKEND.
func rendererOptions(path, backend string, disablePlaceholders bool) (termgfx.RendererOptions, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return termgfx.RendererOptions{}, err
	}
	if backend != "" {
		cfg.SetBackend(backend)
	}
	if disablePlaceholders {
		enabled := false
		cfg.Placeholders = &enabled
	}
	return cfg.RendererOptions()
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	log.Debugf("Decoded %s image", format)
	return img, nil
}

// fitToCells scales img to the pixel area of width x height cells, keeping
// its aspect ratio. Zero cell counts leave that axis unconstrained.
func fitToCells(img image.Image, width, height, cellW, cellH int) image.Image {
	if width == 0 && height == 0 {
		return img
	}
	b := img.Bounds()
	w, h := termgfx.FitSize(b.Dx(), b.Dy(), width*cellW, height*cellH)
	return termgfx.ScaleImage(img, w, h)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
