// Package screenshot turns the 160x144 RGBA frame buffer into PNG files.
package screenshot

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"

	"github.com/FabianRolfMatthiasNoll/dmgemu/internal/ppu"
)

// Image wraps fb, which must hold ppu.Width*ppu.Height RGBA pixels, without
// copying it.
func Image(fb []byte) (*image.RGBA, error) {
	if len(fb) != ppu.Width*ppu.Height*4 {
		return nil, fmt.Errorf("frame buffer is %d bytes, want %d", len(fb), ppu.Width*ppu.Height*4)
	}
	return &image.RGBA{Pix: fb, Stride: ppu.Width * 4, Rect: image.Rect(0, 0, ppu.Width, ppu.Height)}, nil
}

// Scale returns the frame enlarged by an integer factor with hard pixel edges.
func Scale(fb []byte, scale int) (*image.RGBA, error) {
	src, err := Image(fb)
	if err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, ppu.Width*scale, ppu.Height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Encode writes the frame as a PNG.
func Encode(w io.Writer, fb []byte, scale int) error {
	img, err := Scale(fb, scale)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Save writes the frame to path as a PNG.
func Save(path string, fb []byte, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := Encode(f, fb, scale); err != nil {
		f.Close()
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return f.Close()
}

// SaveTimestamped saves into dir under a name derived from the current time
// and returns the path written.
func SaveTimestamped(dir string, fb []byte, scale int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("screenshot dir: %w", err)
	}
	path := filepath.Join(dir, "screenshot_"+time.Now().Format("20060102_150405.000")+".png")
	return path, Save(path, fb, scale)
}
