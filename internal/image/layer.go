// Package image loads the photographs and region masks fed to the warp and
// renders diagnostic overlays of its output.
package image

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"drag-warp/internal/mask"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Layer is a decoded input image.
type Layer struct {
	Path   string      // Original file path
	Format string      // Decoder name reported by image.Decode
	Image  image.Image // Loaded image data
}

// Load loads an image from the specified path.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Layer{Path: path, Format: format, Image: img}, nil
}

// Width returns the image width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// ToMat converts the layer to a BGR gocv.Mat. The caller must Close it.
func (l *Layer) ToMat() (gocv.Mat, error) {
	return ImageToMat(l.Image)
}

// ToMask binarizes the layer's luminance: pixels brighter than threshold are set.
func (l *Layer) ToMask(threshold uint8) *mask.Mask {
	b := l.Image.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), l.Image, b.Min, draw.Src)
	return mask.FromGray(gray, threshold)
}

// ImageToMat converts a Go image.Image to a gocv.Mat in BGR format.
func ImageToMat(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return gocv.NewMat(), fmt.Errorf("image has no pixels")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)
	return bgr, nil
}

// MatToImage converts a BGR gocv.Mat back to an RGBA image.
func MatToImage(mat gocv.Mat) (*image.RGBA, error) {
	if mat.Empty() || mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("expected non-empty 8-bit BGR mat")
	}
	rgbaMat := gocv.NewMat()
	defer rgbaMat.Close()
	gocv.CvtColor(mat, &rgbaMat, gocv.ColorBGRToRGBA)

	img := image.NewRGBA(image.Rect(0, 0, mat.Cols(), mat.Rows()))
	copy(img.Pix, rgbaMat.ToBytes())
	return img, nil
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".bmp", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
