package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"dceaif/internal/models"
)

// ExtractMaskSlice renders one z-slice of the mask as a binary image,
// white where the mask is set
func ExtractMaskSlice(mask *models.Mask, z int) (image.Image, error) {
	if z < 0 || z >= mask.Z {
		return nil, fmt.Errorf("position %d exceeds depth %d", z, mask.Z)
	}

	img := image.NewGray16(image.Rect(0, 0, mask.X, mask.Y))
	for y := 0; y < mask.Y; y++ {
		for x := 0; x < mask.X; x++ {
			if mask.At(z, y, x) {
				img.SetGray16(x, y, color.Gray16{Y: 65535})
			}
		}
	}
	return img, nil
}

// SaveMaskSlices writes every z-slice of the mask as a PNG into outputDir
func SaveMaskSlices(mask *models.Mask, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for z := 0; z < mask.Z; z++ {
		img, err := ExtractMaskSlice(mask, z)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("mask_z_%03d.png", z))
		file, err := os.Create(filename)
		if err != nil {
			return err
		}
		if err := png.Encode(file, img); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
	}

	return nil
}
