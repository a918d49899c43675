package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
)

// GenerateImageHash fingerprints an image's pixels and size. Two renders of
// the same frame produce the same hash.
func GenerateImageHash(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("cannot hash nil image")
	}
	hasher := sha256.New()
	bounds := img.Bounds()
	fmt.Fprintf(hasher, "%dx%d:", bounds.Dx(), bounds.Dy())

	if rgba, ok := img.(*image.RGBA); ok {
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			start := rgba.PixOffset(bounds.Min.X, y)
			hasher.Write(rgba.Pix[start : start+4*bounds.Dx()])
		}
		return hex.EncodeToString(hasher.Sum(nil)), nil
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			fmt.Fprintf(hasher, "%d%d%d%d", r, g, b, a)
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashBytes fingerprints a document source so archives can tell documents
// with the same name apart.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
