package deck

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
)

// RenderOptions controls how slides are rasterized for vision analysis.
type RenderOptions struct {
	DPI       int
	Quality   int
	Grayscale bool
}

// PageCount returns the number of slides in a PDF deck.
func PageCount(pdfPath string) (int, error) {
	n, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("deck page count: %w", err)
	}
	return n, nil
}

// SlideText extracts embedded text from one slide. slideNum is 1-based.
// Slides without a text layer come back empty, which is normal for
// image-heavy decks.
func SlideText(pdfPath string, slideNum int) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("open deck: %w", err)
	}
	defer doc.Close()
	text, err := doc.Text(slideNum - 1)
	if err != nil {
		return "", fmt.Errorf("extract slide %d text: %w", slideNum, err)
	}
	return text, nil
}

// AllSlideTexts extracts embedded text for every slide in one pass.
func AllSlideTexts(pdfPath string) (map[int]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open deck: %w", err)
	}
	defer doc.Close()

	texts := make(map[int]string, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		text, err := doc.Text(i - 1)
		if err != nil {
			log.Warn().Err(err).Int("slide", i).Msg("slide text extraction failed")
			text = ""
		}
		texts[i] = text
	}
	return texts, nil
}

// RenderSlideJPEG rasterizes one slide as an in-memory JPEG. slideNum is
// 1-based (go-fitz indexes from 0).
func RenderSlideJPEG(pdfPath string, slideNum int, opts RenderOptions) ([]byte, error) {
	if opts.DPI <= 0 {
		opts.DPI = 110
	}
	if opts.Quality <= 0 {
		opts.Quality = 80
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open deck: %w", err)
	}
	defer doc.Close()

	img, err := doc.ImageDPI(slideNum-1, float64(opts.DPI))
	if err != nil {
		return nil, fmt.Errorf("render slide %d: %w", slideNum, err)
	}

	var finalImg image.Image = img
	if opts.Grayscale {
		bounds := img.Bounds()
		grayImg := image.NewGray(bounds)
		draw.Draw(grayImg, bounds, img, image.Point{}, draw.Src)
		finalImg = grayImg
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, finalImg, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encode slide %d jpeg: %w", slideNum, err)
	}

	log.Debug().
		Int("slide", slideNum).
		Int("jpeg_size", buf.Len()).
		Int("dpi", opts.DPI).
		Msg("rendered slide")
	return buf.Bytes(), nil
}

// EncodeBase64 converts image bytes into the base64 form providers accept.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
