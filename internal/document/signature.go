package document

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"strings"
)

// signature box in points
const (
	signatureMaxW = 250.0
	signatureMaxH = 100.0
)

// largest accepted source raster, per side; decoding allocates width×height
const maxSignatureSide = 4000

var errEmptySignature = errors.New("empty signature payload")

// decodeSignature turns a data URL (or bare base64) raster into an opaque PNG.
func decodeSignature(data string) ([]byte, image.Rectangle, error) {
	payload := strings.TrimSpace(data)
	if strings.HasPrefix(payload, "data:") {
		i := strings.IndexByte(payload, ',')
		if i < 0 {
			return nil, image.Rectangle{}, errors.New("malformed data url")
		}
		payload = payload[i+1:]
	}
	payload = strings.Join(strings.Fields(payload), "")
	if payload == "" {
		return nil, image.Rectangle{}, errEmptySignature
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(payload); err != nil {
			return nil, image.Rectangle{}, fmt.Errorf("decode base64: %w", err)
		}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width > maxSignatureSide || cfg.Height > maxSignatureSide {
		return nil, image.Rectangle{}, fmt.Errorf("signature too large: %dx%d", cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, image.Rectangle{}, errEmptySignature
	}
	// flatten onto white; signature pads export transparent strokes
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, image.Rectangle{}, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), flat.Bounds(), nil
}

// fit scales w×h into the signature box keeping the aspect ratio.
func fit(w, h int) (float64, float64) {
	fw, fh := float64(w), float64(h)
	scale := signatureMaxW / fw
	if s := signatureMaxH / fh; s < scale {
		scale = s
	}
	return fw * scale, fh * scale
}
