package glbpack

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

const (
	mimeJPEG = "image/jpeg"
	mimePNG  = "image/png"
)

// recompressImages re-encodes every embedded image at the planned quality,
// keeping whichever encoding is smaller. Failures degrade to passthrough
// with a warning; a bad image never aborts the run.
func recompressImages(doc *Document, plan Plan, rep *Report, cfg *compressConfig) error {
	total := len(doc.Images)
	for i := range doc.Images {
		if cfg.canceled() {
			return ErrCanceled
		}
		recompressImage(doc, i, plan, rep, cfg)
		cfg.report(StageImage, i+1, total)
	}
	return nil
}

func recompressImage(doc *Document, i int, plan Plan, rep *Report, cfg *compressConfig) {
	label := fmt.Sprintf("image %d", i)
	img := &doc.Images[i]

	data, err := imageData(doc, img)
	if err != nil {
		rep.warnf(label, "passthrough: %v", err)
		return
	}

	imgCfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		rep.warnf(label, "passthrough: unsupported image format: %v", err)
		return
	}
	if px := int64(imgCfg.Width) * int64(imgCfg.Height); px > cfg.limits.MaxImagePixels {
		rep.warnf(label, "passthrough: %d pixels exceeds limit", px)
		return
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		rep.warnf(label, "passthrough: decode failed: %v", err)
		return
	}

	best := data
	mime := img.MimeType
	if mime == "" {
		mime = "image/" + format
	}
	switch format {
	case "jpeg":
		if enc, err := encodeJPEG(decoded, plan.ImageQuality); err == nil && len(enc) < len(best) {
			best, mime = enc, mimeJPEG
		}
	case "png":
		if enc, err := encodePNG(decoded); err == nil && len(enc) < len(best) {
			best, mime = enc, mimePNG
		}
		if plan.ConvertOpaquePNG && isOpaque(decoded) {
			if enc, err := encodeJPEG(decoded, plan.ImageQuality); err == nil && len(enc) < len(best) {
				best, mime = enc, mimeJPEG
			}
		}
	default:
		rep.warnf(label, "passthrough: unsupported image format %q", format)
		return
	}

	if len(best) >= len(data) && img.BufferView != nil {
		return
	}
	vi := doc.addView(best, nil)
	img.BufferView = &vi
	img.MimeType = mime
	img.URI = ""
}

// imageData resolves an image's bytes from its bufferView or data URI.
// External file references cannot be recompressed here.
func imageData(doc *Document, img *Image) ([]byte, error) {
	if img.BufferView != nil {
		return doc.viewBytes(*img.BufferView), nil
	}
	if strings.HasPrefix(img.URI, "data:") {
		comma := strings.IndexByte(img.URI, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed data URI")
		}
		if !strings.HasSuffix(img.URI[:comma], ";base64") {
			return nil, fmt.Errorf("data URI is not base64")
		}
		return base64.StdEncoding.DecodeString(img.URI[comma+1:])
	}
	return nil, fmt.Errorf("external image reference %q", img.URI)
}

func encodeJPEG(m image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, m, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(m image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isOpaque(m image.Image) bool {
	if o, ok := m.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := m.At(x, y).RGBA(); a != 0xFFFF {
				return false
			}
		}
	}
	return true
}
