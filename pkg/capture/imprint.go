package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/url"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/root4loot/galleryshot/pkg/browser"
)

const (
	imprintPadding  = 20
	imprintBorder   = 1
	imprintFontSize = 14
)

// Origin returns scheme://host of rawURL without the default port.
func Origin(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}

	host := parsedURL.Host
	port := parsedURL.Port()
	if (parsedURL.Scheme == "http" && port == "80") || (parsedURL.Scheme == "https" && port == "443") {
		host = strings.TrimSuffix(host, ":"+port)
	}

	return parsedURL.Scheme + "://" + host, nil
}

// Imprint adds a white band with text under the image and re-encodes it in
// the given format.
func Imprint(img []byte, text, format string, quality int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	face, err := imprintFace()
	if err != nil {
		return nil, err
	}

	w := src.Bounds().Dx()
	h := src.Bounds().Dy() + imprintPadding*2 + imprintBorder
	dc := gg.NewContext(w, h)

	dc.DrawImage(src, 0, 0)

	yLine := float64(src.Bounds().Dy())
	dc.SetColor(color.White)
	dc.DrawRectangle(0, yLine, float64(w), float64(h)-yLine)
	dc.Fill()
	dc.SetColor(color.Black)
	dc.SetLineWidth(imprintBorder)
	dc.DrawLine(0, yLine, float64(w), yLine)
	dc.Stroke()
	dc.SetFontFace(face)
	dc.DrawStringAnchored(text, float64(w)/2, yLine+imprintPadding, 0.5, 0.3)

	var buf bytes.Buffer
	if format == browser.FormatJPEG {
		err = jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: quality})
	} else {
		err = png.Encode(&buf, dc.Image())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

var imprintFace = sync.OnceValues(func() (font.Face, error) {
	ttFont, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	return truetype.NewFace(ttFont, &truetype.Options{
		Size: imprintFontSize,
	}), nil
})
