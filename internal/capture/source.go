package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
)

var (
	// ErrCameraNotReady reports that no active frame source exists.
	ErrCameraNotReady = errors.New("camera not ready")
	// ErrImageDecode reports that the submitted frame data could not be
	// decoded into an image.
	ErrImageDecode = errors.New("image decode failed")
)

// Source yields exactly one decoded frame per acquisition. The underlying
// stream must be released on every exit path; Release is idempotent.
type Source interface {
	Grab(ctx context.Context) (image.Image, error)
	Release() error
	Active() bool
}

// DataURLSource adapts a device-captured frame, submitted as a base64 data
// URL, to the Source contract. A successful Grab releases the source
// immediately; a second Grab requires a fresh acquisition.
type DataURLSource struct {
	data     string
	released bool
}

// NewDataURL wraps a captured frame payload.
func NewDataURL(data string) *DataURLSource {
	return &DataURLSource{data: data}
}

// Grab decodes the held frame and releases the source.
func (s *DataURLSource) Grab(ctx context.Context) (image.Image, error) {
	if s == nil || s.released || strings.TrimSpace(s.data) == "" {
		return nil, ErrCameraNotReady
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := DecodeDataURL(s.data)
	if err != nil {
		return nil, err
	}
	_ = s.Release()
	return img, nil
}

// Release drops the held frame data. Safe to call multiple times.
func (s *DataURLSource) Release() error {
	s.released = true
	s.data = ""
	return nil
}

// Active reports whether the source still holds an unreleased frame.
func (s *DataURLSource) Active() bool {
	return s != nil && !s.released
}

// DecodeDataURL decodes a "data:image/...;base64,..." payload, or bare
// base64, into an image.
func DecodeDataURL(data string) (image.Image, error) {
	payload := data
	if strings.HasPrefix(data, "data:") {
		idx := strings.Index(data, ",")
		if idx < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrImageDecode)
		}
		payload = data[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return DecodeBytes(raw)
}

// DecodeBytes decodes raw JPEG or PNG bytes into an image.
func DecodeBytes(raw []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-dimension frame", ErrImageDecode)
	}
	return img, nil
}
