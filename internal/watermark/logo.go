package watermark

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"time"
)

// LoadLogo reads and decodes the logo mark from disk. A missing or
// undecodable file is tolerated and returns nil; the stamper then omits
// the logo.
func LoadLogo(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("logo unavailable: %v", err)
		return nil
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		log.Printf("logo decode failed: %v", err)
		return nil
	}
	return img
}

// FetchLogo retrieves the logo over HTTP. The request carries a hard
// deadline so a stalled download can never hold up compositing; all
// failures return nil.
func FetchLogo(ctx context.Context, url string) image.Image {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("logo request failed: %v", err)
		return nil
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("logo fetch failed: %v", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("logo fetch failed: status %d", resp.StatusCode)
		return nil
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		log.Printf("logo decode failed: %v", err)
		return nil
	}
	return img
}
