package grid

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"
)

// DefaultQRSize is the edge length in pixels of generated QR codes.
const DefaultQRSize = 256

// QRFileName is the file WriteQRCodes uses for c.
func QRFileName(c Cell) string {
	return fmt.Sprintf("cell_%03d_%s.png", c.ID, c.Label)
}

// WriteQRCodes writes one PNG per cell encoding its GeoURI, so field teams
// can navigate to a cell center from a printed sheet.
func WriteQRCodes(dir string, cells []Cell, size int) error {
	if size <= 0 {
		size = DefaultQRSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, c := range cells {
		path := filepath.Join(dir, QRFileName(c))
		if err := qrcode.WriteFile(c.GeoURI(), qrcode.Medium, size, path); err != nil {
			return fmt.Errorf("qr for cell %d: %w", c.ID, err)
		}
	}
	return nil
}
