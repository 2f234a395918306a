package raster

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnknownFormat is returned by Encode for formats it cannot write.
var ErrUnknownFormat = errors.New("unknown raster format")

// DecodeError reports a mask that could not be turned into pixels.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Format names an output encoding.
type Format string

const (
	PNG  Format = "png"
	TIFF Format = "tiff"
)

// FormatFromPath picks an output format from a file extension, defaulting to PNG.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return TIFF
	default:
		return PNG
	}
}

// Decode reads any registered image format (png, jpeg, gif, tiff, bmp, webp).
func Decode(r io.Reader) (*Buffer, error) {
	img, _, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	buf := FromImage(img)
	if buf.Len() == 0 {
		return nil, &DecodeError{Err: errors.New("empty image")}
	}
	return buf, nil
}

// DecodeConfigFile reads only the header of the image stored at path.
func DecodeConfigFile(path string) (image.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return image.Config{}, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return image.Config{}, &DecodeError{Path: path, Err: err}
	}
	return cfg, nil
}

// DecodeFile decodes the image stored at path.
func DecodeFile(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	buf, err := Decode(f)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	return buf, nil
}

// Encode writes buf to w in the requested format.
func Encode(w io.Writer, buf *Buffer, format Format) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	switch format {
	case PNG, "":
		return png.Encode(w, buf.Image())
	case TIFF:
		return tiff.Encode(w, buf.Image(), &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// EncodeFile writes buf to path, choosing the format from the extension.
func EncodeFile(path string, buf *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := Encode(w, buf, FormatFromPath(path)); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
