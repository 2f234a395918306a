package raster

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferSetAt(t *testing.T) {
	buf := New(3, 2)
	require.NoError(t, buf.Validate())
	assert.Equal(t, 6, buf.Len())

	c := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	buf.Set(2, 1, c)
	assert.Equal(t, c, buf.At(2, 1))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Pix[20:24])

	// Out of range is ignored.
	buf.Set(3, 0, c)
	assert.Equal(t, color.NRGBA{}, buf.At(3, 0))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		buf  *Buffer
		ok   bool
	}{
		{"nil", nil, false},
		{"short", &Buffer{Width: 2, Height: 2, Pix: make([]byte, 15)}, false},
		{"negative", &Buffer{Width: -1, Height: 2}, false},
		{"empty", &Buffer{}, true},
		{"ok", New(4, 4), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.buf.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidBuffer)
			}
		})
	}
}

func TestFromImageConvertsPaletted(t *testing.T) {
	pal := color.Palette{color.NRGBA{A: 255}, color.NRGBA{G: 255, A: 255}}
	img := image.NewPaletted(image.Rect(10, 10, 12, 11), pal)
	img.SetColorIndex(11, 10, 1)

	buf := FromImage(img)
	assert.Equal(t, 2, buf.Width)
	assert.Equal(t, 1, buf.Height)
	assert.Equal(t, color.NRGBA{A: 255}, buf.At(0, 0))
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, buf.At(1, 0))
}

func TestFromImageWrapsPackedNRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	buf := FromImage(img)
	buf.Set(0, 0, color.NRGBA{R: 9, A: 255})
	assert.Equal(t, uint8(9), img.Pix[0])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	buf := New(4, 3)
	buf.Fill(color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	buf.Set(1, 1, color.NRGBA{R: 255, A: 150})

	for _, name := range []string{"diff.png", "diff.tif"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, EncodeFile(path, buf))

			got, err := DecodeFile(path)
			require.NoError(t, err)
			assert.Equal(t, buf.Width, got.Width)
			assert.Equal(t, buf.Height, got.Height)
			assert.Equal(t, buf.Pix, got.Pix)
		})
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")))
	require.Error(t, err)

	var de *DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestDecodeFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.png")
	_, err := DecodeFile(path)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, path, de.Path)
}

func TestDecodePNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{G: 255, A: 255})
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, img))

	buf, err := Decode(&b)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{G: 255, A: 255}, buf.At(0, 0))
}

func TestEncodeUnknownFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, New(1, 1), Format("jpeg2000"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mask.tif")
	require.NoError(t, EncodeFile(path, New(5, 3)))

	cfg, err := DecodeConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Width)
	assert.Equal(t, 3, cfg.Height)

	_, err = DecodeConfigFile(filepath.Join(dir, "missing.png"))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, filepath.Join(dir, "missing.png"), de.Path)
}
