// Package texture decodes images and manages GL texture objects.
package texture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/draw"
)

// Options controls sampling of an uploaded texture.
type Options struct {
	// Repeat wraps horizontally, for textures that span a full turn of
	// longitude. Everything else clamps to the edge.
	Repeat bool
	Mipmap bool
}

// ToRGBA returns img as tightly packed RGBA, converting when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// Decode reads an image file from disk.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", path, err)
	}
	return img, nil
}

// LoadFile decodes an image file and uploads it.
func LoadFile(path string, opts Options) (uint32, error) {
	img, err := Decode(path)
	if err != nil {
		return 0, err
	}
	return Upload(img, opts)
}

// Upload creates a texture from img. Row 0 of the image becomes v=0.
func Upload(img image.Image, opts Options) (uint32, error) {
	rgba := ToRGBA(img)
	w, h := int32(rgba.Rect.Dx()), int32(rgba.Rect.Dy())
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("uploading texture: empty image")
	}

	var id uint32
	gl.GenTextures(1, &id)
	unbind := Bind(0, id)
	defer unbind()

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))

	wrapS := int32(gl.CLAMP_TO_EDGE)
	if opts.Repeat {
		wrapS = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapS)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	if opts.Mipmap {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}

	if e := gl.GetError(); e != gl.NO_ERROR {
		gl.DeleteTextures(1, &id)
		return 0, fmt.Errorf("uploading texture: gl error 0x%x", e)
	}
	return id, nil
}

// Bind binds texture id to the given unit and returns a function restoring
// whatever was bound there before. Pair it with defer.
func Bind(unit uint32, id uint32) func() {
	var prevUnit int32
	gl.GetIntegerv(gl.ACTIVE_TEXTURE, &prevUnit)

	gl.ActiveTexture(gl.TEXTURE0 + unit)
	var prev int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &prev)
	gl.BindTexture(gl.TEXTURE_2D, id)

	return func() {
		gl.ActiveTexture(gl.TEXTURE0 + unit)
		gl.BindTexture(gl.TEXTURE_2D, uint32(prev))
		gl.ActiveTexture(uint32(prevUnit))
	}
}

// Delete releases a texture.
func Delete(id uint32) {
	if id != 0 {
		gl.DeleteTextures(1, &id)
	}
}
