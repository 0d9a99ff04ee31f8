package debug

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeSource struct {
	img *image.RGBA
}

func (f fakeSource) Image() *image.RGBA { return f.img }

func TestCaptureWritesPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "buffer")
	sc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC) }

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(3, 1, color.RGBA{B: 255, A: 255})

	name, err := sc.Capture(fakeSource{img: img})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if want := filepath.Join(dir, "buffer_2024-03-01_12-30-05.000.png"); name != want {
		t.Errorf("filename = %q, want %q", name, want)
	}

	f, err := os.Open(name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	got, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Bounds() != img.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), img.Bounds())
	}
	if r, _, _, _ := got.At(0, 0).RGBA(); r>>8 != 255 {
		t.Errorf("top-left red = %d, want 255", r>>8)
	}
	if _, _, b, _ := got.At(3, 1).RGBA(); b>>8 != 255 {
		t.Errorf("bottom-right blue = %d, want 255", b>>8)
	}
}

func TestFilenameWithoutDir(t *testing.T) {
	sc := NewScreenshotCapture("", "map")
	name := sc.Filename()
	if filepath.Dir(name) != "." {
		t.Errorf("filename %q has a directory", name)
	}
	if !strings.HasPrefix(name, "map_") || !strings.HasSuffix(name, ".png") {
		t.Errorf("filename %q does not match map_*.png", name)
	}
}

func TestCaptureBadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	sc := NewScreenshotCapture(filepath.Join(file, "sub"), "x")
	if _, err := sc.CaptureImage(image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected error for output dir under a regular file")
	}
}
