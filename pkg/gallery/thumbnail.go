package gallery

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

var modTimeFormat = "150405"

// ThumbMeta describes a generated thumbnail.
type ThumbMeta struct {
	X       int
	Y       int
	RelPath string
	Path    string
}

// ThumbOpts are thumbnail options.
type ThumbOpts struct {
	X       int
	Y       int
	Quality int
}

// DefaultThumbOpts covers the gallery's three uses: timeline tick previews,
// the mobile grid, and the main viewing pane.
var DefaultThumbOpts = map[string]ThumbOpts{
	"Tick": {Y: 120, Quality: 70},
	"Grid": {Y: 360, Quality: 80},
	"View": {X: 2048, Quality: 85},
}

// Thumbnails generates (or reuses) the thumbnail set for one photo and copies
// the original into the output tree. Thumb file names carry the source mtime
// so stale browser caches bust themselves.
func Thumbnails(c *Config, rec *PhotoRecord) (map[string]ThumbMeta, error) {
	opts := c.Thumbnails
	if opts == nil {
		opts = DefaultThumbOpts
	}

	inPath := filepath.Join(c.ImagesDir, rec.File)
	fullDest := filepath.Join(c.OutDir, "images", urlSafePath(rec.File))
	klog.V(1).Infof("creating thumbnails for %s in %s", inPath, c.OutDir)

	sst, err := os.Stat(inPath)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	dst, err := os.Stat(fullDest)
	updated := false

	if err != nil {
		updated = true
		klog.V(1).Infof("updating %s: does not exist", fullDest)
	}

	if err == nil && sst.Size() != dst.Size() {
		updated = true
		klog.Infof("updating %s: size mismatch", fullDest)
	}

	if err == nil && sst.ModTime().After(dst.ModTime()) {
		updated = true
		klog.Infof("updating %s: source newer", fullDest)
	}

	if updated {
		if err := copy.Copy(inPath, fullDest); err != nil {
			return nil, fmt.Errorf("copy: %w", err)
		}
	}

	var img image.Image
	thumbs := map[string]ThumbMeta{}

	for name, t := range opts {
		relPath := thumbRelPath(rec.File, sst.ModTime().Format(modTimeFormat), t)
		fullPath := filepath.Join(c.OutDir, relPath)

		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}

		st, err := os.Stat(fullPath)
		if err == nil && st.Size() > int64(128) && !updated {
			klog.V(1).Infof("%s exists (%d bytes)", fullPath, st.Size())
			rt, err := readThumb(fullPath)
			if err == nil {
				rt.RelPath = relPath
				thumbs[name] = *rt
				continue
			}
			klog.Warningf("unable to read thumb: %v", err)
		}

		if img == nil {
			img, err = imgio.Open(inPath)
			if err != nil {
				return nil, fmt.Errorf("imgio.Open: %w", err)
			}
		}

		ct, err := createThumb(img, fullPath, t)
		if err != nil {
			return nil, fmt.Errorf("create thumb: %w", err)
		}

		ct.RelPath = relPath
		thumbs[name] = *ct
		klog.V(1).Infof("created thumb: %+v", ct)
	}

	return thumbs, nil
}

func createThumb(i image.Image, path string, t ThumbOpts) (*ThumbMeta, error) {
	klog.V(1).Infof("creating %dx%d thumb: %s", t.X, t.Y, path)
	x := t.X
	y := t.Y

	if i.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("no Y for %+v", i)
	}

	if i.Bounds().Dx() == 0 {
		return nil, fmt.Errorf("no X for %+v", i)
	}

	if t.X == 0 {
		scale := float64(i.Bounds().Dy()) / float64(t.Y)
		x = int(float64(i.Bounds().Dx()) / scale)
	}

	if t.Y == 0 {
		scale := float64(i.Bounds().Dx()) / float64(t.X)
		y = int(float64(i.Bounds().Dy()) / scale)
	}

	rimg := transform.Resize(i, x, y, transform.Lanczos)
	if err := imgio.Save(path, rimg, imgio.JPEGEncoder(t.Quality)); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	return &ThumbMeta{X: rimg.Bounds().Dx(), Y: rimg.Bounds().Dy(), Path: path}, nil
}

func readThumb(path string) (*ThumbMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode: %w", err)
	}

	return &ThumbMeta{X: ic.Width, Y: ic.Height, Path: path}, nil
}

// thumbRelPath returns a relative path for a thumbnail, encoding dimensions
// and source mtime for cache busting.
func thumbRelPath(file string, mtime string, t ThumbOpts) string {
	base := filepath.Base(file)
	ext := filepath.Ext(base)
	noExt := strings.TrimSuffix(base, ext)

	thumbDir := filepath.Join("images", filepath.Dir(file), "_")
	dimensions := ""
	if t.X != 0 {
		dimensions = fmt.Sprintf("x%d", t.X)
	}
	if t.Y != 0 {
		dimensions = fmt.Sprintf("y%d", t.Y)
	}

	newBase := fmt.Sprintf("%s@%s_%s.jpg", noExt, dimensions, mtime)
	return urlSafePath(filepath.Join(thumbDir, newBase))
}

// urlSafePath normalizes a relative path so it is safe to use directly in
// URLs.
func urlSafePath(p string) string {
	r := strings.NewReplacer(" ", "_", "'", "", "#", "", "?", "", "&", "and")
	return r.Replace(p)
}
