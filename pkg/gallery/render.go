package gallery

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

//go:embed assets/gallery.tmpl
var galleryTmpl string

//go:embed assets/style.css
var styleText string

var assetsDir = "pkg/gallery/assets"

// Render writes the gallery page and its static assets to the output
// directory.
func Render(c *Config, g *Gallery) error {
	if err := copyAssets(assetsDir, c.OutDir); err != nil {
		return fmt.Errorf("copyAssets: %w", err)
	}

	bs, err := renderGallery(c, g)
	if err != nil {
		return fmt.Errorf("render gallery: %w", err)
	}

	p := filepath.Join(c.OutDir, "index.html")
	klog.V(1).Infof("writing gallery page to %s", p)
	return os.WriteFile(p, bs, 0o644)
}

func copyAssets(inDir string, outDir string) error {
	for _, ext := range []string{"png", "css", "jpg", "gif", "js"} {
		src := fmt.Sprintf("%s/*.%s", inDir, ext)
		ms, err := filepath.Glob(src)
		klog.V(1).Infof("copying %d assets from %s", len(ms), src)
		if err != nil {
			return err
		}
		for _, m := range ms {
			if err := copy.Copy(m, filepath.Join(outDir, "_", filepath.Base(m))); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderGallery(c *Config, g *Gallery) ([]byte, error) {
	tmpl, err := template.New("gallery").Funcs(tmplFunctions()).Parse(galleryTmpl)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	current := len(g.Photos) - 1

	data := struct {
		Title       string
		Description string
		Gallery     *Gallery
		Groups      []YearGroup
		Current     int
		Style       template.CSS
	}{
		Title:       c.Title,
		Description: c.Description,
		Gallery:     g,
		Groups:      GroupByYear(g.Photos),
		Current:     current,
		Style:       template.CSS(styleText),
	}

	var tpl bytes.Buffer
	if err = tmpl.Execute(&tpl, data); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	return tpl.Bytes(), nil
}

// tmplFunctions are functions available to our templates.
func tmplFunctions() template.FuncMap {
	return template.FuncMap{
		"Thumb": func(p PhotoRecord, name string) string {
			t, ok := p.Thumbs[name]
			if !ok {
				return p.Src
			}
			return "/" + t.RelPath
		},
		"TickLabel": func(b MonthBucket, active int) string {
			return b.Label(!b.Empty() && containsIndex(b, active))
		},
		"IsActive": func(b MonthBucket, active int) bool {
			return containsIndex(b, active)
		},
		"FmtDate": func(p PhotoRecord) string {
			return p.Date.Format("January 2, 2006")
		},
		"Aspect": aspectLabel,
		"Inc": func(i int) int {
			return i + 1
		},
	}
}

func containsIndex(b MonthBucket, idx int) bool {
	for _, p := range b.Photos {
		if p.GlobalIndex == idx {
			return true
		}
	}
	return false
}

// aspectLabel names common aspect ratios, falling back to the reduced
// fraction.
func aspectLabel(w, h int) string {
	if w <= 0 || h <= 0 {
		return ""
	}
	ratio := float64(w) / float64(h)
	for _, c := range []struct {
		ratio float64
		label string
	}{
		{16.0 / 9.0, "16:9"},
		{4.0 / 3.0, "4:3"},
		{3.0 / 2.0, "3:2"},
		{1.0, "1:1"},
		{21.0 / 9.0, "21:9"},
	} {
		if ratio > c.ratio-0.01 && ratio < c.ratio+0.01 {
			return c.label
		}
	}
	d := gcd(w, h)
	return fmt.Sprintf("%d:%d", w/d, h/d)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
