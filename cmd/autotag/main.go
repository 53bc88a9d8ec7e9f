// autotag writes AI-generated alt-text descriptions into the EXIF
// ImageDescription field of gallery photos.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	_ "image/jpeg"
	_ "image/png"

	_ "github.com/joho/godotenv/autoload"

	"github.com/barasher/go-exiftool"
	"google.golang.org/genai"
	"k8s.io/klog/v2"

	"github.com/mtorvik/fotolinje/pkg/gallery"
)

var (
	dryRun    = flag.Bool("n", false, "dry-run mode, don't write descriptions")
	overwrite = flag.Bool("o", false, "overwrite existing descriptions")
	model     = flag.String("model", "gemini-2.5-flash", "model to caption with")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if len(flag.Args()) != 1 {
		klog.Fatalf("usage: %s [flags] <images_dir>", os.Args[0])
	}
	imagesDir := flag.Args()[0]

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GOOGLE_AI_API_KEY"),
	})
	if err != nil {
		klog.Fatalf("genai client: %v", err)
	}

	cfgs, err := gallery.Scan(imagesDir)
	if err != nil {
		klog.Fatalf("scan: %v", err)
	}

	et, err := exiftool.NewExiftool()
	if err != nil {
		klog.Fatalf("exiftool: %v", err)
	}
	defer func() {
		if err := et.Close(); err != nil {
			klog.Errorf("failed to close exiftool: %v", err)
		}
	}()

	captioned := 0
	for _, cfg := range cfgs {
		path := filepath.Join(imagesDir, cfg.File)

		o := et.ExtractMetadata(path)
		if o[0].Err != nil {
			klog.Errorf("extract %s: %v", path, o[0].Err)
			continue
		}
		if existing, err := o[0].GetString("ImageDescription"); err == nil && existing != "" && !*overwrite {
			klog.V(1).Infof("%s already described: %q", cfg.File, existing)
			continue
		}

		desc, err := gallery.Caption(ctx, client, *model, path)
		if err != nil {
			klog.Errorf("caption %s: %v", cfg.File, err)
			continue
		}

		klog.Infof("describing %s: %q", cfg.File, desc)
		o[0].SetString("ImageDescription", desc)
		if !*dryRun {
			et.WriteMetadata(o)
			if o[0].Err != nil {
				klog.Errorf("failed to write metadata for %s: %v", path, o[0].Err)
				continue
			}
		}
		captioned++
	}

	klog.Infof("autotag completed: described %d of %d photos", captioned, len(cfgs))
}
