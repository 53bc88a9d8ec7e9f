// fotolinje builds a photo timeline gallery from a directory of images and
// optionally serves it, rebuilding on changes.
package main

import (
	"context"
	"flag"
	"os"
	"sync"

	_ "image/jpeg"
	_ "image/png"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"

	"github.com/mtorvik/fotolinje/pkg/gallery"
	"github.com/mtorvik/fotolinje/pkg/geocode"
	"github.com/mtorvik/fotolinje/pkg/server"
)

var (
	imagesDir   = flag.String("images", "", "Location of the images directory")
	outDir      = flag.String("out", "", "Location of output directory")
	title       = flag.String("title", "fotolinje 📷", "Title of the gallery")
	description = flag.String("description", "", "Description of the gallery")
	listen      = flag.Bool("listen", false, "serve content via HTTP")
	addr        = flag.String("addr", "localhost:12801", "host:port to bind to in listen mode")
	watchFlag   = flag.Bool("watch", false, "watch for changes to the images directory and rebuild")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *imagesDir == "" {
		klog.Exitf("--images is a required flag")
	}

	if *outDir == "" {
		klog.Exitf("--out is a required flag")
	}

	c := &gallery.Config{
		ImagesDir:   *imagesDir,
		OutDir:      *outDir,
		Title:       *title,
		Description: *description,
	}

	ctx := context.Background()

	g, err := gallery.Build(ctx, c)
	if err != nil {
		klog.Exitf("build failed: %v", err)
	}

	if err := gallery.Render(c, g); err != nil {
		klog.Exitf("render failed: %v", err)
	}

	var wg sync.WaitGroup
	srv := server.New(c, g, geocodeClient())

	if *watchFlag {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := watch(ctx, c, srv); err != nil {
				klog.Errorf("watch failed: %v", err)
			}
		}()
	}

	if *listen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx, *addr); err != nil {
				klog.Exitf("listen failed: %v", err)
			}
		}()
	}

	wg.Wait()
}

// geocodeClient wires the reverse-geocoding proxy from the environment;
// location lookup is optional and quietly absent without it.
func geocodeClient() *geocode.Client {
	ua := os.Getenv("GEOCODE_USER_AGENT")
	if ua == "" {
		return nil
	}

	var cache *geocode.Cache
	if p := os.Getenv("GEOCODE_CACHE"); p != "" {
		var err error
		cache, err = geocode.OpenCache(p)
		if err != nil {
			klog.Warningf("geocode cache unavailable: %v", err)
		}
	}

	return geocode.New(os.Getenv("GEOCODE_URL"), ua, cache)
}

// watch rebuilds and re-renders whenever the images directory changes.
func watch(ctx context.Context, c *gallery.Config, srv *server.Server) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(c.ImagesDir); err != nil {
		return err
	}
	klog.Infof("watching %s ...", c.ImagesDir)

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			klog.V(1).Infof("event: %v", event)
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			g, err := gallery.Build(ctx, c)
			if err != nil {
				klog.Errorf("build failed: %v", err)
				continue
			}
			if err := gallery.Render(c, g); err != nil {
				klog.Errorf("render failed: %v", err)
				continue
			}
			srv.SetGallery(g)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			klog.Errorf("watch error: %v", err)
		}
	}
}
