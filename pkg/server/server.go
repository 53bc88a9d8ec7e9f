// Package server exposes a built gallery over HTTP: the rendered page and
// assets, the photo list API the loader consumes, and a caching reverse
// geocoding proxy.
package server

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/mtorvik/fotolinje/pkg/gallery"
	"github.com/mtorvik/fotolinje/pkg/geocode"
)

// RolloverPoll is how often the server checks whether the wall clock crossed
// into a new calendar month, which requires a timeline rebuild. There is no
// event for this; polling is the only option.
var RolloverPoll = time.Minute

// Server serves a gallery and rebuilds it on month rollover.
type Server struct {
	cfg *gallery.Config
	geo *geocode.Client

	mu sync.RWMutex
	g  *gallery.Gallery
}

// New creates a server for an already-built gallery. geo may be nil; the
// locate endpoint then degrades to formatted coordinates.
func New(cfg *gallery.Config, g *gallery.Gallery, geo *geocode.Client) *Server {
	return &Server{cfg: cfg, g: g, geo: geo}
}

// Gallery returns the currently served build.
func (s *Server) Gallery() *gallery.Gallery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g
}

// SetGallery swaps in a new build.
func (s *Server) SetGallery(g *gallery.Gallery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g = g
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.StaticFile("/", filepath.Join(s.cfg.OutDir, "index.html"))
	r.Static("/images", filepath.Join(s.cfg.OutDir, "images"))
	r.Static("/_", filepath.Join(s.cfg.OutDir, "_"))

	r.GET("/api/photos", s.photosHandler)
	r.GET("/api/locate", s.locateHandler)

	return r
}

// photosHandler serves the declared photo list: filename plus effective
// date for every loaded record.
func (s *Server) photosHandler(c *gin.Context) {
	g := s.Gallery()

	out := []gallery.PhotoConfig{}
	for _, p := range g.Photos {
		out = append(out, gallery.PhotoConfig{
			File: p.File,
			Date: p.Date.Format(gallery.DateFormat),
		})
	}
	c.JSON(http.StatusOK, out)
}

// locateHandler reverse-geocodes a coordinate pair. It never fails: bad or
// unresolvable input comes back as a formatted coordinate string.
func (s *Server) locateHandler(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}

	place := geocode.FormatCoords(lat, lon)
	if s.geo != nil {
		place = s.geo.Locate(c.Request.Context(), lat, lon)
	}
	c.JSON(http.StatusOK, gin.H{"place": place})
}

// Run serves until ctx is canceled, rebuilding the gallery whenever the
// calendar month rolls over.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.watchRollover(ctx)

	srv := &http.Server{Addr: addr, Handler: s.Router()}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			klog.Errorf("shutdown: %v", err)
		}
	}()

	klog.Infof("listening on %s...", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) watchRollover(ctx context.Context) {
	t := time.NewTicker(RolloverPoll)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if !s.Gallery().Timeline.Stale(now) {
				continue
			}
			klog.Infof("calendar month rolled over, rebuilding timeline")
			g, err := gallery.Build(ctx, s.cfg)
			if err != nil {
				klog.Errorf("rebuild failed: %v", err)
				continue
			}
			if err := gallery.Render(s.cfg, g); err != nil {
				klog.Errorf("re-render failed: %v", err)
				continue
			}
			s.SetGallery(g)
		}
	}
}
