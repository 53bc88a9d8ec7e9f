package gallery

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

// ProbeResult is what loading one photo file yields: pixel dimensions, and
// EXIF metadata when the file carries any.
type ProbeResult struct {
	Width  int
	Height int
	Exif   *Exif
}

// Prober resolves a photo file into dimensions and metadata. A returned error
// means the image could not be decoded at all; a missing or unreadable EXIF
// block is not an error, just a nil Exif.
type Prober interface {
	Probe(path string) (ProbeResult, error)
}

// FileProber probes image files on disk using the stdlib image decoders for
// dimensions and exiftool for metadata.
type FileProber struct {
	mu sync.Mutex // the stayopen exiftool process handles one request at a time
	et *exiftool.Exiftool
}

// NewFileProber starts an exiftool-backed prober. Close releases the
// underlying exiftool process.
func NewFileProber() (*FileProber, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &FileProber{et: et}, nil
}

func (p *FileProber) Close() error {
	return p.et.Close()
}

func (p *FileProber) Probe(path string) (ProbeResult, error) {
	r := ProbeResult{}

	f, err := os.Open(path)
	if err != nil {
		return r, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return r, fmt.Errorf("decode %q: %w", path, err)
	}
	r.Width = ic.Width
	r.Height = ic.Height

	e, err := p.readExif(path)
	if err != nil {
		klog.V(1).Infof("no exif for %s: %v", path, err)
		return r, nil
	}
	r.Exif = e
	return r, nil
}

func (p *FileProber) readExif(path string) (*Exif, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fis := p.et.ExtractMetadata(path)
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(2).Infof("%q=%v", k, v)
	}

	e := &Exif{}
	var err error

	e.Make, err = fi.GetString("Make")
	if err != nil {
		klog.V(1).Infof("unable to get make for %s: %v", path, err)
	}

	e.Model, err = fi.GetString("Model")
	if err != nil {
		klog.V(1).Infof("unable to get model for %s: %v", path, err)
	}

	e.LensModel, _ = fi.GetString("LensModel")

	e.ISO, err = fi.GetInt("ISO")
	if err != nil {
		klog.V(1).Infof("unable to get ISO for %s: %v", path, err)
	}

	e.Aperture, err = fi.GetFloat("FNumber")
	if err != nil {
		klog.V(1).Infof("unable to get aperture for %s: %v", path, err)
	}

	e.ShutterSpeed, err = fi.GetString("ExposureTime")
	if err != nil {
		klog.V(1).Infof("unable to get shutter speed for %s: %v", path, err)
	}

	e.FocalLength, _ = fi.GetString("FocalLength")
	e.Flash, _ = fi.GetString("Flash")
	e.ColorSpace, _ = fi.GetString("ColorSpace")
	e.Software, _ = fi.GetString("Software")

	lat, latErr := fi.GetFloat("GPSLatitude")
	lon, lonErr := fi.GetFloat("GPSLongitude")
	if latErr == nil && lonErr == nil {
		e.GPS = &GPS{Lat: lat, Lon: lon}
	}

	ds, err := fi.GetString("DateTimeOriginal")
	if err != nil {
		klog.V(1).Infof("unable to get date time for %s: %v", path, err)
		return e, nil
	}

	taken, err := time.Parse(exifDate, ds)
	if err != nil {
		return e, fmt.Errorf("parse time %q: %w", ds, err)
	}
	e.Taken = taken

	return e, nil
}

var _ Prober = &FileProber{}
