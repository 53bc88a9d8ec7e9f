package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

func isPhotoFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".heic":
		return true
	}
	return false
}

// Scan walks an images directory and builds the declared photo list, dating
// each file from its EXIF capture time with the file modification time as
// fallback. This is what /api/photos serves.
func Scan(root string) ([]PhotoConfig, error) {
	found := []PhotoConfig{}

	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	defer et.Close()

	err = godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if filepath.Base(path)[0] == '.' {
				return godirwalk.SkipThis
			}
			if de.IsDir() || !isPhotoFile(path) {
				return nil
			}

			klog.V(1).Infof("found %s", path)
			date := captureDate(path, et)
			if date == "" {
				fi, err := os.Stat(path)
				if err != nil {
					klog.Errorf("stat failure: %v", err)
					return err
				}
				date = fi.ModTime().Format(DateFormat)
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			found = append(found, PhotoConfig{File: rel, Date: date})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Date < found[j].Date
	})

	klog.Infof("scanned %d photos under %s", len(found), root)
	return found, nil
}

// captureDate pulls the EXIF capture date from a file, trying the original,
// digitized and plain timestamps in order.
func captureDate(path string, et *exiftool.Exiftool) string {
	fis := et.ExtractMetadata(path)
	fi := fis[0]
	if fi.Err != nil {
		klog.V(1).Infof("extract fail for %q: %v", path, fi.Err)
		return ""
	}

	for _, field := range []string{"DateTimeOriginal", "CreateDate", "ModifyDate"} {
		ds, err := fi.GetString(field)
		if err != nil {
			continue
		}
		t, err := time.Parse(exifDate, ds)
		if err != nil {
			klog.V(1).Infof("parse %s %q for %s: %v", field, ds, path, err)
			continue
		}
		return t.Format(DateFormat)
	}
	return ""
}
