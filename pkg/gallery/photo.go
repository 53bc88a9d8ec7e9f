package gallery

import "time"

// DateFormat is the wire format for photo dates.
var DateFormat = "2006-01-02"

// PhotoConfig declares a photo before loading: a filename and an optional
// ISO date. The list is either embedded in configuration or served by
// the /api/photos endpoint.
type PhotoConfig struct {
	File string `json:"file"`
	Date string `json:"date,omitempty"`
}

// GPS holds decimal-degree coordinates from EXIF.
type GPS struct {
	Lat float64
	Lon float64
}

// Exif is the structured metadata extracted from an image file.
type Exif struct {
	Make         string
	Model        string
	LensModel    string
	ISO          int64
	Aperture     float64
	ShutterSpeed string
	FocalLength  string
	Flash        string
	ColorSpace   string
	Software     string
	Taken        time.Time
	GPS          *GPS
}

// PhotoRecord is a fully resolved photo: decoded dimensions, resolved URL and
// metadata. Records are immutable after loading; the collection is replaced
// wholesale on reload.
type PhotoRecord struct {
	File string

	// Date is the effective date: the config date when supplied, otherwise
	// the EXIF capture date.
	Date time.Time

	// GlobalIndex is the record's position in the date-sorted collection.
	// It is stable only within one load cycle.
	GlobalIndex int

	Width  int
	Height int
	Src    string
	Exif   *Exif

	Thumbs map[string]ThumbMeta
}
