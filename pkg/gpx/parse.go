// Package gpx reads GPX 1.0 and 1.1 track files into points.
package gpx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"mindbody-backend/pkg/recordstore"
)

// GenericSource labels files whose metadata names no known vendor.
const GenericSource = "generic_gpx"

// TimeField identifies a point within a track import.
const TimeField = "time"

// Columns is the column order of a point record.
var Columns = []string{"lat", "lon", "elevation", TimeField}

var ErrNoPoints = errors.New("gpx file contains no track or route points")

// vendor substrings, matched case-insensitively against creator and metadata text
var vendors = []struct {
	needle string
	label  string
}{
	{"strava", "strava_gpx"},
	{"garmin", "garmin_gpx"},
	{"nike", "nike_gpx"},
	{"runtastic", "adidas_gpx"},
	{"adidas", "adidas_gpx"},
	{"decathlon", "decathlon_gpx"},
	{"polar", "polar_gpx"},
	{"suunto", "suunto_gpx"},
	{"coros", "coros_gpx"},
	{"apple", "apple_gpx"},
	{"komoot", "komoot_gpx"},
	{"wahoo", "wahoo_gpx"},
}

type Point struct {
	Lat       float64
	Lon       float64
	Elevation *float64
	Time      string
}

type Track struct {
	Name        string
	SourceLabel string
	Points      []Point
}

// Records flattens the track into table rows.
func (t *Track) Records() []recordstore.Record {
	out := make([]recordstore.Record, 0, len(t.Points))
	for _, p := range t.Points {
		rec := recordstore.Record{
			"lat":     recordstore.FormatValue(p.Lat),
			"lon":     recordstore.FormatValue(p.Lon),
			TimeField: p.Time,
		}
		if p.Elevation != nil {
			rec["elevation"] = recordstore.FormatValue(*p.Elevation)
		} else {
			rec["elevation"] = ""
		}
		out = append(out, rec)
	}
	return out
}

// Parse decodes a GPX document. Any point lacking a valid lat or lon fails the whole
// parse so a broken file never produces a partial import.
func Parse(data []byte) (*Track, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	track := &Track{}
	var meta strings.Builder
	var path []string
	var cur *Point
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed gpx: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			name := el.Name.Local
			path = append(path, name)
			switch {
			case len(path) == 1:
				if name != "gpx" {
					return nil, fmt.Errorf("malformed gpx: root element is <%s>", name)
				}
				sawRoot = true
				if creator := attr(el, "creator"); creator != "" {
					meta.WriteString(creator)
					meta.WriteByte(' ')
				}
			case name == "trkpt" || name == "rtept":
				p, err := parsePoint(el)
				if err != nil {
					return nil, err
				}
				cur = p
			case name == "link" && inMetadata(path):
				meta.WriteString(attr(el, "href"))
				meta.WriteByte(' ')
			}
		case xml.EndElement:
			if (el.Name.Local == "trkpt" || el.Name.Local == "rtept") && cur != nil {
				track.Points = append(track.Points, *cur)
				cur = nil
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		case xml.CharData:
			text := strings.TrimSpace(string(el))
			if text == "" || len(path) == 0 {
				continue
			}
			leaf := path[len(path)-1]
			switch {
			case cur != nil && leaf == "ele":
				v, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, fmt.Errorf("malformed gpx: invalid elevation %q", text)
				}
				cur.Elevation = &v
			case cur != nil && leaf == "time":
				cur.Time = text
			case cur == nil && leaf == "name" && track.Name == "" && len(path) >= 2 && (path[len(path)-2] == "trk" || path[len(path)-2] == "rte"):
				track.Name = text
			case inMetadata(path) || leaf == "author" || leaf == "keywords" || leaf == "desc":
				meta.WriteString(text)
				meta.WriteByte(' ')
			}
		}
	}

	if !sawRoot {
		return nil, errors.New("malformed gpx: empty document")
	}
	if len(track.Points) == 0 {
		return nil, ErrNoPoints
	}
	track.SourceLabel = SourceLabel(meta.String())
	return track, nil
}

// SourceLabel maps free metadata text to a vendor label.
func SourceLabel(text string) string {
	lower := strings.ToLower(text)
	for _, v := range vendors {
		if strings.Contains(lower, v.needle) {
			return v.label
		}
	}
	return GenericSource
}

func parsePoint(el xml.StartElement) (*Point, error) {
	latRaw, lonRaw := attr(el, "lat"), attr(el, "lon")
	if latRaw == "" || lonRaw == "" {
		return nil, fmt.Errorf("malformed gpx: <%s> is missing lat or lon", el.Name.Local)
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || lat < -90 || lat > 90 {
		return nil, fmt.Errorf("malformed gpx: invalid latitude %q", latRaw)
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("malformed gpx: invalid longitude %q", lonRaw)
	}
	return &Point{Lat: lat, Lon: lon}, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func inMetadata(path []string) bool {
	for _, p := range path {
		if p == "metadata" {
			return true
		}
	}
	return false
}
