// Package wkt implements a small WKT subset: POINT, LINESTRING, and
// POLYGON (with optional interior rings). Unsupported variants
// (MULTIPOINT, GEOMETRYCOLLECTION, etc.) return Unsupported. Kept outside
// the index core like geojson: no import of spatialindex.
//
// Grounded on original_source's geometry constructors for what a parsed
// ring/linestring must satisfy, and on zycbobby-tile38's plain hand-rolled
// tokenizers elsewhere in controller/ (e.g. controller/glob) for the
// style of a small recursive-descent parser over a string cursor.
package wkt

import (
	"strconv"
	"strings"

	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/urbiserr"
)

// Parse reads one WKT geometry literal and returns the SpatialObject it
// describes.
func Parse(s string) (*geom.SpatialObject, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(upper, "POINT"):
		body, err := body(s, "POINT")
		if err != nil {
			return nil, err
		}
		p, err := parseCoord(body)
		if err != nil {
			return nil, err
		}
		return geom.NewPoint(0, p), nil
	case strings.HasPrefix(upper, "LINESTRING"):
		body, err := body(s, "LINESTRING")
		if err != nil {
			return nil, err
		}
		pts, err := parseCoordList(body)
		if err != nil {
			return nil, err
		}
		return geom.NewPolyline(0, pts)
	case strings.HasPrefix(upper, "POLYGON"):
		body, err := body(s, "POLYGON")
		if err != nil {
			return nil, err
		}
		rings, err := parseRingList(body)
		if err != nil {
			return nil, err
		}
		if len(rings) == 0 {
			return nil, urbiserr.New(urbiserr.Parse, "polygon has no rings")
		}
		return geom.NewPolygon(0, rings[0], rings[1:])
	default:
		return nil, urbiserr.Newf(urbiserr.Unsupported, "unsupported WKT geometry")
	}
}

// body strips the "KEYWORD(" prefix and trailing ")" from s, returning the
// interior text. Returns Parse on a missing keyword or unbalanced parens.
func body(s, keyword string) (string, error) {
	rest := strings.TrimSpace(s[len(keyword):])
	if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
		return "", urbiserr.Newf(urbiserr.Parse, "%s: expected parenthesized body", keyword)
	}
	return rest[1 : len(rest)-1], nil
}

// parseRingList splits a "(x y, ...), (x y, ...)" ring list at top-level
// commas (commas inside a ring's own parens do not split it).
func parseRingList(s string) ([][]geom.Point, error) {
	var rings [][]geom.Point
	depth := 0
	start := -1
	for i, c := range s {
		switch c {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				pts, err := parseCoordList(s[start:i])
				if err != nil {
					return nil, err
				}
				rings = append(rings, pts)
			}
		}
	}
	if depth != 0 {
		return nil, urbiserr.New(urbiserr.Parse, "polygon: unbalanced parentheses")
	}
	return rings, nil
}

func parseCoordList(s string) ([]geom.Point, error) {
	parts := strings.Split(s, ",")
	pts := make([]geom.Point, 0, len(parts))
	for _, part := range parts {
		p, err := parseCoord(part)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func parseCoord(s string) (geom.Point, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 2 {
		return geom.Point{}, urbiserr.New(urbiserr.Parse, "expected \"x y\" coordinate pair")
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geom.Point{}, urbiserr.Wrap(urbiserr.Parse, "non-numeric x coordinate", err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geom.Point{}, urbiserr.Wrap(urbiserr.Parse, "non-numeric y coordinate", err)
	}
	return geom.Point{X: x, Y: y}, nil
}

// ExportPoint renders obj (which must be a Point) as WKT, coordinates
// formatted with %.6f.
func ExportPoint(obj *geom.SpatialObject) (string, error) {
	if obj.Type != geom.GeomPoint {
		return "", urbiserr.New(urbiserr.InvalidArg, "object is not a point")
	}
	return "POINT(" + coord(obj.Point) + ")", nil
}

// ExportPolyline renders obj (which must be a Polyline) as WKT.
func ExportPolyline(obj *geom.SpatialObject) (string, error) {
	if obj.Type != geom.GeomPolyline {
		return "", urbiserr.New(urbiserr.InvalidArg, "object is not a polyline")
	}
	return "LINESTRING(" + coordList(obj.Polyline.Points) + ")", nil
}

// ExportPolygon renders obj (which must be a Polygon) as WKT, exterior
// ring first followed by any holes as interior rings.
func ExportPolygon(obj *geom.SpatialObject) (string, error) {
	if obj.Type != geom.GeomPolygon {
		return "", urbiserr.New(urbiserr.InvalidArg, "object is not a polygon")
	}
	rings := []string{"(" + coordList(obj.Polygon.Exterior) + ")"}
	for _, hole := range obj.Polygon.Holes {
		rings = append(rings, "("+coordList(hole)+")")
	}
	return "POLYGON(" + strings.Join(rings, ",") + ")", nil
}

func coord(p geom.Point) string {
	return strconv.FormatFloat(p.X, 'f', 6, 64) + " " + strconv.FormatFloat(p.Y, 'f', 6, 64)
}

func coordList(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = coord(p)
	}
	return strings.Join(parts, ",")
}
