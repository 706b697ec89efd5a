// Package geojson implements a small RFC 7946 subset: Point, LineString,
// Polygon (exterior + holes), wrapped in a Feature, FeatureCollection, or
// bare geometry. It is deliberately kept outside the index core as an
// external collaborator, and depends only on geom and urbiserr, never on
// spatialindex.
//
// Grounded on original_source (geometry.c's point/linestring/polygon
// constructors define what a parsed object must validate against) and on
// zycbobby-tile38's use of github.com/tidwall/gjson for scanning JSON
// properties without a full unmarshal pass (tests/fence_tests.go).
package geojson

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/urbiserr"
)

// Parse reads a GeoJSON document (a bare geometry, a Feature, or a
// FeatureCollection) and returns every SpatialObject it contains. id, if
// present and numeric, is parsed as a uint64; a string id is preserved in
// Properties under "_id" since geom.SpatialObject has no string-id slot.
func Parse(data []byte) ([]*geom.SpatialObject, error) {
	root := gjson.ParseBytes(data)
	if !root.Exists() {
		return nil, urbiserr.New(urbiserr.Parse, "empty or malformed JSON")
	}
	switch root.Get("type").String() {
	case "FeatureCollection":
		var out []*geom.SpatialObject
		var firstErr error
		root.Get("features").ForEach(func(_, feature gjson.Result) bool {
			obj, err := parseFeature(feature)
			if err != nil {
				firstErr = err
				return false
			}
			out = append(out, obj)
			return true
		})
		if firstErr != nil {
			return nil, firstErr
		}
		return out, nil
	case "Feature":
		obj, err := parseFeature(root)
		if err != nil {
			return nil, err
		}
		return []*geom.SpatialObject{obj}, nil
	case "Point", "LineString", "Polygon":
		obj, err := parseGeometry(root)
		if err != nil {
			return nil, err
		}
		return []*geom.SpatialObject{obj}, nil
	default:
		return nil, urbiserr.Newf(urbiserr.Unsupported, "unsupported geometry type %q", root.Get("type").String())
	}
}

func parseFeature(feature gjson.Result) (*geom.SpatialObject, error) {
	geomField := feature.Get("geometry")
	if !geomField.Exists() {
		return nil, urbiserr.New(urbiserr.Parse, "feature missing geometry")
	}
	obj, err := parseGeometry(geomField)
	if err != nil {
		return nil, err
	}
	if props := feature.Get("properties"); props.Exists() && props.IsObject() {
		obj.SetProperties([]byte(props.Raw))
	}
	if idField := feature.Get("id"); idField.Exists() {
		if idField.Type == gjson.Number {
			obj.ID = geom.ObjectID(idField.Uint())
		} else {
			members := fmt.Sprintf(`"_id":%q`, idField.String())
			if len(obj.Properties) > 0 {
				raw := strings.TrimSpace(string(obj.Properties))
				if inner := strings.TrimSpace(raw[1 : len(raw)-1]); inner != "" {
					members += "," + inner
				}
			}
			obj.SetProperties([]byte("{" + members + "}"))
		}
	}
	return obj, nil
}

func parseGeometry(g gjson.Result) (*geom.SpatialObject, error) {
	coords := g.Get("coordinates")
	if !coords.Exists() {
		return nil, urbiserr.New(urbiserr.Parse, "geometry missing coordinates")
	}
	switch g.Get("type").String() {
	case "Point":
		p, err := parsePoint(coords)
		if err != nil {
			return nil, err
		}
		return geom.NewPoint(0, p), nil
	case "LineString":
		pts, err := parsePointArray(coords)
		if err != nil {
			return nil, err
		}
		return geom.NewPolyline(0, pts)
	case "Polygon":
		rings := coords.Array()
		if len(rings) == 0 {
			return nil, urbiserr.New(urbiserr.Parse, "polygon has no rings")
		}
		exterior, err := parsePointArray(rings[0])
		if err != nil {
			return nil, err
		}
		var holes [][]geom.Point
		for _, r := range rings[1:] {
			hole, err := parsePointArray(r)
			if err != nil {
				return nil, err
			}
			holes = append(holes, hole)
		}
		return geom.NewPolygon(0, exterior, holes)
	default:
		return nil, urbiserr.Newf(urbiserr.Unsupported, "unsupported geometry type %q", g.Get("type").String())
	}
}

func parsePoint(c gjson.Result) (geom.Point, error) {
	arr := c.Array()
	if len(arr) < 2 {
		return geom.Point{}, urbiserr.New(urbiserr.Parse, "point coordinates need at least 2 values")
	}
	return geom.Point{X: arr[0].Float(), Y: arr[1].Float()}, nil
}

func parsePointArray(c gjson.Result) ([]geom.Point, error) {
	arr := c.Array()
	pts := make([]geom.Point, 0, len(arr))
	for _, e := range arr {
		p, err := parsePoint(e)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// ExportPoint renders obj (which must be a Point) as a GeoJSON Point
// geometry, coordinates formatted with six fractional digits.
func ExportPoint(obj *geom.SpatialObject) (string, error) {
	if obj.Type != geom.GeomPoint {
		return "", urbiserr.New(urbiserr.InvalidArg, "object is not a point")
	}
	return fmt.Sprintf(`{"type":"Point","coordinates":[%s,%s]}`, fmt6(obj.Point.X), fmt6(obj.Point.Y)), nil
}

// ExportPolyline renders obj (which must be a Polyline) as a GeoJSON
// LineString geometry.
func ExportPolyline(obj *geom.SpatialObject) (string, error) {
	if obj.Type != geom.GeomPolyline {
		return "", urbiserr.New(urbiserr.InvalidArg, "object is not a polyline")
	}
	return fmt.Sprintf(`{"type":"LineString","coordinates":[%s]}`, coordList(obj.Polyline.Points)), nil
}

// ExportPolygon renders obj (which must be a Polygon) as a GeoJSON
// Polygon geometry, exterior ring first followed by any holes.
func ExportPolygon(obj *geom.SpatialObject) (string, error) {
	if obj.Type != geom.GeomPolygon {
		return "", urbiserr.New(urbiserr.InvalidArg, "object is not a polygon")
	}
	rings := []string{"[" + coordList(obj.Polygon.Exterior) + "]"}
	for _, hole := range obj.Polygon.Holes {
		rings = append(rings, "["+coordList(hole)+"]")
	}
	return fmt.Sprintf(`{"type":"Polygon","coordinates":[%s]}`, strings.Join(rings, ",")), nil
}

func coordList(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("[%s,%s]", fmt6(p.X), fmt6(p.Y))
	}
	return strings.Join(parts, ",")
}

func fmt6(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
