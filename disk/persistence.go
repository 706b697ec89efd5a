package disk

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/page"
	"github.com/urbis-gis/urbis/urbiserr"
)

// header is the on-disk file header, laid out exactly:
// little-endian fixed fields, zero-padded to headerSize bytes.
type header struct {
	Magic         uint32
	Version       uint32
	PageCount     uint32
	TrackCount    uint32
	ObjectCount   uint64
	Bounds        geom.MBR
	CreatedTime   uint64
	ModifiedTime  uint64
	PageSize      uint32
	PagesPerTrack uint32
	IndexOffset   uint64
	DataOffset    uint64
}

func (h header) encode() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	binary.LittleEndian.PutUint32(buf[8:], h.PageCount)
	binary.LittleEndian.PutUint32(buf[12:], h.TrackCount)
	binary.LittleEndian.PutUint64(buf[16:], h.ObjectCount)
	binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(h.Bounds.MinX))
	binary.LittleEndian.PutUint64(buf[32:], math.Float64bits(h.Bounds.MinY))
	binary.LittleEndian.PutUint64(buf[40:], math.Float64bits(h.Bounds.MaxX))
	binary.LittleEndian.PutUint64(buf[48:], math.Float64bits(h.Bounds.MaxY))
	binary.LittleEndian.PutUint64(buf[56:], h.CreatedTime)
	binary.LittleEndian.PutUint64(buf[64:], h.ModifiedTime)
	binary.LittleEndian.PutUint32(buf[72:], h.PageSize)
	binary.LittleEndian.PutUint32(buf[76:], h.PagesPerTrack)
	binary.LittleEndian.PutUint64(buf[80:], h.IndexOffset)
	binary.LittleEndian.PutUint64(buf[88:], h.DataOffset)
	// bytes [96:160) are the reserved[64] region, left zero.
	return buf
}

func decodeHeader(buf []byte) header {
	var h header
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	h.Version = binary.LittleEndian.Uint32(buf[4:])
	h.PageCount = binary.LittleEndian.Uint32(buf[8:])
	h.TrackCount = binary.LittleEndian.Uint32(buf[12:])
	h.ObjectCount = binary.LittleEndian.Uint64(buf[16:])
	h.Bounds = geom.MBR{
		MinX: math.Float64frombits(binary.LittleEndian.Uint64(buf[24:])),
		MinY: math.Float64frombits(binary.LittleEndian.Uint64(buf[32:])),
		MaxX: math.Float64frombits(binary.LittleEndian.Uint64(buf[40:])),
		MaxY: math.Float64frombits(binary.LittleEndian.Uint64(buf[48:])),
	}
	h.CreatedTime = binary.LittleEndian.Uint64(buf[56:])
	h.ModifiedTime = binary.LittleEndian.Uint64(buf[64:])
	h.PageSize = binary.LittleEndian.Uint32(buf[72:])
	h.PagesPerTrack = binary.LittleEndian.Uint32(buf[76:])
	h.IndexOffset = binary.LittleEndian.Uint64(buf[80:])
	h.DataOffset = binary.LittleEndian.Uint64(buf[88:])
	return h
}

// dataOffset returns where page slot 1 begins: past the header and the
// one-page-slot reserved index region.
func (m *Manager) dataOffset() int64 {
	return int64(headerSize) + int64(reservedRegion*m.config.PageSize)
}

func (m *Manager) slotOffset(id page.ID) int64 {
	return m.dataOffset() + int64(id-1)*int64(m.config.PageSize)
}

// Create opens a brand new backing file at path, writes a zeroed/initial
// header, and marks the manager open and clean.
func (m *Manager) Create(path string, now uint64) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return urbiserr.Wrap(urbiserr.IO, "create data file", err)
	}
	m.file = f
	m.path = path
	m.created = now
	m.modified = now
	h := m.buildHeader()
	if _, err := m.file.WriteAt(h.encode(), 0); err != nil {
		return urbiserr.Wrap(urbiserr.IO, "write initial header", err)
	}
	m.IOStats.Writes++
	m.metrics.writes.Inc()
	m.open = true
	m.dirty = false
	return nil
}

// Open reads back an existing file: the header, then every page in
// [1, page_count] from its slot, repopulating the pool and the
// allocation KD-tree. Rejects a magic mismatch as Corrupt and a version
// newer than this build supports as Version.
func (m *Manager) Open(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return urbiserr.Wrap(urbiserr.IO, "open data file", err)
	}
	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		f.Close()
		return urbiserr.Wrap(urbiserr.IO, "read header", err)
	}
	m.IOStats.Reads++
	m.metrics.reads.Inc()
	h := decodeHeader(buf)
	if h.Magic != Magic {
		f.Close()
		return urbiserr.New(urbiserr.Corrupt, "header magic mismatch")
	}
	if h.Version > Version {
		f.Close()
		return urbiserr.New(urbiserr.Version, "file version newer than supported")
	}

	m.file = f
	m.path = path
	m.config.PageSize = int(h.PageSize)
	m.config.PagesPerTrack = int(h.PagesPerTrack)
	m.created = h.CreatedTime
	m.modified = h.ModifiedTime
	m.bounds = h.Bounds

	for id := page.ID(1); id <= page.ID(h.PageCount); id++ {
		slot := make([]byte, m.config.PageSize)
		if _, err := m.file.ReadAt(slot, m.slotOffset(id)); err != nil {
			f.Close()
			return urbiserr.Wrap(urbiserr.IO, "read page slot", err)
		}
		m.IOStats.Reads++
		m.metrics.reads.Inc()
		pg, err := page.Deserialize(slot, m.config.PageCapacity)
		if err != nil {
			f.Close()
			return err
		}
		if pg.ID == 0 {
			continue // never-allocated slot between freed/never-written ids
		}
		m.Pool.SetPage(pg)
		if pg.TrackID != 0 {
			t := m.Pool.FetchTrack(pg.TrackID)
			if t == nil {
				for m.Pool.NextTrackID() <= pg.TrackID {
					m.Pool.CreateTrack()
				}
				t = m.Pool.FetchTrack(pg.TrackID)
			}
			if t != nil && t.FindPage(pg.ID) == nil {
				t.Pages = append(t.Pages, pg)
			}
		}
	}
	m.RebuildAllocationTree()
	m.open = true
	m.dirty = false
	return nil
}

// Sync serializes every DIRTY page to its slot, clears DIRTY, recomputes
// and rewrites the header, and clears the manager's own dirty flag.
func (m *Manager) Sync(now uint64) error {
	if !m.open {
		return urbiserr.New(urbiserr.IO, "sync on a manager with no open file")
	}
	err := m.Cache.Flush(func(pg *page.Page) error {
		return m.writeSlot(pg)
	})
	if err != nil {
		return err
	}
	// Flush only covers pages recorded through Cache.MarkDirty; sweep the
	// pool for any DIRTY page that was never recorded there.
	for _, pg := range m.Pool.Pages() {
		if pg.Flags.Has(page.FlagDirty) {
			if err := m.writeSlot(pg); err != nil {
				return err
			}
			pg.Flags &^= page.FlagDirty
		}
	}
	m.modified = now
	h := m.buildHeader()
	if _, err := m.file.WriteAt(h.encode(), 0); err != nil {
		return urbiserr.Wrap(urbiserr.IO, "write header", err)
	}
	m.IOStats.Writes++
	m.IOStats.Syncs++
	m.metrics.writes.Inc()
	m.metrics.syncs.Inc()
	m.dirty = false
	return nil
}

func (m *Manager) writeSlot(pg *page.Page) error {
	slot, err := pg.Serialize(m.config.PageSize)
	if err != nil {
		return err
	}
	if _, err := m.file.WriteAt(slot, m.slotOffset(pg.ID)); err != nil {
		return urbiserr.Wrap(urbiserr.IO, "write page slot", err)
	}
	m.IOStats.Writes++
	m.metrics.writes.Inc()
	return nil
}

// Close syncs, releases the file handle, and clears in-memory open state.
func (m *Manager) Close(now uint64) error {
	if !m.open {
		return nil
	}
	if err := m.Sync(now); err != nil {
		return err
	}
	if err := m.file.Close(); err != nil {
		return urbiserr.Wrap(urbiserr.IO, "close data file", err)
	}
	m.file = nil
	m.open = false
	return nil
}

func (m *Manager) buildHeader() header {
	stats := m.Pool.Stats()
	return header{
		Magic:         Magic,
		Version:       Version,
		PageCount:     uint32(m.Pool.MaxPageID()),
		TrackCount:    uint32(stats.TrackCount),
		ObjectCount:   uint64(stats.ObjectCount),
		Bounds:        m.bounds,
		CreatedTime:   m.created,
		ModifiedTime:  m.modified,
		PageSize:      uint32(m.config.PageSize),
		PagesPerTrack: uint32(m.config.PagesPerTrack),
		IndexOffset:   headerSize,
		DataOffset:    uint64(m.dataOffset()),
	}
}

// IsOpen reports whether a backing file is currently attached.
func (m *Manager) IsOpen() bool { return m.open }

// IsDirty reports whether the manager has unsynced allocation changes.
func (m *Manager) IsDirty() bool { return m.dirty }

// Path returns the backing file path, or "" if none is open.
func (m *Manager) Path() string { return m.path }
