// Command urbisctl is the Urbis CLI entry point: build an index from a
// GeoJSON or WKT file, run a range query against it, and
// print stats, kept thin over the spatialindex package.
//
// Grounded on zycbobby-tile38's cmd/tile38-server/main.go flag-based CLI
// shape (stdlib flag, not cobra/viper).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/urbis-gis/urbis/disk"
	"github.com/urbis-gis/urbis/geojson"
	"github.com/urbis-gis/urbis/geom"
	"github.com/urbis-gis/urbis/spatialindex"
	"github.com/urbis-gis/urbis/wkt"
)

var (
	inputPath   string
	dataPath    string
	format      string
	query       string
	blockSize   int
	pageSize    int
	cacheSize   int
	strategy    string
	noQuadtree  bool
)

func main() {
	flag.StringVar(&inputPath, "input", "", "GeoJSON or WKT file to ingest")
	flag.StringVar(&dataPath, "data", "", "backing file to save/load")
	flag.StringVar(&format, "format", "geojson", "input format: geojson or wkt")
	flag.StringVar(&query, "query", "", "range query as \"minx,miny,maxx,maxy\"")
	flag.IntVar(&blockSize, "block-size", 1024, "max objects per KD-tree block")
	flag.IntVar(&pageSize, "page-capacity", 64, "objects per page")
	flag.IntVar(&cacheSize, "cache-size", 128, "pages retained in the LRU cache")
	flag.StringVar(&strategy, "strategy", "best-fit", "allocation strategy: nearest-track, best-fit, sequential, new-track")
	flag.BoolVar(&noQuadtree, "no-quadtree", false, "disable the page quadtree")
	flag.Parse()

	cfg := spatialindex.DefaultConfig()
	cfg.BlockSize = blockSize
	cfg.PageCapacity = pageSize
	cfg.CacheSize = cacheSize
	cfg.EnableQuadtree = !noQuadtree
	cfg.Strategy = parseStrategy(strategy)

	ix := spatialindex.New(cfg)

	if dataPath != "" {
		if _, err := os.Stat(dataPath); err == nil {
			if err := ix.Load(dataPath); err != nil {
				fatalf("load %s: %v", dataPath, err)
			}
			fmt.Printf("loaded %s: %d objects\n", dataPath, ix.Count())
		}
	}

	if inputPath != "" {
		if err := ingestFile(ix, inputPath, format); err != nil {
			fatalf("ingest %s: %v", inputPath, err)
		}
		if err := ix.Build(); err != nil {
			fatalf("build: %v", err)
		}
		fmt.Printf("ingested %s: %d objects\n", inputPath, ix.Count())
	}

	if query != "" {
		mbr, err := parseMBR(query)
		if err != nil {
			fatalf("query: %v", err)
		}
		results := ix.QueryRange(mbr)
		fmt.Printf("range query %v: %d results\n", mbr, len(results))
		for _, obj := range results {
			fmt.Printf("  id=%d type=%s centroid=(%.6f,%.6f)\n", obj.ID, obj.Type, obj.Centroid.X, obj.Centroid.Y)
		}
	}

	if dataPath != "" {
		if err := ix.Save(dataPath); err != nil {
			fatalf("save %s: %v", dataPath, err)
		}
		fmt.Printf("saved %s\n", dataPath)
	}

	stats := ix.Stats()
	fmt.Printf("stats: objects=%d pages=%d tracks=%d blocks=%d built=%v\n",
		stats.ObjectCount, stats.PageCount, stats.TrackCount, stats.BlockCount, stats.IsBuilt)
}

func ingestFile(ix *spatialindex.Index, path, format string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case "geojson":
		data := make([]byte, 0, 4096)
		buf := make([]byte, 4096)
		for {
			n, err := f.Read(buf)
			data = append(data, buf[:n]...)
			if err != nil {
				break
			}
		}
		objs, err := geojson.Parse(data)
		if err != nil {
			return err
		}
		for _, obj := range objs {
			obj.ID = 0
			if err := ix.Insert(obj); err != nil {
				return err
			}
		}
		return nil
	case "wkt":
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			obj, err := wkt.Parse(line)
			if err != nil {
				return err
			}
			obj.ID = 0
			if err := ix.Insert(obj); err != nil {
				return err
			}
		}
		return scanner.Err()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func parseMBR(s string) (geom.MBR, error) {
	var minX, minY, maxX, maxY float64
	n, err := fmt.Sscanf(s, "%g,%g,%g,%g", &minX, &minY, &maxX, &maxY)
	if err != nil || n != 4 {
		return geom.MBR{}, fmt.Errorf("expected \"minx,miny,maxx,maxy\", got %q", s)
	}
	return geom.NewMBR(minX, minY, maxX, maxY), nil
}

func parseStrategy(s string) disk.Strategy {
	switch strings.ToLower(s) {
	case "nearest-track":
		return disk.NearestTrack
	case "sequential":
		return disk.Sequential
	case "new-track":
		return disk.NewTrack
	default:
		return disk.BestFit
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "urbisctl: "+format+"\n", args...)
	os.Exit(1)
}
