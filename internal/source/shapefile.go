package source

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/iqm-atlas/internal/fetcher"
	"github.com/sells-group/iqm-atlas/internal/model"
)

// DecodeShapefileZip extracts a zipped shapefile into a scratch directory
// under tempDir and reads it into a GeometrySet. Coordinates are taken as
// longitude/latitude (IBGE meshes ship in SIRGAS 2000, which matches WGS84
// at map scale) and tagged SRID 4326.
func DecodeShapefileZip(src string, data []byte, tempDir string, fields GeometryFields) (*model.GeometrySet, error) {
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "shapefile: create temp dir")
	}
	dir, err := os.MkdirTemp(tempDir, "shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "shapefile: create scratch dir")
	}
	defer func() { _ = os.RemoveAll(dir) }()

	extracted, err := fetcher.ExtractZIP(data, dir)
	if err != nil {
		return nil, &model.SourceFormatError{Source: src, Artifact: "shapefile ZIP archive", Err: err}
	}

	shpPath, ok := fetcher.FindByExt(extracted, ".shp")
	if !ok {
		return nil, &model.SourceFormatError{Source: src, Artifact: ".shp file in archive"}
	}

	return readShapefile(src, shpPath, fields)
}

func readShapefile(src, shpPath string, fields GeometryFields) (*model.GeometrySet, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, &model.SourceFormatError{Source: src, Artifact: filepath.Base(shpPath), Err: err}
	}
	defer func() { _ = reader.Close() }()

	dec := attributeDecoder(shpPath)

	shpFields := reader.Fields()
	names := make([]string, len(shpFields))
	for i, f := range shpFields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	set := &model.GeometrySet{Source: src, Fields: names}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		props := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val == "" {
				continue
			}
			props[name] = decodeAttribute(dec, val)
		}

		g := shapeToGeom(shape)
		if g == nil && shape != nil {
			skipped++
		}

		set.Regions = append(set.Regions, fields.region(props, g))
	}

	if skipped > 0 {
		zap.L().Debug("shapefile: records without usable geometry",
			zap.String("source", src),
			zap.Int("skipped", skipped),
		)
	}

	return set, nil
}

// attributeDecoder picks the DBF text encoding from the .cpg sidecar. With no
// sidecar, non-UTF-8 values are read as ISO-8859-1.
func attributeDecoder(shpPath string) *encoding.Decoder {
	cpgPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".cpg"
	raw, err := os.ReadFile(cpgPath)
	if err != nil {
		return charmap.ISO8859_1.NewDecoder()
	}
	cp := strings.ToUpper(strings.TrimSpace(string(raw)))
	switch {
	case strings.Contains(cp, "UTF-8"), strings.Contains(cp, "UTF8"):
		return nil
	case strings.Contains(cp, "1252"):
		return charmap.Windows1252.NewDecoder()
	default:
		return charmap.ISO8859_1.NewDecoder()
	}
}

func decodeAttribute(dec *encoding.Decoder, val string) string {
	if dec == nil || utf8.ValidString(val) {
		return val
	}
	out, err := dec.String(val)
	if err != nil {
		return val
	}
	return out
}

// shapeToGeom converts a shapefile polygon into a MultiPolygon. Shapefile
// outer rings are clockwise; counter-clockwise rings are holes of the
// preceding outer ring.
func shapeToGeom(shape shp.Shape) geom.T {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var current *geom.Polygon

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}

		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if current != nil && xy.IsRingCounterClockwise(geom.XY, flat) {
			if err := current.Push(ring); err != nil {
				zap.L().Debug("shapefile: skipping malformed hole", zap.Int32("part", i), zap.Error(err))
			}
			continue
		}

		if current != nil {
			if err := mp.Push(current); err != nil {
				zap.L().Debug("shapefile: skipping malformed polygon", zap.Int32("part", i), zap.Error(err))
			}
		}
		current = geom.NewPolygon(geom.XY)
		if err := current.Push(ring); err != nil {
			zap.L().Debug("shapefile: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
			current = nil
		}
	}
	if current != nil {
		if err := mp.Push(current); err != nil {
			zap.L().Debug("shapefile: skipping malformed polygon", zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
