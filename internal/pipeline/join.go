package pipeline

import (
	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/model"
)

// Join inner-joins ranking records with geometries on the normalized code
// read from codeField. Output follows ranking order. When two geometries
// share a code the one encountered last is used; when two ranking rows share
// a code only the first is joined, so the result never exceeds the number of
// distinct geometry codes.
func Join(ranking *model.RankingSet, geo *model.GeometrySet, codeField string) ([]model.JoinedRegion, model.JoinStats, error) {
	var stats model.JoinStats

	if ranking == nil || !ranking.HasColumn(ranking.CodeColumn) {
		col := ""
		if ranking != nil {
			col = ranking.CodeColumn
		}
		return nil, stats, &model.ConfigurationError{Dataset: "ranking", Column: col}
	}
	if geo == nil || !geo.HasField(codeField) {
		return nil, stats, &model.ConfigurationError{Dataset: "geometry", Column: codeField}
	}

	stats.RankingRows = len(ranking.Records)
	stats.GeometryFeatures = len(geo.Regions)

	byCode := make(map[string]model.RegionGeometry, len(geo.Regions))
	for _, g := range geo.Regions {
		code := NormalizeCode(g.Value(codeField))
		if code == "" {
			continue
		}
		if _, dup := byCode[code]; dup {
			stats.DuplicateGeometryCodes++
		}
		byCode[code] = g
	}

	used := make(map[string]struct{}, len(byCode))
	joined := make([]model.JoinedRegion, 0, min(len(ranking.Records), len(byCode)))

	for _, rec := range ranking.Records {
		code := NormalizeCode(rec.Code)
		g, ok := byCode[code]
		if code == "" || !ok {
			stats.UnmatchedRanking++
			continue
		}
		if _, dup := used[code]; dup {
			stats.DuplicateRankingCodes++
			continue
		}
		used[code] = struct{}{}

		joined = append(joined, model.JoinedRegion{
			Code:       code,
			State:      rec.State,
			Name:       rec.Name,
			Indicators: rec.Indicators,
			Geometry:   g.Geometry,
		})
	}

	stats.Joined = len(joined)
	stats.UnmatchedGeometry = len(byCode) - len(used)

	if stats.DuplicateGeometryCodes > 0 || stats.DuplicateRankingCodes > 0 {
		zap.L().Warn("join: duplicate region codes",
			zap.Int("geometry_duplicates", stats.DuplicateGeometryCodes),
			zap.Int("ranking_duplicates", stats.DuplicateRankingCodes),
		)
	}
	if stats.UnmatchedRanking > 0 || stats.UnmatchedGeometry > 0 {
		zap.L().Warn("join: unmatched rows dropped",
			zap.Int("ranking_unmatched", stats.UnmatchedRanking),
			zap.Int("geometry_unmatched", stats.UnmatchedGeometry),
			zap.Int("joined", stats.Joined),
		)
	}

	return joined, stats, nil
}
