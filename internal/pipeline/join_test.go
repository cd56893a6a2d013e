package pipeline

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/iqm-atlas/internal/model"
)

func TestJoin_Scenario(t *testing.T) {
	joined, stats, err := scenarioRegions()
	require.NoError(t, err)

	require.Len(t, joined, 3)
	assert.Equal(t, []string{"3509", "3548", "3303"}, codes(joined))
	assert.Equal(t, "Niterói", joined[2].Name)
	assert.NotNil(t, joined[0].Geometry)
	assert.Equal(t, model.JoinStats{RankingRows: 3, GeometryFeatures: 3, Joined: 3}, stats)
}

func TestJoin_UnmatchedRankingDropped(t *testing.T) {
	ranking := rankingSet(
		record("SP", "Campinas", "3509", 72.5),
		record("SP", "Sem mapa", "9999", 50),
		record("SP", "Sem código", "", 40),
	)
	geo := geometrySet(
		geometry("3509", "Campinas", squareGeom(0, 0, 1)),
		geometry("1111", "Só mapa", squareGeom(2, 2, 1)),
	)

	joined, stats, err := Join(ranking, geo, codeField)
	require.NoError(t, err)

	assert.Equal(t, []string{"3509"}, codes(joined))
	assert.Equal(t, 2, stats.UnmatchedRanking)
	assert.Equal(t, 1, stats.UnmatchedGeometry)
}

func TestJoin_EmptyGeometryCodeNeverMatches(t *testing.T) {
	ranking := rankingSet(record("SP", "Vazio", "  ", 1))
	geo := geometrySet(geometry(" ", "Vazio", nil))

	joined, _, err := Join(ranking, geo, codeField)
	require.NoError(t, err)
	assert.Empty(t, joined)
}

func TestJoin_DuplicateGeometryLastWins(t *testing.T) {
	first := squareGeom(0, 0, 1)
	last := squareGeom(10, 10, 1)
	ranking := rankingSet(record("SP", "Campinas", "3509", 72.5))
	geo := geometrySet(
		geometry("3509", "first", first),
		geometry(3509.0, "last", last),
	)

	for i := 0; i < 5; i++ {
		joined, stats, err := Join(ranking, geo, codeField)
		require.NoError(t, err)
		require.Len(t, joined, 1)
		assert.Same(t, last, joined[0].Geometry)
		assert.Equal(t, 1, stats.DuplicateGeometryCodes)
	}
}

func TestJoin_DuplicateRankingFirstKept(t *testing.T) {
	ranking := rankingSet(
		record("SP", "Campinas", "3509", 72.5),
		record("SP", "Campinas (dup)", "3509.0", 10),
	)
	geo := geometrySet(geometry("3509", "Campinas", squareGeom(0, 0, 1)))

	joined, stats, err := Join(ranking, geo, codeField)
	require.NoError(t, err)
	require.Len(t, joined, 1)
	assert.Equal(t, "Campinas", joined[0].Name)
	assert.Equal(t, 1, stats.DuplicateRankingCodes)
}

func TestJoin_MissingCodeColumns(t *testing.T) {
	t.Run("ranking", func(t *testing.T) {
		ranking := rankingSet(record("SP", "Campinas", "3509", 1))
		ranking.CodeColumn = "Código"

		joined, _, err := Join(ranking, geometrySet(), codeField)
		assert.Nil(t, joined)

		var cfg *model.ConfigurationError
		require.ErrorAs(t, err, &cfg)
		assert.Equal(t, "Código", cfg.Column)
	})

	t.Run("geometry", func(t *testing.T) {
		ranking := rankingSet(record("SP", "Campinas", "3509", 1))
		geo := geometrySet(geometry("3509", "Campinas", nil))

		joined, _, err := Join(ranking, geo, "CD_MICRO_2022")
		assert.Nil(t, joined)

		var cfg *model.ConfigurationError
		require.ErrorAs(t, err, &cfg)
		assert.Equal(t, "CD_MICRO_2022", cfg.Column)
		assert.Equal(t, "geometry", cfg.Dataset)
	})

	t.Run("nil sets", func(t *testing.T) {
		_, _, err := Join(nil, geometrySet(), codeField)
		assert.True(t, model.IsLoaderError(err))
		_, _, err = Join(rankingSet(), nil, codeField)
		assert.True(t, model.IsLoaderError(err))
	})
}

func TestJoin_SizeBoundAndStability(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 50; iter++ {
		var records []model.RankingRecord
		nRecords := rng.Intn(30)
		for i := 0; i < nRecords; i++ {
			records = append(records, record("SP", fmt.Sprintf("R%d", i), fmt.Sprint(rng.Intn(20)), rng.Float64()))
		}
		var geoms []model.RegionGeometry
		distinct := map[string]struct{}{}
		nGeoms := 1 + rng.Intn(30)
		for i := 0; i < nGeoms; i++ {
			code := rng.Intn(20)
			distinct[fmt.Sprint(code)] = struct{}{}
			geoms = append(geoms, geometry(code, "", nil))
		}

		ranking := rankingSet(records...)
		joined, stats, err := Join(ranking, geometrySet(geoms...), codeField)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(joined), min(len(records), len(distinct)))
		assert.Equal(t, stats.Joined, len(joined))

		// Joined rows appear in ranking order.
		pos := map[string]int{}
		for i, r := range ranking.Records {
			if _, ok := pos[r.Name]; !ok {
				pos[r.Name] = i
			}
		}
		for i := 1; i < len(joined); i++ {
			assert.Less(t, pos[joined[i-1].Name], pos[joined[i].Name])
		}
	}
}

func codes(regions []model.JoinedRegion) []string {
	out := make([]string, len(regions))
	for i, r := range regions {
		out[i] = r.Code
	}
	return out
}
