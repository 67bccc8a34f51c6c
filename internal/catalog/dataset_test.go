package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/cinematch/internal/catalog"
	"github.com/cinematch/cinematch/pkg/logger"
	"github.com/cinematch/cinematch/pkg/models"
)

const moviesCSV = `budget,genres,id,keywords,overview,popularity,production_companies,release_date,revenue,runtime,title,vote_average,vote_count
100,"[{""id"": 28, ""name"": ""Action""}, {""id"": 878, ""name"": ""Science Fiction""}]",10,"[{""id"": 1, ""name"": ""space war""}]",A space adventure beyond the stars.,42.5,"[{""id"": 5, ""name"": ""Orbit Pictures""}]",2009-12-10,500,120,Star Voyage,8.2,1200
200,"[{""id"": 18, ""name"": ""Drama""}]",11,"[]",A quiet family drama in the countryside.,10.1,"[]",2015-06-01,300,95,Quiet Fields,6.9,340
300,not-json,12,"[]",Broken metadata should not kill the load.,1.0,"[]",,0,0,Glitch Reel,5.0,12
400,"[{""id"": 35, ""name"": ""Comedy""}]",13,"[]",,2.0,"[]",2001-01-01,10,88,No Overview,7.0,50
`

const creditsCSV = `movie_id,title,cast,crew
10,Star Voyage,"[{""name"": ""Ada Star""}, {""name"": ""Ben Nova""}]","[{""name"": ""Cy Writer"", ""job"": ""Writer""}, {""name"": ""Dee Helm"", ""job"": ""Director""}]"
11,Quiet Fields,"[{""name"": ""Eve Plain""}]","[{""name"": ""Flo Cut"", ""job"": ""Editor""}]"
12,Glitch Reel,not-json,not-json
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func loadFixture(t *testing.T) *catalog.Dataset {
	t.Helper()
	loader := catalog.NewLoader(logger.NewNoop())
	ds, err := loader.Load(
		writeFixture(t, "movies.csv", moviesCSV),
		writeFixture(t, "credits.csv", creditsCSV),
	)
	require.NoError(t, err)
	return ds
}

func TestLoadJoinsAndParses(t *testing.T) {
	ds := loadFixture(t)

	// Row with no overview is dropped; unparseable list columns are not.
	require.Equal(t, 3, ds.Len())

	m, err := ds.MovieAt(0)
	require.NoError(t, err)
	assert.Equal(t, 10, m.ID)
	assert.Equal(t, "Star Voyage", m.Title)
	assert.Equal(t, []string{"Action", "Science Fiction"}, m.Genres)
	assert.Equal(t, []string{"space war"}, m.Keywords)
	assert.Equal(t, []string{"Ada Star", "Ben Nova"}, m.Cast)
	assert.Equal(t, "Dee Helm", m.Director)
	assert.Equal(t, []string{"Orbit Pictures"}, m.Companies)
	assert.InDelta(t, 8.2, m.VoteAverage, 1e-9)
	assert.Equal(t, 1200, m.VoteCount)
	assert.Equal(t, 120, m.Runtime)
	require.NotNil(t, m.ReleaseDate)
	assert.Equal(t, 2009, m.ReleaseDate.Year())
}

func TestLoadDegradesBadRows(t *testing.T) {
	ds := loadFixture(t)

	idx, ok := ds.IndexOfID(12)
	require.True(t, ok)
	m, err := ds.MovieAt(idx)
	require.NoError(t, err)

	// Every structured column failed to parse; the row survives empty.
	assert.Empty(t, m.Genres)
	assert.Empty(t, m.Cast)
	assert.Empty(t, m.Director)
	assert.Nil(t, m.ReleaseDate)
}

func TestTitleResolution(t *testing.T) {
	ds := loadFixture(t)

	idx, ok := ds.IndexOfTitle("sTaR vOyAgE")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = ds.IndexOfTitle("Missing Movie")
	assert.False(t, ok)

	assert.Equal(t, []string{"Star Voyage"}, ds.TitlesContaining("voyage", 5))
	assert.Empty(t, ds.TitlesContaining("zzz", 5))
}

func TestFingerprintTracksOrderAndContent(t *testing.T) {
	a := catalog.NewDataset([]models.Movie{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}})
	b := catalog.NewDataset([]models.Movie{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}})
	c := catalog.NewDataset([]models.Movie{{ID: 2, Title: "B"}, {ID: 1, Title: "A"}})

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestMovieAtBounds(t *testing.T) {
	ds := loadFixture(t)

	_, err := ds.MovieAt(-1)
	assert.Error(t, err)
	_, err = ds.MovieAt(ds.Len())
	assert.Error(t, err)
}
