package catalog

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cinematch/cinematch/pkg/errors"
	"github.com/cinematch/cinematch/pkg/interfaces"
	"github.com/cinematch/cinematch/pkg/models"
)

// DefaultTopCast bounds the cast list to the first entries in billing order.
const DefaultTopCast = 10

// Dataset is an immutable, ordered snapshot of the movie catalog. Row order
// is the positional contract every similarity matrix built from this snapshot
// depends on.
type Dataset struct {
	movies      []models.Movie
	indexByID   map[int]int
	fingerprint string
}

// Loader reads the raw TMDB CSV files into a Dataset.
type Loader struct {
	logger  interfaces.Logger
	topCast int
}

// NewLoader creates a dataset loader.
func NewLoader(logger interfaces.Logger) *Loader {
	return &Loader{logger: logger, topCast: DefaultTopCast}
}

// WithTopCast overrides how many top-billed cast members are kept per movie.
func (l *Loader) WithTopCast(n int) *Loader {
	if n > 0 {
		l.topCast = n
	}

	return l
}

// credit holds the two string-encoded columns of the credits file.
type credit struct {
	cast string
	crew string
}

// Load reads the movie and credit CSVs, joins them on title and parses the
// string-encoded list columns. A row whose list columns fail to parse is kept
// with empty values; a row missing required scalar fields is dropped.
func (l *Loader) Load(moviesPath, creditsPath string) (*Dataset, error) {
	credits, err := l.loadCredits(creditsPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(moviesPath)
	if err != nil {
		return nil, fmt.Errorf("opening movie dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading movie dataset header: %w", err)
	}
	col := columnIndex(header)
	for _, required := range []string{"id", "title", "overview", "genres", "keywords", "production_companies", "vote_average", "vote_count"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("movie dataset is missing column %q", required)
		}
	}

	var movies []models.Movie
	for line := 2; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading movie dataset row %d: %w", line, err)
		}

		movie, ok := l.parseRow(record, col, credits)
		if !ok {
			continue
		}
		movies = append(movies, movie)
	}

	if len(movies) == 0 {
		return nil, fmt.Errorf("movie dataset %s contains no usable rows", moviesPath)
	}

	ds := &Dataset{
		movies:    movies,
		indexByID: make(map[int]int, len(movies)),
	}
	for i, m := range movies {
		ds.indexByID[m.ID] = i
	}
	ds.fingerprint = fingerprint(movies)

	l.logger.Info("Dataset loaded",
		interfaces.Int("movies", len(movies)),
		interfaces.String("fingerprint", ds.fingerprint))

	return ds, nil
}

// parseRow converts one CSV record into a Movie. Structured columns degrade
// to empty values on parse failure; the row survives.
func (l *Loader) parseRow(record []string, col map[string]int, credits map[string]credit) (models.Movie, bool) {
	field := func(name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	id, err := strconv.Atoi(field("id"))
	if err != nil {
		return models.Movie{}, false
	}
	title := field("title")
	overview := field("overview")
	if title == "" || overview == "" {
		return models.Movie{}, false
	}

	movie := models.Movie{
		ID:       id,
		Title:    title,
		Overview: overview,
	}

	movie.Genres = l.namesOrEmpty(id, "genres", field("genres"))
	movie.Keywords = l.namesOrEmpty(id, "keywords", field("keywords"))
	movie.Companies = l.namesOrEmpty(id, "production_companies", field("production_companies"))

	if c, ok := credits[strings.ToLower(title)]; ok {
		cast, err := parseCast(c.cast, l.topCast)
		if err != nil {
			l.logIntegrity(id, "cast", err)
		}
		movie.Cast = cast

		director, err := parseDirector(c.crew)
		if err != nil {
			l.logIntegrity(id, "crew", err)
		}
		movie.Director = director
	}

	movie.VoteAverage, _ = strconv.ParseFloat(field("vote_average"), 64)
	movie.VoteCount, _ = strconv.Atoi(field("vote_count"))
	movie.Popularity, _ = strconv.ParseFloat(field("popularity"), 64)
	movie.Budget, _ = strconv.ParseInt(field("budget"), 10, 64)
	movie.Revenue, _ = strconv.ParseInt(field("revenue"), 10, 64)
	if runtime, err := strconv.ParseFloat(field("runtime"), 64); err == nil {
		movie.Runtime = int(runtime)
	}
	if t, err := time.Parse("2006-01-02", field("release_date")); err == nil {
		movie.ReleaseDate = &t
	}

	return movie, true
}

// loadCredits reads the credits file keyed by lowercased title. Duplicate
// titles keep the first credit row, matching the join tolerance the catalog
// promises for non-unique titles.
func (l *Loader) loadCredits(path string) (map[string]credit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening credits dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading credits header: %w", err)
	}
	col := columnIndex(header)
	for _, required := range []string{"title", "cast", "crew"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("credits dataset is missing column %q", required)
		}
	}

	credits := make(map[string]credit)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading credits row: %w", err)
		}
		title := strings.ToLower(record[col["title"]])
		if _, exists := credits[title]; exists {
			continue
		}
		credits[title] = credit{
			cast: record[col["cast"]],
			crew: record[col["crew"]],
		}
	}

	return credits, nil
}

func (l *Loader) namesOrEmpty(movieID int, column, raw string) []string {
	names, err := parseNames(raw)
	if err != nil {
		l.logIntegrity(movieID, column, err)
		return nil
	}
	return names
}

func (l *Loader) logIntegrity(movieID int, column string, err error) {
	l.logger.Warn("Dropping unparseable column for movie",
		interfaces.Int("movie_id", movieID),
		interfaces.String("column", column),
		interfaces.Error(errors.DataIntegrity("structured field failed to parse", err)))
}

// columnIndex maps header names to their positions.
func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	return col
}

// fingerprint identifies this snapshot of the catalog: a SHA-256 over the
// ordered ids and titles. Any reorder, insert or delete changes it.
func fingerprint(movies []models.Movie) string {
	h := sha256.New()
	for _, m := range movies {
		fmt.Fprintf(h, "%d\x1f%s\x1e", m.ID, m.Title)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Movies returns the ordered movie rows. Callers must not mutate the slice.
func (d *Dataset) Movies() []models.Movie {
	return d.movies
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.movies)
}

// Fingerprint identifies this snapshot for cache validation.
func (d *Dataset) Fingerprint() string {
	return d.fingerprint
}

// MovieAt returns the movie at a row index.
func (d *Dataset) MovieAt(i int) (models.Movie, error) {
	if i < 0 || i >= len(d.movies) {
		return models.Movie{}, errors.NotFound(fmt.Sprintf("no movie at row %d", i))
	}
	return d.movies[i], nil
}

// IndexOfID resolves a movie id to its row index.
func (d *Dataset) IndexOfID(id int) (int, bool) {
	i, ok := d.indexByID[id]
	return i, ok
}

// IndexOfTitle resolves a title to a row index by exact case-insensitive
// match. The first match in row order wins when titles collide.
func (d *Dataset) IndexOfTitle(title string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(title))
	for i, m := range d.movies {
		if strings.ToLower(m.Title) == want {
			return i, true
		}
	}
	return 0, false
}

// TitlesContaining returns up to limit titles containing the query as a
// case-insensitive substring, in row order.
func (d *Dataset) TitlesContaining(query string, limit int) []string {
	want := strings.ToLower(strings.TrimSpace(query))
	if want == "" {
		return nil
	}
	var titles []string
	for _, m := range d.movies {
		if strings.Contains(strings.ToLower(m.Title), want) {
			titles = append(titles, m.Title)
			if len(titles) == limit {
				break
			}
		}
	}
	return titles
}

// NewDataset builds a dataset from already-parsed movies. Used by tests and
// by callers that assemble fixtures programmatically.
func NewDataset(movies []models.Movie) *Dataset {
	ds := &Dataset{
		movies:    movies,
		indexByID: make(map[int]int, len(movies)),
	}
	for i, m := range movies {
		ds.indexByID[m.ID] = i
	}
	ds.fingerprint = fingerprint(movies)
	return ds
}
