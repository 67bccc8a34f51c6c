package domain

import (
	"strings"
	"time"
)

// Rating is a user's rating of a movie on a 0 to 10 scale. Re-rating a
// movie overwrites the previous value.
type Rating struct {
	UserID  string    `gorm:"primaryKey;size:64"  json:"user_id"`
	MovieID int       `gorm:"primaryKey"          json:"movie_id"`
	Value   float64   `gorm:"not null"            json:"value"`
	RatedAt time.Time `gorm:"not null"            json:"rated_at"`
}

// WatchlistEntry marks a movie a user intends to watch. A movie appears
// at most once per user.
type WatchlistEntry struct {
	UserID  string    `gorm:"primaryKey;size:64" json:"user_id"`
	MovieID int       `gorm:"primaryKey"         json:"movie_id"`
	Title   string    `                          json:"title"`
	AddedAt time.Time `gorm:"not null;index"     json:"added_at"`
}

// HistoryEntry records that a user viewed a movie's details. Repeat
// views bump the timestamp instead of adding a duplicate row.
type HistoryEntry struct {
	UserID   string    `gorm:"primaryKey;size:64" json:"user_id"`
	MovieID  int       `gorm:"primaryKey"         json:"movie_id"`
	Title    string    `                          json:"title"`
	ViewedAt time.Time `gorm:"not null;index"     json:"viewed_at"`
}

// Profile holds a user's explicit recommendation preferences.
type Profile struct {
	UserID         string    `gorm:"primaryKey;size:64" json:"user_id"`
	FavoriteGenres string    `                          json:"-"`
	PreferPopular  bool      `                          json:"prefer_popular"`
	PreferGenres   bool      `                          json:"prefer_genres"`
	UpdatedAt      time.Time `                          json:"updated_at"`
}

const genreSeparator = "|"

// FavoriteGenreList splits the stored genre string.
func (p *Profile) FavoriteGenreList() []string {
	if p == nil || p.FavoriteGenres == "" {
		return nil
	}

	return strings.Split(p.FavoriteGenres, genreSeparator)
}

// SetFavoriteGenres stores the genre list, dropping empty entries.
func (p *Profile) SetFavoriteGenres(genres []string) {
	kept := make([]string, 0, len(genres))
	for _, g := range genres {
		g = strings.TrimSpace(g)
		if g != "" {
			kept = append(kept, g)
		}
	}

	p.FavoriteGenres = strings.Join(kept, genreSeparator)
}
