package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"espotifai/config"
	"espotifai/db"
	"espotifai/model"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) CatalogRepository {
	t.Helper()
	gormDB, err := db.ConnectGormDB(config.DBConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "catalog.db"),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.CloseGormDB(gormDB) })
	if err := db.AutoMigrateModels(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormCatalogRepository(gormDB)
}

func seedArtist(t *testing.T, repo CatalogRepository, id string) *model.Artist {
	t.Helper()
	artist := &model.Artist{
		ID:        id,
		Name:      "name-" + id,
		Age:       30,
		AlbumsURL: "http://x/artists/" + id + "/albums",
		TracksURL: "http://x/artists/" + id + "/tracks",
		SelfURL:   "http://x/artists/" + id,
	}
	if err := repo.CreateArtist(context.Background(), artist); err != nil {
		t.Fatalf("create artist %s: %v", id, err)
	}
	return artist
}

func seedAlbum(t *testing.T, repo CatalogRepository, id, artistID string) *model.Album {
	t.Helper()
	album := &model.Album{
		ID:        id,
		ArtistID:  artistID,
		Name:      "album-" + id,
		Genre:     "rock",
		ArtistURL: "http://x/artists/" + artistID,
		TracksURL: "http://x/albums/" + id + "/tracks",
		SelfURL:   "http://x/albums/" + id,
	}
	if err := repo.CreateAlbum(context.Background(), album); err != nil {
		t.Fatalf("create album %s: %v", id, err)
	}
	return album
}

func seedTrack(t *testing.T, repo CatalogRepository, id string, album *model.Album) *model.Track {
	t.Helper()
	track := &model.Track{
		ID:        id,
		AlbumID:   album.ID,
		ArtistID:  album.ArtistID,
		Name:      "track-" + id,
		Duration:  180.5,
		ArtistURL: album.ArtistURL,
		AlbumURL:  album.SelfURL,
		SelfURL:   "http://x/tracks/" + id,
	}
	if err := repo.CreateTrack(context.Background(), track); err != nil {
		t.Fatalf("create track %s: %v", id, err)
	}
	return track
}

func TestCreateArtistDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	seedArtist(t, repo, "a1")

	err := repo.CreateArtist(context.Background(), &model.Artist{
		ID: "a1", Name: "other", SelfURL: "http://x/other",
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestCreateAlbumUnknownArtist(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.CreateAlbum(context.Background(), &model.Album{
		ID: "b1", ArtistID: "missing", Name: "n", Genre: "g", SelfURL: "http://x/albums/b1",
	})
	if !errors.Is(err, ErrForeignKey) {
		t.Fatalf("expected ErrForeignKey, got %v", err)
	}
	album, err := repo.GetAlbum(context.Background(), "b1")
	if err != nil || album != nil {
		t.Fatalf("expected no album, got %+v, %v", album, err)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if a, err := repo.GetArtist(ctx, "nope"); a != nil || err != nil {
		t.Fatalf("GetArtist: %+v, %v", a, err)
	}
	if tr, err := repo.GetTrack(ctx, "nope"); tr != nil || err != nil {
		t.Fatalf("GetTrack: %+v, %v", tr, err)
	}
}

func TestDeleteArtistCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedArtist(t, repo, "a1")
	seedArtist(t, repo, "a2")
	b1 := seedAlbum(t, repo, "b1", "a1")
	b2 := seedAlbum(t, repo, "b2", "a1")
	other := seedAlbum(t, repo, "b3", "a2")
	seedTrack(t, repo, "t1", b1)
	seedTrack(t, repo, "t2", b1)
	seedTrack(t, repo, "t3", b2)
	seedTrack(t, repo, "t4", other)

	deleted, err := repo.DeleteArtist(ctx, "a1")
	if err != nil || !deleted {
		t.Fatalf("DeleteArtist: %v, %v", deleted, err)
	}

	albums, err := repo.ListAlbums(ctx)
	if err != nil {
		t.Fatalf("ListAlbums: %v", err)
	}
	if len(albums) != 1 || albums[0].ID != "b3" {
		t.Fatalf("expected only b3 to survive, got %+v", albums)
	}
	tracks, err := repo.ListTracks(ctx)
	if err != nil {
		t.Fatalf("ListTracks: %v", err)
	}
	if len(tracks) != 1 || tracks[0].ID != "t4" {
		t.Fatalf("expected only t4 to survive, got %+v", tracks)
	}

	deleted, err = repo.DeleteArtist(ctx, "a1")
	if err != nil || deleted {
		t.Fatalf("second delete should report missing row: %v, %v", deleted, err)
	}
}

func TestDeleteAlbumCascadesTracks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedArtist(t, repo, "a1")
	b1 := seedAlbum(t, repo, "b1", "a1")
	seedTrack(t, repo, "t1", b1)

	if deleted, err := repo.DeleteAlbum(ctx, "b1"); err != nil || !deleted {
		t.Fatalf("DeleteAlbum: %v, %v", deleted, err)
	}
	tracks, err := repo.ListTracksByArtist(ctx, "a1")
	if err != nil {
		t.Fatalf("ListTracksByArtist: %v", err)
	}
	if len(tracks) != 0 {
		t.Fatalf("expected tracks to be removed, got %d", len(tracks))
	}
	if a, _ := repo.GetArtist(ctx, "a1"); a == nil {
		t.Fatal("artist should survive album delete")
	}
}

func TestScopedLists(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedArtist(t, repo, "a1")
	seedArtist(t, repo, "a2")
	b1 := seedAlbum(t, repo, "b1", "a1")
	b2 := seedAlbum(t, repo, "b2", "a2")
	seedTrack(t, repo, "t1", b1)
	seedTrack(t, repo, "t2", b1)
	seedTrack(t, repo, "t3", b2)

	albums, err := repo.ListAlbumsByArtist(ctx, "a1")
	if err != nil || len(albums) != 1 {
		t.Fatalf("ListAlbumsByArtist: %d, %v", len(albums), err)
	}
	tracks, err := repo.ListTracksByAlbum(ctx, "b1")
	if err != nil || len(tracks) != 2 {
		t.Fatalf("ListTracksByAlbum: %d, %v", len(tracks), err)
	}
	tracks, err = repo.ListTracksByArtist(ctx, "a2")
	if err != nil || len(tracks) != 1 || tracks[0].ID != "t3" {
		t.Fatalf("ListTracksByArtist: %+v, %v", tracks, err)
	}
	tracks, err = repo.ListTracksByIDs(ctx, []string{"t1", "t3", "missing"})
	if err != nil || len(tracks) != 2 {
		t.Fatalf("ListTracksByIDs: %d, %v", len(tracks), err)
	}
}

func TestIncrementPlays(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedArtist(t, repo, "a1")
	b1 := seedAlbum(t, repo, "b1", "a1")
	seedTrack(t, repo, "t1", b1)
	seedTrack(t, repo, "t2", b1)

	for i := 0; i < 3; i++ {
		if _, err := repo.IncrementPlays(ctx, []string{"t1"}); err != nil {
			t.Fatalf("IncrementPlays: %v", err)
		}
	}
	n, err := repo.IncrementPlays(ctx, []string{"t1", "t2"})
	if err != nil || n != 2 {
		t.Fatalf("IncrementPlays both: %d, %v", n, err)
	}

	t1, _ := repo.GetTrack(ctx, "t1")
	t2, _ := repo.GetTrack(ctx, "t2")
	if t1.TimesPlayed != 4 || t2.TimesPlayed != 1 {
		t.Fatalf("unexpected counts t1=%d t2=%d", t1.TimesPlayed, t2.TimesPlayed)
	}
}

func TestInTxRollsBack(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := repo.InTx(ctx, func(tx CatalogRepository) error {
		if err := tx.CreateArtist(ctx, &model.Artist{ID: "a1", Name: "n", SelfURL: "http://x/a1"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if a, _ := repo.GetArtist(ctx, "a1"); a != nil {
		t.Fatal("artist should have been rolled back")
	}
}

func TestInTxClassifiesDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedArtist(t, repo, "a1")

	err := repo.InTx(ctx, func(tx CatalogRepository) error {
		return tx.CreateArtist(ctx, &model.Artist{ID: "a1", Name: "dupe", SelfURL: "http://x/dupe"})
	})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"gorm duplicate", gorm.ErrDuplicatedKey, ErrDuplicateKey},
		{"gorm fk", gorm.ErrForeignKeyViolated, ErrForeignKey},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062}, ErrDuplicateKey},
		{"mysql no parent", &mysql.MySQLError{Number: 1452}, ErrForeignKey},
		{"postgres unique", &pgconn.PgError{Code: "23505"}, ErrDuplicateKey},
		{"postgres fk", &pgconn.PgError{Code: "23503"}, ErrForeignKey},
		{"wrapped", fmt.Errorf("commit: %w", &pgconn.PgError{Code: "23505"}), ErrDuplicateKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); !errors.Is(got, tc.want) {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}

	unknown := errors.New("connection reset")
	if got := Classify(unknown); got != unknown {
		t.Fatalf("unknown errors should pass through, got %v", got)
	}
	if got := Classify(&mysql.MySQLError{Number: 1045}); errors.Is(got, ErrDuplicateKey) || errors.Is(got, ErrForeignKey) {
		t.Fatalf("unrelated mysql error misclassified: %v", got)
	}
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) should be nil")
	}
}
