package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"espotifai/config"
	"espotifai/core/ident"
	"espotifai/db"
	"espotifai/events"
	"espotifai/model"
	"espotifai/repository"
)

const testBaseURL = "http://localhost:8080/"

type recordingPublisher struct {
	mu    sync.Mutex
	plays []events.Play
	err   error
}

func (p *recordingPublisher) PublishPlays(_ context.Context, plays []events.Play) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays = append(p.plays, plays...)
	return p.err
}

func newTestRepo(t *testing.T) repository.CatalogRepository {
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
	return repository.NewGormCatalogRepository(gormDB)
}

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return NewService(newTestRepo(t), testBaseURL, pub), pub
}

func mustArtist(t *testing.T, s *Service, name string) *model.Artist {
	t.Helper()
	artist, err := s.CreateArtist(context.Background(), ArtistParams{Name: name, Age: "40"})
	if err != nil {
		t.Fatalf("CreateArtist(%s): %v", name, err)
	}
	return artist
}

func mustAlbum(t *testing.T, s *Service, artistID, name string) *model.Album {
	t.Helper()
	album, err := s.CreateAlbum(context.Background(), AlbumParams{ArtistID: artistID, Name: name, Genre: "rock"})
	if err != nil {
		t.Fatalf("CreateAlbum(%s): %v", name, err)
	}
	return album
}

func mustTrack(t *testing.T, s *Service, albumID, name string) *model.Track {
	t.Helper()
	track, err := s.CreateTrack(context.Background(), TrackParams{AlbumID: albumID, Name: name, Duration: "4.25"})
	if err != nil {
		t.Fatalf("CreateTrack(%s): %v", name, err)
	}
	return track
}

func TestCreateArtistIsIdempotent(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	created, err := s.CreateArtist(ctx, ArtistParams{Name: "Radiohead", Age: "21"})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if created.ID != ident.Artist("Radiohead") {
		t.Fatalf("unexpected id %q", created.ID)
	}
	if created.SelfURL != "http://localhost:8080/artists/"+created.ID {
		t.Fatalf("unexpected self link %q", created.SelfURL)
	}
	if created.AlbumsURL != created.SelfURL+"/albums" || created.TracksURL != created.SelfURL+"/tracks" {
		t.Fatalf("unexpected collection links %q %q", created.AlbumsURL, created.TracksURL)
	}

	_, err = s.CreateArtist(ctx, ArtistParams{Name: "Radiohead", Age: "99"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	existing, ok := conflict.Existing.(*model.Artist)
	if !ok {
		t.Fatalf("unexpected existing type %T", conflict.Existing)
	}
	if existing.ID != created.ID || existing.Age != 21 {
		t.Fatalf("conflict should carry the stored artist, got %+v", existing)
	}

	artists, err := s.ListArtists(ctx)
	if err != nil || len(artists) != 1 {
		t.Fatalf("expected exactly one artist, got %d, %v", len(artists), err)
	}
}

func TestCreateArtistValidation(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	cases := []ArtistParams{
		{Name: "", Age: "20"},
		{Name: "Blur", Age: ""},
		{Name: "Blur", Age: "twenty"},
		{Name: "Blur", Age: "-1"},
		{Name: "Blur", Age: "1.5"},
		{Name: "Blur", Age: "99999999999999999999999"},
	}
	for _, p := range cases {
		if _, err := s.CreateArtist(ctx, p); !errors.Is(err, ErrValidation) {
			t.Errorf("CreateArtist(%+v) = %v, want ErrValidation", p, err)
		}
	}
	if _, err := s.ListArtists(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no artist should have been stored, got %v", err)
	}

	accepted := map[string]int{"Suede": 5, "Pulp": 7, "Elastica": 0}
	inputs := map[string]string{"Suede": "+5", "Pulp": "007", "Elastica": "-0"}
	for name, raw := range inputs {
		artist, err := s.CreateArtist(ctx, ArtistParams{Name: name, Age: raw})
		if err != nil {
			t.Errorf("CreateArtist(age %q): %v", raw, err)
			continue
		}
		if artist.Age != accepted[name] {
			t.Errorf("age %q stored as %d, want %d", raw, artist.Age, accepted[name])
		}
	}
}

func TestCreateAlbumUnknownArtist(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.CreateAlbum(ctx, AlbumParams{ArtistID: "does-not-exist", Name: "Nothing", Genre: "none"})
	if !errors.Is(err, ErrReferential) {
		t.Fatalf("expected ErrReferential, got %v", err)
	}
	if _, err := s.ListAlbums(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("album should not be persisted, got %v", err)
	}
}

func TestCreateAlbumConflict(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	artist := mustArtist(t, s, "Blur")
	first := mustAlbum(t, s, artist.ID, "Parklife")

	_, err := s.CreateAlbum(ctx, AlbumParams{ArtistID: artist.ID, Name: "Parklife", Genre: "britpop"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if got := conflict.Existing.(*model.Album); got.ID != first.ID || got.Genre != "rock" {
		t.Fatalf("unexpected existing album %+v", got)
	}
}

func TestCreateTrack(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	artist := mustArtist(t, s, "Portishead")
	album := mustAlbum(t, s, artist.ID, "Dummy")

	track, err := s.CreateTrack(ctx, TrackParams{AlbumID: album.ID, Name: "Roads", Duration: "305.5"})
	if err != nil {
		t.Fatalf("CreateTrack: %v", err)
	}
	if track.ID != ident.Track("Roads", album.ID) {
		t.Fatalf("unexpected id %q", track.ID)
	}
	if track.ArtistID != artist.ID || track.ArtistURL != artist.SelfURL || track.AlbumURL != album.SelfURL {
		t.Fatalf("track not linked to its parents: %+v", track)
	}
	if track.TimesPlayed != 0 || track.Duration != 305.5 {
		t.Fatalf("unexpected initial state %+v", track)
	}

	stored, err := s.GetTrack(ctx, track.ID)
	if err != nil || stored.ArtistID != artist.ID {
		t.Fatalf("GetTrack: %+v, %v", stored, err)
	}
}

func TestCreateTrackRejects(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	artist := mustArtist(t, s, "Portishead")
	album := mustAlbum(t, s, artist.ID, "Dummy")

	for _, d := range []string{"", "0", "-3", "abc", "NaN", "Inf", "-Inf", "1e400", "0x"} {
		_, err := s.CreateTrack(ctx, TrackParams{AlbumID: album.ID, Name: "Roads", Duration: d})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("duration %q: expected ErrValidation, got %v", d, err)
		}
	}

	_, err := s.CreateTrack(ctx, TrackParams{AlbumID: "missing", Name: "Roads", Duration: "100"})
	if !errors.Is(err, ErrReferential) {
		t.Fatalf("expected ErrReferential for unknown album, got %v", err)
	}
	if _, err := s.ListTracks(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("no track should be stored, got %v", err)
	}

	coerced := []struct {
		name, raw string
		want      float64
	}{
		{"Sour Times", ".5", 0.5},
		{"Glory Box", "1e3", 1000},
		{"Mysterons", "3.", 3},
		{"Wandering Star", "+42", 42},
	}
	for _, tc := range coerced {
		track, err := s.CreateTrack(ctx, TrackParams{AlbumID: album.ID, Name: tc.name, Duration: tc.raw})
		if err != nil {
			t.Errorf("duration %q: %v", tc.raw, err)
			continue
		}
		if track.Duration != tc.want {
			t.Errorf("duration %q stored as %v, want %v", tc.raw, track.Duration, tc.want)
		}
	}

	mustTrack(t, s, album.ID, "Roads")
	_, err = s.CreateTrack(ctx, TrackParams{AlbumID: album.ID, Name: "Roads", Duration: "1"})
	var conflict *ConflictError
	if !errors.As(err, &conflict) || conflict.Entity != "track" {
		t.Fatalf("expected track conflict, got %v", err)
	}
}

func TestGetAndDeleteMissing(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	if _, err := s.GetArtist(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetArtist: %v", err)
	}
	if _, err := s.GetAlbum(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetAlbum: %v", err)
	}
	if err := s.DeleteTrack(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteTrack: %v", err)
	}
	if _, err := s.ListArtistTracks(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ListArtistTracks: %v", err)
	}
}

func TestDeleteArtistCascades(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	artist := mustArtist(t, s, "Massive Attack")
	mezz := mustAlbum(t, s, artist.ID, "Mezzanine")
	blue := mustAlbum(t, s, artist.ID, "Blue Lines")
	t1 := mustTrack(t, s, mezz.ID, "Angel")
	mustTrack(t, s, mezz.ID, "Teardrop")
	mustTrack(t, s, blue.ID, "Unfinished Sympathy")

	if err := s.DeleteArtist(ctx, artist.ID); err != nil {
		t.Fatalf("DeleteArtist: %v", err)
	}
	if _, err := s.GetAlbum(ctx, mezz.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("album should be gone, got %v", err)
	}
	if _, err := s.GetTrack(ctx, t1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("track should be gone, got %v", err)
	}
	if _, err := s.ListTracks(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected no tracks, got %v", err)
	}
	if err := s.DeleteArtist(ctx, artist.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestPlayCounts(t *testing.T) {
	s, pub := newTestService(t)
	ctx := context.Background()

	artist := mustArtist(t, s, "Björk")
	homogenic := mustAlbum(t, s, artist.ID, "Homogenic")
	post := mustAlbum(t, s, artist.ID, "Post")
	joga := mustTrack(t, s, homogenic.ID, "Joga")
	bachelorette := mustTrack(t, s, homogenic.ID, "Bachelorette")
	army := mustTrack(t, s, post.ID, "Army of Me")

	if n, err := s.PlayTrack(ctx, joga.ID); err != nil || n != 1 {
		t.Fatalf("PlayTrack: %d, %v", n, err)
	}
	if n, err := s.PlayAlbum(ctx, homogenic.ID); err != nil || n != 2 {
		t.Fatalf("PlayAlbum: %d, %v", n, err)
	}
	if n, err := s.PlayArtist(ctx, artist.ID); err != nil || n != 3 {
		t.Fatalf("PlayArtist: %d, %v", n, err)
	}

	want := map[string]int{joga.ID: 3, bachelorette.ID: 2, army.ID: 1}
	for id, count := range want {
		track, err := s.GetTrack(ctx, id)
		if err != nil {
			t.Fatalf("GetTrack(%s): %v", id, err)
		}
		if track.TimesPlayed != count {
			t.Errorf("track %s played %d times, want %d", track.Name, track.TimesPlayed, count)
		}
	}

	if len(pub.plays) != 6 {
		t.Fatalf("expected 6 play events, got %d", len(pub.plays))
	}
	if first := pub.plays[0]; first.TrackID != joga.ID || first.TimesPlayed != 1 || first.ArtistID != artist.ID {
		t.Fatalf("unexpected first event %+v", first)
	}
}

func TestPlayEmptyScope(t *testing.T) {
	s, pub := newTestService(t)
	ctx := context.Background()

	artist := mustArtist(t, s, "Silent")
	album := mustAlbum(t, s, artist.ID, "Nothing Here")

	if _, err := s.PlayAlbum(ctx, album.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("PlayAlbum on empty album: %v", err)
	}
	if _, err := s.PlayArtist(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("PlayArtist on missing artist: %v", err)
	}
	if _, err := s.PlayTrack(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("PlayTrack on missing track: %v", err)
	}
	if len(pub.plays) != 0 {
		t.Fatalf("no events expected, got %d", len(pub.plays))
	}
}

func TestPlaySurvivesPublisherFailure(t *testing.T) {
	s, pub := newTestService(t)
	pub.err = errors.New("redis down")
	ctx := context.Background()

	artist := mustArtist(t, s, "Air")
	album := mustAlbum(t, s, artist.ID, "Moon Safari")
	track := mustTrack(t, s, album.ID, "La Femme d'Argent")

	if _, err := s.PlayTrack(ctx, track.ID); err != nil {
		t.Fatalf("publish failure must not fail the play: %v", err)
	}
	stored, _ := s.GetTrack(ctx, track.ID)
	if stored.TimesPlayed != 1 {
		t.Fatalf("expected count 1, got %d", stored.TimesPlayed)
	}
}

func TestSnapshot(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot of empty catalog: %v", err)
	}
	if len(snap.Artists) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}

	artist := mustArtist(t, s, "Moby")
	album := mustAlbum(t, s, artist.ID, "Play")
	mustTrack(t, s, album.ID, "Porcelain")

	snap, err = s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Artists) != 1 || len(snap.Albums) != 1 || len(snap.Tracks) != 1 {
		t.Fatalf("unexpected snapshot sizes %d/%d/%d", len(snap.Artists), len(snap.Albums), len(snap.Tracks))
	}
}

// failingRepo fails every transaction with a store error that is neither a
// duplicate nor a foreign key violation.
type failingRepo struct {
	repository.CatalogRepository
	err error
}

func (r *failingRepo) InTx(context.Context, func(repository.CatalogRepository) error) error {
	return r.err
}

func TestUnexpectedStoreFailure(t *testing.T) {
	storeErr := errors.New("disk I/O error")
	s := NewService(&failingRepo{err: storeErr}, testBaseURL, nil)

	_, err := s.CreateArtist(context.Background(), ArtistParams{Name: "Anyone", Age: "1"})
	if err == nil {
		t.Fatal("expected an error")
	}
	var conflict *ConflictError
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrReferential) || errors.Is(err, ErrNotFound) || errors.As(err, &conflict) {
		t.Fatalf("unexpected failure must not map to a client error: %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("store error should be wrapped, got %v", err)
	}
}

// vanishingRepo drops the rows between the read and the increment, as a
// concurrent delete would.
type vanishingRepo struct {
	repository.CatalogRepository
}

func (r vanishingRepo) InTx(ctx context.Context, fn func(repository.CatalogRepository) error) error {
	return r.CatalogRepository.InTx(ctx, func(tx repository.CatalogRepository) error {
		return fn(vanishingRepo{CatalogRepository: tx})
	})
}

func (vanishingRepo) IncrementPlays(context.Context, []string) (int64, error) {
	return 0, nil
}

func TestPlayTrackDeletedConcurrently(t *testing.T) {
	repo := newTestRepo(t)
	pub := &recordingPublisher{}
	seed := NewService(repo, testBaseURL, nil)
	artist := mustArtist(t, seed, "Tricky")
	album := mustAlbum(t, seed, artist.ID, "Maxinquaye")
	track := mustTrack(t, seed, album.ID, "Overcome")

	s := NewService(vanishingRepo{CatalogRepository: repo}, testBaseURL, pub)
	if _, err := s.PlayTrack(context.Background(), track.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound when no row was incremented, got %v", err)
	}
	if _, err := s.PlayAlbum(context.Background(), album.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("PlayAlbum: expected ErrNotFound, got %v", err)
	}
	if len(pub.plays) != 0 {
		t.Fatalf("no events expected, got %d", len(pub.plays))
	}
}
