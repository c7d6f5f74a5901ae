package server

import (
	"net/http"
	"net/url"

	"espotifai/core/catalog"

	"github.com/gorilla/mux"
)

// APIHandler holds the dependencies of the catalog endpoints.
type APIHandler struct {
	svc *catalog.Service
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(svc *catalog.Service) *APIHandler {
	return &APIHandler{svc: svc}
}

// pathID returns the decoded {id} variable. Routes match on the escaped
// path so identifiers containing "/" arrive as %2F.
func pathID(r *http.Request) string {
	raw := mux.Vars(r)["id"]
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

// ========== 艺术家 ==========

// CreateArtistHandler POST /artists?name=&age=
func (h *APIHandler) CreateArtistHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	artist, err := h.svc.CreateArtist(r.Context(), catalog.ArtistParams{
		Name: q.Get("name"),
		Age:  q.Get("age"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, artist)
}

func (h *APIHandler) GetArtistsHandler(w http.ResponseWriter, r *http.Request) {
	artists, err := h.svc.ListArtists(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artists)
}

func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	artist, err := h.svc.GetArtist(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (h *APIHandler) GetArtistAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	albums, err := h.svc.ListArtistAlbums(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *APIHandler) GetArtistTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.ListArtistTracks(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// PlayArtistHandler PUT /artists/{id}/albums/play
func (h *APIHandler) PlayArtistHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.PlayArtist(r.Context(), pathID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteArtistHandler 删除艺术家及其全部专辑和歌曲
func (h *APIHandler) DeleteArtistHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteArtist(r.Context(), pathID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ========== 专辑 ==========

// CreateAlbumHandler POST /artists/{id}/albums?name=&genre=
func (h *APIHandler) CreateAlbumHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	album, err := h.svc.CreateAlbum(r.Context(), catalog.AlbumParams{
		ArtistID: pathID(r),
		Name:     q.Get("name"),
		Genre:    q.Get("genre"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

func (h *APIHandler) GetAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	albums, err := h.svc.ListAlbums(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *APIHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	album, err := h.svc.GetAlbum(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (h *APIHandler) GetAlbumTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.ListAlbumTracks(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

// PlayAlbumHandler PUT /albums/{id}/tracks/play
func (h *APIHandler) PlayAlbumHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.PlayAlbum(r.Context(), pathID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *APIHandler) DeleteAlbumHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAlbum(r.Context(), pathID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ========== 歌曲 ==========

// CreateTrackHandler POST /albums/{id}/tracks?name=&duration=
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	track, err := h.svc.CreateTrack(r.Context(), catalog.TrackParams{
		AlbumID:  pathID(r),
		Name:     q.Get("name"),
		Duration: q.Get("duration"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.ListTracks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	track, err := h.svc.GetTrack(r.Context(), pathID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// PlayTrackHandler PUT /tracks/{id}/play
func (h *APIHandler) PlayTrackHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.PlayTrack(r.Context(), pathID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTrack(r.Context(), pathID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
