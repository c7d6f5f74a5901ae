package catalog

import (
	"net/url"
	"strings"
)

// Links builds the absolute resource URLs stored on each entity.
// Identifiers are path-escaped since base64 may contain "/".
type Links struct {
	base string
}

func NewLinks(baseURL string) Links {
	return Links{base: strings.TrimRight(baseURL, "/")}
}

func (l Links) Artist(id string) string       { return l.base + "/artists/" + url.PathEscape(id) }
func (l Links) ArtistAlbums(id string) string { return l.Artist(id) + "/albums" }
func (l Links) ArtistTracks(id string) string { return l.Artist(id) + "/tracks" }
func (l Links) Album(id string) string        { return l.base + "/albums/" + url.PathEscape(id) }
func (l Links) AlbumTracks(id string) string  { return l.Album(id) + "/tracks" }
func (l Links) Track(id string) string        { return l.base + "/tracks/" + url.PathEscape(id) }
