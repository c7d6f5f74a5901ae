// Package ident derives the stable identifiers used for catalog entities.
package ident

import (
	"encoding/base64"
	"strings"
)

// Length 标识符的最大长度
const Length = 22

// Derive joins parts with ":", base64-encodes the result and truncates it to Length.
// The same parts always yield the same identifier.
func Derive(parts ...string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, ":")))
	if len(encoded) > Length {
		return encoded[:Length]
	}
	return encoded
}

// Artist 艺术家ID只由名字决定
func Artist(name string) string {
	return Derive(name)
}

// Album 专辑ID由名字和所属艺术家决定
func Album(name, artistID string) string {
	return Derive(name, artistID)
}

// Track 歌曲ID由名字和所属专辑决定
func Track(name, albumID string) string {
	return Derive(name, albumID)
}
