package subsonic

import (
	"strings"

	"github.com/google/uuid"

	"AriaFM/logger"
)

// EntityKind classifies what a composite API id points at.
type EntityKind string

const (
	KindArtist   EntityKind = "artist"
	KindAlbum    EntityKind = "album"
	KindSong     EntityKind = "song"
	KindUser     EntityKind = "user"
	KindPlaylist EntityKind = "playlist"
)

// idSeparator joins the kind prefix and the guid on the wire. It is
// reserved: kind names never contain it.
const idSeparator = "_"

// EntityID is the parsed form of a composite API id. Ids are parsed once at
// the protocol boundary; business logic operates on this struct, never on
// the raw string.
type EntityID struct {
	Kind EntityKind
	GUID uuid.UUID
}

func (e EntityID) String() string {
	return string(e.Kind) + idSeparator + e.GUID.String()
}

// EncodeID builds the wire form "kind_guid" of an entity reference.
// Internal integer keys are never exposed; the guid is the entity's
// external API key.
func EncodeID(kind EntityKind, guid string) string {
	return string(kind) + idSeparator + guid
}

// DecodeID extracts the guid from a composite id. Decoding is best-effort:
// an id without a separator is treated as a bare guid (legacy clients send
// these), and anything that doesn't contain a guid yields nil rather than
// an error. Callers translate nil into "entity not found".
func DecodeID(compositeID string) *uuid.UUID {
	if compositeID == "" {
		return nil
	}

	candidate := compositeID
	if idx := strings.Index(compositeID, idSeparator); idx >= 0 {
		candidate = compositeID[idx+len(idSeparator):]
	} else {
		logger.Warn("Composite id has no type prefix, treating whole value as guid",
			logger.String("id", compositeID))
	}

	guid, err := uuid.Parse(candidate)
	if err != nil {
		return nil
	}
	return &guid
}

// ParseID decodes a composite id into its typed form. The second return is
// false when no guid could be extracted. Ids without a recognized kind
// prefix parse with an empty Kind.
func ParseID(compositeID string) (EntityID, bool) {
	guid := DecodeID(compositeID)
	if guid == nil {
		return EntityID{}, false
	}

	var kind EntityKind
	switch {
	case IsArtistID(compositeID):
		kind = KindArtist
	case IsAlbumID(compositeID):
		kind = KindAlbum
	case IsSongID(compositeID):
		kind = KindSong
	case IsUserID(compositeID):
		kind = KindUser
	case hasKindPrefix(compositeID, KindPlaylist):
		kind = KindPlaylist
	}

	return EntityID{Kind: kind, GUID: *guid}, true
}

func hasKindPrefix(compositeID string, kind EntityKind) bool {
	return strings.HasPrefix(compositeID, string(kind)+idSeparator)
}

// IsArtistID reports whether the id addresses an artist.
func IsArtistID(compositeID string) bool {
	return hasKindPrefix(compositeID, KindArtist)
}

// IsAlbumID reports whether the id addresses an album.
func IsAlbumID(compositeID string) bool {
	return hasKindPrefix(compositeID, KindAlbum)
}

// IsSongID reports whether the id addresses a song.
func IsSongID(compositeID string) bool {
	return hasKindPrefix(compositeID, KindSong)
}

// IsUserID reports whether the id addresses a user.
func IsUserID(compositeID string) bool {
	return hasKindPrefix(compositeID, KindUser)
}
