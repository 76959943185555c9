package subsonic

import (
	"testing"

	"github.com/google/uuid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		kind EntityKind
	}{
		{"artist", KindArtist},
		{"album", KindAlbum},
		{"song", KindSong},
		{"user", KindUser},
		{"playlist", KindPlaylist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guid := uuid.New()
			encoded := EncodeID(tt.kind, guid.String())

			decoded := DecodeID(encoded)
			if decoded == nil {
				t.Fatalf("DecodeID(%q) returned nil", encoded)
			}
			if *decoded != guid {
				t.Errorf("DecodeID(%q) = %s, want %s", encoded, decoded, guid)
			}
		})
	}
}

func TestDecodeIDBareGuid(t *testing.T) {
	guid := uuid.New()

	decoded := DecodeID(guid.String())
	if decoded == nil {
		t.Fatal("bare guid should decode")
	}
	if *decoded != guid {
		t.Errorf("got %s, want %s", decoded, guid)
	}
}

func TestDecodeIDMalformed(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"not a guid", "song_not-a-guid"},
		{"prefix only", "song_"},
		{"garbage", "hello world"},
		{"unknown kind with valid guid still decodes", "folder_" + uuid.New().String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := DecodeID(tt.id)
			wantNil := tt.name != "unknown kind with valid guid still decodes"
			if wantNil && decoded != nil {
				t.Errorf("DecodeID(%q) = %s, want nil", tt.id, decoded)
			}
			if !wantNil && decoded == nil {
				t.Errorf("DecodeID(%q) = nil, want guid", tt.id)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	guid := uuid.New()

	id, ok := ParseID(EncodeID(KindAlbum, guid.String()))
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if id.Kind != KindAlbum {
		t.Errorf("Kind = %s, want %s", id.Kind, KindAlbum)
	}
	if id.GUID != guid {
		t.Errorf("GUID = %s, want %s", id.GUID, guid)
	}
	if id.String() != "album_"+guid.String() {
		t.Errorf("String() = %s", id.String())
	}

	if _, ok := ParseID("album_nope"); ok {
		t.Error("expected parse to fail for a malformed guid")
	}
}

func TestKindPredicates(t *testing.T) {
	guid := uuid.New().String()

	if !IsSongID("song_" + guid) {
		t.Error("IsSongID should match a song id")
	}
	if IsSongID("album_" + guid) {
		t.Error("IsSongID should not match an album id")
	}
	if IsArtistID("") || IsAlbumID("") || IsSongID("") || IsUserID("") {
		t.Error("predicates should be false for the empty id")
	}
	// "songs_..." must not be mistaken for "song_..." just by prefix.
	if IsSongID("songs" + guid) {
		t.Error("IsSongID should require the separator")
	}
}
