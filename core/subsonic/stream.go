package subsonic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"AriaFM/logger"
	"AriaFM/model"
	"AriaFM/repository"
)

// Sentinel errors the HTTP layer maps onto protocol error codes.
var (
	ErrDownloadsDisabled = errors.New("downloading is disabled on this server")
	ErrSongNotFound      = errors.New("song not found")
	ErrSongFileMissing   = errors.New("song file missing from library")
)

// StreamRequest is one stream or download call after parameter parsing.
type StreamRequest struct {
	SongID      string // composite api id
	RangeHeader string // raw Range header, may be empty
	MaxBitRate  int    // maxBitRate parameter, 0 when absent
	TimeOffset  int    // timeOffset parameter in seconds, 0 when absent
	Format      string // requested transcode format, empty when absent
	IsDownload  bool   // download endpoint ignores the Range header
}

// StreamResponse is the served slice plus everything needed to write the
// HTTP headers.
type StreamResponse struct {
	Song        *model.StreamableSong
	Data        []byte
	Begin       int64
	End         int64
	BytesRead   int64 // actual bytes read, may be short near end of file
	ContentType string
}

// Headers produces the response header set. Content-Length is the actual
// byte count served, and the Content-Range total reports the same count
// rather than the file size (players key their progress off the range
// bounds, not the total).
func (r *StreamResponse) Headers() map[string]string {
	return map[string]string{
		"Accept-Ranges":    "bytes",
		"Cache-Control":    "no-cache, no-store, must-revalidate",
		"Content-Duration": strconv.Itoa(int(r.Song.Duration)),
		"Content-Length":   strconv.FormatInt(r.BytesRead, 10),
		"Content-Range":    fmt.Sprintf("bytes %d-%d/%d", r.Begin, r.End, r.BytesRead),
		"Content-Type":     r.ContentType,
		"Expires":          "Mon, 01 Jan 1990 00:00:00 GMT",
	}
}

// ByteServer serves song file slices off the library directory tree.
// downloadsEnabled is read per request so a config reload takes effect
// without a restart.
type ByteServer struct {
	songs            repository.SongRepository
	libraryRoot      string
	downloadsEnabled func() bool
}

// NewByteServer creates a byte server rooted at the library directory.
func NewByteServer(songs repository.SongRepository, libraryRoot string, downloadsEnabled func() bool) *ByteServer {
	return &ByteServer{
		songs:            songs,
		libraryRoot:      libraryRoot,
		downloadsEnabled: downloadsEnabled,
	}
}

// Serve resolves the song, locates its file and reads the requested slice.
// The downloading gate applies to download-flagged requests only and is
// checked before any lookup or file I/O; streaming is never gated.
func (s *ByteServer) Serve(ctx context.Context, req *StreamRequest) (*StreamResponse, error) {
	if req.IsDownload && !s.downloadsEnabled() {
		return nil, ErrDownloadsDisabled
	}

	guid := DecodeID(req.SongID)
	if guid == nil {
		return nil, ErrSongNotFound
	}
	song, err := s.songs.GetStreamableSongByApiKey(ctx, guid.String())
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, ErrSongNotFound
	}

	if req.TimeOffset > 0 {
		logger.Warn("Stream with timeOffset is not supported, serving from the start",
			logger.String("songId", req.SongID),
			logger.Int("timeOffset", req.TimeOffset))
	}
	if req.MaxBitRate > 0 && req.MaxBitRate < song.BitRate {
		logger.Warn("Transcoding is not supported, serving the original file",
			logger.String("songId", req.SongID),
			logger.Int("maxBitRate", req.MaxBitRate),
			logger.Int("sourceBitRate", song.BitRate))
	}

	path := filepath.Join(s.libraryRoot, song.ArtistDir, song.AlbumDir, song.FileName)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Error("Song row exists but its file is gone",
				logger.String("songId", req.SongID),
				logger.String("path", path))
			return nil, ErrSongFileMissing
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	fileSize := info.Size()

	begin, end := parseRange(req, fileSize)
	bytesToRead := end - begin + 1
	if bytesToRead > fileSize {
		bytesToRead = fileSize
	}

	data := make([]byte, bytesToRead)
	n, err := file.ReadAt(data, begin)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return &StreamResponse{
		Song:        song,
		Data:        data[:n],
		Begin:       begin,
		End:         end,
		BytesRead:   int64(n),
		ContentType: song.ContentType,
	}, nil
}

// parseRange resolves the byte range to serve. Downloads and rangeless
// streams get the whole file as 0..fileSize; a "bytes=X-Y" header gets its
// bounds taken literally, with an absent or unparsable Y meaning the file
// size. Malformed headers fall back to the whole file.
func parseRange(req *StreamRequest, fileSize int64) (begin, end int64) {
	if req.IsDownload || req.RangeHeader == "" {
		return 0, fileSize
	}

	bounds := strings.TrimPrefix(req.RangeHeader, "bytes=")
	if bounds == req.RangeHeader {
		return 0, fileSize
	}
	parts := strings.SplitN(bounds, "-", 2)
	if len(parts) != 2 {
		return 0, fileSize
	}

	begin, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || begin < 0 {
		return 0, fileSize
	}
	end, err = strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || end < begin {
		end = fileSize
	}
	return begin, end
}
