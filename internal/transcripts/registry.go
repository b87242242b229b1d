// Package transcripts matches external-agent transcript files to sessions
// and inspects their contents. The external agent writes append-only JSONL
// transcripts under a sessions directory, with a creation timestamp encoded
// in the filename.
package transcripts

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/grovetools/lookout/pkg/models"
)

const (
	// Tolerance is the maximum |transcript createdAt - session createdAt|
	// accepted as a match.
	Tolerance = 10 * time.Second

	// IndexTTL is how long a directory scan stays valid without a
	// signature change.
	IndexTTL = 5 * time.Second
)

// filenameTimestamp captures the creation timestamp encoded in transcript
// filenames, e.g. rollout-2025-01-15T10-30-45-<id>.jsonl.
var filenameTimestamp = regexp.MustCompile(`rollout-(\d{4}-\d{2}-\d{2}T\d{2}-\d{2}-\d{2})`)

// Entry is one candidate transcript file.
type Entry struct {
	Path      string
	CreatedAt time.Time
}

// Index is an explicitly owned scan cache: callers hold one and pass it
// into Resolve. It is valid while the directory signature (path + mtime)
// is unchanged and the TTL has not expired.
type Index struct {
	Entries   []Entry
	Signature string
	Expires   time.Time
}

// signature derives the cache key for a directory.
func signature(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s|%d", dir, info.ModTime().UnixNano()), nil
}

// Refresh rescans the directory if the index is stale: expired TTL or a
// changed signature. A missing directory yields an empty index.
func (idx *Index) Refresh(dir string, now time.Time) {
	sig, err := signature(dir)
	if err != nil {
		idx.Entries = nil
		idx.Signature = ""
		return
	}
	if sig == idx.Signature && now.Before(idx.Expires) {
		return
	}

	idx.Entries = scan(dir)
	idx.Signature = sig
	idx.Expires = now.Add(IndexTTL)
}

// scan walks the directory tree collecting transcript entries. The
// creation timestamp comes from the filename pattern, falling back to the
// file's modification time when the pattern doesn't match.
func scan(dir string) []Entry {
	var entries []Entry
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable subtrees
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
			return nil
		}

		created, ok := timestampFromName(d.Name())
		if !ok {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			created = info.ModTime()
		}
		entries = append(entries, Entry{Path: path, CreatedAt: created})
		return nil
	})
	return entries
}

// SessionIDFromName derives a stable session id from a transcript filename:
// the part after the encoded timestamp, or the bare stem when the filename
// doesn't follow the rollout pattern.
func SessionIDFromName(name string) string {
	stem := strings.TrimSuffix(name, ".jsonl")
	if m := filenameTimestamp.FindStringIndex(stem); m != nil {
		rest := strings.TrimPrefix(stem[m[1]:], "-")
		if rest != "" {
			return rest
		}
	}
	return stem
}

// timestampFromName parses the filename-encoded creation timestamp.
func timestampFromName(name string) (time.Time, bool) {
	m := filenameTimestamp.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	// The filename uses '-' in place of ':' in the time component.
	t, err := time.ParseInLocation("2006-01-02T15-04-05", m[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Resolve finds the transcript path for an external-agent session.
//
// Strategies, in order: a previously resolved path that still exists on
// disk is reused; otherwise the (cached) directory scan is consulted and
// the entry whose createdAt is closest to the session's created_at wins,
// accepted only within Tolerance.
func Resolve(sess *models.Session, dir string, idx *Index, now time.Time) (string, bool) {
	if sess.TranscriptPath != "" {
		if _, err := os.Stat(sess.TranscriptPath); err == nil {
			return sess.TranscriptPath, true
		}
	}

	created := sess.CreatedTime()
	if created.IsZero() {
		return "", false
	}

	idx.Refresh(dir, now)
	return Closest(idx.Entries, created)
}

// Closest returns the entry with minimal |CreatedAt - target| among those
// within Tolerance. Ties break toward the smaller delta first, then the
// lexically smaller path for determinism.
func Closest(entries []Entry, target time.Time) (string, bool) {
	best := ""
	var bestDelta time.Duration
	for _, e := range entries {
		delta := e.CreatedAt.Sub(target)
		if delta < 0 {
			delta = -delta
		}
		if delta > Tolerance {
			continue
		}
		if best == "" || delta < bestDelta || (delta == bestDelta && e.Path < best) {
			best = e.Path
			bestDelta = delta
		}
	}
	return best, best != ""
}
