package cricsheet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"

	"github.com/klauspost/compress/zip"
)

var (
	infoFilePattern  = regexp.MustCompile(`^(\d+|wi_\d+)_info\.csv$`)
	ballsFilePattern = regexp.MustCompile(`^(\d+|wi_\d+)\.csv$`)
)

// ErrDuplicateMatch reports two archive entries claiming the same file of
// one match, e.g. a/1.csv and b/1.csv.
var ErrDuplicateMatch = errors.New("duplicate match entry")

// Archive is an opened source archive on local disk.
type Archive struct {
	Path    string
	Matches []MatchFiles

	zr      *zip.ReadCloser
	entries map[string]*zip.File
	cleanup bool
}

// OpenArchive opens the zip at p and pairs its entries by match ID. When
// removeOnClose is set the file is deleted by Close.
func OpenArchive(p string, removeOnClose bool) (*Archive, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open zip %s: %w", p, err)
	}

	a := &Archive{
		Path:    p,
		zr:      zr,
		entries: make(map[string]*zip.File, len(zr.File)),
		cleanup: removeOnClose,
	}
	a.Matches, err = IndexEntries(zr.File, a.entries)
	if err != nil {
		_ = zr.Close()
		return nil, err
	}
	return a, nil
}

// IndexEntries groups zip entries into per-match file pairs sorted by match ID.
// Entries not following the <id>.csv / <id>_info.csv convention are skipped.
// byName, when non-nil, receives every indexed entry keyed by its full name.
// Two entries for the same file of one match fail with ErrDuplicateMatch.
func IndexEntries(files []*zip.File, byName map[string]*zip.File) ([]MatchFiles, error) {
	pairs := map[string]*MatchFiles{}
	get := func(id string) *MatchFiles {
		p, ok := pairs[id]
		if !ok {
			p = &MatchFiles{MatchID: id}
			pairs[id] = p
		}
		return p
	}

	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		base := path.Base(f.Name)
		var slot *string
		var id string
		if m := infoFilePattern.FindStringSubmatch(base); m != nil {
			id = m[1]
			slot = &get(id).InfoFile
		} else if m := ballsFilePattern.FindStringSubmatch(base); m != nil {
			id = m[1]
			slot = &get(id).BallsFile
		} else {
			continue
		}
		if *slot != "" {
			return nil, fmt.Errorf("%w: match %s in %s and %s", ErrDuplicateMatch, id, *slot, f.Name)
		}
		*slot = f.Name
		if byName != nil {
			byName[f.Name] = f
		}
	}

	out := make([]MatchFiles, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}

// Open returns a reader for the named archive entry.
func (a *Archive) Open(name string) (io.ReadCloser, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("archive entry %s not found", name)
	}
	return f.Open()
}

// ReadMatch parses both files of one match. The returned Match is nil when
// the archive has no info file for it.
func (a *Archive) ReadMatch(mf MatchFiles) (*Match, []Delivery, error) {
	var match *Match
	if mf.HasInfo() {
		rc, err := a.Open(mf.InfoFile)
		if err != nil {
			return nil, nil, &ParseError{File: mf.InfoFile, MatchID: mf.MatchID, Reason: "open entry", Err: err}
		}
		match, err = ParseInfo(mf.MatchID, mf.InfoFile, rc)
		rc.Close()
		if err != nil {
			return nil, nil, err
		}
	}

	var deliveries []Delivery
	if mf.HasBalls() {
		rc, err := a.Open(mf.BallsFile)
		if err != nil {
			return nil, nil, &ParseError{File: mf.BallsFile, MatchID: mf.MatchID, Reason: "open entry", Err: err}
		}
		deliveries, err = ParseDeliveries(mf.MatchID, mf.BallsFile, rc)
		rc.Close()
		if err != nil {
			return nil, nil, err
		}
	}
	return match, deliveries, nil
}

func (a *Archive) Close() error {
	err := a.zr.Close()
	if a.cleanup {
		_ = os.Remove(a.Path)
	}
	return err
}
