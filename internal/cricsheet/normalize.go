package cricsheet

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	matchIDPattern = regexp.MustCompile(`^(?:\d+|wi_\d+)$`)

	seasonYear      = regexp.MustCompile(`^\d{4}$`)
	seasonSplit     = regexp.MustCompile(`^\d{4}/\d{2}$`)
	seasonSplitLong = regexp.MustCompile(`^(\d{4})/\d{2}(\d{2})$`)
)

// NormalizeMatchID returns the textual match ID. Plain integer IDs and
// "wi_<int>" IDs pass through unchanged; they are never converted to numbers.
func NormalizeMatchID(s string) (string, error) {
	id := strings.TrimSpace(s)
	if !matchIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid match id %q", s)
	}
	return id, nil
}

// NormalizeSeason accepts "2019" and "2014/15". "2014/2015" is shortened to
// "2014/15".
func NormalizeSeason(s string) (string, error) {
	v := strings.TrimSpace(s)
	switch {
	case seasonYear.MatchString(v), seasonSplit.MatchString(v):
		return v, nil
	case seasonSplitLong.MatchString(v):
		m := seasonSplitLong.FindStringSubmatch(v)
		return m[1] + "/" + v[len(v)-2:], nil
	}
	return "", fmt.Errorf("invalid season %q", s)
}

// OptionalField returns the trimmed value of an optional column, or "" when
// the column is absent from the file or the cell is blank.
func OptionalField(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// NormalizeMatch fixes the textual columns of m in place.
func NormalizeMatch(m *Match) error {
	id, err := NormalizeMatchID(m.MatchID)
	if err != nil {
		return err
	}
	m.MatchID = id

	if m.Season != "" {
		season, err := NormalizeSeason(m.Season)
		if err != nil {
			return err
		}
		m.Season = season
	}
	return nil
}

// NormalizeDelivery fixes the textual columns of d in place.
func NormalizeDelivery(d *Delivery) error {
	id, err := NormalizeMatchID(d.MatchID)
	if err != nil {
		return err
	}
	d.MatchID = id

	if d.Season != "" {
		season, err := NormalizeSeason(d.Season)
		if err != nil {
			return err
		}
		d.Season = season
	}
	d.OtherWicketTypes = strings.TrimSpace(d.OtherWicketTypes)
	d.OtherPlayerDismissed = strings.TrimSpace(d.OtherPlayerDismissed)
	return nil
}
