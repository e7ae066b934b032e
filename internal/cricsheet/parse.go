package cricsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Ball-by-ball columns every file must carry, in upstream order.
var requiredBallColumns = []string{
	"match_id", "season", "start_date", "venue", "innings", "ball",
	"batting_team", "bowling_team", "striker", "non_striker", "bowler",
	"runs_off_bat", "extras", "wides", "noballs", "byes", "legbyes", "penalty",
	"wicket_type", "player_dismissed",
}

// Optional columns and the header spellings seen upstream.
var optionalBallColumns = map[string]string{
	"other_wicket_type":      "other_wicket_types",
	"other_wicket_types":     "other_wicket_types",
	"other_player_dismissed": "other_player_dismissed",
}

// ParseInfo reads a match info file: a "version,<v>" row followed by
// "info,<key>,<value>" rows.
func ParseInfo(matchID, name string, r io.Reader) (*Match, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	m := &Match{MatchID: matchID, SourceFile: name}
	var teams, dates, umpires []string

	for rowNum := 0; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(name, matchID, err)
		}
		line, _ := cr.FieldPos(0)

		if rowNum == 0 {
			if len(row) < 2 || strings.TrimSpace(row[0]) != "version" {
				return nil, &ParseError{File: name, MatchID: matchID, Line: line, Reason: "expected version header"}
			}
			m.DataVersion = strings.TrimSpace(row[1])
			continue
		}
		if len(row) < 2 || strings.TrimSpace(row[0]) != "info" {
			return nil, &ParseError{File: name, MatchID: matchID, Line: line, Reason: fmt.Sprintf("unexpected row with %d fields", len(row))}
		}

		key := strings.TrimSpace(row[1])
		val := ""
		if len(row) > 2 {
			val = strings.TrimSpace(row[2])
		}

		switch key {
		case "team":
			teams = append(teams, val)
		case "date":
			dates = append(dates, val)
		case "umpire":
			umpires = append(umpires, val)
		case "season":
			m.Season = val
		case "gender":
			m.Gender = val
		case "match_type":
			m.MatchType = val
		case "event":
			m.Event = val
		case "match_number":
			m.MatchNumber = val
		case "venue":
			m.Venue = val
		case "city":
			m.City = val
		case "toss_winner":
			m.TossWinner = val
		case "toss_decision":
			m.TossDecision = val
		case "player_of_match":
			m.PlayerOfMatch = val
		case "winner":
			m.Winner = val
		case "winner_runs":
			m.WinnerRuns = val
		case "winner_wickets":
			m.WinnerWickets = val
		case "winner_innings":
			m.WinnerInnings = val
		case "outcome":
			m.Outcome = val
		case "method":
			m.Method = val
		case "eliminator":
			m.Eliminator = val
		case "balls_per_over":
			m.BallsPerOver = val
		}
	}

	if m.DataVersion == "" && len(teams) == 0 && len(dates) == 0 {
		return nil, &ParseError{File: name, MatchID: matchID, Reason: "empty info file"}
	}

	if len(teams) > 0 {
		m.Team1 = teams[0]
	}
	if len(teams) > 1 {
		m.Team2 = teams[1]
	}
	if len(dates) > 0 {
		m.StartDate = dates[0]
		m.EndDate = dates[len(dates)-1]
	}
	m.Umpires = strings.Join(umpires, "; ")

	if err := NormalizeMatch(m); err != nil {
		return nil, &ParseError{File: name, MatchID: matchID, Reason: "normalize", Err: err}
	}
	return m, nil
}

type ballColumns struct {
	idx map[string]int
}

func (c ballColumns) at(row []string, col string) string {
	i, ok := c.idx[col]
	if !ok {
		return ""
	}
	return OptionalField(row, i)
}

func readBallHeader(header []string) (ballColumns, error) {
	cols := ballColumns{idx: make(map[string]int, len(header))}
	required := make(map[string]bool, len(requiredBallColumns))
	for _, c := range requiredBallColumns {
		required[c] = true
	}

	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if canon, ok := optionalBallColumns[name]; ok {
			name = canon
		} else if !required[name] {
			return cols, fmt.Errorf("unexpected column %q", h)
		}
		if _, dup := cols.idx[name]; dup {
			return cols, fmt.Errorf("duplicate column %q", h)
		}
		cols.idx[name] = i
	}

	for _, c := range requiredBallColumns {
		if _, ok := cols.idx[c]; !ok {
			return cols, fmt.Errorf("missing column %q", c)
		}
	}
	return cols, nil
}

// ParseDeliveries reads a ball-by-ball file. Every row must carry the same
// number of fields as the header and a match_id equal to matchID.
func ParseDeliveries(matchID, name string, r io.Reader) ([]Delivery, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{File: name, MatchID: matchID, Line: 1, Reason: "missing header"}
	}
	if err != nil {
		return nil, csvError(name, matchID, err)
	}
	cols, err := readBallHeader(header)
	if err != nil {
		return nil, &ParseError{File: name, MatchID: matchID, Line: 1, Reason: "bad header", Err: err}
	}

	out := make([]Delivery, 0, 256)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(name, matchID, err)
		}
		line, _ := cr.FieldPos(0)

		d, err := deliveryFromRow(cols, row)
		if err != nil {
			return nil, &ParseError{File: name, MatchID: matchID, Line: line, Reason: "bad row", Err: err}
		}
		if d.MatchID != matchID {
			return nil, &ParseError{File: name, MatchID: matchID, Line: line, Reason: fmt.Sprintf("match_id %q does not match file name", d.MatchID)}
		}
		if err := NormalizeDelivery(&d); err != nil {
			return nil, &ParseError{File: name, MatchID: matchID, Line: line, Reason: "normalize", Err: err}
		}
		out = append(out, d)
	}
	return out, nil
}

func deliveryFromRow(cols ballColumns, row []string) (Delivery, error) {
	d := Delivery{
		MatchID:              cols.at(row, "match_id"),
		Season:               cols.at(row, "season"),
		StartDate:            cols.at(row, "start_date"),
		Venue:                cols.at(row, "venue"),
		Ball:                 cols.at(row, "ball"),
		BattingTeam:          cols.at(row, "batting_team"),
		BowlingTeam:          cols.at(row, "bowling_team"),
		Striker:              cols.at(row, "striker"),
		NonStriker:           cols.at(row, "non_striker"),
		Bowler:               cols.at(row, "bowler"),
		WicketType:           cols.at(row, "wicket_type"),
		PlayerDismissed:      cols.at(row, "player_dismissed"),
		OtherWicketTypes:     cols.at(row, "other_wicket_types"),
		OtherPlayerDismissed: cols.at(row, "other_player_dismissed"),
	}

	var err error
	if d.Innings, err = requiredInt(cols.at(row, "innings"), "innings"); err != nil {
		return d, err
	}
	if d.Over, d.BallInOver, err = splitBall(d.Ball); err != nil {
		return d, err
	}

	counts := []struct {
		col string
		dst *int32
	}{
		{"runs_off_bat", &d.RunsOffBat},
		{"extras", &d.Extras},
		{"wides", &d.Wides},
		{"noballs", &d.Noballs},
		{"byes", &d.Byes},
		{"legbyes", &d.Legbyes},
		{"penalty", &d.Penalty},
	}
	for _, c := range counts {
		if *c.dst, err = countInt(cols.at(row, c.col), c.col); err != nil {
			return d, err
		}
	}
	return d, nil
}

// splitBall turns "12.3" into over 12, ball 3.
func splitBall(s string) (int32, int32, error) {
	over, ball, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, fmt.Errorf("ball %q: want over.ball", s)
	}
	o, err := strconv.ParseInt(over, 10, 32)
	if err != nil || o < 0 {
		return 0, 0, fmt.Errorf("ball %q: bad over", s)
	}
	b, err := strconv.ParseInt(ball, 10, 32)
	if err != nil || b < 0 {
		return 0, 0, fmt.Errorf("ball %q: bad ball number", s)
	}
	return int32(o), int32(b), nil
}

func requiredInt(s, col string) (int32, error) {
	if s == "" {
		return 0, fmt.Errorf("%s is empty", col)
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", col, s, err)
	}
	return int32(n), nil
}

// Blank count cells mean nothing happened on that ball.
func countInt(s, col string) (int32, error) {
	if s == "" {
		return 0, nil
	}
	return requiredInt(s, col)
}

func csvError(name, matchID string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{File: name, MatchID: matchID, Line: pe.Line, Reason: "csv", Err: pe.Err}
	}
	return &ParseError{File: name, MatchID: matchID, Reason: "read", Err: err}
}
