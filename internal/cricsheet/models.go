package cricsheet

// Match is one row of the match_info table. Every column is text so the
// warehouse never infers a numeric type for values that merely look numeric.
type Match struct {
	MatchID       string `parquet:"name=match_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Season        string `parquet:"name=season, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StartDate     string `parquet:"name=start_date, type=BYTE_ARRAY, convertedtype=UTF8"` // YYYY-MM-DD
	EndDate       string `parquet:"name=end_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Team1         string `parquet:"name=team1, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Team2         string `parquet:"name=team2, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Gender        string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	MatchType     string `parquet:"name=match_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Event         string `parquet:"name=event, type=BYTE_ARRAY, convertedtype=UTF8"`
	MatchNumber   string `parquet:"name=match_number, type=BYTE_ARRAY, convertedtype=UTF8"`
	Venue         string `parquet:"name=venue, type=BYTE_ARRAY, convertedtype=UTF8"`
	City          string `parquet:"name=city, type=BYTE_ARRAY, convertedtype=UTF8"`
	TossWinner    string `parquet:"name=toss_winner, type=BYTE_ARRAY, convertedtype=UTF8"`
	TossDecision  string `parquet:"name=toss_decision, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlayerOfMatch string `parquet:"name=player_of_match, type=BYTE_ARRAY, convertedtype=UTF8"`
	Winner        string `parquet:"name=winner, type=BYTE_ARRAY, convertedtype=UTF8"`
	WinnerRuns    string `parquet:"name=winner_runs, type=BYTE_ARRAY, convertedtype=UTF8"`
	WinnerWickets string `parquet:"name=winner_wickets, type=BYTE_ARRAY, convertedtype=UTF8"`
	WinnerInnings string `parquet:"name=winner_innings, type=BYTE_ARRAY, convertedtype=UTF8"`
	Outcome       string `parquet:"name=outcome, type=BYTE_ARRAY, convertedtype=UTF8"`
	Method        string `parquet:"name=method, type=BYTE_ARRAY, convertedtype=UTF8"`
	Eliminator    string `parquet:"name=eliminator, type=BYTE_ARRAY, convertedtype=UTF8"`
	Umpires       string `parquet:"name=umpires, type=BYTE_ARRAY, convertedtype=UTF8"`
	BallsPerOver  string `parquet:"name=balls_per_over, type=BYTE_ARRAY, convertedtype=UTF8"`
	DataVersion   string `parquet:"name=data_version, type=BYTE_ARRAY, convertedtype=UTF8"`
	SourceFile    string `parquet:"name=source_file, type=BYTE_ARRAY, convertedtype=UTF8"`
	LoadedAt      string `parquet:"name=loaded_at, type=BYTE_ARRAY, convertedtype=UTF8"`
	RunID         string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Delivery is one row of the ball_data table.
type Delivery struct {
	MatchID              string `parquet:"name=match_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Season               string `parquet:"name=season, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	StartDate            string `parquet:"name=start_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Venue                string `parquet:"name=venue, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Innings              int32  `parquet:"name=innings, type=INT32"`
	Ball                 string `parquet:"name=ball, type=BYTE_ARRAY, convertedtype=UTF8"` // over.ball, e.g. "12.3"
	Over                 int32  `parquet:"name=over_number, type=INT32"`
	BallInOver           int32  `parquet:"name=ball_in_over, type=INT32"`
	BattingTeam          string `parquet:"name=batting_team, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	BowlingTeam          string `parquet:"name=bowling_team, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Striker              string `parquet:"name=striker, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	NonStriker           string `parquet:"name=non_striker, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Bowler               string `parquet:"name=bowler, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	RunsOffBat           int32  `parquet:"name=runs_off_bat, type=INT32"`
	Extras               int32  `parquet:"name=extras, type=INT32"`
	Wides                int32  `parquet:"name=wides, type=INT32"`
	Noballs              int32  `parquet:"name=noballs, type=INT32"`
	Byes                 int32  `parquet:"name=byes, type=INT32"`
	Legbyes              int32  `parquet:"name=legbyes, type=INT32"`
	Penalty              int32  `parquet:"name=penalty, type=INT32"`
	WicketType           string `parquet:"name=wicket_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlayerDismissed      string `parquet:"name=player_dismissed, type=BYTE_ARRAY, convertedtype=UTF8"`
	OtherWicketTypes     string `parquet:"name=other_wicket_types, type=BYTE_ARRAY, convertedtype=UTF8"`
	OtherPlayerDismissed string `parquet:"name=other_player_dismissed, type=BYTE_ARRAY, convertedtype=UTF8"`
	LoadedAt             string `parquet:"name=loaded_at, type=BYTE_ARRAY, convertedtype=UTF8"`
	RunID                string `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// MatchFiles is the pair of archive entries belonging to one match.
// Either side may be empty.
type MatchFiles struct {
	MatchID   string
	InfoFile  string
	BallsFile string
}

func (f MatchFiles) HasInfo() bool  { return f.InfoFile != "" }
func (f MatchFiles) HasBalls() bool { return f.BallsFile != "" }

// KnownMissingInfo lists the match IDs whose info file is absent from the
// upstream dataset.
var KnownMissingInfo = map[string]bool{
	"1156654": true,
	"1156664": true,
	"1156662": true,
	"1156661": true,
	"1182643": true,
}
