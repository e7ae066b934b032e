package cricsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

const ballHeader = "match_id,season,start_date,venue,innings,ball,batting_team,bowling_team,striker,non_striker,bowler,runs_off_bat,extras,wides,noballs,byes,legbyes,penalty,wicket_type,player_dismissed,other_wicket_type,other_player_dismissed"

const legacyBallHeader = "match_id,season,start_date,venue,innings,ball,batting_team,bowling_team,striker,non_striker,bowler,runs_off_bat,extras,wides,noballs,byes,legbyes,penalty,wicket_type,player_dismissed"

func infoCSV(season string) string {
	return strings.Join([]string{
		"version,2.0.0",
		"info,balls_per_over,6",
		"info,team,West Indies",
		"info,team,England",
		"info,gender,male",
		"info,season," + season,
		"info,date,2015-04-13",
		"info,date,2015-04-17",
		"info,event,England tour of West Indies",
		"info,match_number,1",
		"info,venue,Sir Vivian Richards Stadium",
		"info,city,Antigua",
		"info,toss_winner,England",
		"info,toss_decision,bat",
		"info,player_of_match,JE Root",
		"info,umpire,HDPK Dharmasena",
		"info,umpire,SJ Davis",
		"info,outcome,draw",
		"info,player,England,JE Root",
		"info,registry,people,JE Root,ffd2f3a4",
	}, "\n") + "\n"
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
