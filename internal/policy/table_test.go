package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tableData(rows int, row string) string {
	var b strings.Builder
	for i := 0; i < rows; i++ {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	return b.String()
}

func TestParseValid(t *testing.T) {
	table, err := Parse(tableData(72, "1.5,-2.25,0"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	row := table.Scores(0)
	if row[0] != 1.5 || row[1] != -2.25 || row[2] != 0 {
		t.Errorf("unexpected row 0: %v", row)
	}
}

func TestParseRejectsWrongRowCount(t *testing.T) {
	if _, err := Parse(tableData(71, "1,2,3")); err == nil {
		t.Error("expected error for 71 rows")
	}
	if _, err := Parse(tableData(73, "1,2,3")); err == nil {
		t.Error("expected error for 73 rows")
	}
}

func TestParseRejectsBadCells(t *testing.T) {
	if _, err := Parse(tableData(72, "1,2")); err == nil {
		t.Error("expected error for 2-cell row")
	}
	if _, err := Parse(tableData(72, "1,x,3")); err == nil {
		t.Error("expected error for non-numeric cell")
	}
}

func TestParseSkipsBlankLines(t *testing.T) {
	data := tableData(72, "0,1,0") + "\n\n"
	if _, err := Parse(data); err != nil {
		t.Errorf("trailing blank lines should be ignored: %v", err)
	}
}

func TestLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "q_table.csv")
	if err := os.WriteFile(filename, []byte(tableData(72, "0,10,0")), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := Load(filename)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := table.BestAction(0, false, false, false, 0); got != ActionMFA {
		t.Errorf("BestAction = %v, want MFA", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIndex(t *testing.T) {
	cases := []struct {
		acc          int
		up, uv, unk  bool
		sign         int
		want         int
	}{
		{0, false, false, false, 0, 0},
		{0, true, true, false, 0, 18},
		{2, true, true, false, 0, 66},
		{2, true, true, true, 2, 71},
		{1, false, true, false, 1, 31},
	}
	for _, c := range cases {
		if got := Index(c.acc, c.up, c.uv, c.unk, c.sign); got != c.want {
			t.Errorf("Index(%d,%v,%v,%v,%d) = %d, want %d", c.acc, c.up, c.uv, c.unk, c.sign, got, c.want)
		}
	}
}

func TestBestActionTieBreak(t *testing.T) {
	// All scores equal: the scan must keep ACCEPT.
	table, err := Parse(tableData(72, "5,5,5"))
	if err != nil {
		t.Fatal(err)
	}
	if got := table.BestAction(0, false, false, false, 0); got != ActionAccept {
		t.Errorf("equal scores: got %v, want ACCEPT", got)
	}

	// MFA and REJECT tied above ACCEPT: MFA wins, REJECT never overtakes a tie.
	table, err = Parse(tableData(72, "1,7,7"))
	if err != nil {
		t.Fatal(err)
	}
	if got := table.BestAction(0, false, false, false, 0); got != ActionMFA {
		t.Errorf("score[1]==score[2]>score[0]: got %v, want MFA", got)
	}

	// REJECT must still win when strictly greatest.
	table, err = Parse(tableData(72, "1,2,3"))
	if err != nil {
		t.Fatal(err)
	}
	if got := table.BestAction(0, false, false, false, 0); got != ActionReject {
		t.Errorf("strictly greatest REJECT: got %v, want REJECT", got)
	}
}

func TestBestActionDeterministic(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 72; i++ {
		fmt.Fprintf(&b, "%d,%d,%d\n", (i*7)%5, (i*3)%5, (i*11)%5)
	}
	table, err := Parse(b.String())
	if err != nil {
		t.Fatal(err)
	}

	for acc := 0; acc <= 2; acc++ {
		for _, up := range []bool{false, true} {
			for _, uv := range []bool{false, true} {
				for _, unk := range []bool{false, true} {
					for sign := 0; sign <= 2; sign++ {
						first := table.BestAction(acc, up, uv, unk, sign)
						for n := 0; n < 3; n++ {
							if got := table.BestAction(acc, up, uv, unk, sign); got != first {
								t.Fatalf("state (%d,%v,%v,%v,%d) not deterministic: %v then %v",
									acc, up, uv, unk, sign, first, got)
							}
						}
					}
				}
			}
		}
	}
}
