package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"suumo-checker/internal/models"
)

func TestReadTargets(t *testing.T) {
	input := "\ufeff物件名,部屋番号,URL\n" +
		"メゾン東京,101,https://suumo.jp/chintai/jnc_000000000001/\n" +
		",102,https://suumo.jp/chintai/jnc_000000000002/\n" +
		"コーポ丸の内,, not a url \n" +
		"ハイツ四谷,203,担当,メモ,https://suumo.jp/chintai/jnc_000000000003/\n"

	targets, err := ReadTargets(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadTargets: %v", err)
	}
	want := []models.Target{
		{Name: "メゾン東京", Room: "101", URL: "https://suumo.jp/chintai/jnc_000000000001/"},
		{Name: "ハイツ四谷", Room: "203", URL: "https://suumo.jp/chintai/jnc_000000000003/"},
	}
	if len(targets) != len(want) {
		t.Fatalf("targets: got %+v", targets)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("target %d: got %+v, want %+v", i, targets[i], want[i])
		}
	}
}

func TestLabel(t *testing.T) {
	tests := map[models.CheckStatus]string{
		models.StatusFoundConfirmed:    "⭕️",
		models.StatusFoundOtherCompany: "❌",
		models.StatusNotFound:          "",
		models.StatusNoPropertyID:      "",
		models.StatusQueryFailed:       "URL失敗",
		models.StatusExtractionFailed:  "抽出失敗",
		models.StatusSearchFailed:      "検索失敗",
		models.StatusVerifyFailed:      "確認失敗",
	}
	for status, want := range tests {
		if got := Label(status); got != want {
			t.Errorf("Label(%s) = %q, want %q", status, got, want)
		}
	}
}

func result(status models.CheckStatus, searchURL string) *models.CheckResult {
	return &models.CheckResult{Status: status, SearchURL: searchURL}
}

func TestSheetSyncKeepsHistory(t *testing.T) {
	a := models.Target{Name: "A", Room: "1", URL: "https://suumo.jp/a"}
	b := models.Target{Name: "B", Room: "2", URL: "https://suumo.jp/b"}
	c := models.Target{Name: "C", Room: "3", URL: "https://suumo.jp/c"}

	s := &Sheet{}
	s.Sync([]models.Target{a, b})
	s.AppendRun("06-01 09:00", []*models.CheckResult{
		result(models.StatusFoundConfirmed, "https://suumo.jp/search/a"),
		result(models.StatusNotFound, "https://suumo.jp/search/b"),
	})

	// b dropped, c added, order changed
	s.Sync([]models.Target{c, a})
	if len(s.Rows) != 2 {
		t.Fatalf("rows: got %d", len(s.Rows))
	}
	if s.Rows[0].Target != c || len(s.Rows[0].History) != 1 || s.Rows[0].History[0] != LabelSkipped {
		t.Errorf("new row: got %+v", s.Rows[0])
	}
	if s.Rows[1].Target != a || s.Rows[1].History[0] != LabelConfirmed {
		t.Errorf("kept row: got %+v", s.Rows[1])
	}
	if s.Rows[1].SearchURL != "https://suumo.jp/search/a" {
		t.Errorf("kept search url: got %q", s.Rows[1].SearchURL)
	}
}

func TestSheetChanges(t *testing.T) {
	a := models.Target{Name: "A", Room: "1", URL: "https://suumo.jp/a"}
	b := models.Target{Name: "B", Room: "2", URL: "https://suumo.jp/b"}

	s := &Sheet{}
	s.Sync([]models.Target{a, b})
	if changes := s.Changes(); changes != nil {
		t.Fatalf("no runs yet, got %v", changes)
	}

	s.AppendRun("06-01 09:00", []*models.CheckResult{
		result(models.StatusFoundConfirmed, ""),
		result(models.StatusNotFound, ""),
	})
	s.AppendRun("06-02 09:00", []*models.CheckResult{
		result(models.StatusFoundOtherCompany, ""),
		result(models.StatusNotFound, ""),
	})

	changes := s.Changes()
	if len(changes) != 1 {
		t.Fatalf("changes: got %+v", changes)
	}
	if changes[0].Target != a || changes[0].Previous != LabelConfirmed || changes[0].Current != LabelOtherCompany {
		t.Errorf("change: got %+v", changes[0])
	}
}

func TestSheetChangesIgnoresRowsAddedSinceLastRun(t *testing.T) {
	a := models.Target{Name: "A", Room: "1", URL: "https://suumo.jp/a"}
	b := models.Target{Name: "B", Room: "2", URL: "https://suumo.jp/b"}

	s := &Sheet{}
	s.Sync([]models.Target{a})
	s.AppendRun("06-01 09:00", []*models.CheckResult{result(models.StatusNotFound, "")})

	s.Sync([]models.Target{a, b})
	s.AppendRun("06-02 09:00", []*models.CheckResult{
		result(models.StatusNotFound, ""),
		result(models.StatusFoundConfirmed, ""),
	})

	if changes := s.Changes(); len(changes) != 0 {
		t.Errorf("a target added between runs is not a change, got %+v", changes)
	}
	if got := s.Rows[1].History; len(got) != 2 || got[0] != LabelSkipped || got[1] != LabelConfirmed {
		t.Errorf("new row history: got %v", got)
	}
}

func TestAppendRunMarksMissingResultsSkipped(t *testing.T) {
	s := &Sheet{}
	s.Sync([]models.Target{
		{Name: "A", URL: "https://suumo.jp/a"},
		{Name: "B", URL: "https://suumo.jp/b"},
	})
	s.AppendRun("06-01 09:00", []*models.CheckResult{result(models.StatusNotFound, "")})
	if got := s.Rows[1].History[0]; got != LabelSkipped {
		t.Errorf("skipped row: got %q", got)
	}
}

func TestSheetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.csv")

	s, err := LoadSheet(path)
	if err != nil {
		t.Fatalf("LoadSheet missing file: %v", err)
	}
	s.Sync([]models.Target{{Name: "メゾン東京", Room: "101", URL: "https://suumo.jp/a"}})
	s.AppendRun("06-01 09:00", []*models.CheckResult{
		result(models.StatusFoundConfirmed, "https://suumo.jp/chintai/tokyo/ek_27460/?et=10"),
	})
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "物件名,部屋番号,URL,検索URL,06-01 09:00\n" +
		"メゾン東京,101,https://suumo.jp/a,https://suumo.jp/chintai/tokyo/ek_27460/?et=10,⭕️\n"
	if string(data) != want {
		t.Errorf("saved:\n%s\nwant:\n%s", data, want)
	}

	loaded, err := LoadSheet(path)
	if err != nil {
		t.Fatalf("LoadSheet: %v", err)
	}
	if len(loaded.Runs) != 1 || loaded.Runs[0] != "06-01 09:00" {
		t.Errorf("runs: got %v", loaded.Runs)
	}
	if len(loaded.Rows) != 1 || loaded.Rows[0].History[0] != LabelConfirmed {
		t.Errorf("rows: got %+v", loaded.Rows)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestReadSheetPadsShortRows(t *testing.T) {
	input := "物件名,部屋番号,URL,検索URL,06-01 09:00,06-02 09:00\nA,1,https://suumo.jp/a\n"
	s, err := ReadSheet(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Rows[0].History) != 2 {
		t.Errorf("history: got %v", s.Rows[0].History)
	}

	var buf bytes.Buffer
	if err := s.Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "A,1,https://suumo.jp/a,,,\n") {
		t.Errorf("written: %q", buf.String())
	}
}

func TestReadSheetRejectsShortHeader(t *testing.T) {
	if _, err := ReadSheet(strings.NewReader("a,b\n")); err == nil {
		t.Error("expected error for short header")
	}
}
