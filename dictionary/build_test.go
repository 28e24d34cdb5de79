package dictionary

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}

const sampleJMdict = `[
  {
    "seq": 1358280,
    "k_ele": [{"keb": "食べる"}],
    "r_ele": [{"reb": "たべる"}],
    "sense": [{"pos": ["&v1;", "&vt;"], "gloss": ["to eat"]}]
  },
  {
    "seq": 2,
    "k_ele": [{"keb": "橋"}],
    "r_ele": [{"reb": "はし"}],
    "sense": [{"pos": ["&n;"], "gloss": ["bridge"]}]
  },
  {
    "seq": 3,
    "r_ele": [{"reb": "いつ"}],
    "sense": [{"pos": ["&n;"], "misc": ["&uk;"], "gloss": ["when"]}]
  },
  {
    "seq": 4,
    "k_ele": [{"keb": "空"}],
    "sense": []
  }
]`

const sampleRules = `[
  {"type": "stdrule", "con_end": "た", "dec_end": "る", "dec_tag": "v1", "detail": "past"},
  "not a rule",
  null
]`

const samplePriority = `[["橋", "はし", 1500], ["", "たべる", 200]]`

func TestBuildAndRoundTrip(t *testing.T) {
	dir := t.TempDir()
	jmdictPath := writeFile(t, dir, "jmdict.json", sampleJMdict)
	rulesPath := writeFile(t, dir, "rules.json", sampleRules)
	priorityPath := writeFile(t, dir, "priority.json", samplePriority)

	art, report, err := Build([]string{jmdictPath}, rulesPath, priorityPath, "", "")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if report.EntryCount != 3 {
		t.Fatalf("expected 3 entries (one dropped for empty senses), got %d", report.EntryCount)
	}
	if report.RuleCount != 1 {
		t.Fatalf("expected 1 well-formed rule, non-object elements skipped, got %d", report.RuleCount)
	}
	if report.PriorityCount != 2 {
		t.Fatalf("expected 2 priority entries, got %d", report.PriorityCount)
	}

	for _, keb := range []string{"食べる", "橋"} {
		indices, ok := art.LookupKan[keb]
		if !ok || len(indices) == 0 {
			t.Fatalf("expected lookup_kan[%q] to map to at least one entry", keb)
		}
		if art.Entries[indices[0]].Kebs[0] != keb {
			t.Fatalf("lookup_kan[%q] points at an entry that doesn't carry that keb", keb)
		}
	}
	for _, reb := range []string{"たべる", "はし", "いつ"} {
		indices, ok := art.LookupKana[reb]
		if !ok || len(indices) == 0 {
			t.Fatalf("expected lookup_kana[%q] to map to at least one entry", reb)
		}
	}

	for _, e := range art.Entries {
		if len(e.Kebs) == 0 && len(e.Rebs) == 0 {
			t.Fatalf("entry %d has no writing at all", e.ID)
		}
		if len(e.Senses) == 0 {
			t.Fatalf("entry %d has no senses", e.ID)
		}
	}

	savePath := filepath.Join(dir, "compiled.bin")
	if err := art.Save(savePath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Entries) != len(art.Entries) {
		t.Fatalf("round-tripped entry count mismatch: got %d want %d", len(loaded.Entries), len(art.Entries))
	}
	if len(loaded.LookupKan["橋"]) == 0 {
		t.Fatalf("round-tripped artifact lost lookup_kan entry")
	}
	if loaded.Priority[PriorityKey{Written: "橋", Reading: "はし"}] != 1500 {
		t.Fatalf("round-tripped priority map lost its bonus")
	}
}

func TestBuildPersistsReportWhenLogDirGiven(t *testing.T) {
	dir := t.TempDir()
	jmdictPath := writeFile(t, dir, "jmdict.json", sampleJMdict)
	rulesPath := writeFile(t, dir, "rules.json", sampleRules)
	priorityPath := writeFile(t, dir, "priority.json", samplePriority)

	logDir := filepath.Join(dir, "logs")
	if _, _, err := Build([]string{jmdictPath}, rulesPath, priorityPath, "", logDir); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	body, err := os.ReadFile(filepath.Join(logDir, "build-report.json"))
	if err != nil {
		t.Fatalf("expected build-report.json to be written: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("build-report.json is empty")
	}
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(path, []byte{0xFF, 'g', 'o', 'b'}, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to reject an artifact with an unknown version byte")
	}
}

func TestNormalizeTags(t *testing.T) {
	got := normalizeTags([]string{"&v1;", "&vt;"})
	if got[0] != "v1" || got[1] != "vt" {
		t.Fatalf("expected tags stripped of &;, got %v", got)
	}
}
