package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/eslsoft/yorlect/internal/entity"
)

func reportFixture() *fakeProgressStore {
	ada := entity.NewUserRecord("ada", 0)
	ada.Metadata = entity.Metadata{Name: "Ada", Sex: entity.SexFemale, Age: 31, Country: "Nigeria"}
	ada.Assigned = []int{0, 1, 2, 3}
	ada.Translations["0"] = entity.TranslationEntry{English: "Hello", Translation: "Bawo", Timestamp: "2025-01-01T10:00:00"}
	ada.Index = 1

	bola := entity.NewUserRecord("bola", 1)
	bola.Metadata = entity.Metadata{Name: "Bola", Sex: entity.SexMale, Age: 22, Country: "Ghana"}
	bola.Assigned = []int{4, 5, 6}
	bola.Translations["10"] = entity.TranslationEntry{English: "Ten", Translation: "Mewa", Timestamp: "t10"}
	bola.Translations["5"] = entity.TranslationEntry{English: "Five", Translation: "Marun", Timestamp: "t5"}
	bola.Index = 2

	idle := entity.NewUserRecord("idle", 2)

	return newFakeProgressStore(bola, idle, ada)
}

func TestReportBuild(t *testing.T) {
	uc := NewReportUsecase(reportFixture())
	report, err := uc.Build(context.Background(), "")
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(report.Progress) != 3 {
		t.Fatalf("expected 3 progress rows, got %d", len(report.Progress))
	}
	if report.Progress[0].User != "ada" || report.Progress[0].Progress != 25 {
		t.Fatalf("unexpected first row %+v", report.Progress[0])
	}
	if report.Progress[1].Progress != 66.67 {
		t.Fatalf("expected rounding to two decimals, got %v", report.Progress[1].Progress)
	}
	idle := report.Progress[2]
	if idle.Assigned != 0 || idle.Progress != 0 {
		t.Fatalf("empty assignment should report 0%%, got %+v", idle)
	}
	if report.Metadata[2].Age != "" || report.Metadata[2].Sex != "" {
		t.Fatalf("unset metadata should be blank, got %+v", report.Metadata[2])
	}

	if len(report.Translations) != 3 {
		t.Fatalf("expected 3 translation rows, got %d", len(report.Translations))
	}
	if report.Translations[1].Index != "5" || report.Translations[2].Index != "10" {
		t.Fatalf("indices should ascend numerically: %+v", report.Translations)
	}
}

func TestReportFilter(t *testing.T) {
	uc := NewReportUsecase(reportFixture())
	report, err := uc.Build(context.Background(), `country == "Ghana" || progress >= 25.0`)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(report.Progress) != 2 || report.Progress[0].User != "ada" || report.Progress[1].User != "bola" {
		t.Fatalf("unexpected filtered rows %+v", report.Progress)
	}

	if _, err := uc.Build(context.Background(), `unknown_field > 1`); err == nil {
		t.Fatalf("expected filter compile error")
	}
}

func TestWriteCSVTranslations(t *testing.T) {
	uc := NewReportUsecase(reportFixture())
	var buf bytes.Buffer
	if err := uc.WriteCSV(context.Background(), &buf, ExportTranslations, ""); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "User,Index,English,Translation,Timestamp" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if strings.Join(rows[1], ",") != "ada,0,Hello,Bawo,2025-01-01T10:00:00" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
}

func TestWriteCSVMetadataAndProgress(t *testing.T) {
	uc := NewReportUsecase(reportFixture())

	var md bytes.Buffer
	if err := uc.WriteCSV(context.Background(), &md, ExportMetadata, ""); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(md.String()), "\n")
	if lines[0] != "User,Name,Sex,Age,Gmail,Country" || lines[1] != "ada,Ada,Female,31,,Nigeria" || lines[3] != "idle,,,,," {
		t.Fatalf("unexpected metadata csv:\n%s", md.String())
	}

	var pr bytes.Buffer
	if err := uc.WriteCSV(context.Background(), &pr, ExportProgress, ""); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	lines = strings.Split(strings.TrimSpace(pr.String()), "\n")
	if lines[0] != "User,Translated,Assigned,Progress (%)" || lines[2] != "bola,2,3,66.67" || lines[3] != "idle,0,0,0" {
		t.Fatalf("unexpected progress csv:\n%s", pr.String())
	}
}

func TestParseExportKind(t *testing.T) {
	kind, err := ParseExportKind(" Translations ")
	if err != nil || kind != ExportTranslations {
		t.Fatalf("ParseExportKind = %q, %v", kind, err)
	}
	if kind.FileName() != "user_translations.csv" {
		t.Fatalf("unexpected file name %q", kind.FileName())
	}
	if _, err := ParseExportKind("users"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
