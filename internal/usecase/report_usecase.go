package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/eslsoft/yorlect/internal/entity"
	"github.com/eslsoft/yorlect/internal/repository"
	"github.com/eslsoft/yorlect/pkg/filterexpr"
)

// ExportKind selects one of the admin projections.
type ExportKind string

const (
	ExportMetadata     ExportKind = "metadata"
	ExportTranslations ExportKind = "translations"
	ExportProgress     ExportKind = "progress"
)

// ExportKinds lists the supported projections.
var ExportKinds = []ExportKind{ExportMetadata, ExportTranslations, ExportProgress}

// ParseExportKind resolves a kind name.
func ParseExportKind(s string) (ExportKind, error) {
	k := ExportKind(strings.ToLower(strings.TrimSpace(s)))
	if lo.Contains(ExportKinds, k) {
		return k, nil
	}
	return "", fmt.Errorf("unknown export kind %q", s)
}

// FileName is the download name of the projection.
func (k ExportKind) FileName() string {
	return "user_" + string(k) + ".csv"
}

var (
	progressHeader    = []string{"User", "Translated", "Assigned", "Progress (%)"}
	metadataHeader    = []string{"User", "Name", "Sex", "Age", "Gmail", "Country"}
	translationHeader = []string{"User", "Index", "English", "Translation", "Timestamp"}
)

// FilterSchema declares the variables usable in report filters.
var FilterSchema = filterexpr.Schema{
	"user":       filterexpr.KindString,
	"name":       filterexpr.KindString,
	"sex":        filterexpr.KindString,
	"age":        filterexpr.KindNumber,
	"country":    filterexpr.KindString,
	"translated": filterexpr.KindNumber,
	"assigned":   filterexpr.KindNumber,
	"progress":   filterexpr.KindNumber,
}

type ProgressRow struct {
	User       string
	Translated int
	Assigned   int
	Progress   float64
}

type MetadataRow struct {
	User    string
	Name    string
	Sex     string
	Age     string
	Gmail   string
	Country string
}

type TranslationRow struct {
	User        string
	Index       string
	English     string
	Translation string
	Timestamp   string
}

// Report holds the three admin projections, users in registration order.
type Report struct {
	Progress     []ProgressRow
	Metadata     []MetadataRow
	Translations []TranslationRow
}

// Empty reports whether no user matched.
func (r *Report) Empty() bool {
	return len(r.Progress) == 0
}

// ReportUsecase aggregates the progress store for administrators.
type ReportUsecase interface {
	Build(ctx context.Context, filter string) (*Report, error)
	WriteCSV(ctx context.Context, w io.Writer, kind ExportKind, filter string) error
}

func NewReportUsecase(store repository.ProgressStore) ReportUsecase {
	return &reportUsecase{store: store}
}

type reportUsecase struct {
	store repository.ProgressStore
}

func (u *reportUsecase) Build(ctx context.Context, filter string) (*Report, error) {
	f, err := filterexpr.Compile(filter, FilterSchema)
	if err != nil {
		return nil, err
	}
	snap, err := u.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	var records []*entity.UserRecord
	for _, rec := range snap.Records() {
		ok, err := f.Match(filterRow(rec))
		if err != nil {
			return nil, err
		}
		if ok {
			records = append(records, rec)
		}
	}

	return &Report{
		Progress: lo.Map(records, func(rec *entity.UserRecord, _ int) ProgressRow {
			return ProgressRow{
				User:       rec.Username,
				Translated: rec.TranslatedCount(),
				Assigned:   len(rec.Assigned),
				Progress:   rec.Progress(),
			}
		}),
		Metadata: lo.Map(records, func(rec *entity.UserRecord, _ int) MetadataRow {
			md := rec.Metadata
			return MetadataRow{
				User:    rec.Username,
				Name:    md.Name,
				Sex:     string(md.Sex),
				Age:     formatAge(md.Age),
				Gmail:   md.Gmail,
				Country: md.Country,
			}
		}),
		Translations: lo.FlatMap(records, func(rec *entity.UserRecord, _ int) []TranslationRow {
			return lo.Map(rec.SortedTranslationKeys(), func(key string, _ int) TranslationRow {
				e := rec.Translations[key]
				return TranslationRow{
					User:        rec.Username,
					Index:       key,
					English:     e.English,
					Translation: e.Translation,
					Timestamp:   e.Timestamp,
				}
			})
		}),
	}, nil
}

func (u *reportUsecase) WriteCSV(ctx context.Context, w io.Writer, kind ExportKind, filter string) error {
	report, err := u.Build(ctx, filter)
	if err != nil {
		return err
	}

	var rows [][]string
	switch kind {
	case ExportMetadata:
		rows = append(rows, metadataHeader)
		rows = append(rows, lo.Map(report.Metadata, func(r MetadataRow, _ int) []string {
			return []string{r.User, r.Name, r.Sex, r.Age, r.Gmail, r.Country}
		})...)
	case ExportTranslations:
		rows = append(rows, translationHeader)
		rows = append(rows, lo.Map(report.Translations, func(r TranslationRow, _ int) []string {
			return []string{r.User, r.Index, r.English, r.Translation, r.Timestamp}
		})...)
	case ExportProgress:
		rows = append(rows, progressHeader)
		rows = append(rows, lo.Map(report.Progress, func(r ProgressRow, _ int) []string {
			return []string{r.User, strconv.Itoa(r.Translated), strconv.Itoa(r.Assigned), FormatPercent(r.Progress)}
		})...)
	default:
		return fmt.Errorf("unknown export kind %q", kind)
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", kind.FileName(), err)
	}
	return nil
}

// FormatPercent renders a percentage without trailing zeros.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatAge(age int) string {
	if age == 0 {
		return ""
	}
	return strconv.Itoa(age)
}

func filterRow(rec *entity.UserRecord) filterexpr.Row {
	return filterexpr.Row{
		"user":       rec.Username,
		"name":       rec.Metadata.Name,
		"sex":        string(rec.Metadata.Sex),
		"age":        rec.Metadata.Age,
		"country":    rec.Metadata.Country,
		"translated": rec.TranslatedCount(),
		"assigned":   len(rec.Assigned),
		"progress":   rec.Progress(),
	}
}
