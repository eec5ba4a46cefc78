// Package report reads and writes the delimited scan report that connects
// the scan and delete stages. The written header, not column position, is
// the contract: readers resolve columns by name and reject files whose
// header is missing required fields.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cloudsweep/cloudsweep/internal/models"
)

const timeLayout = time.RFC3339

var columns = []string{
	"kind", "region", "id", "name", "state", "created_at", "age_days",
	"size_units", "object_count", "utilization", "tags",
	"recommendation", "est_monthly_cost", "associated_id", "type_descriptor",
}

var requiredColumns = []string{
	"kind", "region", "id", "state", "created_at", "tags",
	"recommendation", "est_monthly_cost",
}

// Write emits one row per classified resource, in input order.
func Write(w io.Writer, rows []models.Classified, now time.Time) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("error writing report header: %w", err)
	}

	for _, row := range rows {
		rec := row.Record
		csvRow := []string{
			string(rec.Kind),
			rec.Region,
			rec.ID,
			rec.Name,
			rec.State,
			formatTime(rec.CreatedAt),
			formatAge(rec.AgeDays(now)),
			formatFloat(rec.SizeUnits),
			formatInt(rec.ObjectCount),
			formatFloat(rec.Utilization),
			formatTags(rec.Tags),
			fmt.Sprintf("%s: %s", row.Verdict.Disposition, row.Verdict.Reason),
			formatFloat(row.Verdict.EstimatedMonthlyCost),
			rec.AssociatedID,
			rec.TypeDescriptor,
		}
		if err := cw.Write(csvRow); err != nil {
			return fmt.Errorf("error writing report row for %s: %w", rec.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read parses a report back into classified rows, preserving file order.
func Read(r io.Reader) ([]models.Classified, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading report header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("report is missing required column %q", name)
		}
	}

	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var rows []models.Classified
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading report line %d: %w", line, err)
		}

		kind := models.ResourceKind(field(row, "kind"))
		if !models.IsValidKind(string(kind)) {
			return nil, fmt.Errorf("report line %d: unknown kind %q", line, kind)
		}

		disposition, reason, err := parseRecommendation(field(row, "recommendation"))
		if err != nil {
			return nil, fmt.Errorf("report line %d: %w", line, err)
		}

		rec := models.ResourceRecord{
			Kind:           kind,
			Region:         field(row, "region"),
			ID:             field(row, "id"),
			Name:           field(row, "name"),
			State:          field(row, "state"),
			CreatedAt:      parseTime(field(row, "created_at")),
			SizeUnits:      parseFloat(field(row, "size_units")),
			ObjectCount:    parseInt(field(row, "object_count")),
			Utilization:    parseFloat(field(row, "utilization")),
			Tags:           parseTags(field(row, "tags")),
			AssociatedID:   field(row, "associated_id"),
			TypeDescriptor: field(row, "type_descriptor"),
		}

		rows = append(rows, models.Classified{
			Record: rec,
			Verdict: models.Verdict{
				Disposition:          disposition,
				Reason:               reason,
				EstimatedMonthlyCost: parseFloat(field(row, "est_monthly_cost")),
			},
		})
	}

	return rows, nil
}

func parseRecommendation(s string) (models.Disposition, string, error) {
	disp, reason, found := strings.Cut(s, ": ")
	if !found {
		disp = strings.TrimSpace(s)
	}
	switch d := models.Disposition(disp); d {
	case models.DispositionDelete, models.DispositionReview, models.DispositionKeep, models.DispositionIgnore:
		return d, reason, nil
	default:
		return "", "", fmt.Errorf("unrecognized recommendation %q", s)
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func formatAge(age *int) string {
	if age == nil {
		return ""
	}
	return strconv.Itoa(*age)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func parseInt(s string) *int64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

// formatTags renders tags as key=value pairs joined by semicolons, sorted
// for stable output.
func formatTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(tags))
	for k, v := range tags {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}

func parseTags(s string) map[string]string {
	tags := make(map[string]string)
	if s == "" {
		return tags
	}
	for _, pair := range strings.Split(s, ";") {
		k, v, _ := strings.Cut(pair, "=")
		if k != "" {
			tags[k] = v
		}
	}
	return tags
}
