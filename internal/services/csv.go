package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ToCSV renders rows in the given column order. The header line is the bare
// column keys; every value is double-quoted with inner quotes doubled, and a
// missing or nil value becomes "". Lines are joined with "\n".
func ToCSV(rows []map[string]interface{}, columns []string) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(columns, ","))

	for _, row := range rows {
		fields := make([]string, len(columns))
		for i, col := range columns {
			fields[i] = quoteField(formatValue(row[col]))
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// ExportFilename names a download as <entity>_<YYYY-MM-DD>.csv.
func ExportFilename(entity string, t time.Time) string {
	return fmt.Sprintf("%s_%s.csv", entity, t.Format("2006-01-02"))
}
