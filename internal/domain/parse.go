package domain

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// metadataLines is the number of free-text lines preceding the column header.
	metadataLines = 3
	dateLayout    = "2006-01-02"
)

// ParseDailySeries reads a HadUKP daily-totals file and returns the region's
// observations sorted by date. Negative values are missing-data sentinels and
// are skipped. Malformed rows and duplicate dates are errors.
func ParseDailySeries(r io.Reader, region string) ([]Observation, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		obs     []Observation
		seen    = make(map[time.Time]int)
		lineNum int
	)

	for scanner.Scan() {
		lineNum++
		if lineNum <= metadataLines {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(obs) == 0 && isColumnHeader(fields) {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected date and value, got %d column(s)", lineNum, len(fields))
		}

		date, err := time.Parse(dateLayout, fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", lineNum, fields[0])
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q", lineNum, fields[1])
		}
		if prev, dup := seen[date]; dup {
			return nil, fmt.Errorf("line %d: duplicate date %s (first seen on line %d)", lineNum, fields[0], prev)
		}
		seen[date] = lineNum
		if value < 0 {
			continue
		}
		obs = append(obs, NewObservation(region, date, value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read series: %w", err)
	}
	if lineNum <= metadataLines {
		return nil, fmt.Errorf("series has no data rows (%d lines)", lineNum)
	}

	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return obs, nil
}

// isColumnHeader matches the "Date Value" header line.
func isColumnHeader(fields []string) bool {
	return strings.EqualFold(fields[0], "date")
}

// MissingValue is the sentinel HadUKP writes for days without a total.
const MissingValue = -99.99

// WriteDailySeries writes observations in the HadUKP daily-totals layout read by
// ParseDailySeries. Observations must belong to one region and be sorted by date.
// Calendar days between the first and last observation that have no observation
// are written as MissingValue rows.
func WriteDailySeries(w io.Writer, region Region, obs []Observation) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Daily precipitation totals for %s (%s)\n", region.Name, region.Code)
	fmt.Fprintln(bw, "Areal series, units mm")
	fmt.Fprintln(bw, "Missing values are written as -99.99")
	fmt.Fprintf(bw, "%-12s%8s\n", "Date", "Value")
	for i := range obs {
		if i > 0 {
			for d := obs[i-1].Date.AddDate(0, 0, 1); d.Before(obs[i].Date); d = d.AddDate(0, 0, 1) {
				fmt.Fprintf(bw, "%s  %8.2f\n", d.Format(dateLayout), MissingValue)
			}
		}
		fmt.Fprintf(bw, "%s  %8.2f\n", obs[i].Date.Format(dateLayout), obs[i].Precipitation)
	}
	return bw.Flush()
}
