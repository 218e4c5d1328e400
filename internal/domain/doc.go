// Package domain models UK regional daily precipitation and the anomaly
// (z-score) pipeline computed over it.
//
// # Data Source
//
// Daily precipitation totals come from the Met Office Hadley Centre HadUKP
// regional series, published at https://www.metoffice.gov.uk/hadobs/hadukp/.
// Each of the eleven regions has one text file named
// "Had<CODE>_daily_totals.txt", e.g. HadSP_daily_totals.txt for Scotland.
//
// # HadUKP File Conventions
//
// Layout:
//
//	line 1-3   free-text metadata (title, units, provenance)
//	line 4     column header "Date Value"
//	line 5..   "<YYYY-MM-DD> <mm>" separated by runs of whitespace
//
// Values are millimetres per day. Negative values (the file uses -99.99) are
// missing-data sentinels and are dropped during parsing, leaving a gap in the
// series rather than a zero.
//
// # Calendar Fields
//
// Every observation carries its day-of-year (1-366), month and year, derived
// once from the UTC calendar date. Day-of-year is the alignment key between a
// date and its historical distribution, so 1 March is doy 60 in common years
// and doy 61 in leap years, and doy 366 only exists in leap years.
//
// # Anomaly Pipeline
//
//	observations ─► RollingSum ─► EstimateBaseline ─► Score ─► Result
//
// Rolling sums use an elapsed-calendar-day window (date-window, date] and
// require at least window/3 observations (integer division). Baseline
// statistics are the mean and sample standard deviation (n-1 denominator) of
// rolling sums per (region, day-of-year) within the baseline years. A z-score
// is only defined when the rolling sum, the mean and a non-zero deviation all
// exist; otherwise the row is kept with a nil z and a status explaining why.
package domain
