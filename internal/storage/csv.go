package storage

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/rdelaney/powerplay/internal/model"
)

// csvHeader is the draw history CSV column layout.
var csvHeader = []string{"draw_date", "white_1", "white_2", "white_3", "white_4", "white_5", "red", "power_play"}

// ImportCSV reads draw records from a CSV file. Malformed or invalid rows
// are skipped and counted; one bad row never aborts the import. Records
// are returned sorted by ascending draw date.
func ImportCSV(path string, logger *slog.Logger) (records []model.DrawRecord, skipped int, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // row length validated below

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}

	// Skip the header row when present.
	start := 0
	if rows[0][0] == csvHeader[0] {
		start = 1
	}

	for _, row := range rows[start:] {
		rec, err := parseCSVRow(row)
		if err != nil {
			logger.Warn("skipping malformed csv row", "row", row, "error", err)
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return model.Normalize(records, logger), skipped, nil
}

// ExportCSV writes draw records to a CSV file with a header row.
func ExportCSV(path string, records []model.DrawRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(csvRow(rec)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// AppendCSV appends one record to an existing CSV file, creating the file
// with a header when missing.
func AppendCSV(path string, rec model.DrawRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv for append: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	if err := w.Write(csvRow(rec)); err != nil {
		return fmt.Errorf("append csv row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func parseCSVRow(row []string) (model.DrawRecord, error) {
	if len(row) < 7 {
		return model.DrawRecord{}, fmt.Errorf("%w: expected at least 7 columns, got %d", model.ErrInvalidRecord, len(row))
	}

	date, err := time.Parse(dateLayout, row[0])
	if err != nil {
		return model.DrawRecord{}, fmt.Errorf("%w: bad date %q", model.ErrInvalidRecord, row[0])
	}

	var whites [model.WhiteCount]int
	for i := 0; i < model.WhiteCount; i++ {
		whites[i], err = strconv.Atoi(row[i+1])
		if err != nil {
			return model.DrawRecord{}, fmt.Errorf("%w: bad white ball %q", model.ErrInvalidRecord, row[i+1])
		}
	}

	red, err := strconv.Atoi(row[6])
	if err != nil {
		return model.DrawRecord{}, fmt.Errorf("%w: bad red ball %q", model.ErrInvalidRecord, row[6])
	}

	powerPlay := 0
	if len(row) > 7 && row[7] != "" {
		// The multiplier is optional; a bad value loses only the multiplier.
		powerPlay, _ = strconv.Atoi(row[7])
	}

	return model.NewDrawRecord(date, whites[:], red, powerPlay)
}

func csvRow(rec model.DrawRecord) []string {
	row := []string{rec.Date.Format(dateLayout)}
	for _, w := range rec.Whites {
		row = append(row, strconv.Itoa(w))
	}
	row = append(row, strconv.Itoa(rec.Red))
	if rec.PowerPlay > 0 {
		row = append(row, strconv.Itoa(rec.PowerPlay))
	} else {
		row = append(row, "")
	}
	return row
}
