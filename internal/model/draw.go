// Package model defines the normalized draw record and pick set types
// shared by the analysis, strategy, storage, and ingestion packages.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

const (
	// WhiteCount is the number of white balls in a single draw.
	WhiteCount = 5

	// MaxWhite is the largest valid white ball number.
	MaxWhite = 69

	// MaxRed is the largest valid red (Powerball) number.
	MaxRed = 26
)

var (
	// ErrInvalidRecord indicates a single draw record failed validation.
	// Callers skip the record and continue; one bad row never aborts a batch.
	ErrInvalidRecord = errors.New("invalid draw record")

	// ErrEmptyDataset indicates the full input sequence is empty. This is
	// the only condition that halts an analysis pipeline.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrInsufficientPool indicates a strategy's candidate pool is smaller
	// than required. It is always recovered locally via fallback and never
	// surfaced to callers.
	ErrInsufficientPool = errors.New("insufficient candidate pool")
)

// DrawRecord represents one historical Powerball draw. Records are
// constructed during ingestion normalization and immutable afterward.
type DrawRecord struct {
	// Date is the calendar date of the draw.
	Date time.Time

	// Whites holds the 5 distinct white ball numbers, each in [1, 69].
	// Order is not significant.
	Whites [WhiteCount]int

	// Red is the Powerball number in [1, 26].
	Red int

	// PowerPlay is the optional prize multiplier (0 when not recorded).
	// It is persisted but not used by any strategy.
	PowerPlay int
}

// Weekday returns the draw's weekday with Monday=0 .. Sunday=6.
func (d DrawRecord) Weekday() int {
	return (int(d.Date.Weekday()) + 6) % 7
}

// Validate checks the draw record invariants: 5 distinct whites in range
// and a red in range. Returns an error wrapping ErrInvalidRecord on failure.
func (d DrawRecord) Validate() error {
	if d.Date.IsZero() {
		return fmt.Errorf("%w: missing draw date", ErrInvalidRecord)
	}
	seen := make(map[int]bool, WhiteCount)
	for _, w := range d.Whites {
		if w < 1 || w > MaxWhite {
			return fmt.Errorf("%w: white ball %d out of range [1, %d]", ErrInvalidRecord, w, MaxWhite)
		}
		if seen[w] {
			return fmt.Errorf("%w: duplicate white ball %d", ErrInvalidRecord, w)
		}
		seen[w] = true
	}
	if d.Red < 1 || d.Red > MaxRed {
		return fmt.Errorf("%w: red ball %d out of range [1, %d]", ErrInvalidRecord, d.Red, MaxRed)
	}
	return nil
}

// NewDrawRecord constructs a validated draw record from a slice of white
// ball numbers. The slice must contain exactly 5 distinct values.
func NewDrawRecord(date time.Time, whites []int, red, powerPlay int) (DrawRecord, error) {
	if len(whites) != WhiteCount {
		return DrawRecord{}, fmt.Errorf("%w: expected %d white balls, got %d", ErrInvalidRecord, WhiteCount, len(whites))
	}
	rec := DrawRecord{Date: date, Red: red, PowerPlay: powerPlay}
	copy(rec.Whites[:], whites)
	if err := rec.Validate(); err != nil {
		return DrawRecord{}, err
	}
	return rec, nil
}

// Normalize drops invalid records and returns the remainder sorted by
// ascending draw date. Invalid records are logged and skipped; a partially
// valid record is never retained. The input slice is not modified.
func Normalize(records []DrawRecord, logger *slog.Logger) []DrawRecord {
	if logger == nil {
		logger = slog.Default()
	}
	valid := make([]DrawRecord, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			logger.Warn("dropping invalid draw record",
				"date", rec.Date.Format("2006-01-02"),
				"error", err)
			continue
		}
		valid = append(valid, rec)
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Date.Before(valid[j].Date)
	})
	return valid
}

// PickSet is the output of one strategy invocation: 5 distinct white picks
// sorted ascending plus one red pick.
type PickSet struct {
	// Strategy is the name of the producing strategy.
	Strategy string `json:"strategy"`

	// Description is a one-line rationale for the strategy.
	Description string `json:"description"`

	// Whites holds exactly 5 distinct numbers in [1, 69], ascending.
	Whites []int `json:"whites"`

	// Red is the single pick in [1, 26].
	Red int `json:"red"`
}
