// Package storage persists complaint records in a single spreadsheet file.
//
// The workbook is both the database and the human-readable report:
//   - one sheet, one header row, one row per complaint
//   - column order is fixed and part of the file contract
//   - every write re-applies the cosmetic formatting
//
// Data flow:
//
//	Read:   open workbook → parse rows → []complaint.Record
//	Append: read → number = max+1 → write row → format → replace file
//
// Thread-safety:
//   - None. The store assumes a single active writer. Callers that share a
//     Store between goroutines must serialize Append themselves.
//
// Durability:
//   - Writes go to a temp file in the same directory which is renamed over
//     the target, so a failed save never truncates the existing file.
package storage

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cadastro/internal/complaint"
	apperr "cadastro/internal/errors"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	// DefaultSheet is the sheet name used when creating a new workbook.
	DefaultSheet = "Sheet1"

	// DefaultTableName is the display name of the table object.
	DefaultTableName = "TabelaCadastro"

	// DefaultTableStyle is the built-in table style applied to the table object.
	DefaultTableStyle = "TableStyleMedium9"
)

// Store reads and appends complaint rows in an .xlsx workbook.
type Store struct {
	path       string
	sheet      string
	tableName  string
	tableStyle string
	logger     *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithSheet sets the sheet name used when the workbook is created.
// Existing workbooks are always read from their first sheet.
func WithSheet(name string) Option {
	return func(s *Store) { s.sheet = name }
}

// WithTable sets the table object name and style.
func WithTable(name, style string) Option {
	return func(s *Store) {
		s.tableName = name
		s.tableStyle = style
	}
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store for the workbook at path. No file I/O happens until
// Initialize, ReadAll, Append or Format is called.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		sheet:      DefaultSheet,
		tableName:  DefaultTableName,
		tableStyle: DefaultTableStyle,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the workbook location.
func (s *Store) Path() string {
	return s.path
}

// Initialize creates the workbook with only the header row when it does
// not exist yet. An existing file is never touched.
func (s *Store) Initialize() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return apperr.NewStoreError(apperr.StoreUnreadable, s.path, "stat workbook", err)
	}

	s.logger.Info("no complaint workbook found, creating a new one", zap.String("path", s.path))

	f := excelize.NewFile()
	defer f.Close()

	if s.sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, s.sheet); err != nil {
			return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "rename sheet", err)
		}
	}
	header := headerRow()
	if err := f.SetSheetRow(s.sheet, "A1", &header); err != nil {
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "write header", err)
	}
	if err := s.applyFormat(f, s.sheet, 1); err != nil {
		return err
	}
	return s.save(f)
}

// ReadAll loads every complaint row in file order.
func (s *Store) ReadAll() ([]complaint.Record, error) {
	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, _, err := s.readRecords(f)
	return records, err
}

// Append assigns the next complaint number to rec, writes it as a new row,
// reformats the workbook and replaces the file.
//
// The number is one more than the largest numeric value in column A, or 1
// when there is none. The file on disk is only replaced after the new
// workbook has been fully written; on any error it keeps its previous bytes.
//
// Thread-safety:
//   - Not safe for concurrent writers
//   - Callers in one process must serialize calls (the controller holds a mutex)
//   - Two processes appending to the same file lose one of the writes
//
// Parameters:
//   - rec: Validated complaint; its Number field is ignored
//
// Returns:
//   - complaint.Record: rec with the assigned Number
//   - error: StoreUnreadable if the file cannot be opened or parsed,
//     StoreWriteFailed if the row, formatting or replacement fails
func (s *Store) Append(rec complaint.Record) (complaint.Record, error) {
	f, err := s.open()
	if err != nil {
		return complaint.Record{}, err
	}
	defer f.Close()

	existing, lastRow, err := s.readRecords(f)
	if err != nil {
		return complaint.Record{}, err
	}

	rec.Number = NextNumber(existing)
	sheet := f.GetSheetName(0)
	row := lastRow + 1

	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return complaint.Record{}, apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "locate row", err)
	}
	values := recordRow(rec)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return complaint.Record{}, apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "write row", err)
	}
	if err := s.applyFormat(f, sheet, row); err != nil {
		return complaint.Record{}, err
	}
	if err := s.save(f); err != nil {
		return complaint.Record{}, err
	}

	s.logger.Debug("complaint row appended",
		zap.Int("complaint_number", rec.Number),
		zap.Int("row", row))
	return rec, nil
}

// Format re-applies the cosmetic pass to the workbook without changing any
// cell value. Applying it repeatedly yields the same result.
func (s *Store) Format() error {
	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return apperr.NewStoreError(apperr.StoreUnreadable, s.path, "read rows", err)
	}
	lastRow := len(rows)
	if lastRow < 1 {
		lastRow = 1
	}
	if err := s.applyFormat(f, sheet, lastRow); err != nil {
		return err
	}
	return s.save(f)
}

// NextNumber returns max(existing numbers)+1, or 1 for an empty table.
func NextNumber(records []complaint.Record) int {
	max := 0
	for _, r := range records {
		if r.Number > max {
			max = r.Number
		}
	}
	return max + 1
}

func (s *Store) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, apperr.NewStoreError(apperr.StoreUnreadable, s.path, "open workbook", err)
	}
	return f, nil
}

// readRecords parses the first sheet. lastRow is the 1-based index of the
// last row holding any value, header included.
func (s *Store) readRecords(f *excelize.File) ([]complaint.Record, int, error) {
	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, 0, apperr.NewStoreError(apperr.StoreCorrupted, s.path, "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, 0, apperr.NewStoreError(apperr.StoreUnreadable, s.path, "read rows", err)
	}
	if len(rows) == 0 {
		return nil, 0, apperr.NewStoreError(apperr.StoreCorrupted, s.path, "missing header row", nil)
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, 0, apperr.NewStoreError(apperr.StoreCorrupted, s.path, "unexpected header", err)
	}

	records := make([]complaint.Record, 0, len(rows)-1)
	seen := make(map[int]int, len(rows))
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blankRow(row) {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, 0, apperr.NewStoreError(apperr.StoreCorrupted, s.path, fmt.Sprintf("row %d", rowNum), err)
		}
		if prev, dup := seen[rec.Number]; dup {
			return nil, 0, apperr.NewStoreError(apperr.StoreCorrupted, s.path,
				fmt.Sprintf("row %d: complaint number %d already used on row %d", rowNum, rec.Number, prev), nil)
		}
		seen[rec.Number] = rowNum
		records = append(records, rec)
	}
	return records, len(rows), nil
}

// replaceFile moves the finished temp file over the workbook.
var replaceFile = os.Rename

// save writes f next to the target and renames it into place.
func (s *Store) save(f *excelize.File) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := f.WriteTo(tmp); err != nil {
		cleanup()
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "write workbook", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "sync workbook", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "close workbook", err)
	}
	if err := replaceFile(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "replace workbook", err)
	}
	return nil
}

func headerRow() []interface{} {
	out := make([]interface{}, len(Columns))
	for i, c := range Columns {
		out[i] = c.Name
	}
	return out
}

func checkHeader(row []string) error {
	for i, c := range Columns {
		got := ""
		if i < len(row) {
			got = strings.TrimSpace(row[i])
		}
		if got != c.Name {
			return fmt.Errorf("column %s: want %q, got %q", c.Letter, c.Name, got)
		}
	}
	return nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// recordRow lays rec out in column order. Zero dates become empty cells.
func recordRow(rec complaint.Record) []interface{} {
	return []interface{}{
		rec.Number,
		rec.VR,
		dateCell(rec.ReceivedDate),
		rec.Name,
		rec.Phone,
		rec.Email,
		string(rec.Process),
		string(rec.Channel),
		rec.Description,
		string(rec.Verdict),
		string(rec.ReturnMethod),
		rec.Response,
		string(rec.ReturnStatus),
		dateCell(rec.ReturnDate),
		rec.Action,
		rec.ActionCost,
	}
}

func dateCell(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return complaint.Day(t)
}

func parseRow(row []string) (complaint.Record, error) {
	cells := make([]string, len(Columns))
	copy(cells, row)

	num, err := parseNumber(cells[colNumber])
	if err != nil {
		return complaint.Record{}, err
	}
	received, err := parseDate(cells[colReceivedDate])
	if err != nil {
		return complaint.Record{}, fmt.Errorf("column %s: %w", Columns[colReceivedDate].Letter, err)
	}
	returned, err := parseDate(cells[colReturnDate])
	if err != nil {
		return complaint.Record{}, fmt.Errorf("column %s: %w", Columns[colReturnDate].Letter, err)
	}

	return complaint.Record{
		Number:       num,
		VR:           cells[colVR],
		ReceivedDate: received,
		Name:         cells[colName],
		Phone:        cells[colPhone],
		Email:        cells[colEmail],
		Process:      complaint.Process(cells[colProcess]),
		Channel:      complaint.Channel(cells[colChannel]),
		Description:  cells[colDescription],
		Verdict:      complaint.Verdict(cells[colVerdict]),
		ReturnMethod: complaint.ReturnMethod(cells[colReturnMethod]),
		Response:     cells[colResponse],
		ReturnStatus: complaint.ReturnStatus(cells[colReturnStatus]),
		ReturnDate:   returned,
		Action:       cells[colAction],
		ActionCost:   cells[colActionCost],
	}, nil
}

// parseNumber accepts integral values only. Spreadsheet tools sometimes
// store integers as "3.0", which is accepted.
func parseNumber(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("missing complaint number")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("complaint number %d is not positive", n)
		}
		return n, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != math.Trunc(v) || v <= 0 || v > math.MaxInt32 {
		return 0, fmt.Errorf("complaint number %q is not a positive integer", raw)
	}
	return int(v), nil
}

// textDateLayouts covers dates typed by hand into the workbook.
var textDateLayouts = []string{
	complaint.DateLayout,
	complaint.DisplayDateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// parseDate reads a raw date cell: an Excel serial number or a text date.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return complaint.Day(t), nil
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return complaint.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
