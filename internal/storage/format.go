package storage

import (
	"fmt"

	apperr "cadastro/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Column describes one column of the workbook contract.
type Column struct {
	Letter string
	Name   string
	Width  float64
	Date   bool
}

// Columns is the fixed column layout, in order.
var Columns = []Column{
	{Letter: "A", Name: "Nº Reclamação", Width: 15},
	{Letter: "B", Name: "VR", Width: 10},
	{Letter: "C", Name: "Data Recebimento", Width: 15, Date: true},
	{Letter: "D", Name: "Nome/Razão Social", Width: 25},
	{Letter: "E", Name: "Telefone", Width: 15},
	{Letter: "F", Name: "Email", Width: 25},
	{Letter: "G", Name: "Processo Relacionado a Reclamação", Width: 30},
	{Letter: "H", Name: "Canal de Entrada da Reclamação", Width: 25},
	{Letter: "I", Name: "Descrição da Reclamação", Width: 40},
	{Letter: "J", Name: "Procedente/Não Procedente", Width: 20},
	{Letter: "K", Name: "Forma de Retorno", Width: 20},
	{Letter: "L", Name: "Descrição da Resposta", Width: 40},
	{Letter: "M", Name: "Status do Retorno ao Cliente", Width: 25},
	{Letter: "N", Name: "Data do Retorno", Width: 15, Date: true},
	{Letter: "O", Name: "Ação tomada", Width: 40},
	{Letter: "P", Name: "Custo da Ação", Width: 15},
}

// Column indexes into Columns.
const (
	colNumber = iota
	colVR
	colReceivedDate
	colName
	colPhone
	colEmail
	colProcess
	colChannel
	colDescription
	colVerdict
	colReturnMethod
	colResponse
	colReturnStatus
	colReturnDate
	colAction
	colActionCost
)

const (
	headerFontColor = "FFFFFF"
	headerFillColor = "4CAF50"
	dateNumFmt      = "DD/MM/YYYY"
)

// applyFormat styles rows 1..lastRow of sheet and re-registers the table
// object over that range. Cell values are left alone.
func (s *Store) applyFormat(f *excelize.File, sheet string, lastRow int) error {
	fail := func(step string, err error) error {
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "format: "+step, err)
	}

	for _, c := range Columns {
		if err := f.SetColWidth(sheet, c.Letter, c.Letter, c.Width); err != nil {
			return fail("column width", err)
		}
	}

	align := &excelize.Alignment{Vertical: "center", WrapText: true}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: headerFontColor},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Alignment: align,
	})
	if err != nil {
		return fail("header style", err)
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{Alignment: align})
	if err != nil {
		return fail("body style", err)
	}
	numFmt := dateNumFmt
	dateStyle, err := f.NewStyle(&excelize.Style{Alignment: align, CustomNumFmt: &numFmt})
	if err != nil {
		return fail("date style", err)
	}

	first, last := Columns[0].Letter, Columns[len(Columns)-1].Letter
	if err := f.SetCellStyle(sheet, first+"1", last+"1", headerStyle); err != nil {
		return fail("header cells", err)
	}
	if lastRow >= 2 {
		end := fmt.Sprintf("%s%d", last, lastRow)
		if err := f.SetCellStyle(sheet, first+"2", end, bodyStyle); err != nil {
			return fail("body cells", err)
		}
		for _, c := range Columns {
			if !c.Date {
				continue
			}
			if err := f.SetCellStyle(sheet, c.Letter+"2", fmt.Sprintf("%s%d", c.Letter, lastRow), dateStyle); err != nil {
				return fail("date cells", err)
			}
		}
	}

	return s.registerTable(f, sheet, lastRow)
}

// registerTable drops every table object on sheet and adds one covering the
// header and all data rows. A header-only sheet gets no table, since a table
// needs at least one data row.
func (s *Store) registerTable(f *excelize.File, sheet string, lastRow int) error {
	tables, err := f.GetTables(sheet)
	if err != nil {
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "format: list tables", err)
	}
	for _, t := range tables {
		if err := f.DeleteTable(t.Name); err != nil {
			return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "format: delete table "+t.Name, err)
		}
	}
	if lastRow < 2 {
		return nil
	}

	stripes := true
	table := &excelize.Table{
		Range:          TableRange(lastRow),
		Name:           s.tableName,
		StyleName:      s.tableStyle,
		ShowRowStripes: &stripes,
	}
	if err := f.AddTable(sheet, table); err != nil {
		return apperr.NewStoreError(apperr.StoreWriteFailed, s.path, "format: add table", err)
	}
	return nil
}

// TableRange returns the table reference covering rows 1..lastRow.
func TableRange(lastRow int) string {
	return fmt.Sprintf("%s1:%s%d", Columns[0].Letter, Columns[len(Columns)-1].Letter, lastRow)
}
