package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"text2phenotype.com/kg/types"
	"text2phenotype.com/kg/utils"
)

const xlsxSheet = "triples"

// WriteTriplesXLSX writes the triple table as a single-sheet workbook.
func WriteTriplesXLSX(path string, records []types.TripleRecord) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()

	if err = f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return err
	}
	sw, err := f.NewStreamWriter(xlsxSheet)
	if err != nil {
		return err
	}
	if err = sw.SetColWidth(1, 3, 24); err != nil {
		return err
	}
	if err = sw.SetColWidth(6, 6, 80); err != nil {
		return err
	}

	header := make([]interface{}, len(TripleColumns))
	for i, col := range TripleColumns {
		header[i] = col
	}
	if err = sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{rec.Subject, rec.Relation, rec.Object, rec.Confidence, rec.SourceFile, rec.Sentence}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err = sw.Flush(); err != nil {
		return err
	}

	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	})
}
