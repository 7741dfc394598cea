package exporter

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"salarydash/internal/engine"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "salarios"

// WriteXLSX writes the view as a workbook with one header row in dataset
// column order. Year and salary cells are numeric; everything else is text.
func WriteXLSX(w io.Writer, v *engine.View) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return errors.Wrap(err, "create stream writer")
	}

	ds := v.Dataset()
	header := make([]interface{}, len(ds.Header))
	for i, name := range ds.Header {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return errors.Wrap(err, "write header")
	}

	for i := 0; i < v.Len(); i++ {
		row := v.Index(i)
		values := make([]interface{}, len(ds.Header))
		for j, name := range ds.Header {
			switch name {
			case engine.ColYear:
				values[j] = int(ds.Years[row])
			case engine.ColSalary:
				values[j] = ds.Salaries[row]
			default:
				values[j] = ds.Cell(row, name)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return errors.Wrapf(err, "write row %d", i+1)
		}
	}

	if err := sw.Flush(); err != nil {
		return errors.Wrap(err, "flush sheet")
	}
	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}
