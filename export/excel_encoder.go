package export

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"

	"querybench/bench"
)

const maxExcelRows = 1048576

// ExcelEncoder writes an .xlsx workbook through excelize's stream writer.
// Numbers, booleans and timestamps keep their cell types.
type ExcelEncoder struct {
	f      *excelize.File
	sw     *excelize.StreamWriter
	w      io.Writer
	rowIdx int
	closed bool
}

func NewExcelEncoder(w io.Writer) (*ExcelEncoder, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter("Sheet1")
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ExcelEncoder{f: f, sw: sw, w: w, rowIdx: 1}, nil
}

func (e *ExcelEncoder) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) WriteRow(values []bench.Value) error {
	row := make([]any, len(values))
	for i, v := range values {
		switch v.Kind {
		case bench.KindInt:
			row[i] = v.Int
		case bench.KindFloat:
			row[i] = v.Float
		case bench.KindBool:
			row[i] = v.Bool
		case bench.KindTime:
			row[i] = v.Time
		default:
			row[i] = cellText(v)
		}
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) setRow(row []any) error {
	if e.rowIdx > maxExcelRows {
		return errors.New("excel row limit exceeded (1,048,576 rows)")
	}
	cell, err := excelize.CoordinatesToCellName(1, e.rowIdx)
	if err != nil {
		return err
	}
	if err := e.sw.SetRow(cell, row); err != nil {
		return err
	}
	e.rowIdx++
	return nil
}

// Flush finishes the sheet and writes the whole workbook. Call it once.
func (e *ExcelEncoder) Flush() error {
	if err := e.sw.Flush(); err != nil {
		return err
	}
	return e.f.Write(e.w)
}

func (e *ExcelEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.f.Close()
}
