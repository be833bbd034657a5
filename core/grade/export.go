package grade

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Grades"

var exportHeader = []interface{}{"Student", "Course", "Score", "Level", "Semester", "Academic Year", "Teacher"}

// ExportXLSX writes `grades` to `w` as a single-sheet spreadsheet, one row per grade.
func ExportXLSX(w io.Writer, grades []Grade) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return errors.Wrap(err, "excelize.SetSheetName()")
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return errors.Wrap(err, "excelize.SetSheetRow(header)")
	}

	for i, g := range grades {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "excelize.CoordinatesToCellName()")
		}
		row := []interface{}{g.StudentName, g.CourseName, g.Score, Level(g.Score), g.Semester, g.AcademicYear, g.TeacherName}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "excelize.SetSheetRow(%s)", cell)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "excelize.WriteTo()")
	}
	return nil
}
