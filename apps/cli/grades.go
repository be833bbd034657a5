package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/gradeportal/core/grade"
)

func (cli *commandLine) grades(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("grades")
	term := fs.String("q", "", "Only list grades whose student, course or semester contains TERM.")
	xlsx := fs.String("xlsx", "", "Write the grades to this .xlsx file instead of listing them.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := cli.client.GradesByRole(ctx, cli.auth.User().Role)
	if err := cli.check(ctx, res); err != nil {
		return err
	}
	grades := grade.Filter(res.Data, *term)

	if *xlsx != "" {
		return exportGrades(*xlsx, grades)
	}

	tw := cli.table()
	fmt.Fprintln(tw, "ID\tSTUDENT\tCOURSE\tSCORE\tLEVEL\tSEMESTER\tYEAR")
	for _, g := range grades {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			g.ID, g.StudentName, g.CourseName, formatScore(g.Score), grade.Level(g.Score), g.Semester, g.AcademicYear)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if sum, ok := grade.Summarize(grades); ok {
		fmt.Fprintf(cli.out, "\n%d grades, average %s, highest %s, lowest %s, pass rate %s%%\n",
			sum.Count, formatScore(sum.Average), formatScore(sum.Highest), formatScore(sum.Lowest), formatScore(sum.PassRate))
	}
	return nil
}

func exportGrades(path string, grades []grade.Grade) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "os.Create()")
	}
	defer func() {
		if cErr := f.Close(); err == nil {
			err = cErr
		}
	}()
	return grade.ExportXLSX(f, grades)
}

func (cli *commandLine) stats(ctx context.Context, _ []string) error {
	if cli.auth.User().IsStudent() {
		return errForbidden
	}
	res := cli.client.GradeStatistics(ctx)
	if err := cli.check(ctx, res); err != nil {
		return err
	}
	s := res.Data
	fmt.Fprintf(cli.out, "%d grades, average %s, highest %s, lowest %s, %d passed (%s%%)\n",
		s.Count, formatScore(s.Average), formatScore(s.Highest), formatScore(s.Lowest), s.PassedCount, formatScore(s.PassRate))
	return nil
}

func (cli *commandLine) gradeSet(ctx context.Context, args []string) error {
	if usr := cli.auth.User(); !(usr.IsTeacher() || usr.IsAdmin()) {
		return errForbidden
	}

	fs := cli.newFlagSet("grade-set")
	id := fs.Int("id", 0, "The grade's ID.")
	score := fs.Float64("score", -1, "The new score, between 0 and 100.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}

	res := cli.client.UpdateGrade(ctx, *id, grade.ScoreUpdate{Score: *score})
	if err := cli.check(ctx, res); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Grade %d: %s %s %s\n", res.Data.ID, res.Data.StudentName, res.Data.CourseName, formatScore(res.Data.Score))
	return nil
}

func (cli *commandLine) gradeAdd(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("grade-add")
	courseName := fs.String("course", "", "The course's name.")
	studentID := fs.Int("student", 0, "The student's ID, as listed by the students command.")
	score := fs.Float64("score", -1, "The score, between 0 and 100.")
	semester := fs.String("semester", cli.defaults.Semester, "The semester the grade is recorded for.")
	year := fs.String("year", cli.defaults.AcademicYear, "The academic year the grade is recorded for.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *courseName == "" || *studentID <= 0 {
		fs.Usage()
		return errHelp
	}

	studentsRes := cli.client.StudentsByCourse(ctx, *courseName)
	if err := cli.check(ctx, studentsRes); err != nil {
		return err
	}
	defaults := grade.SheetDefaults{Semester: *semester, AcademicYear: *year}
	sheet := grade.NewSheet(*courseName, defaults, studentsRes.Data, nil)
	entry, ok := sheet.Entry(*studentID, *score)
	if !ok {
		return errors.New("student is not enrolled in this course")
	}

	res := cli.client.SaveGrade(ctx, entry)
	if err := cli.check(ctx, res); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Saved %s %s %s\n", entry.StudentName, entry.CourseName, formatScore(entry.Score))
	return nil
}

func (cli *commandLine) sheetDefaults() grade.SheetDefaults {
	return grade.SheetDefaults{Semester: cli.defaults.Semester, AcademicYear: cli.defaults.AcademicYear}
}
