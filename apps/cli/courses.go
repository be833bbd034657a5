package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/gradeportal/core/course"
	"github.com/trezcool/gradeportal/core/grade"
	apisvc "github.com/trezcool/gradeportal/services/api"
)

func (cli *commandLine) courses(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("courses")
	term := fs.String("q", "", "Only list courses whose name or code contains TERM.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := cli.client.TeacherCourses(ctx)
	if err := cli.check(ctx, res); err != nil {
		return err
	}

	tw := cli.table()
	fmt.Fprintln(tw, "ID\tNAME\tCODE\tCREDIT")
	for _, c := range course.Filter(res.Data, *term) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.CourseName, c.CourseCode, strconv.FormatFloat(c.Credit, 'f', -1, 64))
	}
	return tw.Flush()
}

func (cli *commandLine) students(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("students")
	courseName := fs.String("course", "", "The course's name.")
	term := fs.String("q", "", "Only list students whose name, number or class contains TERM.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *courseName == "" {
		fs.Usage()
		return errHelp
	}

	var studentsRes apisvc.Result[[]course.Student]
	var gradesRes apisvc.Result[[]grade.Grade]
	var eg errgroup.Group
	eg.Go(func() error {
		studentsRes = cli.client.StudentsByCourse(ctx, *courseName)
		return nil
	})
	eg.Go(func() error {
		gradesRes = cli.client.GradesByCourse(ctx, *courseName)
		return nil
	})
	_ = eg.Wait()

	if err := cli.check(ctx, studentsRes); err != nil {
		return err
	}
	if err := cli.check(ctx, gradesRes); err != nil {
		return err
	}

	sheet := grade.NewSheet(*courseName, cli.sheetDefaults(), course.FilterStudents(studentsRes.Data, *term), gradesRes.Data)
	tw := cli.table()
	fmt.Fprintln(tw, "ID\tNAME\tNUMBER\tCLASS\tSCORE")
	for _, row := range sheet.Rows {
		score := "-"
		if row.HasScore {
			score = formatScore(row.Score)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", row.Student.ID, row.Student.DisplayName(), row.Student.StudentNumber, row.Student.ClassName, score)
	}
	return tw.Flush()
}

func formatScore(f float64) string {
	s := strings.TrimSuffix(strings.TrimRight(strconv.FormatFloat(f, 'f', 2, 64), "0"), ".")
	if s == "" {
		return "0"
	}
	return s
}
