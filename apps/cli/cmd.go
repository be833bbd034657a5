package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/auth"
	"github.com/trezcool/gradeportal/core/user"
	apisvc "github.com/trezcool/gradeportal/services/api"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp           = errors.New("help provided")
	errNotLoggedIn    = errors.New("not logged in, run: gradecli login -username USERNAME")
	errForbidden      = errors.New("this command is not available to your role")
	errSessionExpired = errors.New("session expired, please log in again")
)

type commandLine struct {
	auth     *auth.Manager
	client   *apisvc.Client
	defaults core.GradeConfig
	out      io.Writer
}

type command struct {
	usage string
	req   auth.Requirement
	run   func(cli *commandLine, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":               {usage: "login -username USERNAME - log in; the password is prompted next", req: auth.Public, run: (*commandLine).login},
	"logout":              {usage: "logout - end the current session", req: auth.Public, run: (*commandLine).logout},
	"whoami":              {usage: "whoami - show the logged-in user", req: auth.AnyRole, run: (*commandLine).whoami},
	"verify-email":        {usage: "verify-email -token TOKEN - verify a new account's email", req: auth.Public, run: (*commandLine).verifyEmail},
	"resend-verification": {usage: "resend-verification -email EMAIL - send the verification email again", req: auth.Public, run: (*commandLine).resendVerification},
	"grades":              {usage: "grades [-q TERM] [-xlsx FILE] - list (or export) the grades visible to you", req: auth.AnyRole, run: (*commandLine).grades},
	"stats":               {usage: "stats - show the overall grade statistics", req: auth.AnyRole, run: (*commandLine).stats},
	"grade-set":           {usage: "grade-set -id ID -score SCORE - update the score of a grade", req: auth.AnyRole, run: (*commandLine).gradeSet},
	"courses":             {usage: "courses [-q TERM] - list your courses", req: auth.RequireRole(user.RoleTeacher), run: (*commandLine).courses},
	"students":            {usage: "students -course NAME [-q TERM] - list a course's students and their scores", req: auth.RequireRole(user.RoleTeacher), run: (*commandLine).students},
	"grade-add":           {usage: "grade-add -course NAME -student ID -score SCORE - record a student's grade", req: auth.RequireRole(user.RoleTeacher), run: (*commandLine).gradeAdd},
	"users":               {usage: "users [-q TERM] - list every user", req: auth.RequireRole(user.RoleAdmin), run: (*commandLine).users},
	"user-status":         {usage: "user-status -id ID -active=true|false - activate or deactivate a user", req: auth.RequireRole(user.RoleAdmin), run: (*commandLine).userStatus},
	"user-delete":         {usage: "user-delete -id ID -yes - delete a user", req: auth.RequireRole(user.RoleAdmin), run: (*commandLine).userDelete},
}

var commandOrder = []string{
	"login", "logout", "whoami", "verify-email", "resend-verification",
	"grades", "stats", "grade-set",
	"courses", "students", "grade-add",
	"users", "user-status", "user-delete",
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	for _, name := range commandOrder {
		fmt.Fprintln(cli.out, "  "+commands[name].usage)
	}
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	cmd, ok := commands[args[1]]
	if !ok {
		cli.printUsage()
		return errHelp
	}
	if err := cli.require(cmd.req); err != nil {
		return err
	}
	return cmd.run(cli, context.Background(), args[2:])
}

func (cli *commandLine) require(req auth.Requirement) error {
	switch auth.Authorize(cli.auth.User(), req) {
	case auth.RedirectLogin:
		return errNotLoggedIn
	case auth.Forbid:
		return errForbidden
	}
	return nil
}

// check turns a failed Result into an error; a rejected session is also dropped locally.
func (cli *commandLine) check(ctx context.Context, res interface{ Err() error }) error {
	err := res.Err()
	if apisvc.IsKind(err, apisvc.KindAuthentication) {
		cli.auth.Logout(ctx)
		return errSessionExpired
	}
	return err
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
}

func readPassword(out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
