package main

import (
	"context"
	"fmt"

	"github.com/trezcool/gradeportal/core/user"
)

func (cli *commandLine) users(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("users")
	term := fs.String("q", "", "Only list users whose username, name or email contains TERM.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res := cli.client.AllUsers(ctx)
	if err := cli.check(ctx, res); err != nil {
		return err
	}

	tw := cli.table()
	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\tEMAIL\tACTIVE")
	for _, u := range user.Filter(res.Data, *term) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.Username, u.RealName, u.Role.Label(), u.EmailValue(), u.IsActive)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := user.Count(res.Data)
	fmt.Fprintf(cli.out, "\n%d users, %d active, %d admins\n", counts.Total, counts.Active, counts.Admins)
	return nil
}

func (cli *commandLine) userStatus(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("user-status")
	id := fs.Int("id", 0, "The user's ID.")
	active := fs.Bool("active", true, "Whether the user may log in.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 {
		fs.Usage()
		return errHelp
	}

	res := cli.client.UpdateUserStatus(ctx, *id, *active)
	if err := cli.check(ctx, res); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, messageOr(res.Data.Message, "User status updated"))
	return nil
}

func (cli *commandLine) userDelete(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("user-delete")
	id := fs.Int("id", 0, "The user's ID.")
	yes := fs.Bool("yes", false, "Confirm the deletion; it cannot be undone.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id <= 0 || !*yes {
		fs.Usage()
		return errHelp
	}

	res := cli.client.DeleteUser(ctx, *id)
	if err := cli.check(ctx, res); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, messageOr(res.Data.Message, "User deleted"))
	return nil
}
