package main

import (
	"context"
	"errors"
	"fmt"
)

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("login")
	uname := fs.String("username", "", "Your username. The password will be prompted next.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uname == "" {
		fs.Usage()
		return errHelp
	}

	pwd, err := readPassword(cli.out)
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}

	res := cli.auth.Login(ctx, *uname, pwd)
	if !res.Success {
		return errors.New(res.Error)
	}
	usr := cli.auth.User()
	fmt.Fprintf(cli.out, "Logged in as %s (%s)\n", usr.Username, usr.Role.Label())
	return nil
}

func (cli *commandLine) logout(ctx context.Context, _ []string) error {
	cli.auth.Logout(ctx)
	fmt.Fprintln(cli.out, "Logged out")
	return nil
}

func (cli *commandLine) whoami(_ context.Context, _ []string) error {
	usr := cli.auth.User()
	fmt.Fprintf(cli.out, "%s\t%s\t%s\n", usr.Username, usr.RealName, usr.Role.Label())
	return nil
}

func (cli *commandLine) verifyEmail(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("verify-email")
	token := fs.String("token", "", "The token of the verification link.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		fs.Usage()
		return errHelp
	}

	res := cli.client.VerifyEmail(ctx, *token)
	if err := cli.check(ctx, res); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, messageOr(res.Data.Message, "Email verified"))
	return nil
}

func (cli *commandLine) resendVerification(ctx context.Context, args []string) error {
	fs := cli.newFlagSet("resend-verification")
	email := fs.String("email", "", "The email the account was registered with.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}

	res := cli.client.ResendVerification(ctx, *email)
	if err := cli.check(ctx, res); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, messageOr(res.Data.Message, "Verification email sent"))
	return nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
