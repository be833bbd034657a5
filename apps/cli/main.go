package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/auth"
	apisvc "github.com/trezcool/gradeportal/services/api"
	logsvc "github.com/trezcool/gradeportal/services/logger"
	filesession "github.com/trezcool/gradeportal/storage/session/file"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stderr, "CLI : ", log.LstdFlags), conf)

	store := filesession.New(conf.Session.File)
	client := apisvc.NewClient(apisvc.Options{
		BaseURL: conf.API.BaseURL,
		Timeout: conf.API.Timeout,
		Logger:  logger,
	}).WithStore(store)

	m := auth.NewManager(store, client, logger)
	m.Init(context.Background())

	// start CLI
	cli := commandLine{
		auth:     m,
		client:   client,
		defaults: conf.Grade,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			log.New(os.Stderr, "", 0).Printf("error: %s", err)
		}
		os.Exit(1)
	}
}
