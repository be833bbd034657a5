package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	echoweb "github.com/trezcool/gradeportal/apps/web/echo"
	"github.com/trezcool/gradeportal/core"
	"github.com/trezcool/gradeportal/core/user"
	apisvc "github.com/trezcool/gradeportal/services/api"
	logsvc "github.com/trezcool/gradeportal/services/logger"
	redissession "github.com/trezcool/gradeportal/storage/session/redis"
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "WEB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	return validate
}

type clientParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Metrics    *apisvc.Metrics
}

func newClient(p clientParams) *apisvc.Client {
	return apisvc.NewClient(apisvc.Options{
		BaseURL:    p.Conf.API.BaseURL,
		Timeout:    p.Conf.API.Timeout,
		Validate:   p.Validate,
		Translator: p.Translator,
		Logger:     p.Logger,
		Metrics:    p.Metrics,
	})
}

func newSessions(conf *core.Config, logger core.Logger) echoweb.SessionFactory {
	switch conf.Session.Driver {
	case core.SessionDriverCookie:
		return echoweb.NewCookieSessions(conf)
	case core.SessionDriverRedis:
		client, err := redissession.NewClient(context.Background(), conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("connecting to redis: %v", err), err)
		}
		return echoweb.NewRedisSessions(conf, client)
	}
	logger.Fatal(fmt.Sprintf("unknown session driver %q", conf.Session.Driver))
	return nil
}

func newServer(conf *core.Config, logger core.Logger, client *apisvc.Client, sessions echoweb.SessionFactory, reg *prometheus.Registry) *echoweb.Server {
	return echoweb.NewServer(echoweb.ServerDeps{
		Conf:     conf,
		Logger:   logger,
		Client:   client,
		Sessions: sessions,
		Gatherer: reg,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newRegistry))
	must(c.Provide(func(reg *prometheus.Registry) *apisvc.Metrics { return apisvc.NewMetrics(reg) }))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newClient))
	must(c.Provide(newSessions))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
