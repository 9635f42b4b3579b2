package main

import (
	"context"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/scheduler"
	"github.com/trezcool/placement/core/settings"
	emailsvc "github.com/trezcool/placement/services/email"
	logsvc "github.com/trezcool/placement/services/logger"
	notifysvc "github.com/trezcool/placement/services/notify"
	"github.com/trezcool/placement/storage/directory"
	"github.com/trezcool/placement/storage/kv"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewLogger(conf, "ADMIN")

	// set up storage
	store, err := kv.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal("opening storage", err)
	}

	// start CLI
	cli := newCommandLine(conf, store, logger)
	err = cli.run(os.Args)
	if cerr := store.Close(); cerr != nil {
		logger.Error("closing storage", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}

func newCommandLine(conf *core.Config, store core.KVStore, logger core.Logger) *commandLine {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	users := directory.NewDemoRepository(conf.Session.DemoPasswordHash)
	notifier := notifysvc.NewLogNotifier(logger)
	clock := scheduler.New()

	reminders := reminder.NewService(reminder.Options{
		KV: store, Clock: clock, Validate: validate, Translator: translator, Logger: logger, Notifier: notifier,
	})
	settingsSvc := settings.NewService(settings.Options{
		KV:         store,
		Users:      users,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
		Notifier:   notifier,
	})

	return &commandLine{
		kv:        store,
		users:     users,
		out:       os.Stdout,
		reminders: reminders,
		opportunities: opportunity.NewService(opportunity.Options{
			KV: store, Validate: validate, Translator: translator, Logger: logger, Notifier: notifier,
		}),
		chat: chat.NewService(chat.Options{
			KV: store, Scheduler: clock, Conf: conf.Chat, Logger: logger, Notifier: notifier,
		}),
		digest: reminder.NewDigest(reminders, settingsSvc, emailsvc.NewService(conf, logger), conf.Reminder.DigestWindow),
	}
}
