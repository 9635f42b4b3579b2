package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/placement/apps/api/echo"
	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/resume"
	"github.com/trezcool/placement/core/scheduler"
	"github.com/trezcool/placement/core/session"
	"github.com/trezcool/placement/core/settings"
	"github.com/trezcool/placement/core/user"
	emailsvc "github.com/trezcool/placement/services/email"
	logsvc "github.com/trezcool/placement/services/logger"
	notifysvc "github.com/trezcool/placement/services/notify"
	"github.com/trezcool/placement/storage/directory"
	"github.com/trezcool/placement/storage/kv"
)

type HubLoggerParam struct {
	dig.In
	Logger core.Logger `name:"hubLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewLogger(conf, "API")
}

func newHubLogger(conf *core.Config) core.Logger {
	return logsvc.NewLogger(conf, "WS")
}

func newKV(conf *core.Config, logger core.Logger) (core.ClosableKVStore, core.KVStore) {
	store, err := kv.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening %s storage: %v", conf.Storage.Backend, err), err)
	}
	return store, store
}

func newUserRepository(conf *core.Config) user.Repository {
	return directory.NewDemoRepository(conf.Session.DemoPasswordHash)
}

func newHub(param HubLoggerParam) *notifysvc.Hub {
	return notifysvc.NewHub(param.Logger)
}

func newNotifier(logger core.Logger, hub *notifysvc.Hub) core.Notifier {
	return notifysvc.Multi(notifysvc.NewLogNotifier(logger), hub)
}

func newTranslator() ut.Translator {
	return core.NewTranslator()
}

func newSessionManager(
	conf *core.Config,
	store core.KVStore,
	users user.Repository,
	sched *scheduler.Queue,
	logger core.Logger,
	notifier core.Notifier,
) *session.Manager {
	return session.NewManager(session.Options{
		KV:          store,
		Users:       users,
		IDP:         session.NewMockIdentityProvider(conf.Session.FederationKey, conf.Session.FederationExpires, conf.AppName),
		Sleeper:     sched,
		Logger:      logger,
		Notifier:    notifier,
		LoginDelay:  conf.Session.LoginDelay,
		LogoutDelay: conf.Session.LogoutDelay,
	})
}

func newReminderService(
	store core.KVStore,
	sched *scheduler.Queue,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
	notifier core.Notifier,
) *reminder.Service {
	return reminder.NewService(reminder.Options{
		KV:         store,
		Clock:      sched,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
		Notifier:   notifier,
	})
}

func newChatService(
	conf *core.Config,
	store core.KVStore,
	sched *scheduler.Queue,
	logger core.Logger,
	notifier core.Notifier,
) *chat.Service {
	return chat.NewService(chat.Options{
		KV:        store,
		Scheduler: sched,
		Conf:      conf.Chat,
		Logger:    logger,
		Notifier:  notifier,
	})
}

func newOpportunityService(
	store core.KVStore,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
	notifier core.Notifier,
) *opportunity.Service {
	return opportunity.NewService(opportunity.Options{
		KV:         store,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
		Notifier:   notifier,
	})
}

func newSettingsService(
	store core.KVStore,
	mgr *session.Manager,
	users user.Repository,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
	notifier core.Notifier,
) *settings.Service {
	return settings.NewService(settings.Options{
		KV:         store,
		Session:    mgr,
		Users:      users,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
		Notifier:   notifier,
	})
}

func newResumeService(store core.KVStore, settingsSvc *settings.Service, logger core.Logger, notifier core.Notifier) *resume.Service {
	return resume.NewService(resume.Options{
		KV:       store,
		Settings: settingsSvc,
		Logger:   logger,
		Notifier: notifier,
	})
}

func newDigest(conf *core.Config, reminders *reminder.Service, settingsSvc *settings.Service, email core.EmailService) *reminder.Digest {
	return reminder.NewDigest(reminders, settingsSvc, email, conf.Reminder.DigestWindow)
}

type ServerParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	Session       *session.Manager
	Reminders     *reminder.Service
	Chat          *chat.Service
	Opportunities *opportunity.Service
	Settings      *settings.Service
	Resume        *resume.Service
	Hub           *notifysvc.Hub
}

func newServer(p ServerParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.Options{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		Session:       p.Session,
		Reminders:     p.Reminders,
		Chat:          p.Chat,
		Opportunities: p.Opportunities,
		Settings:      p.Settings,
		Resume:        p.Resume,
		Hub:           p.Hub,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newHubLogger, dig.Name("hubLogger")))
	must(c.Provide(newKV))
	must(c.Provide(newUserRepository))
	must(c.Provide(scheduler.New))
	must(c.Provide(newHub))
	must(c.Provide(newNotifier))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))
	must(c.Provide(newSessionManager))
	must(c.Provide(newReminderService))
	must(c.Provide(newChatService))
	must(c.Provide(newOpportunityService))
	must(c.Provide(newSettingsService))
	must(c.Provide(newResumeService))
	must(c.Provide(newDigest))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

// Visualize writes the container graph in DOT format to stdout.
func Visualize(c *dig.Container) error {
	return dig.Visualize(c, os.Stdout)
}
