package echoapi

import (
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/resume"
	"github.com/trezcool/placement/core/settings"
	"github.com/trezcool/placement/core/user"
)

const maxResumeSize = 5 << 20

// chatThreads keeps one open chat thread per student until logout.
type chatThreads struct {
	svc *chat.Service

	mu      sync.Mutex
	threads map[string]*chat.Thread
}

func newChatThreads(svc *chat.Service) *chatThreads {
	return &chatThreads{svc: svc, threads: make(map[string]*chat.Thread)}
}

func (ct *chatThreads) get(usr user.User) *chat.Thread {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	t, ok := ct.threads[usr.ID]
	if !ok {
		t = ct.svc.Open(usr)
		ct.threads[usr.ID] = t
		return t
	}
	t.SetStudent(usr)
	return t
}

func (ct *chatThreads) close(userID string) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if t, ok := ct.threads[userID]; ok {
		t.Close()
		delete(ct.threads, userID)
	}
}

func (ct *chatThreads) closeAll() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	for id, t := range ct.threads {
		t.Close()
		delete(ct.threads, id)
	}
}

type (
	StudentDashboard struct {
		User         user.User                 `json:"user"`
		Reminders    []reminder.Reminder       `json:"reminders"`
		Applications []opportunity.Opportunity `json:"applications"`
		Bookmarks    []opportunity.Opportunity `json:"bookmarks"`
	}

	SendResponse struct {
		Sent    bool          `json:"sent"`
		Message *chat.Message `json:"message,omitempty"`
	}
)

type studentApi struct {
	reminders     *reminder.Service
	opportunities *opportunity.Service
	resume        *resume.Service
	threads       *chatThreads
}

func registerStudentAPI(
	root *echo.Echo,
	g *echo.Group,
	reminders *reminder.Service,
	opportunities *opportunity.Service,
	resumeSvc *resume.Service,
	settingsSvc *settings.Service,
	threads *chatThreads,
) {
	api := studentApi{
		reminders:     reminders,
		opportunities: opportunities,
		resume:        resumeSvc,
		threads:       threads,
	}

	root.GET(user.RoleStudent.Home(), api.dashboard)

	sg := g.Group(user.RoleStudent.Home())

	sg.GET("/reminders", api.listReminders)
	sg.POST("/reminders", api.addReminder)
	sg.POST("/reminders/:id/toggle", api.toggleReminder)
	sg.DELETE("/reminders/:id", api.deleteReminder)

	sg.GET("/chat", api.chatMessages)
	sg.POST("/chat", api.sendChat)

	sg.GET("/opportunities", api.queryOpportunities)
	sg.POST("/opportunities/:id/apply", api.apply)
	sg.POST("/opportunities/:id/bookmark", api.bookmark)
	sg.GET("/applications", api.applications)
	sg.GET("/bookmarks", api.bookmarks)

	sg.GET("/resume", api.getResume)
	sg.PUT("/resume", api.saveResume)
	sg.POST("/resume/skills", api.addSkill)
	sg.DELETE("/resume/skills/:skill", api.removeSkill)
	sg.GET("/resume/file", api.getResumeFile)
	sg.POST("/resume/file", api.uploadResumeFile)
	sg.DELETE("/resume/file", api.removeResumeFile)

	registerSettingsAPI(sg, settingsSvc)
}

// Handlers

func (api *studentApi) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	rems, err := api.reminders.View(c, usr.ID)
	if err != nil {
		return errors.Wrap(err, "viewing reminders")
	}
	applied, err := api.opportunities.Applications(c, usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing applications")
	}
	saved, err := api.opportunities.Bookmarks(c, usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing bookmarks")
	}
	return ctx.JSON(http.StatusOK, StudentDashboard{User: usr, Reminders: rems, Applications: applied, Bookmarks: saved})
}

func (api *studentApi) listReminders(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	rems, err := api.reminders.View(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "viewing reminders")
	}
	return ctx.JSON(http.StatusOK, rems)
}

func (api *studentApi) addReminder(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data reminder.NewReminder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReminder")
	}
	rem, err := api.reminders.Add(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "adding reminder")
	}
	return ctx.JSON(http.StatusCreated, rem)
}

func (api *studentApi) toggleReminder(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	rem, found, err := api.reminders.Toggle(ctx.Request().Context(), usr.ID, id)
	if err != nil {
		return errors.Wrap(err, "toggling reminder")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, rem)
}

func (api *studentApi) deleteReminder(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	found, err := api.reminders.Delete(ctx.Request().Context(), usr.ID, id)
	if err != nil {
		return errors.Wrap(err, "deleting reminder")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) chatMessages(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	msgs, err := api.threads.get(usr).Messages(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading messages")
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *studentApi) sendChat(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data TextRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TextRequest")
	}
	msg, sent, err := api.threads.get(usr).Send(ctx.Request().Context(), data.Text)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	if !sent {
		return ctx.JSON(http.StatusOK, SendResponse{})
	}
	return ctx.JSON(http.StatusCreated, SendResponse{Sent: true, Message: &msg})
}

func (api *studentApi) queryOpportunities(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()
	filter := opportunity.Filter{Search: ctx.QueryParam("search"), Type: ctx.QueryParam("type")}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.opportunities.Query(c, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying opportunities")
	}
	skills, err := api.resume.Skills(c, usr)
	if err != nil {
		return errors.Wrap(err, "loading resume skills")
	}
	return ctx.JSON(http.StatusOK, opportunity.MatchFor(items, skills))
}

func (api *studentApi) record(ctx echo.Context, fn func(c echo.Context, studentID string, id int) (bool, error)) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	found, err := fn(ctx, usr.ID, id)
	if err != nil {
		return err
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *studentApi) apply(ctx echo.Context) error {
	return api.record(ctx, func(c echo.Context, studentID string, id int) (bool, error) {
		found, err := api.opportunities.Apply(c.Request().Context(), studentID, id)
		return found, errors.Wrap(err, "applying")
	})
}

func (api *studentApi) bookmark(ctx echo.Context) error {
	return api.record(ctx, func(c echo.Context, studentID string, id int) (bool, error) {
		found, err := api.opportunities.Bookmark(c.Request().Context(), studentID, id)
		return found, errors.Wrap(err, "bookmarking")
	})
}

func (api *studentApi) applications(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	items, err := api.opportunities.Applications(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing applications")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *studentApi) bookmarks(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	items, err := api.opportunities.Bookmarks(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "listing bookmarks")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *studentApi) getResume(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	r, err := api.resume.Get(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "loading resume")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *studentApi) saveResume(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data resume.Resume
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Resume")
	}
	r, err := api.resume.Save(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "saving resume")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *studentApi) addSkill(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data SkillRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SkillRequest")
	}
	r, added, err := api.resume.AddSkill(ctx.Request().Context(), usr, data.Skill)
	if err != nil {
		return errors.Wrap(err, "adding skill")
	}
	code := http.StatusOK
	if added {
		code = http.StatusCreated
	}
	return ctx.JSON(code, r)
}

func (api *studentApi) removeSkill(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	r, removed, err := api.resume.RemoveSkill(ctx.Request().Context(), usr, ctx.Param("skill"))
	if err != nil {
		return errors.Wrap(err, "removing skill")
	}
	if !removed {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *studentApi) getResumeFile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	f, found, err := api.resume.File(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "loading resume file")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *studentApi) uploadResumeFile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "a file is required")
	}
	if fh.Size > maxResumeSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer src.Close()
	content, err := io.ReadAll(io.LimitReader(src, maxResumeSize))
	if err != nil {
		return errors.Wrap(err, "reading upload")
	}

	meta := resume.FileMeta{
		Name: fh.Filename,
		Size: fh.Size,
		Type: fh.Header.Get("Content-Type"),
	}
	if lm := ctx.FormValue("last_modified"); lm != "" {
		meta.LastModified, _ = strconv.ParseInt(lm, 10, 64)
	}

	f, err := api.resume.Upload(ctx.Request().Context(), usr, meta, content)
	if err != nil {
		return errors.Wrap(err, "uploading resume")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *studentApi) removeResumeFile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err := api.resume.RemoveFile(ctx.Request().Context(), usr); err != nil {
		return errors.Wrap(err, "removing resume file")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type settingsApi struct {
	svc *settings.Service
}

func registerSettingsAPI(g *echo.Group, svc *settings.Service) {
	api := settingsApi{svc: svc}
	g.GET("/settings", api.get)
	g.PUT("/settings", api.save)
}

func (api *settingsApi) get(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	s, err := api.svc.Get(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *settingsApi) save(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data settings.Settings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Settings")
	}
	s, err := api.svc.Save(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "saving settings")
	}
	return ctx.JSON(http.StatusOK, s)
}
