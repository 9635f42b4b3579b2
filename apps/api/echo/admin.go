package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/settings"
	"github.com/trezcool/placement/core/user"
)

var opportunityDeadlineOrder = []core.Ordering{{Field: "deadline", Ascending: true}}

type AdminDashboard struct {
	User          user.User                 `json:"user"`
	Broadcasts    []reminder.Reminder       `json:"broadcasts"`
	Opportunities []opportunity.Opportunity `json:"opportunities"`
	Conversations int                       `json:"conversations"`
}

type adminApi struct {
	reminders     *reminder.Service
	opportunities *opportunity.Service
	chat          *chat.Service
}

func registerAdminAPI(
	root *echo.Echo,
	g *echo.Group,
	reminders *reminder.Service,
	opportunities *opportunity.Service,
	chatSvc *chat.Service,
	settingsSvc *settings.Service,
) {
	api := adminApi{
		reminders:     reminders,
		opportunities: opportunities,
		chat:          chatSvc,
	}

	root.GET(user.RoleAdmin.Home(), api.dashboard)

	ag := g.Group(user.RoleAdmin.Home())

	ag.GET("/reminders", api.listBroadcasts)
	ag.POST("/reminders", api.addBroadcast)
	ag.PUT("/reminders/:id", api.updateBroadcast)
	ag.POST("/reminders/:id/toggle", api.toggleBroadcast)
	ag.DELETE("/reminders/:id", api.deleteBroadcast)

	ag.GET("/opportunities", api.queryOpportunities)
	ag.POST("/opportunities", api.createOpportunity)
	ag.GET("/opportunities/:id", api.retrieveOpportunity)
	ag.PUT("/opportunities/:id", api.updateOpportunity)
	ag.DELETE("/opportunities/:id", api.deleteOpportunity)

	ag.GET("/conversations", api.conversations)
	ag.GET("/conversations/:studentId", api.conversation)
	ag.POST("/conversations/:studentId/messages", api.sendMessage)

	registerSettingsAPI(ag, settingsSvc)
}

// Handlers

func (api *adminApi) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	c := ctx.Request().Context()

	broadcasts, err := api.reminders.Broadcasts(c)
	if err != nil {
		return errors.Wrap(err, "listing broadcasts")
	}
	opps, err := api.opportunities.Query(c, opportunity.Filter{}, opportunityDeadlineOrder...)
	if err != nil {
		return errors.Wrap(err, "querying opportunities")
	}
	convs, err := api.chat.Conversations(c, "")
	if err != nil {
		return errors.Wrap(err, "listing conversations")
	}
	return ctx.JSON(http.StatusOK, AdminDashboard{
		User:          usr,
		Broadcasts:    broadcasts,
		Opportunities: opps,
		Conversations: len(convs),
	})
}

func (api *adminApi) listBroadcasts(ctx echo.Context) error {
	items, err := api.reminders.Broadcasts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing broadcasts")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *adminApi) addBroadcast(ctx echo.Context) error {
	var data reminder.NewReminder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReminder")
	}
	rem, err := api.reminders.AddBroadcast(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding broadcast")
	}
	return ctx.JSON(http.StatusCreated, rem)
}

func (api *adminApi) updateBroadcast(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data reminder.NewReminder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReminder")
	}
	rem, found, err := api.reminders.UpdateBroadcast(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating broadcast")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, rem)
}

func (api *adminApi) toggleBroadcast(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	rem, found, err := api.reminders.ToggleBroadcast(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "toggling broadcast")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, rem)
}

func (api *adminApi) deleteBroadcast(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	found, err := api.reminders.DeleteBroadcast(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting broadcast")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryOpportunities(ctx echo.Context) error {
	filter := opportunity.Filter{Search: ctx.QueryParam("search"), Type: ctx.QueryParam("type")}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	items, err := api.opportunities.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying opportunities")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *adminApi) createOpportunity(ctx echo.Context) error {
	var data opportunity.Input
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to opportunity Input")
	}
	opp, err := api.opportunities.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating opportunity")
	}
	return ctx.JSON(http.StatusCreated, opp)
}

func (api *adminApi) retrieveOpportunity(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	opp, err := api.opportunities.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "retrieving opportunity")
	}
	return ctx.JSON(http.StatusOK, opp)
}

func (api *adminApi) updateOpportunity(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data opportunity.Input
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to opportunity Input")
	}
	opp, found, err := api.opportunities.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating opportunity")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, opp)
}

func (api *adminApi) deleteOpportunity(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	found, err := api.opportunities.Delete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting opportunity")
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) conversations(ctx echo.Context) error {
	convs, err := api.chat.Conversations(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "listing conversations")
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *adminApi) conversation(ctx echo.Context) error {
	conv, err := api.chat.Conversation(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "retrieving conversation")
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *adminApi) sendMessage(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data TextRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TextRequest")
	}
	c := ctx.Request().Context()
	studentID := ctx.Param("studentId")
	if _, err := api.chat.Conversation(c, studentID); err != nil {
		return errors.Wrap(err, "retrieving conversation")
	}
	msg, sent, err := api.chat.SendTo(c, usr, studentID, data.Text)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	if !sent {
		return ctx.JSON(http.StatusOK, SendResponse{})
	}
	return ctx.JSON(http.StatusCreated, SendResponse{Sent: true, Message: &msg})
}
