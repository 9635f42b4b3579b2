package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/core"
	logsvc "github.com/trezcool/placement/services/logger"
)

type digestItem struct {
	Title    string
	Deadline string
}

func digestMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "John Student", Address: "student@example.com"}},
		Subject:      "Reminders due soon",
		TemplateName: "reminder_digest",
		TemplateData: map[string]interface{}{
			"Name":      "John Student",
			"Reminders": []digestItem{{Title: "Update Resume", Deadline: "2025-04-25"}},
		},
	}
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf, logsvc.NewNopLogger())

	svc.SendMessages(
		digestMessage(),
		&core.EmailMessage{Subject: "nobody to send to", BodyStr: "hello"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@example.com"}}, Subject: "empty"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@example.com"}}, Subject: "plain", BodyStr: "hello"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)

	digest := sent[0]
	assert.Contains(t, digest.TextContent, "Hi John Student,")
	assert.Contains(t, digest.TextContent, "- Update Resume (due 2025-04-25)")
	assert.Contains(t, digest.HTMLContent, "<strong>Update Resume</strong>")
	assert.Contains(t, digest.HTMLContent, conf.AppName)

	assert.Equal(t, "hello", sent[1].TextContent)
	assert.Empty(t, sent[1].HTMLContent)
}

func TestConsoleService_Send(t *testing.T) {
	conf := core.NewTestConfig()
	out := new(bytes.Buffer)
	svc := newConsoleService(conf, logsvc.NewNopLogger(), out)

	msg := digestMessage()
	require.True(t, svc.sendMessage(msg))

	printed := out.String()
	assert.Contains(t, printed, "Subject: ["+conf.AppName+"] Reminders due soon\r\n")
	assert.Contains(t, printed, `To: "John Student" <student@example.com>`)
	assert.Contains(t, printed, "Content-Type: text/html")
	assert.Equal(t, 1, strings.Count(printed, "Content-Type: text/plain"))
}

func TestSendgridService_Prepare(t *testing.T) {
	conf := core.NewTestConfig()
	conf.SendgridApiKey = "key"
	svc := NewSendgridService(conf, logsvc.NewNopLogger()).(*sendgridService)

	msg := digestMessage()
	msg.Cc = []mail.Address{{Address: "advisor@example.com"}}
	require.NoError(t, msg.Render(conf.AppName))

	m := svc.prepare(*msg)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "["+conf.AppName+"] Reminders due soon", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "student@example.com", p.To[0].Address)
	require.Len(t, p.CC, 1)
	require.Len(t, m.Content, 2)
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "text/html", m.Content[1].Type)
}

func TestNewService(t *testing.T) {
	conf := core.NewTestConfig()
	_, isConsole := NewService(conf, logsvc.NewNopLogger()).(*consoleService)
	assert.True(t, isConsole)

	conf.SendgridApiKey = "key"
	_, isSendgrid := NewService(conf, logsvc.NewNopLogger()).(*sendgridService)
	assert.True(t, isSendgrid)
}
