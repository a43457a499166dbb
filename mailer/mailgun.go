package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	auth "github.com/rxgate/go-auth"
)

// Mailgun delivers auth mail through the Mailgun API. Messages carrying a
// Template name are sent as Mailgun stored templates with the payload data
// attached as template variables.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender}
}

// Send implements auth.Mailer.
func (m *Mailgun) Send(ctx context.Context, msg auth.MailMessage) error {
	client := mg.NewMailgun(m.Domain, m.APIKey)

	message := client.NewMessage(m.Sender, msg.Subject, "", msg.To)
	if msg.Template != "" {
		message.SetTemplate(msg.Template)
		for key, value := range msg.Data {
			if err := message.AddTemplateVariable(key, value); err != nil {
				return err
			}
		}
	}

	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, _, err := client.Send(c, message)
	return err
}

var _ auth.Mailer = (*Mailgun)(nil)
