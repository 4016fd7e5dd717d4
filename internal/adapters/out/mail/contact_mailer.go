package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contactdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/contact"
)

// ContactMailer forwards contact form submissions to the shop inbox.
type ContactMailer struct {
	client EmailClient
	from   string
	inbox  string
}

func NewContactMailer(client EmailClient, from, inbox string) *ContactMailer {
	return &ContactMailer{
		client: client,
		from:   strings.TrimSpace(from),
		inbox:  strings.TrimSpace(inbox),
	}
}

// SendContact mails m to the inbox with the sender as reply-to.
func (m *ContactMailer) SendContact(ctx context.Context, msg contactdom.Message) error {
	if m == nil || m.client == nil {
		return errors.New("contact mailer: not configured")
	}
	return m.client.Send(ctx, m.from, m.inbox, msg.Email, contactSubject(msg), contactBody(msg))
}

func contactSubject(msg contactdom.Message) string {
	return "[Contact] " + msg.Subject
}

func contactBody(msg contactdom.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", msg.Name)
	fmt.Fprintf(&b, "Email: %s\n", msg.Email)
	if msg.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", msg.Phone)
	}
	if !msg.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Received: %s\n", msg.CreatedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
	b.WriteString("\n")
	b.WriteString(msg.Body)
	b.WriteString("\n")
	return b.String()
}
