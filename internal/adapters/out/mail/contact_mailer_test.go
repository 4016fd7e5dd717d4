package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	contactdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/contact"
)

type recordingClient struct {
	from, to, replyTo, subject, body string
}

func (c *recordingClient) Send(_ context.Context, from, to, replyTo, subject, body string) error {
	c.from, c.to, c.replyTo, c.subject, c.body = from, to, replyTo, subject, body
	return nil
}

func TestContactMailer(t *testing.T) {
	rc := &recordingClient{}
	m := NewContactMailer(rc, " shop@example.com ", "inbox@example.com")

	err := m.SendContact(context.Background(), contactdom.Message{
		Name:      "Ana",
		Email:     "ana@example.com",
		Subject:   "Trial",
		Body:      "Hello",
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if rc.from != "shop@example.com" || rc.to != "inbox@example.com" || rc.replyTo != "ana@example.com" {
		t.Fatalf("addresses = %+v", rc)
	}
	if rc.subject != "[Contact] Trial" {
		t.Fatalf("subject = %q", rc.subject)
	}
	for _, want := range []string{"Name: Ana", "Email: ana@example.com", "Received: 2024-03-01 10:00 UTC", "Hello"} {
		if !strings.Contains(rc.body, want) {
			t.Errorf("body missing %q:\n%s", want, rc.body)
		}
	}
	if strings.Contains(rc.body, "Phone:") {
		t.Errorf("empty phone should be omitted")
	}
}

func TestSendGridClientRequiresConfig(t *testing.T) {
	c := NewSendGridClient("", "Shop")
	if err := c.Send(context.Background(), "a@b", "c@d", "", "s", "b"); err == nil {
		t.Fatalf("empty api key should fail before any network call")
	}
}
