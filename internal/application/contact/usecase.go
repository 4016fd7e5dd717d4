// internal/application/contact/usecase.go
package contact

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	contactdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/contact"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/errx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// Mailer delivers a submission to the shop inbox.
type Mailer interface {
	SendContact(ctx context.Context, m contactdom.Message) error
}

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Usecase handles contact form submissions. Both the repository and the
// mailer are optional; with neither configured a submission is only logged.
type Usecase struct {
	repo   contactdom.Repository
	mailer Mailer
	clock  Clock
	log    zerolog.Logger
}

func NewUsecase(repo contactdom.Repository, mailer Mailer) *Usecase {
	return NewUsecaseWithClock(repo, mailer, systemClock{})
}

func NewUsecaseWithClock(repo contactdom.Repository, mailer Mailer, clock Clock) *Usecase {
	if clock == nil {
		clock = systemClock{}
	}
	return &Usecase{repo: repo, mailer: mailer, clock: clock, log: logx.Component("contact_usecase")}
}

// Submit validates, stores, then mails m.
// A mail failure after a successful store is still reported as a transport error.
func (uc *Usecase) Submit(ctx context.Context, m contactdom.Message) (contactdom.Message, error) {
	if err := m.Normalize(); err != nil {
		return contactdom.Message{}, err
	}
	m.CreatedAt = uc.clock.Now().UTC()

	if uc.repo != nil {
		saved, err := uc.repo.Save(ctx, m)
		if err != nil {
			return contactdom.Message{}, errx.Transport("contact.save", err)
		}
		m = saved
	}

	if uc.mailer != nil {
		if err := uc.mailer.SendContact(ctx, m); err != nil {
			uc.log.Error().Err(err).Str("id", m.ID).Msg("[contact_usecase] mail failed")
			return m, errx.Transport("contact.mail", err)
		}
	}

	uc.log.Info().Str("id", m.ID).Str("subject", m.Subject).Msg("[contact_usecase] message received")
	return m, nil
}
