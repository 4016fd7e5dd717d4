package firestore

import (
	"context"
	"strings"

	"cloud.google.com/go/firestore"

	contactdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/contact"
)

const DefaultContactCollection = "contact_messages"

// ContactRepositoryFS stores contact form submissions.
type ContactRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

func NewContactRepositoryFS(client *firestore.Client, collection string) *ContactRepositoryFS {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultContactCollection
	}
	return &ContactRepositoryFS{Client: client, Collection: collection}
}

func (r *ContactRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// Save inserts m under a new auto-ID and returns it with the ID set.
func (r *ContactRepositoryFS) Save(ctx context.Context, m contactdom.Message) (contactdom.Message, error) {
	if r.Client == nil {
		return contactdom.Message{}, errNilClient
	}

	ref := r.col().NewDoc()
	data := map[string]any{
		"name":      m.Name,
		"email":     m.Email,
		"subject":   m.Subject,
		"message":   m.Body,
		"createdAt": m.CreatedAt.UTC(),
	}
	if m.Phone != "" {
		data["phone"] = m.Phone
	}

	if _, err := ref.Create(ctx, data); err != nil {
		return contactdom.Message{}, err
	}
	m.ID = ref.ID
	return m, nil
}
