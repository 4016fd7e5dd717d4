// internal/adapters/out/secret/password_hash_sm.go
package secret

import (
	"context"
	"errors"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

var errNotConfigured = errors.New("secret: password hash provider not configured")

// PasswordHashProviderSM reads the admin bcrypt hash from Secret Manager.
// A successfully fetched value is cached for the life of the process.
type PasswordHashProviderSM struct {
	sm        *secretmanager.Client
	projectID string
	secretID  string
	version   string

	mu   sync.Mutex
	hash string
}

func NewPasswordHashProviderSM(sm *secretmanager.Client, projectID, secretID string) *PasswordHashProviderSM {
	return &PasswordHashProviderSM{
		sm:        sm,
		projectID: strings.TrimSpace(projectID),
		secretID:  strings.TrimSpace(secretID),
		version:   "latest",
	}
}

// SecretName builds "projects/<p>/secrets/<id>/versions/<v>". A secretID that is
// already a full resource path is used as is (plus version when missing).
func SecretName(projectID, secretID, version string) string {
	if version == "" {
		version = "latest"
	}
	if strings.HasPrefix(secretID, "projects/") {
		if strings.Contains(secretID, "/versions/") {
			return secretID
		}
		return secretID + "/versions/" + version
	}
	return "projects/" + projectID + "/secrets/" + secretID + "/versions/" + version
}

func (p *PasswordHashProviderSM) PasswordHash(ctx context.Context) (string, error) {
	if p == nil || p.sm == nil || p.secretID == "" {
		return "", errNotConfigured
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hash != "" {
		return p.hash, nil
	}
	h, err := p.fetch(ctx)
	if err != nil {
		return "", err
	}
	p.hash = h
	return h, nil
}

func (p *PasswordHashProviderSM) fetch(ctx context.Context) (string, error) {
	if p.projectID == "" && !strings.HasPrefix(p.secretID, "projects/") {
		return "", errors.New("PasswordHashProviderSM: projectID is empty")
	}
	name := SecretName(p.projectID, p.secretID, p.version)

	resp, err := p.sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", errors.New("PasswordHashProviderSM: AccessSecretVersion failed (" + name + "): " + err.Error())
	}
	if resp == nil || resp.Payload == nil {
		return "", errors.New("PasswordHashProviderSM: empty payload (" + name + ")")
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

// StaticPasswordHash serves a hash taken from configuration.
type StaticPasswordHash string

func (s StaticPasswordHash) PasswordHash(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", errNotConfigured
	}
	return strings.TrimSpace(string(s)), nil
}
