package secret

import (
	"context"
	"testing"
)

func TestSecretName(t *testing.T) {
	cases := []struct {
		project, id, version, want string
	}{
		{"shop", "admin-hash", "", "projects/shop/secrets/admin-hash/versions/latest"},
		{"shop", "admin-hash", "3", "projects/shop/secrets/admin-hash/versions/3"},
		{"", "projects/other/secrets/h", "", "projects/other/secrets/h/versions/latest"},
		{"", "projects/other/secrets/h/versions/2", "", "projects/other/secrets/h/versions/2"},
	}
	for _, tc := range cases {
		if got := SecretName(tc.project, tc.id, tc.version); got != tc.want {
			t.Errorf("SecretName(%q,%q,%q) = %q, want %q", tc.project, tc.id, tc.version, got, tc.want)
		}
	}
}

func TestProvidersNotConfigured(t *testing.T) {
	ctx := context.Background()
	if _, err := StaticPasswordHash("  ").PasswordHash(ctx); err == nil {
		t.Fatalf("blank static hash should fail")
	}
	if h, err := StaticPasswordHash(" $2a$10$x ").PasswordHash(ctx); err != nil || h != "$2a$10$x" {
		t.Fatalf("static = %q, %v", h, err)
	}
	var p *PasswordHashProviderSM
	if _, err := p.PasswordHash(ctx); err == nil {
		t.Fatalf("nil provider should fail")
	}
}
