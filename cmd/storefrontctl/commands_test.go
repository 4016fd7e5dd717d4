package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/auth"
	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
)

func TestHashPasswordFromStdin(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("long enough secret\n"))
	cmd.SetArgs([]string{"hash-password"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	hash := strings.TrimSpace(out.String())
	if err := auth.VerifyPassword(hash, "long enough secret"); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"hash-password", "short"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("short password accepted")
	}
}

func TestClearCatalogNeedsConfirmation(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"clear-catalog"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("err = %v", err)
	}
}

func TestPrintProducts(t *testing.T) {
	var out bytes.Buffer
	if err := printProducts(&out, productdom.Defaults(time.Now())); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 || !strings.Contains(lines[4], "350.00") {
		t.Fatalf("output:\n%s", out.String())
	}
}
