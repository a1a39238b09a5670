package main

import (
	"bytes"
	"strings"
	"testing"

	"pidmr/internal/api"
)

func TestHeaderLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"id", "Id"},
		{"created_by", "Created By"},
		{"status", "Status"},
	}
	for _, tt := range tests {
		if got := headerLabel(tt.in); got != tt.want {
			t.Errorf("headerLabel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderTablePlainOutput(t *testing.T) {
	var buf bytes.Buffer
	renderTable(&buf, []string{"type", "status"}, [][]string{
		{"ark", "approved"},
		{"doi", "pending"},
	})

	out := buf.String()
	for _, want := range []string{"Type", "Status", "ark", "approved", "doi", "pending"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestActionIDs(t *testing.T) {
	actions := []api.ActionPayload{
		{ID: "landingpage"},
		{ID: "metadata"},
	}
	if got := actionIDs(actions); got != "landingpage,metadata" {
		t.Fatalf("actionIDs = %q", got)
	}
	if got := actionIDs(nil); got != "" {
		t.Fatalf("expected empty string for no actions, got %q", got)
	}
}
