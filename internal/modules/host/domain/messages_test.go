package domain_test

import (
	"errors"
	"testing"

	"hostbridge/internal/modules/host/domain"
)

func TestRequestValidation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		err  error
		ok   bool
	}{
		{"panel ok", domain.OpenPanelRequest{Panel: "sidebar"}.Validate(), true},
		{"panel blank", domain.OpenPanelRequest{Panel: "  "}.Validate(), false},
		{"message ok", domain.ShowMessageRequest{Severity: domain.SeverityInfo, Text: "hi"}.Validate(), true},
		{"message bad severity", domain.ShowMessageRequest{Severity: "loud", Text: "hi"}.Validate(), false},
		{"message empty", domain.ShowMessageRequest{Severity: domain.SeverityError}.Validate(), false},
		{"open file empty", domain.OpenFileRequest{}.Validate(), false},
		{"diff path empty", domain.OpenDiffRequest{Content: "x"}.Validate(), false},
		{"replace missing id", domain.ReplaceTextRequest{Content: "x"}.Validate(), false},
		{"setting ok", domain.TelemetrySettings{Setting: domain.SettingDisabled}.Validate(), true},
		{"setting bad", domain.TelemetrySettings{Setting: "maybe"}.Validate(), false},
	}
	for _, tc := range cases {
		if tc.ok && tc.err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, tc.err)
		}
		if !tc.ok && !errors.Is(tc.err, domain.ErrInvalidRequest) {
			t.Fatalf("%s: expected invalid request, got %v", tc.name, tc.err)
		}
	}
}

func TestModeValidate(t *testing.T) {
	t.Parallel()
	if err := domain.ModeDetached.Validate(); err != nil {
		t.Fatalf("detached: %v", err)
	}
	if err := domain.Mode("hybrid").Validate(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
