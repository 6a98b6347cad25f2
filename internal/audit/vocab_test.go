package audit

import "testing"

func TestVocabularySizes(t *testing.T) {
	if len(validActions) != 29 {
		t.Errorf("len(validActions) = %d, want 29", len(validActions))
	}
	if len(validResources) != 8 {
		t.Errorf("len(validResources) = %d, want 8", len(validResources))
	}
	if len(validStatuses) != 3 {
		t.Errorf("len(validStatuses) = %d, want 3", len(validStatuses))
	}
}

func TestValidAction(t *testing.T) {
	for a := range validActions {
		if !ValidAction(a) {
			t.Errorf("ValidAction(%q) = false, want true", a)
		}
	}
	for _, a := range []Action{"", "LOGIN", "deleted", "user-created"} {
		if ValidAction(a) {
			t.Errorf("ValidAction(%q) = true, want false", a)
		}
	}
}

func TestValidResource(t *testing.T) {
	if !ValidResource(ResourceAuth) || !ValidResource(ResourceWebhook) {
		t.Error("known resources should validate")
	}
	if ValidResource("organization") || ValidResource("") {
		t.Error("unknown resources should not validate")
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusSuccess, StatusFailure, StatusBlocked} {
		if !ValidStatus(s) {
			t.Errorf("ValidStatus(%q) = false, want true", s)
		}
	}
	if ValidStatus("ok") || ValidStatus("") {
		t.Error("unknown statuses should not validate")
	}
}
