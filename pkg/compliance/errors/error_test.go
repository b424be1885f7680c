package errors

import "testing"

func TestStorage_ErrorMessage(t *testing.T) {
	err := Storage("disk full", "sqlite", "store")
	want := "storage error [backend=sqlite, operation=store]: disk full"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestIs_MatchesStorageKind(t *testing.T) {
	err := Storage("disk full", "sqlite", "store")
	if !Is(err, KindStorage) {
		t.Fatal("expected Is to match KindStorage")
	}
	if Is(err, KindEvidence) {
		t.Fatal("expected Is not to match a different kind")
	}
}
