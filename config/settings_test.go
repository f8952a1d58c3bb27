package config

import "testing"

func TestImportMaxUploadBytes(t *testing.T) {
	cases := []struct {
		env  string
		want int64
	}{
		{"", 5 << 20},
		{"12", 12 << 20},
		{"0", 5 << 20},
		{"abc", 5 << 20},
	}
	for _, tc := range cases {
		t.Setenv("IMPORT_MAX_UPLOAD_MB", tc.env)
		if got := ImportMaxUploadBytes(); got != tc.want {
			t.Fatalf("IMPORT_MAX_UPLOAD_MB=%q: got %d, want %d", tc.env, got, tc.want)
		}
	}
}

func TestWastageThresholdPercent(t *testing.T) {
	t.Setenv("WASTAGE_THRESHOLD_PERCENT", "")
	if got := WastageThresholdPercent(); got != 5 {
		t.Fatalf("default threshold = %v, want 5", got)
	}
	t.Setenv("WASTAGE_THRESHOLD_PERCENT", "7.5")
	if got := WastageThresholdPercent(); got != 7.5 {
		t.Fatalf("threshold = %v, want 7.5", got)
	}
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "y"} {
		t.Setenv("ARCHIVE_IMPORTS", v)
		if !ArchiveImportsEnabled() {
			t.Fatalf("ARCHIVE_IMPORTS=%q should enable archiving", v)
		}
	}
	t.Setenv("ARCHIVE_IMPORTS", "off")
	if ArchiveImportsEnabled() {
		t.Fatalf("ARCHIVE_IMPORTS=off should disable archiving")
	}
}
