package geoip

import "testing"

func TestNew_EmptyPath(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("expected no error for empty path, got %v", err)
	}
	country, city := r.Lookup("8.8.8.8")
	if country != "" || city != "" {
		t.Errorf("expected empty results for nil resolver, got country=%q city=%q", country, city)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	r, err := New("/nonexistent/path.mmdb")
	if err != nil {
		t.Fatalf("expected graceful fallback for missing file, got %v", err)
	}
	if country, _ := r.Lookup("8.8.8.8"); country != "" {
		t.Errorf("expected empty country, got %q", country)
	}
}

func TestLookup_BadInput(t *testing.T) {
	r, _ := New("")
	if country, _ := r.Lookup(""); country != "" {
		t.Errorf("expected empty result for empty IP, got %q", country)
	}
	if country, _ := r.Lookup("not-an-ip"); country != "" {
		t.Errorf("expected empty result for malformed IP, got %q", country)
	}
}

func TestClose_NilDB(t *testing.T) {
	r, _ := New("")
	if err := r.Close(); err != nil {
		t.Errorf("expected no error closing nil resolver, got %v", err)
	}
}
