package core

import "testing"

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantCode string
		wantOK   bool
	}{
		{"upper case", "IMG_QR1234567.jpg", "QR1234567", true},
		{"lower case is upper-cased", "qr9999999.jpg", "QR9999999", true},
		{"mixed case", "foto-Qr0000001.png", "QR0000001", true},
		{"leftmost match wins", "QR1111111_QR2222222.jpg", "QR1111111", true},
		{"eighth digit ignored", "QR12345678.jpg", "QR1234567", true},
		{"too few digits", "QR123456.jpg", "", false},
		{"no code", "random.png", "", false},
		{"empty name", "", "", false},
		{"letters between", "Q R1234567.jpg", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := ExtractCode(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ExtractCode(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if code != tt.wantCode {
				t.Errorf("ExtractCode(%q) = %q, want %q", tt.filename, code, tt.wantCode)
			}
		})
	}
}
