package otp

import "testing"

func TestGenerateOTP_ReturnsSixDigits(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if !ValidCodeFormat(code) {
			t.Fatalf("GenerateOTP = %q, want 6 digits", code)
		}
	}
}

func TestGenerateOTP_Randomness(t *testing.T) {
	seen := make(map[string]bool)
	dups := 0
	for i := 0; i < 100; i++ {
		code, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if seen[code] {
			dups++
		}
		seen[code] = true
	}
	// 100 draws from 10^6 collide with probability under 0.5%; more than one is a broken generator.
	if dups > 1 {
		t.Errorf("too many duplicate codes: %d", dups)
	}
}

func TestHashOTP(t *testing.T) {
	h := HashOTP("123456")
	if h != HashOTP("123456") {
		t.Error("HashOTP not deterministic")
	}
	if len(h) != 64 {
		t.Errorf("hash length = %d, want 64", len(h))
	}
	if h == HashOTP("654321") {
		t.Error("different codes produced the same hash")
	}
	if h == "123456" {
		t.Error("hash must not be the plaintext")
	}
}

func TestCodeEqual(t *testing.T) {
	stored := HashOTP("123456")
	if !CodeEqual("123456", stored) {
		t.Error("CodeEqual should match the right code")
	}
	for _, wrong := range []string{"654321", "", "1234567", "12345"} {
		if CodeEqual(wrong, stored) {
			t.Errorf("CodeEqual(%q) should be false", wrong)
		}
	}
}

func TestValidCodeFormat(t *testing.T) {
	valid := []string{"000000", "123456", "999999"}
	invalid := []string{"", "12345", "1234567", "12a456", " 12345", "１２３４５６"}
	for _, c := range valid {
		if !ValidCodeFormat(c) {
			t.Errorf("ValidCodeFormat(%q) = false", c)
		}
	}
	for _, c := range invalid {
		if ValidCodeFormat(c) {
			t.Errorf("ValidCodeFormat(%q) = true", c)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+84911222333", "+84911222333", false},
		{" +84 911-222-333 ", "+84911222333", false},
		{"+1 (415) 555.0100", "+14155550100", false},
		{"0084911222333", "+84911222333", false},
		{"", "", true},
		{"84911222333", "", true},
		{"+0911222333", "", true},
		{"+84abc", "", true},
		{"+8491", "", true},
		{"+1234567890123456", "", true},
		{"++84911222333", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizePhone(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
