package errors

import (
	"strings"
	"testing"
)

func TestValidatePatternSource(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "mr(6) 6*inc fo", false},
		{"multiline with tabs", "mr(6)\n\t6*inc\r\nfo", false},
		{"comment only", "# ball\nmr(3)", false},

		{"empty", "", true},
		{"blank", "  \n\t", true},
		{"too large", strings.Repeat("sc ", MaxPatternSize), true},
		{"null byte", "mr(3)\x00", true},
		{"escape", "mr(3)\x1b[0m", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePatternSource(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePatternSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPattern) {
				t.Errorf("ValidatePatternSource() returned wrong error code: %v", err)
			}
		})
	}
}

func TestValidateLimbName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "arm", false},
		{"with underscore", "arm_left", false},
		{"with digits", "leg2", false},
		{"with dot and dash", "ear.left-1", false},

		{"empty", "", true},
		{"leading digit", "2legs", true},
		{"space", "left arm", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLimbName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLimbName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"7f9c2ba4-e88f-4d5b-9b0e-2c1c4b7e3a10", false},
		{"", true},
		{"7F9C2BA4-E88F-4D5B-9B0E-2C1C4B7E3A10", true},
		{"../../etc/passwd", true},
		{"7f9c2ba4e88f4d5b9b0e2c1c4b7e3a10", true},
	}

	for _, tt := range tests {
		err := ValidateSessionID(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSessionID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "ball.stl", false},
		{"valid nested", "out/shapes/ball.json", false},
		{"valid with dots", "v1.2.3/ball.stl", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidPattern,
		ErrCodeInvalidParams,
		ErrCodeInvalidCommand,
		ErrCodeInvalidFormat,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeSessionNotFound,
		ErrCodeResultNotFound,
		ErrCodeFileNotFound,
		ErrCodeStorage,
		ErrCodeCache,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
