package yamlutil_test

// Notes:
// - Encode error branch: not tested because the encoder only fails on types
//   such as channels or functions, which no configuration struct carries.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-mdblocks/internal/yamlutil"
)

type margins struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
}

type testConfig struct {
	Title   string  `yaml:"title"`
	Justify bool    `yaml:"justify"`
	Margins margins `yaml:"margins"`
}

func defaults() *testConfig {
	return &testConfig{Title: "Untitled", Justify: true, Margins: margins{Top: 20, Bottom: 30}}
}

// ---------------------------------------------------------------------------
// TestDecode - Strict decoding over pre-filled defaults
// ---------------------------------------------------------------------------

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		want    testConfig
		wantErr error
	}{
		{
			name: "absent keys keep defaults",
			data: "title: Report\n",
			want: testConfig{Title: "Report", Justify: true, Margins: margins{Top: 20, Bottom: 30}},
		},
		{
			name: "nested key overrides only itself",
			data: "margins:\n  top: 10\n",
			want: testConfig{Title: "Untitled", Justify: true, Margins: margins{Top: 10, Bottom: 30}},
		},
		{
			name: "false overrides true default",
			data: "justify: false\n",
			want: testConfig{Title: "Untitled", Justify: false, Margins: margins{Top: 20, Bottom: 30}},
		},
		{
			name:    "unknown key rejected",
			data:    "title: x\ncolour: red\n",
			wantErr: yamlutil.ErrDecode,
		},
		{
			name:    "syntax error",
			data:    "margins: [unclosed\n",
			wantErr: yamlutil.ErrDecode,
		},
		{
			name:    "empty data",
			data:    "",
			wantErr: yamlutil.ErrNilData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := defaults()
			err := yamlutil.Decode([]byte(tt.data), got)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestDecode_NilDestination(t *testing.T) {
	t.Parallel()

	err := yamlutil.Decode([]byte("title: x"), nil)
	if !errors.Is(err, yamlutil.ErrNilDestination) {
		t.Errorf("errors.Is(err, ErrNilDestination) = false, got: %v", err)
	}
}

func TestDecode_ErrorNamesUnknownKey(t *testing.T) {
	t.Parallel()

	err := yamlutil.Decode([]byte("title: x\ncolour: red\n"), defaults())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "colour") {
		t.Errorf("error should name the unknown key, got: %s", err)
	}
}

// ---------------------------------------------------------------------------
// TestEncode - Output decodes back to the same value
// ---------------------------------------------------------------------------

func TestEncode(t *testing.T) {
	t.Parallel()

	in := testConfig{Title: "日本語", Justify: false, Margins: margins{Top: 12.5, Bottom: 30}}
	data, err := yamlutil.Encode(in)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(string(data), "\n  top: 12.5") {
		t.Errorf("expected two-space nested key, got:\n%s", data)
	}

	got := defaults()
	if err := yamlutil.Decode(data, got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if *got != in {
		t.Errorf("decoded = %+v, want %+v", *got, in)
	}
}

// ---------------------------------------------------------------------------
// TestInputSizeLimit - Verifies MaxInputSize enforcement
// ---------------------------------------------------------------------------

// Note: This test modifies the global MaxInputSize variable, so it cannot
// run in parallel with other tests.

func TestInputSizeLimit(t *testing.T) {
	originalMax := yamlutil.MaxInputSize
	t.Cleanup(func() { yamlutil.MaxInputSize = originalMax })

	t.Run("input at limit succeeds", func(t *testing.T) {
		yamlutil.MaxInputSize = 100
		data := []byte("title: x" + strings.Repeat(" ", 91) + "\n")
		if err := yamlutil.Decode(data, defaults()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("input exceeding limit fails with sizes", func(t *testing.T) {
		yamlutil.MaxInputSize = 50
		data := []byte("title: x" + strings.Repeat(" ", 92))
		err := yamlutil.Decode(data, defaults())
		if !errors.Is(err, yamlutil.ErrInputTooLarge) {
			t.Fatalf("errors.Is(err, ErrInputTooLarge) = false, got: %v", err)
		}
		if !strings.Contains(err.Error(), "100 bytes") || !strings.Contains(err.Error(), "max 50") {
			t.Errorf("error should contain sizes, got: %s", err)
		}
	})
}
