package rpmver

import "testing"

func TestParse(t *testing.T) {
	tcs := []struct {
		in   string
		want Version
	}{
		{
			in:   "1.0-1",
			want: Version{Epoch: "0", Version: "1.0", Release: "1"},
		},
		{
			in:   "1:1.0-1",
			want: Version{Epoch: "1", Version: "1.0", Release: "1"},
		},
		{
			in:   "hello-1.0-1.i386",
			want: Version{Epoch: "0", Version: "1.0", Release: "1", Name: strptr("hello"), Architecture: strptr("i386")},
		},
	}
	for _, tc := range tcs {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got.Epoch != tc.want.Epoch || got.Version != tc.want.Version || got.Release != tc.want.Release {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
		if (got.Name == nil) != (tc.want.Name == nil) || (got.Name != nil && *got.Name != *tc.want.Name) {
			t.Errorf("Parse(%q) name = %v, want %v", tc.in, got.Name, tc.want.Name)
		}
	}
}

func TestCompare(t *testing.T) {
	a, err := Parse("hello-1.0-1.i386")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("hello-1.0-2.i386")
	if err != nil {
		t.Fatal(err)
	}
	if c := Compare(&a, &b); c >= 0 {
		t.Errorf("Compare(1.0-1, 1.0-2) = %d, want < 0", c)
	}
	if c := Compare(&b, &a); c <= 0 {
		t.Errorf("Compare(1.0-2, 1.0-1) = %d, want > 0", c)
	}
	if c := Compare(&a, &a); c != 0 {
		t.Errorf("Compare(a, a) = %d, want 0", c)
	}
}

func TestCompareDistro(t *testing.T) {
	a, _ := Parse("hello-1.0-1")
	b, _ := Parse("hello-2.0-1")
	a.Distro, b.Distro = "16", "15"
	if c := Compare(&a, &b); c <= 0 {
		t.Errorf("distro-mode Compare should ignore version when distro differs, got %d", c)
	}
}

func strptr(s string) *string { return &s }
