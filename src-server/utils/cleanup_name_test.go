package utils

import "testing"

func TestCleanupName(t *testing.T) {
	for _, testCase := range []struct {
		in   string
		want string
	}{
		{"  jane   doe ", "Jane Doe"},
		{"NGUYEN van minh", "Nguyen Van Minh"},
		{"ada", "Ada"},
		{"", ""},
	} {
		if got := CleanupName(testCase.in); got != testCase.want {
			t.Errorf("CleanupName(%q) = %q, want %q", testCase.in, got, testCase.want)
		}
	}
}
