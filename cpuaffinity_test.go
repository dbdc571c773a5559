package detlite

import (
	"reflect"
	"testing"
)

func TestParseCPUList(t *testing.T) {

	tests := []struct {
		list     string
		expected []int
		wantErr  bool
	}{
		{"4-7", []int{4, 5, 6, 7}, false},
		{"0,2,4-5", []int{0, 2, 4, 5}, false},
		{" 3 , 1-2 ,3", []int{1, 2, 3}, false},
		{"", nil, false},
		{"7-4", nil, true},
		{"a", nil, true},
		{"-1", nil, true},
	}

	for _, tc := range tests {
		got, err := ParseCPUList(tc.list)

		if (err != nil) != tc.wantErr {
			t.Errorf("ParseCPUList(%q) error = %v, wantErr %v", tc.list, err, tc.wantErr)
			continue
		}

		if !tc.wantErr && !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("ParseCPUList(%q) expected %v, got %v", tc.list, tc.expected, got)
		}
	}
}
