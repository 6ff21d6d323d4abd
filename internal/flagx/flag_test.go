package flagx

import (
	"os"
	"reflect"
	"testing"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate flag and value",
			args:    []string{"-a", ":8080", "-x", "junk"},
			allowed: []string{"-a"},
			want:    []string{"-a", ":8080"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=conf.json", "-d=dsn"},
			allowed: []string{"--config"},
			want:    []string{"--config=conf.json"},
		},
		{
			name:    "flag without value",
			args:    []string{"-v", "-a", ":9090"},
			allowed: []string{"-v"},
			want:    []string{"-v"},
		},
		{
			name:    "value that looks like a flag is not consumed",
			args:    []string{"-a", "-d"},
			allowed: []string{"-a"},
			want:    []string{"-a"},
		},
		{
			name:    "nothing allowed",
			args:    []string{"-a", "x", "-b", "y"},
			allowed: nil,
			want:    []string{},
		},
		{
			name:    "mixed forms",
			args:    []string{"-a", ":8080", "-d=postgres://x", "-s", "secret", "--other=1"},
			allowed: []string{"-a", "-d", "-s"},
			want:    []string{"-a", ":8080", "-d=postgres://x", "-s", "secret"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterArgs(tc.args, tc.allowed)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("FilterArgs(%v, %v) = %v, want %v", tc.args, tc.allowed, got, tc.want)
			}
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short flag", []string{"prog", "-c", "conf.json"}, "conf.json"},
		{"long flag", []string{"prog", "-config", "other.json"}, "other.json"},
		{"equals form", []string{"prog", "-config=eq.json"}, "eq.json"},
		{"absent", []string{"prog", "-a", ":8080"}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			os.Args = tc.args
			if got := JsonConfigFlags(); got != tc.want {
				t.Fatalf("JsonConfigFlags() = %q, want %q", got, tc.want)
			}
		})
	}
}
