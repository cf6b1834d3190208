// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

func TestMain(m *testing.M) {
	origName, origTime, origCommit, origVersion := buildName, buildTime, buildCommit, buildVersion
	origInfo := buildInfo

	exitCode := m.Run()

	buildName, buildTime, buildCommit, buildVersion = origName, origTime, origCommit, origVersion
	buildInfo = origInfo

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrs    []string
		want        Info
	}{
		{
			name:        "Missing BuildName",
			buildTime:   "2025-04-13",
			buildCommit: "abcdef123",
			buildVer:    "v1.0.0",
			wantErrs:    []string{"BuildName is required"},
			want:        Info{Name: DefaultName, Description: DefaultDescription, Time: "2025-04-13", Commit: "abcdef123", Version: "v1.0.0"},
		},
		{
			name:      "Missing Commit And Version",
			buildName: "testapp",
			buildTime: "2025-04-13",
			wantErrs:  []string{"BuildCommit is required", "BuildVersion is required"},
			want:      Info{Name: "testapp", Description: DefaultDescription, Time: "2025-04-13", Commit: unknown, Version: unknown},
		},
		{
			name:     "All Missing",
			wantErrs: []string{"BuildName", "BuildTime", "BuildCommit", "BuildVersion"},
			want:     defaultInfo(),
		},
		{
			name:        "Success Case",
			buildName:   "testapp",
			buildTime:   "2025-04-13",
			buildCommit: "abcdef123",
			buildVer:    "v1.0.0",
			want:        Info{Name: "testapp", Description: DefaultDescription, Time: "2025-04-13", Commit: "abcdef123", Version: "v1.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if len(tt.wantErrs) == 0 && err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}
			if len(tt.wantErrs) > 0 {
				if err == nil {
					t.Fatal("Initialize() expected error, got nil")
				}
				for _, want := range tt.wantErrs {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("Initialize() error = %v, want it to mention %q", err, want)
					}
				}
			}
			if got := Get(); got != tt.want {
				t.Errorf("Get() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Name: "audiostate", Version: "v1.2.3", Commit: "abc", Time: "today"}
	if got, want := info.String(), "audiostate v1.2.3 (commit abc, built today)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
