// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origFlags   ldFlags
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	if buildFlags != nil {
		origFlags = *buildFlags
	}

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	if buildFlags != nil {
		*buildFlags = origFlags
	}

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
	}{
		{"Missing BuildName", "", "2026-10-19", "abcdef123", "v1.0.0", []string{"BuildName is required"}},
		{"Missing BuildTime", "liveplot", "", "abcdef123", "v1.0.0", []string{"BuildTime is required"}},
		{"Missing BuildCommit", "liveplot", "2026-10-19", "", "v1.0.0", []string{"BuildCommit is required"}},
		{"Missing BuildVersion", "liveplot", "2026-10-19", "abcdef123", "", []string{"BuildVersion is required"}},
		{"Development Build", "", "", "", "", []string{
			"BuildName is required", "BuildTime is required",
			"BuildCommit is required", "BuildVersion is required",
		}},
		{"Success Case", "liveplot", "2026-10-19", "abcdef123", "v1.0.0", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildFlags = defaultFlags()
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("Initialize() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Fatalf("Initialize() expected error, got nil")
				}
				for _, want := range tt.wantErrs {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("Initialize() error = %v, want it to contain %q", err, want)
					}
				}
			}

			// Provided values are applied even when others are missing.
			if tt.buildName != "" && buildFlags.Name != tt.buildName {
				t.Errorf("buildFlags.Name = %v, want %v", buildFlags.Name, tt.buildName)
			}
			if tt.buildName == "" && buildFlags.Name != "liveplot" {
				t.Errorf("buildFlags.Name = %v, want placeholder liveplot", buildFlags.Name)
			}
			if tt.buildVer != "" && buildFlags.Version != tt.buildVer {
				t.Errorf("buildFlags.Version = %v, want %v", buildFlags.Version, tt.buildVer)
			}
			if tt.buildVer == "" && buildFlags.Version != "dev" {
				t.Errorf("buildFlags.Version = %v, want placeholder dev", buildFlags.Version)
			}
		})
	}
}

func TestGetBuildFlags(t *testing.T) {
	expected := ldFlags{
		Name:    "liveplot",
		Time:    "2026-10-19",
		Commit:  "abcdef123",
		Version: "v1.0.0",
	}
	buildFlags = &expected

	flags := GetBuildFlags()
	if *flags != expected {
		t.Errorf("GetBuildFlags() = %+v, want %+v", flags, expected)
	}
	if got, want := flags.String(), "liveplot v1.0.0 (commit abcdef123, built 2026-10-19)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
