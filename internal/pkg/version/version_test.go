package version

import (
	"runtime"
	"testing"
)

func TestGetVersionString_UsesInjectedValues(t *testing.T) {
	oldVersion, oldCommit, oldDate := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldVersion, oldCommit, oldDate })

	Version, Commit, Date = "v1.2.3", "abc1234def", "2025-03-01 08:00:00"

	got := GetVersionString()
	want := "v1.2.3, commit abc1234, built at 2025-03-01 08:00:00, " + runtime.Version()
	if got != want {
		t.Errorf("GetVersionString() = %q, want %q", got, want)
	}
	if GetVersion() != "v1.2.3" {
		t.Errorf("GetVersion() = %q", GetVersion())
	}
}

func TestGetVersion_DefaultsToDev(t *testing.T) {
	oldVersion := Version
	t.Cleanup(func() { Version = oldVersion })

	Version = ""
	// go test 构建的主模块版本为 (devel)
	if got := GetVersion(); got != "dev" {
		t.Errorf("GetVersion() = %q, want dev", got)
	}
}
