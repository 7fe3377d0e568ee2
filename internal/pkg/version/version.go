// Package version 提供 -version 与启动横幅使用的版本信息
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// 构建时通过 ldflags 注入，例如
// -ldflags "-X github.com/anzhiyu-c/anheyu-stats/internal/pkg/version.Version=v1.0.0"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// ModulePath 本模块路径，以依赖形式被引入时用于从构建信息中查找版本
const ModulePath = "github.com/anzhiyu-c/anheyu-stats"

// GetVersion 返回应用版本号：优先使用 ldflags 注入的值，其次是构建信息
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Path == ModulePath {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
		return "dev"
	}
	for _, dep := range info.Deps {
		if dep.Path == ModulePath {
			return dep.Version
		}
	}
	return "dev"
}

// GetCommit 返回短 commit hash
func GetCommit() string {
	commit := Commit
	if commit == "unknown" || commit == "" {
		commit = vcsSetting("vcs.revision")
	}
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// GetBuildDate 返回构建时间
func GetBuildDate() string {
	if Date != "unknown" && Date != "" {
		return Date
	}
	raw := vcsSetting("vcs.time")
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format("2006-01-02 15:04:05")
	}
	return raw
}

// GetVersionString 如 "v1.0.0, commit abc1234, built at 2025-03-01 08:00:00, go1.24.4"
func GetVersionString() string {
	parts := []string{GetVersion()}
	if commit := GetCommit(); commit != "unknown" {
		parts = append(parts, fmt.Sprintf("commit %s", commit))
	}
	if date := GetBuildDate(); date != "unknown" {
		parts = append(parts, fmt.Sprintf("built at %s", date))
	}
	parts = append(parts, runtime.Version())
	return strings.Join(parts, ", ")
}

func vcsSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == key && s.Value != "" {
			return s.Value
		}
	}
	return "unknown"
}
