package version

import (
	"fmt"
	"runtime/debug"
	"strings"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// shortCommitLength is the number of revision characters shown when read from build info.
const shortCommitLength = 7

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit, build time and video support.
func Full() string {
	info, _ := debug.ReadBuildInfo()

	return fmt.Sprintf("version: %s, commit: %s, built at: %s, video: %s",
		Version, commit(info), BuildTime, videoSupport(info))
}

// commit prefers the ldflags value and falls back to the VCS revision stamped by the toolchain.
func commit(info *debug.BuildInfo) string {
	if Commit != "none" || info == nil {
		return Commit
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value[:min(len(s.Value), shortCommitLength)]
		}
	}

	return Commit
}

// videoSupport reports whether the binary was built with the gocv tag.
func videoSupport(info *debug.BuildInfo) string {
	if info != nil {
		for _, s := range info.Settings {
			if s.Key == "-tags" && hasTag(s.Value, "gocv") {
				return "gocv"
			}
		}
	}

	return "replay only"
}

// hasTag reports whether the comma-separated tag list contains tag.
func hasTag(tags, tag string) bool {
	for t := range strings.SplitSeq(tags, ",") {
		if strings.TrimSpace(t) == tag {
			return true
		}
	}

	return false
}
