package cmd

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time, e.g.
// -X github.com/abhisek/drillz/cmd.version=v1.2.0 -X github.com/abhisek/drillz/cmd.commit=abc1234
var (
	version = "(devel)"
	commit  = ""
	date    = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build details",
	Run: func(cmd *cobra.Command, args []string) {
		info, _ := debug.ReadBuildInfo()
		fmt.Fprintln(cmd.OutOrStdout(), versionString(info))
	},
}

// versionString fills whatever -ldflags left unset from the embedded
// build info: the module version and the VCS stamp.
func versionString(info *debug.BuildInfo) string {
	v, rev, when, goVersion := version, commit, date, ""
	dirty := false
	if info != nil {
		goVersion = info.GoVersion
		if v == "(devel)" && info.Main.Version != "" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if rev == "" {
					rev = s.Value
				}
			case "vcs.time":
				if when == "" {
					when = s.Value
				}
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
	}

	var details []string
	if rev != "" {
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if dirty {
			rev += "-dirty"
		}
		details = append(details, "commit "+rev)
	}
	if when != "" {
		details = append(details, "built "+when)
	}
	if goVersion != "" {
		details = append(details, goVersion)
	}

	out := "drillz " + v
	if len(details) > 0 {
		out += " (" + strings.Join(details, ", ") + ")"
	}
	return out
}
