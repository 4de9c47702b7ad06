package ch

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// BuildClientInfo tags connections with the binary role so system.query_log
// shows which process wrote each ledger row
func BuildClientInfo(role string) clickhouse.ClientInfo {
	host, _ := os.Hostname()
	type kv = struct{ Name, Version string }
	return clickhouse.ClientInfo{Products: []kv{
		{Name: "datacompliance", Version: vcsShortSHA()},
		{Name: "role", Version: strings.TrimSpace(role)},
		{Name: "go", Version: runtime.Version()},
		{Name: "host", Version: strings.TrimSpace(host)},
	}}
}

func vcsShortSHA() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}
