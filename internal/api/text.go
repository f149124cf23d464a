package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/d41928/shellherd/internal/model"
)

// statusText renders a status payload as a flattened text block with
// stable field ordering. Values mirror the JSON form exactly.
func statusText(resp *statusResponse) string {
	lines := []string{
		"status: " + string(resp.Status),
		"pid: " + fmtIntPtr(resp.PID),
	}

	uptime := "-"
	user := "-"
	ports := "-"
	cpu := "-"
	mem := "-"
	threads := "-"
	openFiles := "-"
	connections := "-"
	children := "-"
	envCount := "-"
	if resp.Sample != nil {
		s := resp.Sample
		if s.UptimeSeconds != nil {
			uptime = strconv.FormatInt(*s.UptimeSeconds, 10) + "s"
		}
		if s.User != nil {
			user = *s.User
		}
		if len(s.Ports) > 0 {
			parts := make([]string, 0, len(s.Ports))
			for _, p := range s.Ports {
				parts = append(parts, strconv.FormatUint(uint64(p), 10))
			}
			ports = strings.Join(parts, ",")
		}
		if s.CPUPercent != nil {
			cpu = fmt.Sprintf("%.1f", *s.CPUPercent)
		}
		if s.MemoryMB != nil {
			mem = fmt.Sprintf("%.1f", *s.MemoryMB)
		}
		if s.Threads != nil {
			threads = strconv.Itoa(int(*s.Threads))
		}
		if s.OpenFiles != nil {
			openFiles = strconv.Itoa(*s.OpenFiles)
		}
		if s.Connections != nil {
			connections = strconv.Itoa(*s.Connections)
		}
		if s.Children != nil {
			children = strconv.Itoa(*s.Children)
		}
		if s.EnvCount != nil {
			envCount = strconv.Itoa(*s.EnvCount)
		}
	}

	lines = append(lines,
		"uptime: "+uptime,
		"command: "+orDash(resp.Command),
		"user: "+user,
		"ports: "+ports,
		"cpu: "+cpu,
		"mem_mb: "+mem,
		"threads: "+threads,
		"open_files: "+openFiles,
		"connections: "+connections,
		"children: "+children,
		"env_count: "+envCount,
	)

	if resp.LogTail != "" {
		lines = append(lines, "", "Logs:", resp.LogTail)
	}

	return strings.Join(lines, "\n")
}

// startText renders a freshly started run.
func startText(snap *model.Run) string {
	return strings.Join([]string{
		"command: " + orDash(snap.Command),
		"status: " + string(snap.Status),
		"pid: " + fmtIntPtr(snap.PID),
		"created_at: " + snap.CreatedAt.Format(time.RFC3339),
	}, "\n")
}

// killText renders a termination result.
func killText(result *model.KillResult) string {
	return strings.Join([]string{
		"status: " + string(result.Status),
		"type: " + string(result.Type),
		"exit_code: " + strconv.Itoa(result.ExitCode),
		"stopped_at: " + result.StoppedAt.Format(time.RFC3339),
	}, "\n")
}

func fmtIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
