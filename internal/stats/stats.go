// Package stats samples OS resource metrics for a live process. The
// fields enrich status responses and are best-effort: any probe that the
// OS denies degrades to a missing value, never an error.
package stats

import (
	"sort"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Sample is one point-in-time resource reading for a process tree.
type Sample struct {
	CPUPercent    *float64 `json:"cpu_percent"`
	MemoryMB      *float64 `json:"memory_mb"`
	User          *string  `json:"user"`
	Ports         []uint32 `json:"ports"`
	Threads       *int32   `json:"threads"`
	OpenFiles     *int     `json:"open_files"`
	Connections   *int     `json:"connections"`
	Children      *int     `json:"children"`
	EnvCount      *int     `json:"env_count"`
	UptimeSeconds *int64   `json:"uptime_seconds"`
}

// Collect samples the process with the given PID. It returns nil if the
// process does not exist or cannot be inspected at all.
func Collect(pid int) *Sample {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil
	}

	s := &Sample{}

	if cpu, err := proc.CPUPercent(); err == nil {
		s.CPUPercent = &cpu
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		mb := float64(mem.RSS) / (1024 * 1024)
		s.MemoryMB = &mb
	}
	if user, err := proc.Username(); err == nil {
		s.User = &user
	}
	if threads, err := proc.NumThreads(); err == nil {
		s.Threads = &threads
	}
	if files, err := proc.OpenFiles(); err == nil {
		n := len(files)
		s.OpenFiles = &n
	}
	if conns, err := proc.Connections(); err == nil {
		n := len(conns)
		s.Connections = &n
	}
	if env, err := proc.Environ(); err == nil {
		n := len(env)
		s.EnvCount = &n
	}
	if created, err := proc.CreateTime(); err == nil {
		uptime := time.Now().UnixMilli() - created
		if uptime < 0 {
			uptime = 0
		}
		secs := uptime / 1000
		s.UptimeSeconds = &secs
	}

	children, err := proc.Children()
	if err == nil {
		n := len(children)
		s.Children = &n
	}
	s.Ports = listeningPorts(proc, children)

	return s
}

// listeningPorts gathers the sorted, deduplicated local ports bound by
// the process and its children.
func listeningPorts(proc *process.Process, children []*process.Process) []uint32 {
	seen := make(map[uint32]bool)
	collect := func(p *process.Process) {
		conns, err := p.Connections()
		if err != nil {
			return
		}
		for _, conn := range conns {
			if conn.Laddr.Port != 0 {
				seen[conn.Laddr.Port] = true
			}
		}
	}

	collect(proc)
	for _, child := range children {
		collect(child)
	}

	ports := make([]uint32, 0, len(seen))
	for port := range seen {
		ports = append(ports, port)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}
