// Package process finds and cleans up companion client processes left
// behind after a crash.
package process

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/modlunky/lunky/client"
	"github.com/modlunky/lunky/logger"
)

// ClientProcess represents a running client process found on the system.
type ClientProcess struct {
	PID     int    // Process ID
	PPID    int    // Parent process ID, 0 when unknown
	Command string // Full command line, or image name on Windows
}

// supervisorName is the image name of the process that launches clients.
const supervisorName = "lunky"

// FindClientProcesses finds all running processes whose image is the client
// executable. Processes that merely mention it in their arguments are skipped.
func FindClientProcesses() ([]ClientProcess, error) {
	log := logger.WithComponent("process")

	var processes []ClientProcess
	switch runtime.GOOS {
	case "darwin", "linux", "freebsd":
		output, err := exec.Command("pgrep", "-x", client.ExecutableBaseName).Output()
		if err != nil {
			// pgrep returns exit code 1 if no processes found
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
				return processes, nil
			}
			return nil, err
		}

		for _, pid := range parsePgrep(string(output)) {
			psOutput, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "ppid=", "-o", "args=").Output()
			if err != nil {
				continue
			}
			ppid, args, ok := parsePs(string(psOutput))
			if !ok {
				continue
			}
			processes = append(processes, ClientProcess{PID: pid, PPID: ppid, Command: args})
		}

	case "windows":
		filter := "IMAGENAME eq " + client.ExecutableName("windows")
		output, err := exec.Command("tasklist", "/FI", filter, "/FO", "CSV", "/NH").Output()
		if err != nil {
			return nil, err
		}
		processes = parseTasklist(string(output))
	}

	log.Debug("found client processes", "count", len(processes))
	return processes, nil
}

// parsePs splits `ps -o ppid= -o args=` output into the parent PID and the
// command line.
func parsePs(output string) (int, string, bool) {
	output = strings.TrimSpace(output)
	field, rest, _ := strings.Cut(output, " ")
	ppid, err := strconv.Atoi(field)
	if err != nil {
		return 0, "", false
	}
	return ppid, strings.TrimSpace(rest), true
}

// processName returns the image name of pid, or "" if it is not running.
func processName(pid int) string {
	if runtime.GOOS == "windows" {
		return ""
	}
	output, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "comm=").Output()
	if err != nil {
		return ""
	}
	return filepath.Base(strings.TrimSpace(string(output)))
}

// parsePgrep extracts PIDs from pgrep output.
func parsePgrep(output string) []int {
	var pids []int
	for _, field := range strings.Fields(output) {
		pid, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

// parseTasklist extracts processes from `tasklist /FO CSV /NH` output.
func parseTasklist(output string) []ClientProcess {
	var processes []ClientProcess
	for line := range strings.SplitSeq(output, "\n") {
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			continue
		}
		// Remove quotes from PID field
		pid, err := strconv.Atoi(strings.Trim(strings.TrimSpace(fields[1]), "\""))
		if err != nil {
			continue
		}
		processes = append(processes, ClientProcess{
			PID:     pid,
			Command: strings.Trim(strings.TrimSpace(fields[0]), "\""),
		})
	}
	return processes
}

// KillProcess kills a process by PID.
func KillProcess(pid int) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("taskkill", "/F", "/PID", strconv.Itoa(pid)).Run()
	default:
		return exec.Command("kill", "-9", strconv.Itoa(pid)).Run()
	}
}

// FindOrphanedClients returns client processes that no live lunky is
// supervising: their parent is gone or is some other program. PIDs in
// knownPIDs and the current process are never reported.
func FindOrphanedClients(knownPIDs map[int]bool) ([]ClientProcess, error) {
	all, err := FindClientProcesses()
	if err != nil {
		return nil, err
	}
	return filterOrphans(all, knownPIDs, os.Getpid(), processName), nil
}

func filterOrphans(all []ClientProcess, knownPIDs map[int]bool, self int, nameOf func(pid int) string) []ClientProcess {
	log := logger.WithComponent("process")
	var orphans []ClientProcess
	for _, proc := range all {
		if proc.PID == self || knownPIDs[proc.PID] {
			continue
		}
		if proc.PPID > 1 && isSupervisor(nameOf(proc.PPID)) {
			log.Debug("client has a live supervisor", "pid", proc.PID, "ppid", proc.PPID)
			continue
		}
		orphans = append(orphans, proc)
		log.Info("found orphaned client process", "pid", proc.PID, "ppid", proc.PPID, "command", proc.Command)
	}
	return orphans
}

func isSupervisor(name string) bool {
	return strings.TrimSuffix(name, ".exe") == supervisorName
}

// CleanupOrphanedClients kills every client process not in knownPIDs.
// Returns the number of processes killed.
func CleanupOrphanedClients(knownPIDs map[int]bool) (int, error) {
	orphans, err := FindOrphanedClients(knownPIDs)
	if err != nil {
		return 0, err
	}

	log := logger.WithComponent("process")
	killed := 0
	for _, proc := range orphans {
		log.Info("killing orphaned client process", "pid", proc.PID)
		if err := KillProcess(proc.PID); err != nil {
			log.Error("failed to kill process", "pid", proc.PID, "error", err)
			continue
		}
		killed++
	}

	return killed, nil
}
