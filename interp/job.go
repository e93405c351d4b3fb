package interp

import (
	"fmt"
	"strconv"
	"strings"

	"goyash.dev/goyash/system"
)

// JobState is a job's place in the job-control state machine.
type JobState int

const (
	JobRunning JobState = iota
	JobStopped
	JobDone
)

func (s JobState) String() string {
	switch s {
	case JobRunning:
		return "Running"
	case JobStopped:
		return "Stopped"
	case JobDone:
		return "Done"
	default:
		return "?"
	}
}

// Job is one entry of the job table: a process group launched for a
// pipeline, tracked from its initial fork through reaping.
type Job struct {
	ID      int
	Pgid    int
	Name    string // the job's source text, for "jobs" output
	State   JobState
	Status  ExitStatus
	// Controlled is true when the job was launched under job control
	// (its own process group, eligible for fg/bg); async commands
	// started while monitor mode is off run in the shell's own group
	// and are not Controlled.
	Controlled bool
}

// AddJob appends a new job and marks it current, demoting the
// previous current job to previous.
func (env *Environment) AddJob(j *Job) *Job {
	j.ID = len(env.Jobs) + 1
	env.Jobs = append(env.Jobs, j)
	env.previousJob = env.currentJob
	env.currentJob = len(env.Jobs) - 1
	return j
}

// RemoveDoneJobs drops every job in the Done state from the table,
// the cleanup "wait" performs after collecting job statuses.
func (env *Environment) RemoveDoneJobs() {
	kept := env.Jobs[:0]
	for _, j := range env.Jobs {
		if j.State != JobDone {
			kept = append(kept, j)
		}
	}
	env.Jobs = kept
	if env.currentJob >= len(env.Jobs) {
		env.currentJob = len(env.Jobs) - 1
	}
	if env.previousJob >= len(env.Jobs) {
		env.previousJob = len(env.Jobs) - 1
	}
}

// JobByIDSpec resolves one of the job-ID forms from spec §4.J:
// "%%"/"%+" (current), "%-" (previous), "%n" (job number), "%string"
// (name prefix match), "%?string" (name substring match).
func (env *Environment) JobByIDSpec(spec string) (*Job, error) {
	spec = strings.TrimPrefix(spec, "%")
	switch {
	case spec == "" || spec == "%" || spec == "+":
		if env.currentJob < 0 {
			return nil, fmt.Errorf("no current job")
		}
		return env.Jobs[env.currentJob], nil
	case spec == "-":
		if env.previousJob < 0 {
			return nil, fmt.Errorf("no previous job")
		}
		return env.Jobs[env.previousJob], nil
	case spec[0] >= '0' && spec[0] <= '9':
		n, err := strconv.Atoi(spec)
		if err != nil {
			return nil, fmt.Errorf("bad job id %q", spec)
		}
		for _, j := range env.Jobs {
			if j.ID == n {
				return j, nil
			}
		}
		return nil, fmt.Errorf("no such job %%%d", n)
	case strings.HasPrefix(spec, "?"):
		needle := spec[1:]
		for i := len(env.Jobs) - 1; i >= 0; i-- {
			if strings.Contains(env.Jobs[i].Name, needle) {
				return env.Jobs[i], nil
			}
		}
		return nil, fmt.Errorf("no job containing %q", needle)
	default:
		for i := len(env.Jobs) - 1; i >= 0; i-- {
			if strings.HasPrefix(env.Jobs[i].Name, spec) {
				return env.Jobs[i], nil
			}
		}
		return nil, fmt.Errorf("no job starting with %q", spec)
	}
}

// JobByPid finds the job whose process (group) ID is pid, the form
// "wait $!" uses: "$!" expands to a bare PID, not a "%spec".
func (env *Environment) JobByPid(pid int) (*Job, error) {
	for _, j := range env.Jobs {
		if j.Pgid == pid {
			return j, nil
		}
	}
	return nil, fmt.Errorf("no such job with pid %d", pid)
}

// CurrentJob and PreviousJob return the job table's "%%" and "%-"
// entries, or nil if there is none.
func (env *Environment) CurrentJob() *Job {
	if env.currentJob < 0 {
		return nil
	}
	return env.Jobs[env.currentJob]
}

func (env *Environment) PreviousJob() *Job {
	if env.previousJob < 0 {
		return nil
	}
	return env.Jobs[env.previousJob]
}

// Foreground hands the controlling terminal to j's process group,
// sends it SIGCONT and marks it running if it was stopped, and gives
// the terminal back to the shell's own group on return. It does not
// wait for the job: the status it returns is j.Status as last
// recorded.
func (env *Environment) Foreground(j *Job) (ExitStatus, error) {
	if !j.Controlled || env.Sys == nil {
		return j.Status, nil
	}
	shellPgid, err := env.Sys.Getpgid(0)
	if err != nil {
		return j.Status, err
	}
	if err := env.Sys.Tcsetpgrp(0, j.Pgid); err != nil {
		return j.Status, err
	}
	defer env.Sys.Tcsetpgrp(0, shellPgid)

	if j.State == JobStopped {
		if err := env.Sys.SignalGroup(j.Pgid, system.SIGCONT); err != nil {
			return j.Status, err
		}
		j.State = JobRunning
	}
	return j.Status, nil
}

// Background resumes a stopped job in the background, sending
// SIGCONT without touching the controlling terminal.
func (env *Environment) Background(j *Job) error {
	if j.State != JobStopped || env.Sys == nil {
		return nil
	}
	if err := env.Sys.SignalGroup(j.Pgid, system.SIGCONT); err != nil {
		return err
	}
	j.State = JobRunning
	return nil
}
