package sched

import "github.com/joeycumines/go-mcsim/proc"

// pickEDF returns the ready job with the smallest absolute deadline,
// ties broken by job identifier for determinism (spec.md §4.5 "schedule(cpu)
// returns the ready job with the smallest absolute_deadline; ties broken by
// job identifier for determinism").
func pickEDF(ready []proc.JobHandle) proc.JobHandle {
	if len(ready) == 0 {
		return nil
	}
	best := ready[0]
	for _, j := range ready[1:] {
		if j.Deadline() < best.Deadline() || (j.Deadline() == best.Deadline() && j.ID() < best.ID()) {
			best = j
		}
	}
	return best
}

func removeJob(list []proc.JobHandle, job proc.JobHandle) []proc.JobHandle {
	for i, j := range list {
		if j.ID() == job.ID() {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
