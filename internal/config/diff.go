package config

import (
	"slices"
	"strings"

	logx "cronrunner/pkg/logx"
)

// SummarizeChange lists the changed sections and safe fields for a reload
// log line. The SMTP password is never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	var (
		changed []string
		attrs   []logx.Field
	)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	oldS, newS := oldCfg.Scheduler, newCfg.Scheduler
	if oldS.TempDir != newS.TempDir || oldS.Shell != newS.Shell || oldS.PollInterval != newS.PollInterval ||
		oldS.Retention != newS.Retention || !slices.Equal(oldS.WorkSeconds, newS.WorkSeconds) ||
		hashJSON(oldS.Email) != hashJSON(newS.Email) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.String("scheduler.temp_dir", newS.TempDir),
			logx.Bool("scheduler.email_host_set", strings.TrimSpace(newS.Mail().Host) != ""),
		)
	}

	if hashJSON(oldCfg.Storage) != hashJSON(newCfg.Storage) {
		changed = append(changed, "storage")
	}

	added, removed, modified := diffJobs(oldCfg.Jobs, newCfg.Jobs)
	if len(added)+len(removed)+len(modified) > 0 {
		changed = append(changed, "jobs")
		attrs = append(attrs,
			logx.Int("jobs.count", len(newCfg.Jobs)),
			logx.Strings("jobs.added", added),
			logx.Strings("jobs.removed", removed),
			logx.Strings("jobs.modified", modified),
		)
	}
	return changed, attrs
}

// diffJobs keys jobs by id, falling back to command or script.
func diffJobs(oldJobs, newJobs []JobConfig) (added, removed, modified []string) {
	key := func(j JobConfig) string {
		switch {
		case strings.TrimSpace(j.ID) != "":
			return j.ID
		case j.Command != "":
			return j.Command
		default:
			return j.Script
		}
	}
	oldM := make(map[string]uint64, len(oldJobs))
	for _, j := range oldJobs {
		oldM[key(j)] = hashJSON(j)
	}
	newM := make(map[string]uint64, len(newJobs))
	for _, j := range newJobs {
		newM[key(j)] = hashJSON(j)
	}

	for k, h := range newM {
		oh, ok := oldM[k]
		switch {
		case !ok:
			added = append(added, k)
		case oh != h:
			modified = append(modified, k)
		}
	}
	for k := range oldM {
		if _, ok := newM[k]; !ok {
			removed = append(removed, k)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	slices.Sort(modified)
	return added, removed, modified
}
