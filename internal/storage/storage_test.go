package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	logx "cronrunner/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if st != nil || err != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("err = %v, want ErrUnknownDriver", err)
	}
}

func TestStores(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"file", "sqlite"} {
		driver := driver
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "state", "runs.db")
			st, err := Open(Config{Driver: driver, Path: path, BusyTimeout: time.Second}, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			base := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				r := RunRecord{
					At:      base.Add(time.Duration(i) * time.Minute),
					JobID:   fmt.Sprintf("job-%d", i),
					Command: "echo hi",
					Status:  StatusExecuted,
				}
				if i == 4 {
					r.Status, r.Error, r.ExitCode = StatusFailed, "boom", 2
				}
				if err := st.AppendRun(ctx, r); err != nil {
					t.Fatalf("AppendRun: %v", err)
				}
			}

			got, err := st.Recent(ctx, 3)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("len = %d, want 3", len(got))
			}
			if got[0].JobID != "job-4" || got[2].JobID != "job-2" {
				t.Fatalf("order = %s, %s, %s", got[0].JobID, got[1].JobID, got[2].JobID)
			}
			if got[0].Status != StatusFailed || got[0].Error != "boom" || got[0].ExitCode != 2 {
				t.Fatalf("failed record = %+v", got[0])
			}
			if !got[0].At.Equal(base.Add(4 * time.Minute)) {
				t.Fatalf("At = %v", got[0].At)
			}

			if got, _ := st.Recent(ctx, 0); len(got) != 0 {
				t.Fatalf("Recent(0) = %v", got)
			}
		})
	}
}
