package job

import (
	"context"
	"sync"
	"time"

	"cronrunner/internal/mail"
	"cronrunner/internal/process"
)

type fakeSpawner struct {
	mu    sync.Mutex
	texts []string
	res   process.Result
	err   error
}

func (f *fakeSpawner) Spawn(ctx context.Context, text string) (process.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.res, f.err
}

type sentMail struct {
	files []string
	to    []string
	cfg   mail.Config
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, files, to []string, cfg mail.Config) error {
	m.sent = append(m.sent, sentMail{files: files, to: to, cfg: cfg})
	return m.err
}

var fixedNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

func testConfig(tempDir string) Config {
	return Config{
		TempDir: tempDir,
		Spawner: &fakeSpawner{},
		Mailer:  &recordingMailer{},
		Clock:   ClockFunc(func() time.Time { return fixedNow }),
	}
}
