package daemonrun_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/gofrs/flock"

	"drivemover/internal/config"
	"drivemover/internal/daemonrun"
	"drivemover/internal/logging"
	"drivemover/internal/mover"
	"drivemover/internal/remote"
	"drivemover/internal/services"
	"drivemover/internal/testsupport"
)

func fakeOptions(drive *testsupport.FakeDrive, gotCookie *string) daemonrun.Options {
	return daemonrun.Options{
		Once:   true,
		Logger: logging.NewNop(),
		NewClient: func(_ *config.Config, cookie string) remote.Client {
			if gotCookie != nil {
				*gotCookie = cookie
			}
			return drive
		},
	}
}

func TestRunOnceMovesAndPersistsCredential(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Remote.Cookie = "UID=1; CID=2"
	drive := testsupport.NewFakeDrive()
	drive.AddFile("/incoming", "movie.mkv", 1024*1024)
	target := drive.MkdirAll("/library")

	var cookie string
	result, err := daemonrun.Run(context.Background(), cfg, fakeOptions(drive, &cookie))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reason != mover.ReasonCompleted || result.Totals.Moved != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if cookie != "UID=1; CID=2" {
		t.Fatalf("client built with cookie %q", cookie)
	}
	if names := drive.FileNames(target); len(names) != 1 {
		t.Fatalf("expected file moved, got %v", names)
	}
	data, err := os.ReadFile(cfg.CookieFile())
	if err != nil {
		t.Fatalf("read cookie file: %v", err)
	}
	if string(data) != "UID=1; CID=2\n" {
		t.Fatalf("unexpected persisted cookie %q", data)
	}
	if _, err := os.Stat(cfg.PIDFile()); !os.IsNotExist(err) {
		t.Fatalf("expected pid file removed, stat err=%v", err)
	}
}

func TestRunUsesStoredCredential(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.WriteFile(cfg.CookieFile(), []byte("stored-cookie\n"), 0o600); err != nil {
		t.Fatalf("write cookie: %v", err)
	}
	drive := testsupport.NewFakeDrive()
	drive.MkdirAll("/incoming")
	drive.MkdirAll("/library")

	var cookie string
	if _, err := daemonrun.Run(context.Background(), cfg, fakeOptions(drive, &cookie)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cookie != "stored-cookie" {
		t.Fatalf("expected stored cookie, got %q", cookie)
	}
}

func TestRunWithoutCredentialIsConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonrun.Run(context.Background(), cfg, fakeOptions(testsupport.NewFakeDrive(), nil))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunWithoutMappingsIsConfigurationError(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMappings())
	cfg.Remote.Cookie = "c"
	_, err := daemonrun.Run(context.Background(), cfg, fakeOptions(testsupport.NewFakeDrive(), nil))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunStopsWhenSessionRejectedAtStartup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Remote.Cookie = "expired"
	drive := testsupport.NewFakeDrive()
	drive.Identity = remote.Identity{Success: false}

	result, err := daemonrun.Run(context.Background(), cfg, fakeOptions(drive, nil))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reason != mover.ReasonSessionExpired {
		t.Fatalf("unexpected reason %s", result.Reason)
	}
	if _, err := os.Stat(cfg.CookieFile()); !os.IsNotExist(err) {
		t.Fatalf("rejected cookie must not be persisted, stat err=%v", err)
	}
	if drive.Calls("ListFiles") != 0 {
		t.Fatalf("no scan expected after rejected session")
	}
}

func TestRunRefusesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Remote.Cookie = "c"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockFile())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	_, err = daemonrun.Run(context.Background(), cfg, fakeOptions(testsupport.NewFakeDrive(), nil))
	if !errors.Is(err, daemonrun.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}
