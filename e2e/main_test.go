package e2e

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

const (
	serverPort    = "8081"
	adminUser     = "testuser"
	adminPassword = "testpass123"
)

var appURL = "http://localhost:" + serverPort

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

func runTestMain(m *testing.M) int {
	workDir, err := os.MkdirTemp("", "assistant-e2e-")
	if err != nil {
		fmt.Printf("Failed to create work dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(workDir)

	binary, err := buildServer(workDir)
	if err != nil {
		fmt.Println(err)
		return 1
	}

	server, err := startServer(binary, workDir)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer stopServer(server)

	if err := waitHealthy(5 * time.Second); err != nil {
		fmt.Println(err)
		return 1
	}

	return m.Run()
}

// buildServer compiles cmd/server into dir. Tests normally run from the e2e
// directory, but running from the module root works too.
func buildServer(dir string) (string, error) {
	pkg := "../cmd/server"
	if _, err := os.Stat(pkg); os.IsNotExist(err) {
		pkg = "./cmd/server"
		if _, err := os.Stat(pkg); err != nil {
			return "", errors.New("could not find cmd/server to build")
		}
	}

	binary := filepath.Join(dir, "assistant-server")
	out, err := exec.Command("go", "build", "-o", binary, pkg).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to build server: %w\n%s", err, out)
	}
	return binary, nil
}

// startServer runs the binary on a fresh SQLite file with a seeded admin
// and every optional integration switched off.
func startServer(binary, dir string) (*exec.Cmd, error) {
	cmd := exec.Command(binary)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"PORT="+serverPort,
		"DB_DRIVER=sqlite",
		"DB_PATH="+filepath.Join(dir, "assistant.db"),
		"ADMIN_USER="+adminUser,
		"ADMIN_PASSWORD="+adminPassword,
		"TELEGRAM_ENABLED=false",
		"REDIS_ENABLED=false",
		"LOG_LEVEL=warn",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start server: %w", err)
	}
	return cmd, nil
}

func waitHealthy(timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(appURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server not healthy after %s", timeout)
}

// stopServer asks for a graceful shutdown and kills the process if it
// does not exit in time.
func stopServer(cmd *exec.Cmd) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		cmd.Process.Kill()
		return
	}
	select {
	case <-done:
	case <-time.After(15 * time.Second):
		fmt.Println("Server did not shut down, killing it")
		cmd.Process.Kill()
	}
}
