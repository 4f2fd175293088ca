package tally_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for tally service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "tally-test:latest"
	mailpitImage  = "axllent/mailpit:v1.20"

	adminUsername = "admin"
	adminPassword = "Admin123!"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Tally Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Tally Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/tally/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// stack is a running tally service plus its Mailpit SMTP relay.
type stack struct {
	baseURL    string
	mailpitURL string
}

// setupStack starts Mailpit and the tally service on a shared network and
// returns base URLs for both.
func setupStack(t *testing.T) (*stack, func()) {
	t.Helper()
	ctx := context.Background()

	net, err := network.New(ctx)
	require.NoError(t, err)

	mailpit, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        mailpitImage,
			ExposedPorts: []string{"1025/tcp", "8025/tcp"},
			Networks:     []string{net.Name},
			NetworkAliases: map[string][]string{
				net.Name: {"mailpit"},
			},
			WaitingFor: wait.ForListeningPort("1025/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	service, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Networks:     []string{net.Name},
			Env: map[string]string{
				"TALLY_DATABASE_FILE": "/tmp/tally.db",
				"TALLY_PEPPER_FILE":   "/tmp/pepper",
				"ADMIN_USER":          adminUsername,
				"ADMIN_PASS":          adminPassword,
				"SMTP_HOST":           "mailpit",
				"SMTP_PORT":           "1025",
				"SMTP_FROM":           "noreply@tally.test",
				"ENV":                 "test",
				"LOG_LEVEL":           "info",
				"LOG_FORMAT":          "json",
				// Increase rate limits for E2E tests to prevent test failures
				"RATELIMIT_STRICT_REQUESTS":   "1000",
				"RATELIMIT_STRICT_WINDOW_SEC": "60",
				"RATELIMIT_STRICT_BURST":      "1000",
				"RATELIMIT_MODERATE_REQUESTS": "1000",
				"RATELIMIT_MODERATE_BURST":    "1000",
			},
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	servicePort, err := service.MappedPort(ctx, "8080")
	require.NoError(t, err)
	serviceHost, err := service.Host(ctx)
	require.NoError(t, err)
	baseURL := fmt.Sprintf("http://%s:%s", serviceHost, servicePort.Port())

	mailpitPort, err := mailpit.MappedPort(ctx, "8025")
	require.NoError(t, err)
	mailpitHost, err := mailpit.Host(ctx)
	require.NoError(t, err)
	mailpitURL := fmt.Sprintf("http://%s:%s", mailpitHost, mailpitPort.Port())

	cleanup := func() {
		if err := service.Terminate(ctx); err != nil {
			t.Logf("failed to terminate service container: %v", err)
		}
		if err := mailpit.Terminate(ctx); err != nil {
			t.Logf("failed to terminate mailpit container: %v", err)
		}
		if err := net.Remove(ctx); err != nil {
			t.Logf("failed to remove network: %v", err)
		}
	}

	return &stack{baseURL: baseURL, mailpitURL: mailpitURL}, cleanup
}

// postJSON sends a JSON body and decodes the JSON response into out (when
// out is non-nil). Returns the status code.
func (s *stack) postJSON(t *testing.T, path, token string, body, out any) int {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return doJSON(t, req, out)
}

func (s *stack) getJSON(t *testing.T, path, token string, out any) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.baseURL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return doJSON(t, req, out)
}

func doJSON(t *testing.T, req *http.Request, out any) int {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		if len(raw) > 0 {
			require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
		}
	}
	return resp.StatusCode
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

var svgTextRe = regexp.MustCompile(`>([\d ]+)</text>`)

// digitsFromSVG recovers the captcha answer from the rendered markup; the
// digits sit space-separated in the single text node.
func digitsFromSVG(t *testing.T, svg string) string {
	t.Helper()

	m := svgTextRe.FindStringSubmatch(svg)
	require.NotNil(t, m, "no digits in captcha svg: %s", svg)
	return strings.ReplaceAll(m[1], " ", "")
}

// fetchEmailCode polls the Mailpit API for the newest message to the address
// and extracts the 6-digit verification code from its text body.
func (s *stack) fetchEmailCode(t *testing.T, email string) string {
	t.Helper()

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		var list struct {
			Messages []struct {
				ID string `json:"ID"`
				To []struct {
					Address string `json:"Address"`
				} `json:"To"`
			} `json:"messages"`
		}

		req, err := http.NewRequest(http.MethodGet, s.mailpitURL+"/api/v1/messages", nil)
		require.NoError(t, err)
		if doJSON(t, req, &list) == http.StatusOK {
			for _, msg := range list.Messages {
				for _, to := range msg.To {
					if to.Address != email {
						continue
					}

					var detail struct {
						Text string `json:"Text"`
					}
					req, err := http.NewRequest(http.MethodGet, s.mailpitURL+"/api/v1/message/"+msg.ID, nil)
					require.NoError(t, err)
					require.Equal(t, http.StatusOK, doJSON(t, req, &detail))

					if m := codeRe.FindStringSubmatch(detail.Text); m != nil {
						return m[1]
					}
				}
			}
		}

		time.Sleep(500 * time.Millisecond)
	}

	t.Fatalf("no verification mail for %s arrived in time", email)
	return ""
}

// registerUser walks the full signup flow: request a code, read it from
// Mailpit, register. Returns the session token.
func (s *stack) registerUser(t *testing.T, email, password string) string {
	t.Helper()

	status := s.postJSON(t, "/api/send-code", "", map[string]string{"email": email}, nil)
	require.Equal(t, http.StatusOK, status)

	code := s.fetchEmailCode(t, email)

	var res struct {
		Token string `json:"token"`
	}
	status = s.postJSON(t, "/api/register", "", map[string]string{
		"email":    email,
		"password": password,
		"code":     code,
	}, &res)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, res.Token)
	return res.Token
}
