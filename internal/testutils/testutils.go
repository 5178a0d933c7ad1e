//go:build integration

// Package testutils provides shared test infrastructure for integration tests.
package testutils

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// GenerateTestData generates test data of the given size.
// For files <= 10MB, uses deterministic pattern. For larger files, uses random data.
func GenerateTestData(t *testing.T, size int64) []byte {
	t.Helper()
	data := make([]byte, size)
	if size <= 10*1024*1024 {
		for i := range data {
			data[i] = byte(i % 256)
		}
	} else {
		if _, err := rand.Read(data); err != nil {
			t.Fatalf("generate random data: %v", err)
		}
	}
	return data
}

// ImageServer is an nginx container serving static files.
type ImageServer struct {
	Container testcontainers.Container
	BaseURL   string
}

// URL returns the URL of a served file.
func (s *ImageServer) URL(name string) string {
	return s.BaseURL + "/" + name
}

// Close terminates the container.
func (s *ImageServer) Close(ctx context.Context) error {
	if s.Container != nil {
		return s.Container.Terminate(ctx)
	}
	return nil
}

// StartImageServer starts an nginx container serving files (name to content)
// from its document root. nginx declares Content-Length for static files.
func StartImageServer(t *testing.T, ctx context.Context, files map[string][]byte) *ImageServer {
	t.Helper()

	hostDir := t.TempDir()
	var containerFiles []testcontainers.ContainerFile
	for name, data := range files {
		hostPath := filepath.Join(hostDir, name)
		if err := os.WriteFile(hostPath, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		containerFiles = append(containerFiles, testcontainers.ContainerFile{
			HostFilePath:      hostPath,
			ContainerFilePath: "/usr/share/nginx/html/" + name,
			FileMode:          0o644,
		})
	}

	req := testcontainers.ContainerRequest{
		Image:        "nginx:alpine",
		ExposedPorts: []string{"80/tcp"},
		Files:        containerFiles,
		WaitingFor:   wait.ForHTTP("/").WithPort("80/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start nginx container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "80")
	if err != nil {
		t.Fatalf("get container port: %v", err)
	}

	return &ImageServer{
		Container: container,
		BaseURL:   fmt.Sprintf("http://%s:%s", host, port.Port()),
	}
}
