// Command healthcheck exits 0 when the sensor API on this host reports
// healthy. It is the container HEALTHCHECK and needs no shell or curl.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	httphandler "github.com/ericfisherdev/sensorhub/internal/adapter/driving/http"
)

const (
	defaultAddr  = "127.0.0.1:8080"
	checkTimeout = 2 * time.Second

	// maxBody caps how much of the health response is read.
	maxBody = 4 << 10
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	url := healthURL(os.Getenv("SENSORAPI_LISTEN_ADDR"))
	if err := checkHealth(ctx, &http.Client{Timeout: checkTimeout}, url); err != nil {
		logger.Error("unhealthy", "url", url, "error", err)
		os.Exit(1)
	}
}

func healthURL(listenAddr string) string {
	return "http://" + normalizeAddr(listenAddr) + "/health"
}

// checkHealth requires a 200 whose JSON body reports status "ok". A server
// that answers on the port but is not the sensor API fails.
func checkHealth(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request health: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body httphandler.HealthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("reported status %q", body.Status)
	}
	return nil
}

// normalizeAddr turns a listen address into one the check can dial. A
// bind-all host becomes loopback since the check runs beside the server.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}

	switch host {
	case "", "0.0.0.0":
		host = "127.0.0.1"
	case "::":
		host = "::1"
	}
	return net.JoinHostPort(host, port)
}
