// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package haproxy

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/lock"
)

const (
	statusUp      = "UP"
	backendSvName = "BACKEND"
)

type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// HealthChecker reads backend status from the HAProxy admin socket.
type HealthChecker struct {
	socket  string
	timeout time.Duration
	dial    DialFunc
	log     *zap.Logger

	mu      lock.Mutex
	status  map[string]string
	missing map[string]struct{}
}

func NewHealthChecker(socket string, log *zap.Logger) *HealthChecker {
	d := &net.Dialer{}
	return &HealthChecker{
		socket:  socket,
		timeout: 2 * time.Second,
		dial:    d.DialContext,
		log:     log.Named("health"),
		status:  map[string]string{},
		missing: map[string]struct{}{},
	}
}

// Refresh replaces the cached status with a fresh "show stat" snapshot.
// On failure the cache is emptied so every backend reads as unhealthy.
func (h *HealthChecker) Refresh(ctx context.Context) error {
	status, err := h.query(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.status = map[string]string{}
		return err
	}
	h.status = status
	for name := range status {
		delete(h.missing, name)
	}
	return nil
}

// Healthy is true iff the backend exists and HAProxy reports it UP.
func (h *HealthChecker) Healthy(backend string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	st, ok := h.status[backend]
	if !ok {
		if _, logged := h.missing[backend]; !logged {
			h.missing[backend] = struct{}{}
			h.log.Debug("backend not found in haproxy", zap.String("backend", backend))
		}
		return false
	}
	return st == statusUp
}

func (h *HealthChecker) query(ctx context.Context) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	conn, err := h.dial(ctx, "unix", h.socket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to haproxy admin socket %s: %w", h.socket, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := io.WriteString(conn, "show stat\n"); err != nil {
		return nil, fmt.Errorf("failed to query haproxy stats: %w", err)
	}
	out, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read haproxy stats: %w", err)
	}
	return ParseStat(out)
}

// ParseStat extracts the BACKEND row status of every proxy from the CSV
// produced by "show stat".
func ParseStat(out []byte) (map[string]string, error) {
	out = bytes.TrimPrefix(bytes.TrimLeft(out, " \n"), []byte("# "))
	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read stat header: %w", err)
	}
	pxCol, svCol, stCol := -1, -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "pxname":
			pxCol = i
		case "svname":
			svCol = i
		case "status":
			stCol = i
		}
	}
	if pxCol < 0 || svCol < 0 || stCol < 0 {
		return nil, fmt.Errorf("unexpected stat header %q", strings.Join(header, ","))
	}

	res := map[string]string{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse stat line: %w", err)
		}
		if len(rec) <= stCol || len(rec) <= pxCol || len(rec) <= svCol {
			continue
		}
		if rec[svCol] != backendSvName {
			continue
		}
		res[rec[pxCol]] = rec[stCol]
	}
	return res, nil
}
