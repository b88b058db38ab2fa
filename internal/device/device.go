// Package device builds the host-identity row upserted at the start of
// every session, per spec.md 3's "Device" entity.
package device

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"golang.org/x/sync/singleflight"

	"github.com/oklog/ulid/v2"
)

// State is the literal placeholder spec.md leaves silent on: the original
// source never resolves its "multiple device versions" TODO, so this
// carries the same "SINGLETON" value forward (see DESIGN.md supplemented
// feature 5).
const State = "SINGLETON"

// Device is the explicit value constructed at CLI entry and threaded
// through the session, replacing the original's process-wide lazily
// initialized singleton per spec.md 9's "Global mutable state" design note.
type Device struct {
	DeviceID string
	Name     string
	Boundary string
}

// New constructs a Device named from the local hostname, generating a fresh
// ULID for DeviceID. boundary partitions devices sharing a name (e.g.
// "local", "ci", a tenant id); an empty boundary is valid.
func New(boundary string) (Device, error) {
	name, err := os.Hostname()
	if err != nil {
		name = "unknown"
	}
	return Device{
		DeviceID: ulid.Make().String(),
		Name:     name,
		Boundary: boundary,
	}, nil
}

// sysinfoGroup collapses concurrent sysinfo snapshot requests within a
// process so repeated session starts in short succession don't each pay the
// full gopsutil collection cost.
var sysinfoGroup singleflight.Group

// Sysinfo is the JSON shape stored in device.state_sysinfo: a host/cpu/mem
// snapshot, the Go analog of the original's `sysinfo` crate dump.
type Sysinfo struct {
	Host       *host.InfoStat    `json:"host,omitempty"`
	CPUCount   int               `json:"cpu_count"`
	MemTotal   uint64            `json:"mem_total_bytes"`
	MemUsed    uint64            `json:"mem_used_bytes"`
	MemPercent float64           `json:"mem_used_percent"`
}

// StateSysinfoJSON captures a point-in-time host snapshot and serialises it,
// mirroring device.rs's `state_sysinfo_json`.
func StateSysinfoJSON(ctx context.Context) (string, error) {
	v, err, _ := sysinfoGroup.Do("sysinfo", func() (any, error) {
		return collectSysinfo(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("device.StateSysinfoJSON: %w", err)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("device.StateSysinfoJSON: marshal: %w", err)
	}
	return string(b), nil
}

func collectSysinfo(ctx context.Context) (*Sysinfo, error) {
	info := &Sysinfo{}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		info.Host = hi
	}
	if counts, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUCount = counts
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemTotal = vm.Total
		info.MemUsed = vm.Used
		info.MemPercent = vm.UsedPercent
	}
	return info, nil
}

// StateJSON returns the literal device.state value, JSON-quoted as the
// original does (`serde_json::to_string_pretty(&json!("SINGLETON"))`).
func StateJSON() string {
	b, _ := json.Marshal(State)
	return string(b)
}
