// Copyright 2022 Peleiden
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pelutils

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// HardwareInfo describes the hardware of the current machine.
type HardwareInfo struct {
	// Name of the CPU.
	CPU string
	// Logical cores available to the process.
	Threads int
	// Total system memory in bytes. Zero on platforms where it cannot
	// be determined.
	Memory uint64
	// OS and architecture as reported by the Go runtime.
	OS   string
	Arch string
}

// GetHardwareInfo collects information on the available hardware.
func GetHardwareInfo() HardwareInfo {
	return HardwareInfo{
		CPU:     cpuid.CPU.BrandName,
		Threads: runtime.NumCPU(),
		Memory:  totalMemory(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// String returns a pretty representation of the hardware.
func (h HardwareInfo) String() string {
	lines := []string{
		fmt.Sprintf("CPU:     %s", h.CPU),
		fmt.Sprintf("Threads: %d", h.Threads),
	}
	if h.Memory > 0 {
		lines = append(lines, fmt.Sprintf("RAM:     %.2f GiB", float64(h.Memory)/(1<<30)))
	}
	lines = append(lines, fmt.Sprintf("OS:      %s/%s", h.OS, h.Arch))
	return strings.Join(lines, "\n")
}
