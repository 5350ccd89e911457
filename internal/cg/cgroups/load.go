// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux
// +build linux

// Package cgroups reads memory-controller state from cgroupfs, v1 and
// v2. It only reads; writing limits is the harness's job.
package cgroups

import (
	"errors"
	"fmt"
)

const (
	_procPathCGroup    = "/proc/self/cgroup"
	_procPathMountInfo = "/proc/self/mountinfo"
)

// ErrCGroupFSNotFound indicates that the system is not using cgroups.
var ErrCGroupFSNotFound = errors.New("cgroupfs not found")

// MemCG reads the memory-controller state of one process's cgroup.
type MemCG interface {
	// Limit returns the memory ceiling in bytes. ok is false when no
	// ceiling is set.
	Limit() (limit int64, ok bool, err error)
	// Usage returns the cgroup's current memory usage in bytes.
	Usage() (int64, error)
	// OOMKills returns how many times the kernel OOM killer fired in
	// this cgroup. Kernels without the counter read as 0.
	OOMKills() (uint64, error)
	// Version reports the cgroupfs flavor backing the data.
	Version() string
}

// LoadForCurrentProcess resolves the calling process's memory cgroup.
func LoadForCurrentProcess() (MemCG, error) {
	return load(_procPathMountInfo, _procPathCGroup)
}

// Load resolves the memory cgroup of the process with the given pid.
func Load(pid int) (MemCG, error) {
	return load(fmt.Sprintf("/proc/%d/mountinfo", pid), fmt.Sprintf("/proc/%d/cgroup", pid))
}

func load(mountInfoPath, procCGroupPath string) (MemCG, error) {
	mps, err := parseMountInfo(mountInfoPath)
	if err != nil {
		return nil, err
	}
	entries, err := parseProcCGroup(procCGroupPath)
	if err != nil {
		return nil, err
	}

	for _, mp := range mps {
		if mp.FSType == _cgroup2FSType {
			cg, err := newMemCG2(mp, entries)
			if err != nil {
				return nil, err
			}
			return cg, nil
		}
		if mp.FSType == _cgroupFSType {
			cg, err := newMemCG1(mps, entries)
			if err != nil {
				return nil, err
			}
			return cg, nil
		}
	}
	return nil, ErrCGroupFSNotFound
}
