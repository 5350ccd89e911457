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

package cgroups

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// _cgroup2FSType is the cgroup v2 file system type in
	// `/proc/$PID/mountinfo`.
	_cgroup2FSType = "cgroup2"

	_cgroup2MemMaxParam     = "memory.max"
	_cgroup2MemCurrentParam = "memory.current"
	_cgroup2MemEventsParam  = "memory.events"

	_cgroup2MemMaxUnset = "max"
)

// ErrNotV2 indicates that the system is not using cgroups2.
var ErrNotV2 = errors.New("not using cgroups2")

// memCG2 reads the memory controller of a unified (v2) hierarchy.
type memCG2 struct {
	dir string
}

func newMemCG2(mp *MountPoint, entries map[string]*procCGroupEntry) (*memCG2, error) {
	// the v2 entry carries hierarchy ID 0
	var v2entry *procCGroupEntry
	for _, entry := range entries {
		if entry.ID == 0 {
			v2entry = entry
			break
		}
	}
	if v2entry == nil {
		return nil, ErrNotV2
	}
	return &memCG2{dir: filepath.Join(mp.MountPoint, v2entry.Path)}, nil
}

func (cg *memCG2) Limit() (int64, bool, error) {
	f, err := os.Open(filepath.Join(cg.dir, _cgroup2MemMaxParam))
	if err != nil {
		if os.IsNotExist(err) {
			return -1, false, nil
		}
		return -1, false, err
	}
	defer f.Close() // nolint: errcheck

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return -1, false, err
		}
		return -1, false, errors.New("empty memory.max")
	}

	text := scanner.Text()
	if text == _cgroup2MemMaxUnset {
		return -1, false, nil
	}
	limit, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return -1, false, fmt.Errorf("parse memory.max: %w", err)
	}
	return limit, true, nil
}

func (cg *memCG2) Usage() (int64, error) {
	return readInt(filepath.Join(cg.dir, _cgroup2MemCurrentParam))
}

func (cg *memCG2) OOMKills() (uint64, error) {
	return readCounter(filepath.Join(cg.dir, _cgroup2MemEventsParam), _oomKillKey)
}

func (cg *memCG2) Version() string {
	return _cgroup2FSType
}
