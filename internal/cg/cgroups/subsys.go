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
	"fmt"
	"os"
	"strconv"
	"strings"
)

// procCGroupEntry is one line of `/proc/$PID/cgroup`:
// `hierarchy-ID:controller-list:cgroup-path`. The cgroup2 entry has
// hierarchy ID 0 and an empty controller list.
type procCGroupEntry struct {
	ID          int
	Controllers []string
	Path        string
}

func parseProcCGroupLine(line string) (*procCGroupEntry, error) {
	fields := strings.SplitN(line, ":", 3)
	if len(fields) != 3 {
		return nil, fmt.Errorf("invalid cgroup entry: %q", line)
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cgroup entry: %q", line)
	}

	return &procCGroupEntry{
		ID:          id,
		Controllers: strings.Split(fields[1], ","),
		Path:        fields[2],
	}, nil
}

// parseProcCGroup parses procPathCGroup (usually `/proc/$PID/cgroup`)
// into a map keyed by controller name. The cgroup2 entry is keyed by
// the empty string.
func parseProcCGroup(procPathCGroup string) (map[string]*procCGroupEntry, error) {
	cgroupFile, err := os.Open(procPathCGroup)
	if err != nil {
		return nil, err
	}
	defer cgroupFile.Close() // nolint: errcheck

	scanner := bufio.NewScanner(cgroupFile)

	entries := make(map[string]*procCGroupEntry)
	for scanner.Scan() {
		entry, err := parseProcCGroupLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		for _, controller := range entry.Controllers {
			entries[controller] = entry
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
