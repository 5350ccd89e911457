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
	"path/filepath"
	"strings"
)

// MountPoint holds the fields of one `/proc/$PID/mountinfo` line this
// package cares about. See proc(5).
type MountPoint struct {
	Root         string
	MountPoint   string
	FSType       string
	SuperOptions []string
}

// parseMountPointLine parses a mountinfo line. The optional fields
// before the " - " separator vary in count, so the second half is
// located via the separator rather than by field index.
func parseMountPointLine(line string) (*MountPoint, error) {
	sep := strings.Index(line, " - ")
	if sep < 0 {
		return nil, fmt.Errorf("invalid mountinfo line: %q", line)
	}

	first := strings.Fields(line[:sep])
	second := strings.Fields(line[sep+3:])
	if len(first) < 6 || len(second) < 3 {
		return nil, fmt.Errorf("invalid mountinfo line: %q", line)
	}

	return &MountPoint{
		Root:         first[3],
		MountPoint:   first[4],
		FSType:       second[0],
		SuperOptions: strings.Split(second[2], ","),
	}, nil
}

// Translate converts an absolute path inside the mount point's file
// system to a path in the mount namespace the mount point belongs to.
func (mp *MountPoint) Translate(absPath string) (string, error) {
	relPath, err := filepath.Rel(mp.Root, absPath)
	if err != nil {
		return "", err
	}
	if relPath == ".." || strings.HasPrefix(relPath, "../") {
		return "", fmt.Errorf("path %q is not a descendant of mount root %q", absPath, mp.Root)
	}
	return filepath.Join(mp.MountPoint, relPath), nil
}

func parseMountInfo(procPathMountInfo string) ([]*MountPoint, error) {
	mountInfoFile, err := os.Open(procPathMountInfo)
	if err != nil {
		return nil, err
	}
	defer mountInfoFile.Close() // nolint: errcheck

	scanner := bufio.NewScanner(mountInfoFile)

	mps := make([]*MountPoint, 0, 10)
	for scanner.Scan() {
		mp, err := parseMountPointLine(scanner.Text())
		if err != nil {
			return nil, err
		}
		mps = append(mps, mp)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return mps, nil
}
