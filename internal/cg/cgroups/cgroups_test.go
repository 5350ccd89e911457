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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestParseMountPointLine(t *testing.T) {
	mp, err := parseMountPointLine("25 0 8:1 / / rw,noatime - ext4 /dev/sda1 rw,errors=remount-ro")
	require.NoError(t, err)
	assert.Equal(t, "/", mp.Root)
	assert.Equal(t, "/", mp.MountPoint)
	assert.Equal(t, "ext4", mp.FSType)

	mp, err = parseMountPointLine("30 25 0:26 / /sys/fs/cgroup/memory rw,nosuid shared:12 - cgroup cgroup rw,memory")
	require.NoError(t, err)
	assert.Equal(t, "/sys/fs/cgroup/memory", mp.MountPoint)
	assert.Equal(t, "cgroup", mp.FSType)
	assert.Contains(t, mp.SuperOptions, "memory")

	mp, err = parseMountPointLine("35 25 0:30 / /sys/fs/cgroup rw,nosuid - cgroup2 cgroup2 rw,nsdelegate")
	require.NoError(t, err)
	assert.Equal(t, "cgroup2", mp.FSType)

	_, err = parseMountPointLine("garbage without separator")
	assert.Error(t, err)

	_, err = parseMountPointLine("1 2 - ext4 dev opts")
	assert.Error(t, err)
}

func TestMountPointTranslate(t *testing.T) {
	mp := &MountPoint{Root: "/docker/0123", MountPoint: "/sys/fs/cgroup/memory"}

	p, err := mp.Translate("/docker/0123/large")
	require.NoError(t, err)
	assert.Equal(t, "/sys/fs/cgroup/memory/large", p)

	p, err = mp.Translate("/docker/0123")
	require.NoError(t, err)
	assert.Equal(t, "/sys/fs/cgroup/memory", p)

	_, err = mp.Translate("/elsewhere")
	assert.Error(t, err)
}

func TestParseProcCGroupLine(t *testing.T) {
	entry, err := parseProcCGroupLine("7:memory:/user.slice")
	require.NoError(t, err)
	assert.Equal(t, 7, entry.ID)
	assert.Equal(t, []string{"memory"}, entry.Controllers)
	assert.Equal(t, "/user.slice", entry.Path)

	// the unified hierarchy entry has ID 0 and no controller list
	entry, err = parseProcCGroupLine("0::/init.scope")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.ID)
	assert.Equal(t, "/init.scope", entry.Path)

	_, err = parseProcCGroupLine("not a cgroup line")
	assert.Error(t, err)

	_, err = parseProcCGroupLine("x:memory:/")
	assert.Error(t, err)
}

func TestMemCG2(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.max", "104857600\n")
	writeFile(t, dir, "memory.current", "52428800\n")
	writeFile(t, dir, "memory.events", "low 0\nhigh 0\nmax 4\noom 1\noom_kill 2\n")

	cg := &memCG2{dir: dir}

	limit, ok, err := cg.Limit()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 104857600, limit)

	usage, err := cg.Usage()
	require.NoError(t, err)
	assert.EqualValues(t, 52428800, usage)

	kills, err := cg.OOMKills()
	require.NoError(t, err)
	assert.EqualValues(t, 2, kills)

	assert.Equal(t, "cgroup2", cg.Version())
}

func TestMemCG2UnsetLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.max", "max\n")

	cg := &memCG2{dir: dir}
	_, ok, err := cg.Limit()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemCG2MissingEventsReadAsZero(t *testing.T) {
	cg := &memCG2{dir: t.TempDir()}
	kills, err := cg.OOMKills()
	require.NoError(t, err)
	assert.Zero(t, kills)
}

func TestMemCG1(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "memory.limit_in_bytes", "52428800\n")
	writeFile(t, dir, "memory.usage_in_bytes", "1048576\n")
	writeFile(t, dir, "memory.oom_control", "oom_kill_disable 0\nunder_oom 0\noom_kill 3\n")

	cg := &memCG1{dir: dir}

	limit, ok, err := cg.Limit()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 52428800, limit)

	usage, err := cg.Usage()
	require.NoError(t, err)
	assert.EqualValues(t, 1048576, usage)

	kills, err := cg.OOMKills()
	require.NoError(t, err)
	assert.EqualValues(t, 3, kills)

	assert.Equal(t, "cgroup", cg.Version())
}

func TestMemCG1UnsetLimit(t *testing.T) {
	dir := t.TempDir()
	// PAGE_COUNTER_MAX, what v1 reports when no limit is set
	writeFile(t, dir, "memory.limit_in_bytes", "9223372036854771712\n")

	cg := &memCG1{dir: dir}
	_, ok, err := cg.Limit()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadCounter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "events", "oom 1\noom_kill 42\n")

	n, err := readCounter(filepath.Join(dir, "events"), "oom_kill")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)

	n, err = readCounter(filepath.Join(dir, "events"), "absent")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = readCounter(filepath.Join(dir, "nonexistent"), "oom_kill")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadForCurrentProcess(t *testing.T) {
	mcg, err := LoadForCurrentProcess()
	if err != nil {
		t.Skipf("no readable cgroup state: %v", err)
	}

	assert.NotEmpty(t, mcg.Version())

	if usage, err := mcg.Usage(); err == nil {
		assert.GreaterOrEqual(t, usage, int64(0))
	}
	if limit, ok, err := mcg.Limit(); err == nil && ok {
		assert.Greater(t, limit, int64(0))
	}
}
