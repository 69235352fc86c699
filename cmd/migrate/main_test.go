package main

import (
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr  error
	steps  []int
	forced []int
	ups    int
}

func (f *fakeMigrator) Up() error {
	f.ups++
	return f.upErr
}

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Force(v int) error {
	f.forced = append(f.forced, v)
	return nil
}

func TestRunDefaultsToUp(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange}
	require.NoError(t, run(m, nil))
	assert.Equal(t, 1, m.ups)
}

func TestRunDownAndForce(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"down"}))
	require.NoError(t, run(m, []string{"down", "2"}))
	require.NoError(t, run(m, []string{"force", "3"}))
	assert.Equal(t, []int{-1, -2}, m.steps)
	assert.Equal(t, []int{3}, m.forced)
}

func TestRunRejectsBadArgs(t *testing.T) {
	m := &fakeMigrator{}
	assert.Error(t, run(m, []string{"down", "zero"}))
	assert.Error(t, run(m, []string{"force"}))
	assert.Error(t, run(m, []string{"sideways"}))
	assert.Empty(t, m.steps)
}
