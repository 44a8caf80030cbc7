package command_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"formula/cli/command"
	"formula/internal/test"

	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptForConfirmation(t *testing.T) {
	var out bytes.Buffer

	ok, err := command.PromptForConfirmation(context.Background(), strings.NewReader("Y\n"), &out, "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Are you sure you want to proceed? [y/N] ", out.String())

	ok, err = command.PromptForConfirmation(context.Background(), strings.NewReader("\n"), &out, "Remove?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptTerminated(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = command.PromptForConfirmation(ctx, r, &bytes.Buffer{}, "")
	assert.ErrorIs(t, err, command.ErrPromptTerminated)
	assert.True(t, errdefs.IsCancelled(err))
}

func TestFetchDescriptorFromURL(t *testing.T) {
	srv := test.NewArtifactServer(t)
	cli := test.NewFakeCli(t)

	rb, err := os.ReadFile(test.Fixture(t, "link-patrol.rb"))
	require.NoError(t, err)
	url := srv.Put("Formula/link-patrol.rb", rb)

	d, err := command.FetchDescriptor(context.Background(), cli, url)
	require.NoError(t, err)
	assert.Equal(t, "link-patrol", d.Name)
	assert.Len(t, d.Rules, 4)

	_, err = command.FetchDescriptor(context.Background(), cli, srv.URL+"/missing.json")
	assert.ErrorContains(t, err, "404")
}

func TestLoadDescriptorInvalidFormula(t *testing.T) {
	file := t.TempDir() + "/bad.rb"
	require.NoError(t, os.WriteFile(file, []byte("class Bad < Formula\n  version \"v1\"\nend\n"), 0o644))

	_, err := command.LoadDescriptor(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.rb")
}

func TestTargetPlatform(t *testing.T) {
	p, err := command.TargetPlatform("Linux/ARM64")
	require.NoError(t, err)
	assert.Equal(t, "linux/arm64", p.String())

	_, err = command.TargetPlatform("plan9")
	assert.Error(t, err)
}
