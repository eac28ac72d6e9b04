// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/kbase/pkg/uuid"
)

func TestNew_IsVersion7(t *testing.T) {
	parsed, err := googleuuid.Parse(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(7), parsed.Version())
}

func TestValid(t *testing.T) {
	assert.True(t, uuid.Valid(uuid.New()))
	assert.True(t, uuid.Valid("0190a000-0000-7000-8000-000000000001"))
	assert.False(t, uuid.Valid(""))
	assert.False(t, uuid.Valid("ghost"))
	assert.False(t, uuid.Valid("0190a000-0000-7000-8000-00000000000"))
}
