// Copyright (C) 2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package precompileconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr(v uint64) *uint64 { return &v }

func TestUpgradeIsActivated(t *testing.T) {
	tests := []struct {
		name    string
		upgrade Upgrade
		at      uint64
		want    bool
	}{
		{"no timestamp", Upgrade{}, 100, false},
		{"before", Upgrade{BlockTimestamp: ptr(200)}, 100, false},
		{"exact", Upgrade{BlockTimestamp: ptr(100)}, 100, true},
		{"after", Upgrade{BlockTimestamp: ptr(50)}, 100, true},
		{"disabled", Upgrade{BlockTimestamp: ptr(50), Disable: true}, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.upgrade.IsActivated(tt.at))
		})
	}
}

func TestUpgradeEqual(t *testing.T) {
	a := &Upgrade{BlockTimestamp: ptr(10)}
	require.True(t, a.Equal(&Upgrade{BlockTimestamp: ptr(10)}))
	require.False(t, a.Equal(&Upgrade{BlockTimestamp: ptr(11)}))
	require.False(t, a.Equal(&Upgrade{}))
	require.False(t, a.Equal(nil))
	require.True(t, (&Upgrade{}).Equal(&Upgrade{}))
	require.False(t, (&Upgrade{Disable: true}).Equal(&Upgrade{}))
}
