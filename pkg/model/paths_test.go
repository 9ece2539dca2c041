package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backupNameFixture struct {
	name    string
	path    string
	encoded string
}

func backupNameTestCases() []backupNameFixture {
	return []backupNameFixture{
		{
			name:    "plain absolute path",
			path:    "/etc/sysctl.d/99-bootstage.conf",
			encoded: "%2Fetc%2Fsysctl.d%2F99-bootstage.conf",
		},
		{
			name:    "path containing a literal percent",
			path:    "/etc/100%.conf",
			encoded: "%2Fetc%2F100%25.conf",
		},
		{
			name:    "path containing the escape sequence itself",
			path:    "/etc/%2F.conf",
			encoded: "%2Fetc%2F%252F.conf",
		},
	}
}

func TestEncodeBackupName(t *testing.T) {
	for _, tc := range backupNameTestCases() {
		t.Run(tc.name, func(t *testing.T) {
			got := EncodeBackupName(tc.path)
			assert.Equal(t, tc.encoded, got)

			back, err := DecodeBackupName(got)
			require.NoError(t, err)
			assert.Equal(t, tc.path, back)
		})
	}
}

func TestDecodeBackupNameRejectsBadEscape(t *testing.T) {
	_, err := DecodeBackupName("%2Fetc%2G")
	require.Error(t, err)
	_, err = DecodeBackupName("trailing%2")
	require.Error(t, err)
}

func TestEncodingIsInjective(t *testing.T) {
	// the two paths an ad-hoc substitution scheme would collapse
	a := EncodeBackupName("/etc/%2F.conf")
	b := EncodeBackupName("/etc//.conf")
	assert.NotEqual(t, a, b)
}

func TestBackupPathLayout(t *testing.T) {
	p := GetBackupPath("20260110T120000Z-0ujsswThIGTUYm2K8FjOOfXtY1K", "/etc/default/grub")
	assert.Equal(t, "20260110T120000Z-0ujsswThIGTUYm2K8FjOOfXtY1K/files/%2Fetc%2Fdefault%2Fgrub", p)
	assert.Equal(t, "r1/manifest.txt", GetPathToManifest("r1"))
	assert.Equal(t, "r1/metadata.json", GetPathToMetadata("r1"))
}

func TestLiveTarget(t *testing.T) {
	got, err := LiveTarget("/var/lib/bootstage/staging", "/var/lib/bootstage/staging/etc/default/grub")
	require.NoError(t, err)
	assert.Equal(t, "/etc/default/grub", got)

	_, err = LiveTarget("/var/lib/bootstage/staging", "/var/lib/bootstage")
	require.Error(t, err)
}
