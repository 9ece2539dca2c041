package validate

import (
	"testing"

	"github.com/bootstage/bootstage/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contentFixture struct {
	name       string
	content    string
	wantsError bool
}

func TestGenericValidator(t *testing.T) {
	v := ForDomain(model.Generic)
	assert.Equal(t, model.Generic, v.Domain())

	for _, tc := range []contentFixture{
		{name: "plain text", content: "key = value\n"},
		{name: "empty", content: "", wantsError: true},
		{name: "embedded NUL", content: "key\x00value", wantsError: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate("/etc/example.conf", []byte(tc.content))
			if tc.wantsError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBootloaderValidator(t *testing.T) {
	v := ForDomain(model.Bootloader)

	for _, tc := range []contentFixture{
		{
			name:    "command line with root device",
			content: "GRUB_TIMEOUT=5\nGRUB_CMDLINE_LINUX=\"root=/dev/vda1 quiet\"\n",
		},
		{
			name:    "default variant key",
			content: "GRUB_CMDLINE_LINUX_DEFAULT=\"root=UUID=deadbeef nomodeset\"\n",
		},
		{
			name:       "missing root device",
			content:    "GRUB_CMDLINE_LINUX=\"quiet splash\"\n",
			wantsError: true,
		},
		{
			name:       "missing command line key",
			content:    "GRUB_TIMEOUT=5\n# root=/dev/vda1 only in a comment? no:\nGRUB_DISTRIBUTOR=x root=/dev/vda1\n",
			wantsError: true,
		},
		{
			name:       "unbalanced quote",
			content:    "GRUB_CMDLINE_LINUX=\"root=/dev/vda1 quiet\n",
			wantsError: true,
		},
		{
			name:    "comment lines ignored for quoting",
			content: "# don't touch\nGRUB_CMDLINE_LINUX=\"root=/dev/vda1\"\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate("/etc/default/grub", []byte(tc.content))
			if tc.wantsError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBootloaderValidatorExternalParamStore(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/kernel/cmdline",
		[]byte("root=UUID=deadbeef rw quiet\n"), 0o644))

	content := []byte("GRUB_CMDLINE_LINUX=\"quiet splash\"\n")

	// without the external store the content is rejected
	err := ForDomain(model.Bootloader, Filesystem(fs)).Validate("/etc/default/grub", content)
	require.Error(t, err)

	// with it, the root device lives there instead
	v := ForDomain(model.Bootloader, Filesystem(fs), ExternalParamStore("/etc/kernel/cmdline"))
	require.NoError(t, v.Validate("/etc/default/grub", content))

	// an external store without the identifier is still a rejection
	require.NoError(t, afero.WriteFile(fs, "/etc/kernel/cmdline", []byte("rw quiet\n"), 0o644))
	require.Error(t, v.Validate("/etc/default/grub", content))
}

func TestKernelParamsValidator(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, key := range []string{
		"/proc/sys/vm/swappiness",
		"/proc/sys/kernel/numa_balancing",
		"/proc/sys/net/ipv4/ip_forward",
	} {
		require.NoError(t, afero.WriteFile(fs, key, []byte("0\n"), 0o644))
	}
	v := ForDomain(model.KernelParams, Filesystem(fs))

	for _, tc := range []contentFixture{
		{
			name:    "known keys",
			content: "# tuning\nvm.swappiness = 10\nkernel.numa_balancing=0\n",
		},
		{
			name:    "slash notation",
			content: "net/ipv4/ip_forward = 1\n",
		},
		{
			name:    "ignore-missing marker skips the probe",
			content: "-vm.does_not_exist = 1\n",
		},
		{
			name:       "unknown key",
			content:    "vm.does_not_exist = 1\n",
			wantsError: true,
		},
		{
			name:       "no assignment",
			content:    "vm.swappiness\n",
			wantsError: true,
		},
		{
			name:       "malformed key",
			content:    "vm swap = 1\n",
			wantsError: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate("/etc/sysctl.d/99-test.conf", []byte(tc.content))
			if tc.wantsError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestModuleOptionsValidator(t *testing.T) {
	v := ForDomain(model.ModuleOptions)

	for _, tc := range []contentFixture{
		{
			name:    "options and blacklist",
			content: "# gpu\noptions nvidia NVreg_UsePageAttributeTable=1\nblacklist nouveau\n",
		},
		{
			name:    "continuation line",
			content: "options snd-hda-intel \\\n model=generic\n",
		},
		{
			name:       "stray garbage line",
			content:    "options nvidia x=1\nthis is not modprobe syntax\n",
			wantsError: true,
		},
		{
			name:       "directive missing arguments",
			content:    "blacklist\n",
			wantsError: true,
		},
		{
			name:       "comments only",
			content:    "# nothing here\n",
			wantsError: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Validate("/etc/modprobe.d/bootstage.conf", []byte(tc.content))
			if tc.wantsError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
