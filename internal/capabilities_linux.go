package internal

import (
	"os"

	"github.com/syndtr/gocapability/capability"
)

// Capabilities that change what inotify_add_watch will accept.
type Capabilities struct {
	// CAP_DAC_READ_SEARCH allows watching paths the process can't read.
	DACReadSearch bool
	// CAP_SYS_ADMIN allows raising the fs.inotify.* limits.
	SysAdmin bool
}

// ProcessCapabilities returns the effective capabilities of this process.
func ProcessCapabilities() (Capabilities, error) {
	c, err := capability.NewPid2(os.Getpid())
	if err != nil {
		return Capabilities{}, err
	}
	if err := c.Load(); err != nil {
		return Capabilities{}, err
	}
	return Capabilities{
		DACReadSearch: c.Get(capability.EFFECTIVE, capability.CAP_DAC_READ_SEARCH),
		SysAdmin:      c.Get(capability.EFFECTIVE, capability.CAP_SYS_ADMIN),
	}, nil
}
